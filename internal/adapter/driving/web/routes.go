package web

import (
	"io/fs"
	"net/http"
)

// RegisterRoutes registers all web GUI routes on the provided mux.
// The page is served at / and its actions under /app/pages/{page}/.
// Static assets are served from the embedded filesystem at /static/*.
func RegisterRoutes(mux *http.ServeMux, h *Handler) {
	// Static assets (embedded via go:embed).
	staticFS, _ := fs.Sub(StaticFS, "static")
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticFS)))

	// Page routes.
	mux.HandleFunc("GET /{$}", h.Index)
	mux.HandleFunc("POST /app/pages/{page}/draft", h.UpdateDraft)
	mux.HandleFunc("POST /app/pages/{page}/visibility", h.ToggleVisibility)
	mux.HandleFunc("POST /app/pages/{page}/commit", h.Commit)
	mux.HandleFunc("POST /app/pages/{page}/fetch", h.Fetch)
	mux.HandleFunc("POST /app/pages/{page}/sort", h.ToggleSort)
}
