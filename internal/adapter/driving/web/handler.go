// Package web implements the HTML GUI driving adapter using templ components.
package web

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"

	"github.com/ericfisherdev/tinkerstudio/internal/adapter/driving/web/templates"
	"github.com/ericfisherdev/tinkerstudio/internal/application"
)

// Handler is the web GUI driving adapter that serves the model browser page.
type Handler struct {
	pages      *application.PageRegistry
	noticeHTML string
	logger     *slog.Logger
}

// NewHandler creates a Handler. notice is markdown shown under the API key
// label; it is rendered and sanitized once here.
func NewHandler(pages *application.PageRegistry, notice string, logger *slog.Logger) *Handler {
	return &Handler{
		pages:      pages,
		noticeHTML: RenderMarkdown(notice),
		logger:     logger,
	}
}

// Index opens a fresh page and renders the full layout. Every load starts
// from an empty credential and no models.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	token := csrfToken(w, r)
	pageID, browser := h.pages.Open()

	panel := templates.BrowserPanel(toBrowserViewModel(pageID, token, h.noticeHTML, browser.Snapshot()))
	h.render(w, r, templates.Layout(pageTitle, panel))
}

// UpdateDraft stores the live-edited draft credential and re-renders the
// Save control.
func (h *Handler) UpdateDraft(w http.ResponseWriter, r *http.Request) {
	h.pageAction(w, r, fragmentSave, func(_ *http.Request, b *application.ModelBrowser) {
		applyDraft(r, b)
	})
}

// ToggleVisibility switches the draft between masked and plain text.
func (h *Handler) ToggleVisibility(w http.ResponseWriter, r *http.Request) {
	h.pageAction(w, r, fragmentPanel, func(r *http.Request, b *application.ModelBrowser) {
		applyDraft(r, b)
		b.ToggleCredentialVisibility()
	})
}

// Commit copies the draft credential to the active credential.
func (h *Handler) Commit(w http.ResponseWriter, r *http.Request) {
	h.pageAction(w, r, fragmentPanel, func(r *http.Request, b *application.ModelBrowser) {
		applyDraft(r, b)
		b.Commit()
	})
}

// Fetch requests the supported models with the active credential. The fetch
// is detached from request cancellation so an abandoned request still
// settles the page state.
func (h *Handler) Fetch(w http.ResponseWriter, r *http.Request) {
	h.pageAction(w, r, fragmentPanel, func(r *http.Request, b *application.ModelBrowser) {
		b.Fetch(context.WithoutCancel(r.Context()))
	})
}

// ToggleSort flips the sort direction of the results table.
func (h *Handler) ToggleSort(w http.ResponseWriter, r *http.Request) {
	h.pageAction(w, r, fragmentPanel, func(_ *http.Request, b *application.ModelBrowser) {
		b.ToggleSort()
	})
}

// fragment selects what an htmx request gets back.
type fragment int

const (
	fragmentPanel fragment = iota
	fragmentSave
)

// pageAction validates the request, resolves the page, applies action and
// renders the result: a fragment for htmx requests, the full page otherwise.
func (h *Handler) pageAction(w http.ResponseWriter, r *http.Request, frag fragment, action func(*http.Request, *application.ModelBrowser)) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	if !validateCSRF(r) {
		http.Error(w, "invalid csrf token", http.StatusForbidden)
		return
	}

	pageID := r.PathValue("page")
	browser, ok := h.pages.Get(pageID)
	if !ok {
		redirectHome(w, r)
		return
	}

	action(r, browser)

	token := csrfToken(w, r)
	vm := toBrowserViewModel(pageID, token, h.noticeHTML, browser.Snapshot())

	if !isHTMX(r) {
		h.render(w, r, templates.Layout(pageTitle, templates.BrowserPanel(vm)))
		return
	}

	switch frag {
	case fragmentSave:
		h.render(w, r, templates.SaveControl(vm))
	default:
		h.render(w, r, templates.BrowserPanel(vm))
	}
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")

	if err := c.Render(r.Context(), w); err != nil {
		h.logger.Error("failed to render page", "path", r.URL.Path, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

// applyDraft copies the submitted draft into the browser when the form
// carried one.
func applyDraft(r *http.Request, b *application.ModelBrowser) {
	if r.PostForm.Has("draft") {
		b.SetDraft(r.PostForm.Get("draft"))
	}
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// redirectHome sends the client to a fresh page after its page expired.
func redirectHome(w http.ResponseWriter, r *http.Request) {
	if isHTMX(r) {
		w.Header().Set("HX-Redirect", "/")
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
