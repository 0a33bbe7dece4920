package web_test

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/ericfisherdev/tinkerstudio/internal/adapter/driving/web"
	"github.com/ericfisherdev/tinkerstudio/internal/application"
	"github.com/ericfisherdev/tinkerstudio/internal/domain/model"
	"github.com/ericfisherdev/tinkerstudio/internal/domain/port/driven"
)

// --- Mock implementations ---

type fakeCatalog struct {
	mu          sync.Mutex
	credentials []string
	fetch       func(ctx context.Context) ([]model.SupportedModel, error)
}

func (f *fakeCatalog) FetchModels(ctx context.Context, credential string) ([]model.SupportedModel, error) {
	f.mu.Lock()
	f.credentials = append(f.credentials, credential)
	fetch := f.fetch
	f.mu.Unlock()
	return fetch(ctx)
}

func (f *fakeCatalog) respond(models []model.SupportedModel, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetch = func(context.Context) ([]model.SupportedModel, error) { return models, err }
}

func (f *fakeCatalog) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.credentials...)
}

// --- Test harness ---

var (
	pageIDPattern  = regexp.MustCompile(`/app/pages/([^/"]+)/fetch`)
	rowPattern     = regexp.MustCompile(`<td>([^<]*)</td>`)
	saveButton     = regexp.MustCompile(`<button[^>]*>Save</button>`)
	fetchButton    = regexp.MustCompile(`<button type="submit" class="primary"[^>]*><span class="label">([^<]*)</span>`)
	passwordInput  = regexp.MustCompile(`<input id="api-key"[^>]*type="password"`)
	plainTextInput = regexp.MustCompile(`<input id="api-key"[^>]*type="text"`)
)

type harness struct {
	t       *testing.T
	catalog *fakeCatalog
	pages   *application.PageRegistry
	mux     *http.ServeMux
	cookie  *http.Cookie
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	catalog := &fakeCatalog{}
	catalog.respond([]model.SupportedModel{}, nil)

	sorter := application.NewModelSorter(language.Und)
	pages := application.NewPageRegistry(func() *application.ModelBrowser {
		return application.NewModelBrowser(catalog, sorter, logger)
	}, time.Hour)

	mux := http.NewServeMux()
	web.RegisterRoutes(mux, web.NewHandler(pages, "Your key is **never** stored or logged.", logger))

	return &harness{t: t, catalog: catalog, pages: pages, mux: mux}
}

// open loads the page and returns its id, keeping the CSRF cookie.
func (h *harness) open() (string, *httptest.ResponseRecorder) {
	h.t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if h.cookie != nil {
		req.AddCookie(h.cookie)
	}
	rec := httptest.NewRecorder()
	h.mux.ServeHTTP(rec, req)
	require.Equal(h.t, http.StatusOK, rec.Code)

	for _, c := range rec.Result().Cookies() {
		if c.Name == "csrf_token" {
			h.cookie = c
		}
	}
	require.NotNil(h.t, h.cookie, "csrf cookie must be set")

	m := pageIDPattern.FindStringSubmatch(rec.Body.String())
	require.Len(h.t, m, 2, "page id must be rendered")
	return m[1], rec
}

func (h *harness) newPost(pageID, action string, form url.Values, htmx bool) *http.Request {
	if form == nil {
		form = url.Values{}
	}
	if h.cookie != nil && !form.Has("csrf_token") {
		form.Set("csrf_token", h.cookie.Value)
	}

	req := httptest.NewRequest(http.MethodPost, "/app/pages/"+pageID+"/"+action, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	if h.cookie != nil {
		req.AddCookie(h.cookie)
	}
	return req
}

// post sends an htmx action and returns the rendered fragment.
func (h *harness) post(pageID, action string, form url.Values) string {
	h.t.Helper()

	rec := httptest.NewRecorder()
	h.mux.ServeHTTP(rec, h.newPost(pageID, action, form, true))
	require.Equal(h.t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func draft(v string) url.Values {
	return url.Values{"draft": {v}}
}

func rows(body string) []string {
	var names []string
	for _, m := range rowPattern.FindAllStringSubmatch(body, -1) {
		names = append(names, m[1])
	}
	return names
}

func saveDisabled(t *testing.T, body string) bool {
	t.Helper()
	btn := saveButton.FindString(body)
	require.NotEmpty(t, btn, "save button must be rendered")
	return strings.Contains(btn, " disabled")
}

func fetchDisabled(t *testing.T, body string) bool {
	t.Helper()
	btn := fetchButton.FindString(body)
	require.NotEmpty(t, btn, "fetch button must be rendered")
	return strings.Contains(btn, " disabled")
}

func fetchLabel(t *testing.T, body string) string {
	t.Helper()
	m := fetchButton.FindStringSubmatch(body)
	require.Len(t, m, 2, "fetch button must be rendered")
	return m[1]
}

func models(names ...string) []model.SupportedModel {
	out := make([]model.SupportedModel, 0, len(names))
	for _, n := range names {
		out = append(out, model.SupportedModel{Name: n})
	}
	return out
}

// committed opens a page and commits credential k1 on it.
func (h *harness) committed() string {
	h.t.Helper()
	pageID, _ := h.open()
	h.post(pageID, "commit", draft("k1"))
	return pageID
}

// --- Initial render ---

func TestIndex_RendersEmptyPage(t *testing.T) {
	h := newHarness(t)

	pageID, rec := h.open()
	body := rec.Body.String()

	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, body, "<!doctype html>")
	assert.Contains(t, body, "<title>Tinker Studio</title>")
	assert.Contains(t, body, `<script src="/static/htmx.min.js" defer></script>`)
	assert.NotContains(t, body, "unpkg.com")
	assert.Contains(t, body, `placeholder="TINKER_API_KEY"`)
	assert.Contains(t, body, "<strong>never</strong>")
	assert.Regexp(t, passwordInput, body)
	assert.True(t, saveDisabled(t, body))
	assert.True(t, fetchDisabled(t, body))
	assert.Equal(t, "Get Supported Models", fetchLabel(t, body))
	assert.NotContains(t, body, "<table")
	assert.NotContains(t, body, "Error:")
	assert.Equal(t, 1, h.pages.Len())
	assert.NotEmpty(t, pageID)
}

func TestIndex_ReloadStartsFresh(t *testing.T) {
	h := newHarness(t)
	h.catalog.respond(models("a"), nil)
	first := h.committed()
	h.post(first, "fetch", nil)

	second, rec := h.open()
	body := rec.Body.String()

	assert.NotEqual(t, first, second)
	assert.True(t, saveDisabled(t, body))
	assert.True(t, fetchDisabled(t, body))
	assert.NotContains(t, body, "<table")
	assert.NotContains(t, body, "k1")
}

// --- Credential input ---

func TestUpdateDraft_EnablesSave(t *testing.T) {
	h := newHarness(t)
	pageID, _ := h.open()

	body := h.post(pageID, "draft", draft("k1"))

	assert.Contains(t, body, `id="save-control"`)
	assert.NotContains(t, body, `id="browser"`)
	assert.False(t, saveDisabled(t, body))

	body = h.post(pageID, "draft", draft(""))
	assert.True(t, saveDisabled(t, body))
}

func TestToggleVisibility_KeepsDraft(t *testing.T) {
	h := newHarness(t)
	pageID, _ := h.open()

	body := h.post(pageID, "visibility", draft("s3cret"))
	assert.Regexp(t, plainTextInput, body)
	assert.Contains(t, body, `value="s3cret"`)
	assert.Contains(t, body, `aria-label="Hide API key"`)

	body = h.post(pageID, "visibility", draft("s3cret"))
	assert.Regexp(t, passwordInput, body)
	assert.Contains(t, body, `value="s3cret"`)
}

func TestCommit_EmptyDraftIsInert(t *testing.T) {
	h := newHarness(t)
	pageID, _ := h.open()

	body := h.post(pageID, "commit", draft(""))

	assert.True(t, fetchDisabled(t, body))
}

func TestCommit_EnablesFetch(t *testing.T) {
	h := newHarness(t)
	pageID, _ := h.open()

	body := h.post(pageID, "commit", draft("k1"))

	assert.False(t, fetchDisabled(t, body))
	assert.Contains(t, body, `value="k1"`)
}

// --- Fetch and sort ---

func TestFetch_SuccessRendersSortedTable(t *testing.T) {
	h := newHarness(t)
	h.catalog.respond(models("Qwen", "llama-3"), nil)
	pageID := h.committed()

	body := h.post(pageID, "fetch", nil)

	assert.Equal(t, []string{"k1"}, h.catalog.calls())
	assert.Contains(t, body, "Model Name")
	assert.Contains(t, body, `aria-sort="ascending"`)
	assert.Equal(t, []string{"llama-3", "Qwen"}, rows(body))
	assert.NotContains(t, body, "Error:")
	assert.False(t, fetchDisabled(t, body))
}

func TestFetch_WithoutActiveCredentialDoesNothing(t *testing.T) {
	h := newHarness(t)
	pageID, _ := h.open()

	h.post(pageID, "draft", draft("k1"))
	body := h.post(pageID, "fetch", nil)

	assert.Empty(t, h.catalog.calls())
	assert.True(t, fetchDisabled(t, body))
}

func TestToggleSort_ReversesWithoutRefetch(t *testing.T) {
	h := newHarness(t)
	h.catalog.respond(models("b", "a", "c"), nil)
	pageID := h.committed()
	h.post(pageID, "fetch", nil)

	body := h.post(pageID, "sort", nil)

	assert.Equal(t, []string{"c", "b", "a"}, rows(body))
	assert.Contains(t, body, `aria-sort="descending"`)
	assert.Len(t, h.catalog.calls(), 1)

	body = h.post(pageID, "sort", nil)
	assert.Equal(t, []string{"a", "b", "c"}, rows(body))
}

func TestFetch_RejectedKeepsPreviousModels(t *testing.T) {
	h := newHarness(t)
	h.catalog.respond(models("a", "b"), nil)
	pageID := h.committed()
	h.post(pageID, "fetch", nil)

	h.catalog.respond(nil, &driven.RejectedError{StatusCode: http.StatusUnauthorized})
	body := h.post(pageID, "fetch", nil)

	assert.Contains(t, body, "Error: Failed to fetch models")
	assert.Equal(t, []string{"a", "b"}, rows(body))
	assert.False(t, fetchDisabled(t, body))
}

func TestFetch_TransportErrorShowsMessage(t *testing.T) {
	h := newHarness(t)
	h.catalog.respond(nil, errors.New("dial tcp 127.0.0.1:9: connect: connection refused"))
	pageID := h.committed()

	body := h.post(pageID, "fetch", nil)

	assert.Contains(t, body, "Error: dial tcp 127.0.0.1:9: connect: connection refused")
	assert.NotContains(t, body, "<table")
}

func TestFetch_ErrorClearedOnNextSuccess(t *testing.T) {
	h := newHarness(t)
	h.catalog.respond(nil, errors.New("boom"))
	pageID := h.committed()
	h.post(pageID, "fetch", nil)

	h.catalog.respond(models("a"), nil)
	body := h.post(pageID, "fetch", nil)

	assert.NotContains(t, body, "Error:")
	assert.Equal(t, []string{"a"}, rows(body))
}

func TestFetch_EmptyResultHidesTable(t *testing.T) {
	h := newHarness(t)
	h.catalog.respond(models(), nil)
	pageID := h.committed()

	body := h.post(pageID, "fetch", nil)

	assert.NotContains(t, body, "<table")
	assert.NotContains(t, body, "Error:")
}

func TestFetch_EscapesModelNames(t *testing.T) {
	h := newHarness(t)
	h.catalog.respond(models("<script>x</script>"), nil)
	pageID := h.committed()

	body := h.post(pageID, "fetch", nil)

	assert.NotContains(t, body, "<script>x</script>")
	assert.Contains(t, body, "&lt;script&gt;x&lt;/script&gt;")
}

func TestFetch_RendersLoadingWhileInFlight(t *testing.T) {
	h := newHarness(t)
	started := make(chan struct{})
	release := make(chan struct{})
	h.catalog.mu.Lock()
	h.catalog.fetch = func(context.Context) ([]model.SupportedModel, error) {
		close(started)
		<-release
		return models("a"), nil
	}
	h.catalog.mu.Unlock()
	pageID := h.committed()

	done := make(chan string)
	go func() {
		rec := httptest.NewRecorder()
		h.mux.ServeHTTP(rec, h.newPost(pageID, "fetch", nil, true))
		done <- rec.Body.String()
	}()
	<-started

	body := h.post(pageID, "sort", nil)
	assert.Equal(t, "Loading...", fetchLabel(t, body))
	assert.True(t, fetchDisabled(t, body))

	close(release)
	body = <-done
	assert.Equal(t, "Get Supported Models", fetchLabel(t, body))
	assert.Equal(t, []string{"a"}, rows(body))
}

// TestFetch_CompletesAfterClientGoesAway verifies that cancelling the request
// does not cancel the fetch, so the page never stays in loading.
func TestFetch_CompletesAfterClientGoesAway(t *testing.T) {
	h := newHarness(t)
	h.catalog.mu.Lock()
	h.catalog.fetch = func(ctx context.Context) ([]model.SupportedModel, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return models("a"), nil
	}
	h.catalog.mu.Unlock()
	pageID := h.committed()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := h.newPost(pageID, "fetch", nil, true).WithContext(ctx)
	h.mux.ServeHTTP(httptest.NewRecorder(), req)

	body := h.post(pageID, "sort", nil)
	assert.NotContains(t, body, "Error:")
	assert.Equal(t, "Get Supported Models", fetchLabel(t, body))
}

// --- Request handling ---

func TestPageAction_PlainPostRendersFullPage(t *testing.T) {
	h := newHarness(t)
	pageID, _ := h.open()

	rec := httptest.NewRecorder()
	h.mux.ServeHTTP(rec, h.newPost(pageID, "commit", draft("k1"), false))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<!doctype html>")
	assert.False(t, fetchDisabled(t, rec.Body.String()))
}

func TestPageAction_RejectsMissingCSRF(t *testing.T) {
	h := newHarness(t)
	pageID, _ := h.open()

	form := url.Values{"csrf_token": {"forged"}, "draft": {"k1"}}
	rec := httptest.NewRecorder()
	h.mux.ServeHTTP(rec, h.newPost(pageID, "commit", form, true))

	assert.Equal(t, http.StatusForbidden, rec.Code)

	browser, ok := h.pages.Get(pageID)
	require.True(t, ok)
	assert.False(t, browser.CanFetch())
}

func TestPageAction_IgnoresCSRFHeader(t *testing.T) {
	h := newHarness(t)
	pageID, _ := h.open()

	req := h.newPost(pageID, "commit", url.Values{"csrf_token": {""}, "draft": {"k1"}}, true)
	req.Header.Set("X-CSRF-Token", h.cookie.Value)
	rec := httptest.NewRecorder()
	h.mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestPageAction_UnknownPageRedirects(t *testing.T) {
	h := newHarness(t)
	h.open()

	rec := httptest.NewRecorder()
	h.mux.ServeHTTP(rec, h.newPost("gone", "fetch", nil, false))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	rec = httptest.NewRecorder()
	h.mux.ServeHTTP(rec, h.newPost("gone", "fetch", nil, true))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("HX-Redirect"))
}

func TestStatic_ServesStylesheet(t *testing.T) {
	h := newHarness(t)

	rec := httptest.NewRecorder()
	h.mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/app.css", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/css")
}

func TestStatic_ServesEmbeddedHTMX(t *testing.T) {
	h := newHarness(t)

	rec := httptest.NewRecorder()
	h.mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/htmx.min.js", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "javascript")
	assert.Contains(t, rec.Body.String(), "htmx")
}

func TestFetch_ErrorHiddenWhileRequestInFlight(t *testing.T) {
	h := newHarness(t)
	h.catalog.respond(nil, &driven.RejectedError{StatusCode: http.StatusUnauthorized})
	pageID := h.committed()
	body := h.post(pageID, "fetch", nil)
	require.Contains(t, body, `class="error"`)

	form := regexp.MustCompile(`<form[^>]*hx-post="/app/pages/[^"]+/fetch"[^>]*>`).FindString(body)
	require.NotEmpty(t, form, "fetch form must be rendered")
	assert.Contains(t, form, `hx-indicator="#browser"`)
	assert.Contains(t, body, `<main class="browser" id="browser">`)

	css, err := fs.ReadFile(web.StaticFS, "static/app.css")
	require.NoError(t, err)
	assert.Contains(t, string(css), ".htmx-request .error { display: none; }")
}
