// Package application contains use-case orchestration services.
package application

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/ericfisherdev/tinkerstudio/internal/domain/model"
	"github.com/ericfisherdev/tinkerstudio/internal/domain/port/driven"
)

// errFetchAborted settles a fetch whose catalog call panicked.
var errFetchAborted = errors.New("fetch aborted")

// BrowserSnapshot is an immutable view of a ModelBrowser used for rendering.
// The active credential itself is never exposed, only whether one is set.
type BrowserSnapshot struct {
	Draft               string
	CredentialVisible   bool
	HasActiveCredential bool
	State               model.FetchState
	Error               string
	Models              []model.SupportedModel // Sorted per Sort.
	Sort                model.SortDirection
	CanCommit           bool
	CanFetch            bool
}

// Loading reports whether a fetch is in flight.
func (s BrowserSnapshot) Loading() bool {
	return s.State == model.FetchStateLoading
}

// ModelBrowser owns the state of one model browser page: the draft and active
// credential, the last fetched model collection, the fetch lifecycle and the
// sort direction. At most one fetch is in flight at any time; Fetch enforces
// this itself rather than relying on the UI disabling its trigger.
type ModelBrowser struct {
	catalog driven.ModelCatalog
	sorter  *ModelSorter
	logger  *slog.Logger

	mu         sync.Mutex
	credential model.Credential
	models     []model.SupportedModel
	state      model.FetchState
	errMsg     string
	sort       model.SortDirection
}

// NewModelBrowser creates a ModelBrowser in the idle state with an empty
// credential and ascending sort.
func NewModelBrowser(catalog driven.ModelCatalog, sorter *ModelSorter, logger *slog.Logger) *ModelBrowser {
	return &ModelBrowser{
		catalog: catalog,
		sorter:  sorter,
		logger:  logger,
		state:   model.FetchStateIdle,
		sort:    model.SortAscending,
	}
}

// SetDraft replaces the draft credential. The active credential is untouched.
func (b *ModelBrowser) SetDraft(draft string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.credential.Draft = draft
}

// ToggleCredentialVisibility switches the draft between masked and plain
// rendering. The draft value is never altered.
func (b *ModelBrowser) ToggleCredentialVisibility() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.credential.Visible = !b.credential.Visible
}

// CanCommit returns true when the draft credential is non-empty.
func (b *ModelBrowser) CanCommit() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.credential.CanCommit()
}

// Commit copies the draft credential to the active credential verbatim. It is
// inert and returns false when the draft is empty.
func (b *ModelBrowser) Commit() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.credential.CanCommit() {
		return false
	}
	b.credential.Active = b.credential.Draft
	return true
}

// CanFetch returns true when a credential has been committed and no fetch is
// in flight.
func (b *ModelBrowser) CanFetch() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.canFetchLocked()
}

// Loading reports whether a fetch is in flight.
func (b *ModelBrowser) Loading() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state == model.FetchStateLoading
}

func (b *ModelBrowser) canFetchLocked() bool {
	return b.credential.HasActive() && b.state != model.FetchStateLoading
}

// Fetch requests the supported models with the active credential. It returns
// false without side effects when CanFetch is false. Otherwise it marks the
// browser loading, clears any previous error, performs exactly one catalog
// request and settles the outcome: success replaces the model collection,
// failure keeps the previous collection and records an error message. The
// loading state is always cleared when the attempt ends.
func (b *ModelBrowser) Fetch(ctx context.Context) bool {
	credential, ok := b.beginFetch()
	if !ok {
		return false
	}

	settled := false
	defer func() {
		if !settled {
			b.settle(nil, errFetchAborted)
		}
	}()

	models, err := b.catalog.FetchModels(ctx, credential)
	b.settle(models, err)
	settled = true

	return true
}

func (b *ModelBrowser) beginFetch() (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.canFetchLocked() {
		return "", false
	}
	b.state = model.FetchStateLoading
	b.errMsg = ""
	return b.credential.Active, true
}

func (b *ModelBrowser) settle(models []model.SupportedModel, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case err == nil:
		b.models = models
		b.state = model.FetchStateSuccess
		b.errMsg = ""
	case errors.Is(err, driven.ErrRequestRejected):
		b.logger.Warn("model catalog rejected request", "error", err)
		b.state = model.FetchStateFailed
		b.errMsg = model.RequestRejectedMessage
	default:
		b.logger.Warn("model fetch failed", "error", err)
		b.state = model.FetchStateFailed
		b.errMsg = err.Error()
	}
}

// ToggleSort flips the sort direction. It never triggers a fetch.
func (b *ModelBrowser) ToggleSort() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sort = b.sort.Toggle()
}

// Sorted returns the current model collection ordered by the current sort
// direction. The stored collection is not modified.
func (b *ModelBrowser) Sorted() []model.SupportedModel {
	b.mu.Lock()
	models, dir := b.models, b.sort
	b.mu.Unlock()

	return b.sorter.Sort(models, dir)
}

// Snapshot returns a consistent view of the browser for rendering.
func (b *ModelBrowser) Snapshot() BrowserSnapshot {
	b.mu.Lock()
	snap := BrowserSnapshot{
		Draft:               b.credential.Draft,
		CredentialVisible:   b.credential.Visible,
		HasActiveCredential: b.credential.HasActive(),
		State:               b.state,
		Error:               b.errMsg,
		Sort:                b.sort,
		CanCommit:           b.credential.CanCommit(),
		CanFetch:            b.canFetchLocked(),
	}
	models := b.models
	b.mu.Unlock()

	snap.Models = b.sorter.Sort(models, snap.Sort)
	return snap
}
