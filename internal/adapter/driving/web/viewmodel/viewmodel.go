// Package viewmodel defines presentation-ready structs for templ components.
// View models decouple template rendering from domain model types.
package viewmodel

// BrowserViewModel holds everything the model browser panel renders.
type BrowserViewModel struct {
	Title      string
	NoticeHTML string // Sanitized HTML.
	CSRFToken  string

	DraftPath      string
	VisibilityPath string
	CommitPath     string
	FetchPath      string
	SortPath       string

	Draft             string
	CredentialVisible bool
	CanCommit         bool

	CanFetch   bool
	Loading    bool
	FetchLabel string
	Error      string

	Models        []ModelRowViewModel
	SortAscending bool
	SortLabel     string // aria-sort value.
}

// ShowTable reports whether the results table is rendered at all.
func (vm BrowserViewModel) ShowTable() bool {
	return len(vm.Models) > 0
}

// ModelRowViewModel is one row of the results table.
type ModelRowViewModel struct {
	Name string
}

// InputType is the type of the API key input: masked unless revealed.
func (vm BrowserViewModel) InputType() string {
	if vm.CredentialVisible {
		return "text"
	}
	return "password"
}

// VisibilityText is the caption of the show/hide toggle.
func (vm BrowserViewModel) VisibilityText() string {
	if vm.CredentialVisible {
		return "Hide"
	}
	return "Show"
}

// VisibilityLabel is the accessible name of the show/hide toggle.
func (vm BrowserViewModel) VisibilityLabel() string {
	return vm.VisibilityText() + " API key"
}

// SortArrow points in the current sort direction.
func (vm BrowserViewModel) SortArrow() string {
	if vm.SortAscending {
		return "↑"
	}
	return "↓"
}
