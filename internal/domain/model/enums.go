package model

// FetchState represents the lifecycle of the single outstanding model fetch.
type FetchState string

const (
	FetchStateIdle    FetchState = "idle"
	FetchStateLoading FetchState = "loading"
	FetchStateSuccess FetchState = "success"
	FetchStateFailed  FetchState = "failed"
)

// SortDirection is the ordering applied to the rendered model list.
type SortDirection string

const (
	SortAscending  SortDirection = "asc"
	SortDescending SortDirection = "desc"
)

// Toggle returns the opposite direction. The zero value is treated as ascending.
func (d SortDirection) Toggle() SortDirection {
	if d == SortDescending {
		return SortAscending
	}
	return SortDescending
}

// Ascending reports whether d sorts in natural order.
func (d SortDirection) Ascending() bool {
	return d != SortDescending
}
