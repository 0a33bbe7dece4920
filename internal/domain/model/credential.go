package model

// Credential holds the two copies of the access key a page works with. Draft
// is the live-edited value; Active is the last committed value and the only
// one ever sent to the catalog. Neither copy is persisted or logged.
type Credential struct {
	Draft   string
	Active  string
	Visible bool // Draft rendered as plain text instead of masked.
}

// CanCommit returns true when there is a draft to commit.
func (c Credential) CanCommit() bool {
	return c.Draft != ""
}

// HasActive returns true once a non-empty value has been committed.
func (c Credential) HasActive() bool {
	return c.Active != ""
}

// String masks the credential so it cannot leak through %v formatting.
func (c Credential) String() string {
	return "Credential{***}"
}
