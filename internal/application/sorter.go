package application

import (
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/ericfisherdev/tinkerstudio/internal/domain/model"
)

// ModelSorter orders supported models by name using locale-aware collation.
// A collator is built per call because collate.Collator is not safe for
// concurrent use.
type ModelSorter struct {
	tag language.Tag
}

// NewModelSorter creates a sorter collating by the rules of tag. Use
// language.Und for the root collation order.
func NewModelSorter(tag language.Tag) *ModelSorter {
	return &ModelSorter{tag: tag}
}

// Sort returns a new slice ordered by name in the given direction. The input
// slice is never modified. Descending order negates the comparison, so the
// relative order of identical names is unspecified in both directions.
func (s *ModelSorter) Sort(models []model.SupportedModel, dir model.SortDirection) []model.SupportedModel {
	sorted := slices.Clone(models)
	if len(sorted) < 2 {
		return sorted
	}

	coll := collate.New(s.tag)
	asc := dir.Ascending()
	slices.SortFunc(sorted, func(a, b model.SupportedModel) int {
		cmp := coll.CompareString(a.Name, b.Name)
		if !asc {
			return -cmp
		}
		return cmp
	})

	return sorted
}
