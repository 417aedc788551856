package feed

import "github.com/mmcdole/tunescout/internal/domain"

// PageState accumulates the recommendations loaded for the current query.
type PageState struct {
	Items     []domain.Track // server order, duplicates kept
	Page      int            // next page to request, starts at 1
	HasMore   bool
	IsLoading bool
	Err       string // empty when the last attempt did not fail
}

// newPageState returns the state of a freshly submitted query.
func newPageState() PageState {
	return PageState{Page: 1}
}

// AtEnd reports whether every page of a non-empty result has been loaded.
func (s PageState) AtEnd() bool {
	return !s.IsLoading && !s.HasMore && len(s.Items) > 0
}

// LastIndex returns the index of the last loaded item, or -1.
func (s PageState) LastIndex() int {
	return len(s.Items) - 1
}
