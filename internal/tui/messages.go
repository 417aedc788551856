package tui

import (
	"github.com/mmcdole/tunescout/internal/domain"
	"github.com/mmcdole/tunescout/internal/feed"
)

// Message types for the TUI

// ErrMsg represents an error outside the recommendation list
type ErrMsg struct {
	Err     error
	Context string
}

// Error implements the error interface
func (e ErrMsg) Error() string {
	if e.Context != "" {
		return e.Context + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// PageLoadedMsg carries the outcome of one page request back to Update
type PageLoadedMsg struct {
	Fetch  *feed.Fetch
	Result feed.Result
}

// HistoryLoadedMsg signals that recent queries have been read
type HistoryLoadedMsg struct {
	Entries []domain.HistoryEntry
}

// HistorySavedMsg signals that a submitted query was recorded
type HistorySavedMsg struct {
	Entry domain.HistoryEntry
}

// ClearStatusMsg clears the status message
type ClearStatusMsg struct{}
