package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/tunescout/internal/domain"
	"github.com/mmcdole/tunescout/internal/feed"
)

// Command factories for async operations

// FetchPageCmd performs the request behind f. The controller bounds it with
// its own deadline, so no timeout is added here.
func FetchPageCmd(ctrl *feed.Controller, f *feed.Fetch) tea.Cmd {
	return func() tea.Msg {
		return PageLoadedMsg{Fetch: f, Result: ctrl.Run(f)}
	}
}

// LoadHistoryCmd reads the most recent queries
func LoadHistoryCmd(store domain.HistoryStore, limit int) tea.Cmd {
	if store == nil {
		return nil
	}
	return func() tea.Msg {
		entries, err := store.Recent(limit)
		if err != nil {
			return ErrMsg{Err: err, Context: "loading history"}
		}
		return HistoryLoadedMsg{Entries: entries}
	}
}

// SaveHistoryCmd records a submitted query
func SaveHistoryCmd(store domain.HistoryStore, q feed.Query) tea.Cmd {
	if store == nil {
		return nil
	}
	entry := domain.HistoryEntry{
		PlaylistID:  q.PlaylistID,
		PageSize:    q.PageSize,
		SubmittedAt: time.Now(),
	}
	return func() tea.Msg {
		if err := store.Add(entry); err != nil {
			return ErrMsg{Err: err, Context: "saving history"}
		}
		return HistorySavedMsg{Entry: entry}
	}
}

// ClearStatusCmd returns a command that clears status after a delay
func ClearStatusCmd(delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(t time.Time) tea.Msg {
		return ClearStatusMsg{}
	})
}
