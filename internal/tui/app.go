package tui

import (
	"errors"
	"log/slog"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/tunescout/internal/domain"
	"github.com/mmcdole/tunescout/internal/feed"
	"github.com/mmcdole/tunescout/internal/tui/components"
	"github.com/mmcdole/tunescout/internal/tui/styles"
)

// Focus is the component receiving key input
type Focus int

const (
	FocusForm Focus = iota
	FocusList
)

// Layout constants
const (
	// Title line + status line + help line
	ChromeHeight = 3

	// Form border (2) + two inputs + button
	FormHeight = 5
)

// Options holds settings for NewModel that come from configuration
type Options struct {
	DefaultPlaylistID int
	DefaultPageSize   int
	HistoryMax        int
	ShowRequestIDs    bool
}

// Model is the main Bubble Tea model for the application
type Model struct {
	Ready bool
	Focus Focus

	// Services
	Ctrl    *feed.Controller
	History domain.HistoryStore // nil when history is disabled
	Logger  *slog.Logger

	// Load trigger bound to the last loaded track
	Trigger *feed.Trigger

	// UI Components
	Form    components.QueryForm
	List    *components.TrackList
	Spinner spinner.Model
	Help    help.Model

	// Query history, newest first. historyPos is -1 while editing a new query.
	historyEntries []domain.HistoryEntry
	historyPos     int
	draftID        string
	draftSize      string
	formTouched    bool

	// Dimensions
	Width  int
	Height int

	// UI state
	StatusMsg      string
	StatusIsErr    bool
	LastRequestID  string
	showRequestIDs bool
	historyMax     int
}

// NewModel creates a new application model
func NewModel(ctrl *feed.Controller, history domain.HistoryStore, logger *slog.Logger, opts Options) Model {
	if logger == nil {
		logger = slog.Default()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.SpinnerStyle

	form := components.NewQueryForm(opts.DefaultPlaylistID, opts.DefaultPageSize)
	form.Focus()

	return Model{
		Focus:          FocusForm,
		Ctrl:           ctrl,
		History:        history,
		Logger:         logger,
		Trigger:        &feed.Trigger{},
		Form:           form,
		List:           components.NewTrackList("Recommendations"),
		Spinner:        sp,
		Help:           help.New(),
		historyPos:     -1,
		showRequestIDs: opts.ShowRequestIDs,
		historyMax:     opts.HistoryMax,
	}
}

// Init initializes the application
func (m Model) Init() tea.Cmd {
	return LoadHistoryCmd(m.History, m.historyMax)
}

// Update handles all messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Ready = true
		m.updateLayout()
		cmd := m.observe()
		return m, cmd

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case spinner.TickMsg:
		if !m.Ctrl.State().IsLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case PageLoadedMsg:
		state, applied := m.Ctrl.Complete(msg.Fetch, msg.Result)
		if applied && msg.Result.Err == nil && msg.Result.Page != nil {
			m.LastRequestID = msg.Result.Page.RequestID
		}
		m.syncState(state)
		cmd := m.observe()
		return m, cmd

	case HistoryLoadedMsg:
		m.historyEntries = msg.Entries
		if !m.formTouched && len(msg.Entries) > 0 {
			latest := msg.Entries[0]
			m.Form.SetValues(latest.PlaylistID, latest.PageSize)
		}
		return m, nil

	case HistorySavedMsg:
		m.historyEntries = prependEntry(m.historyEntries, msg.Entry, m.historyMax)
		return m, nil

	case ErrMsg:
		m.Logger.Error("background operation failed", "context", msg.Context, "error", msg.Err)
		m.StatusMsg = msg.Error()
		m.StatusIsErr = true
		return m, nil

	case ClearStatusMsg:
		m.StatusMsg = ""
		m.StatusIsErr = false
		return m, nil
	}

	return m, nil
}

// submit validates the form and starts a new query.
func (m *Model) submit() tea.Cmd {
	rawID, rawSize := m.Form.Values()
	f, ok, err := m.Ctrl.Submit(rawID, rawSize)
	if err != nil {
		var verr *feed.ValidationError
		if errors.As(err, &verr) {
			m.Form.SetError(verr.Error())
		} else {
			m.Form.SetError(err.Error())
		}
		m.updateLayout()
		return nil
	}

	m.Form.SetError("")
	m.updateLayout()
	m.formTouched = true
	m.historyPos = -1
	m.LastRequestID = ""
	m.List.ClearFilter()
	m.syncState(m.Ctrl.State())

	m.Form.Blur()
	m.Focus = FocusList
	m.List.SetFocused(true)

	if !ok {
		return nil
	}
	return tea.Batch(
		FetchPageCmd(m.Ctrl, f),
		SaveHistoryCmd(m.History, f.Query),
		m.Spinner.Tick,
	)
}

// retry re-attempts the current page after a failure.
func (m *Model) retry() tea.Cmd {
	f, ok := m.Ctrl.Retry()
	if !ok {
		return nil
	}
	m.syncState(m.Ctrl.State())
	return tea.Batch(FetchPageCmd(m.Ctrl, f), m.Spinner.Tick)
}

// observe rebinds the trigger to the last loaded row and starts the next
// page if that row is on screen. The trigger stays inert while filtering.
func (m *Model) observe() tea.Cmd {
	if !m.Ready {
		return nil
	}
	if m.List.IsFiltering() {
		m.Trigger.Release()
		return nil
	}

	f, ok := m.Ctrl.Observe(m.Trigger, m.List)
	if !ok {
		return nil
	}
	m.syncState(m.Ctrl.State())
	return tea.Batch(FetchPageCmd(m.Ctrl, f), m.Spinner.Tick)
}

// syncState pushes controller state into the components.
func (m *Model) syncState(state feed.PageState) {
	m.List.SetTracks(state.Items)
	m.Form.SetDisabled(state.IsLoading && state.Page == 1)
}

// recallHistory moves through past queries. delta +1 is older.
func (m *Model) recallHistory(delta int) {
	if len(m.historyEntries) == 0 {
		return
	}

	pos := m.historyPos + delta
	if pos < -1 {
		pos = -1
	}
	if pos >= len(m.historyEntries) {
		pos = len(m.historyEntries) - 1
	}
	if pos == m.historyPos {
		return
	}

	if m.historyPos == -1 {
		m.draftID, m.draftSize = m.Form.Values()
	}
	m.historyPos = pos

	if pos == -1 {
		m.Form.SetRaw(components.FieldPlaylistID, m.draftID)
		m.Form.SetRaw(components.FieldPageSize, m.draftSize)
		return
	}
	entry := m.historyEntries[pos]
	m.Form.SetValues(entry.PlaylistID, entry.PageSize)
	m.Form.SetError("")
}

// prependEntry puts e first, dropping an older entry for the same pair.
func prependEntry(entries []domain.HistoryEntry, e domain.HistoryEntry, max int) []domain.HistoryEntry {
	out := []domain.HistoryEntry{e}
	for _, old := range entries {
		if old.PlaylistID == e.PlaylistID && old.PageSize == e.PageSize {
			continue
		}
		out = append(out, old)
	}
	if max > 0 && len(out) > max {
		out = out[:max]
	}
	return out
}
