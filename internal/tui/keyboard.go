package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// handleKeyMsg handles keyboard input
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.Focus == FocusForm {
		return m.handleFormKey(msg)
	}

	// Filter typing owns every key except ctrl+c
	if m.List.IsFilterTyping() {
		var cmd tea.Cmd
		m.List, cmd = m.List.Update(msg)
		loadCmd := m.observe()
		return m, tea.Batch(cmd, loadCmd)
	}

	switch {
	case key.Matches(msg, Keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, Keys.Help):
		m.Help.ShowAll = !m.Help.ShowAll
		m.updateLayout()
		return m, nil

	case key.Matches(msg, Keys.EditQuery):
		m.focusForm()
		return m, nil

	case key.Matches(msg, Keys.Retry):
		if cmd := m.retry(); cmd != nil {
			return m, cmd
		}
		m.StatusMsg = "Nothing to retry"
		return m, ClearStatusCmd(2 * time.Second)

	case key.Matches(msg, Keys.Filter):
		if !m.List.IsFiltering() {
			m.List.ToggleFilter()
			m.Trigger.Release()
			return m, nil
		}

	case key.Matches(msg, Keys.Escape):
		if !m.List.IsFiltering() {
			m.focusForm()
			return m, nil
		}
	}

	// Navigation and filter keys go to the list
	var cmd tea.Cmd
	m.List, cmd = m.List.Update(msg)
	loadCmd := m.observe()
	return m, tea.Batch(cmd, loadCmd)
}

func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, Keys.HistoryPrev):
		m.recallHistory(1)
		return m, nil

	case key.Matches(msg, Keys.HistoryNext):
		m.recallHistory(-1)
		return m, nil

	case key.Matches(msg, Keys.Escape):
		if !m.List.IsEmpty() {
			m.focusList()
		}
		return m, nil
	}

	var (
		cmd       tea.Cmd
		submitted bool
	)
	m.Form, cmd, submitted = m.Form.Update(msg)
	if submitted {
		cmd = m.submit()
		return m, cmd
	}
	if msg.Type == tea.KeyRunes || msg.Type == tea.KeyBackspace {
		m.formTouched = true
	}
	m.updateLayout()
	return m, cmd
}

func (m *Model) focusForm() {
	m.Focus = FocusForm
	m.List.SetFocused(false)
	m.Form.Focus()
}

func (m *Model) focusList() {
	m.Focus = FocusList
	m.Form.Blur()
	m.List.SetFocused(true)
}
