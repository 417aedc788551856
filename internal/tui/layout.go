package tui

import "github.com/charmbracelet/lipgloss"

// updateLayout updates component sizes based on window size
func (m *Model) updateLayout() {
	if m.Width == 0 || m.Height == 0 {
		return
	}

	m.Form.SetWidth(m.Width)
	m.Help.Width = m.Width

	formHeight := lipgloss.Height(m.Form.View())
	if formHeight < FormHeight {
		formHeight = FormHeight
	}
	helpHeight := 1
	if m.Help.ShowAll {
		helpHeight = lipgloss.Height(m.Help.View(Keys))
	}

	listHeight := m.Height - ChromeHeight - formHeight - (helpHeight - 1)
	if listHeight < 5 {
		listHeight = 5
	}
	m.List.SetSize(m.Width, listHeight)
}
