package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/tunescout/internal/feed"
	"github.com/mmcdole/tunescout/internal/tui/styles"
)

// EndOfResultsMessage is shown under the list once every page is loaded
const EndOfResultsMessage = "You've reached the end of the recommendations!"

// View renders the application
func (m Model) View() string {
	if !m.Ready {
		return "Loading..."
	}

	state := m.Ctrl.State()

	sections := []string{
		m.renderTitle(),
		m.Form.View(),
		m.List.View(),
		m.renderStatus(state),
		m.Help.View(Keys),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderTitle() string {
	title := styles.TitleStyle.Render("tunescout")
	q := m.Ctrl.Query()
	if q.Epoch == 0 {
		return title + " " + styles.SubtitleStyle.Render("playlist recommendations")
	}
	return title + " " + styles.SubtitleStyle.Render(
		fmt.Sprintf("playlist %d · %d per page", q.PlaylistID, q.PageSize))
}

// renderStatus renders the single line under the list: loading, error, end
// of results, or a transient status message.
func (m Model) renderStatus(state feed.PageState) string {
	var parts []string

	switch {
	case state.IsLoading && state.Page == 1:
		parts = append(parts, m.Spinner.View()+" "+styles.DimStyle.Render("Loading..."))
	case state.IsLoading:
		parts = append(parts, m.Spinner.View()+" "+styles.DimStyle.Render("Loading more..."))
	case state.Err != "":
		parts = append(parts, styles.ErrorStyle.Render(state.Err)+" "+styles.DimStyle.Render("(r to retry)"))
	case state.AtEnd():
		parts = append(parts, styles.SuccessStyle.Render(EndOfResultsMessage))
	case m.Ctrl.Query().Epoch != 0 && len(state.Items) == 0:
		parts = append(parts, styles.DimStyle.Render("No recommendations"))
	}

	if len(state.Items) > 0 {
		parts = append(parts, styles.DimStyle.Render(fmt.Sprintf("%d tracks", len(state.Items))))
	}
	if m.showRequestIDs && m.LastRequestID != "" {
		parts = append(parts, styles.DimStyle.Render("req "+m.LastRequestID))
	}
	if m.StatusMsg != "" {
		style := styles.AccentStyle
		if m.StatusIsErr {
			style = styles.ErrorStyle
		}
		parts = append(parts, style.Render(m.StatusMsg))
	}

	line := strings.Join(parts, styles.DimStyle.Render("  ·  "))
	if line == "" {
		line = " "
	}
	return line
}
