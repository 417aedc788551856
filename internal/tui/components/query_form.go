package components

import (
	"strconv"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/tunescout/internal/tui/styles"
)

// Form field indices
const (
	FieldPlaylistID = iota
	FieldPageSize
	fieldCount
)

// QueryForm holds the playlist id and page size inputs
type QueryForm struct {
	inputs   [fieldCount]textinput.Model
	field    int
	focused  bool
	disabled bool
	err      string
	width    int
}

// NewQueryForm creates a form pre-filled with the given values
func NewQueryForm(playlistID, pageSize int) QueryForm {
	newInput := func(placeholder string) textinput.Model {
		ti := textinput.New()
		ti.Placeholder = placeholder
		ti.CharLimit = 12
		ti.Width = 14
		ti.Prompt = ""
		ti.TextStyle = lipgloss.NewStyle().Foreground(styles.White)
		ti.PlaceholderStyle = styles.DimStyle
		return ti
	}

	f := QueryForm{}
	f.inputs[FieldPlaylistID] = newInput("playlist id")
	f.inputs[FieldPageSize] = newInput("page size")
	f.SetValues(playlistID, pageSize)
	return f
}

// Focus gives the form keyboard focus on its current field
func (f *QueryForm) Focus() {
	f.focused = true
	for i := range f.inputs {
		f.inputs[i].Blur()
	}
	f.inputs[f.field].Focus()
}

// Blur removes keyboard focus
func (f *QueryForm) Blur() {
	f.focused = false
	for i := range f.inputs {
		f.inputs[i].Blur()
	}
}

func (f QueryForm) IsFocused() bool {
	return f.focused
}

// Field returns the index of the field being edited
func (f QueryForm) Field() int {
	return f.field
}

// NextField moves focus by delta, wrapping around
func (f *QueryForm) NextField(delta int) {
	f.field = (f.field + delta + fieldCount) % fieldCount
	if f.focused {
		f.Focus()
	}
}

// SetValues replaces both inputs. Non-positive values leave a field empty.
func (f *QueryForm) SetValues(playlistID, pageSize int) {
	set := func(i, v int) {
		if v > 0 {
			f.inputs[i].SetValue(strconv.Itoa(v))
		} else {
			f.inputs[i].SetValue("")
		}
		f.inputs[i].CursorEnd()
	}
	set(FieldPlaylistID, playlistID)
	set(FieldPageSize, pageSize)
}

// SetRaw replaces one input with raw text
func (f *QueryForm) SetRaw(field int, value string) {
	f.inputs[field].SetValue(value)
}

// Values returns the raw text of both inputs
func (f QueryForm) Values() (playlistID, pageSize string) {
	return f.inputs[FieldPlaylistID].Value(), f.inputs[FieldPageSize].Value()
}

// SetDisabled greys out the submit button
func (f *QueryForm) SetDisabled(disabled bool) {
	f.disabled = disabled
}

func (f QueryForm) IsDisabled() bool {
	return f.disabled
}

// SetError shows a validation message under the inputs
func (f *QueryForm) SetError(msg string) {
	f.err = msg
}

func (f QueryForm) Error() string {
	return f.err
}

func (f *QueryForm) SetWidth(width int) {
	f.width = width
}

// Update handles input events, returns (form, cmd, submitted)
func (f QueryForm) Update(msg tea.Msg) (QueryForm, tea.Cmd, bool) {
	if !f.focused {
		return f, nil, false
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "enter":
			if f.disabled {
				return f, nil, false
			}
			return f, nil, true
		case "tab", "down":
			f.NextField(1)
			return f, nil, false
		case "shift+tab", "up":
			f.NextField(-1)
			return f, nil, false
		}
	}

	var cmd tea.Cmd
	before := f.inputs[f.field].Value()
	f.inputs[f.field], cmd = f.inputs[f.field].Update(msg)
	if f.inputs[f.field].Value() != before {
		f.err = ""
	}
	return f, cmd, false
}

// View renders the form
func (f QueryForm) View() string {
	row := func(label string, i int) string {
		return lipgloss.JoinHorizontal(lipgloss.Top,
			styles.LabelStyle.Render(label),
			f.inputs[i].View(),
		)
	}

	button := styles.ButtonStyle.Render("Get Recommendations")
	if f.disabled {
		button = styles.ButtonDisabledStyle.Render("Loading...")
	}

	lines := []string{
		row("Playlist ID", FieldPlaylistID),
		row("Page size", FieldPageSize),
		button,
	}
	if f.err != "" {
		lines = append(lines, styles.ErrorStyle.Render(f.err))
	}

	style := styles.FormStyle
	if f.focused {
		style = style.BorderForeground(styles.Accent)
	}
	if f.width > 0 {
		style = style.Width(f.width - BorderWidth)
	}

	return style.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
