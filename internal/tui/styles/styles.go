package styles

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	Accent     = lipgloss.Color("#1DB954")
	SlateDark  = lipgloss.Color("#1F2937")
	SlateLight = lipgloss.Color("#374151")
	DimGray    = lipgloss.Color("#6B7280")
	LightGray  = lipgloss.Color("#9CA3AF")
	White      = lipgloss.Color("#F9FAFB")
	Green      = lipgloss.Color("#10B981")
	Red        = lipgloss.Color("#EF4444")
)

// SpinnerFrames are the frames of the plain-terminal spinner
var SpinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Themes maps a ui.theme name to its accent color
var Themes = map[string]lipgloss.Color{
	"default": lipgloss.Color("#1DB954"),
	"amber":   lipgloss.Color("#E5A00D"),
	"blue":    lipgloss.Color("#3B82F6"),
	"mono":    lipgloss.Color("#F9FAFB"),
}

// Borders
var (
	ActiveBorder   lipgloss.Style
	InactiveBorder lipgloss.Style
)

// Text styles
var (
	TitleStyle    lipgloss.Style
	SubtitleStyle lipgloss.Style
	DimStyle      lipgloss.Style
	AccentStyle   lipgloss.Style
	ErrorStyle    lipgloss.Style
	SuccessStyle  lipgloss.Style
)

// Form styles
var (
	LabelStyle          lipgloss.Style
	ButtonStyle         lipgloss.Style
	ButtonDisabledStyle lipgloss.Style
	FormStyle           lipgloss.Style
)

// Spinner, filter and match highlight styles
var (
	SpinnerStyle                lipgloss.Style
	FilterStyle                 lipgloss.Style
	FilterPromptStyle           lipgloss.Style
	MatchHighlightStyle         lipgloss.Style
	MatchHighlightSelectedStyle lipgloss.Style
)

func init() {
	build()
}

// UseTheme switches the accent color. Unknown names keep the default.
// It returns false for an unknown name.
func UseTheme(name string) bool {
	color, ok := Themes[name]
	if !ok {
		color = Themes["default"]
	}
	Accent = color
	build()
	return ok
}

func build() {
	ActiveBorder = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Accent)

	InactiveBorder = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(DimGray)

	TitleStyle = lipgloss.NewStyle().
		Foreground(White).
		Bold(true)

	SubtitleStyle = lipgloss.NewStyle().
		Foreground(LightGray)

	DimStyle = lipgloss.NewStyle().
		Foreground(DimGray)

	AccentStyle = lipgloss.NewStyle().
		Foreground(Accent)

	ErrorStyle = lipgloss.NewStyle().
		Foreground(Red)

	SuccessStyle = lipgloss.NewStyle().
		Foreground(Green)

	LabelStyle = lipgloss.NewStyle().
		Foreground(LightGray).
		Width(14)

	ButtonStyle = lipgloss.NewStyle().
		Foreground(SlateDark).
		Background(Accent).
		Bold(true).
		Padding(0, 2)

	ButtonDisabledStyle = lipgloss.NewStyle().
		Foreground(LightGray).
		Background(SlateLight).
		Padding(0, 2)

	FormStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(DimGray).
		Padding(0, 1)

	SpinnerStyle = lipgloss.NewStyle().
		Foreground(Accent)

	FilterStyle = lipgloss.NewStyle().
		Foreground(Accent)

	FilterPromptStyle = lipgloss.NewStyle().
		Foreground(Accent).
		Bold(true)

	MatchHighlightStyle = lipgloss.NewStyle().
		Foreground(Accent).
		Bold(true)

	MatchHighlightSelectedStyle = lipgloss.NewStyle().
		Foreground(Accent).
		Background(SlateLight).
		Bold(true)
}

// Helper functions

// Truncate truncates a string to the given display width with ellipsis
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}

func spaces(n int) string {
	if n <= 0 {
		return ""
	}
	b := make([]byte, n)
	for i := range b {
		b[i] = ' '
	}
	return string(b)
}

// RenderListRow renders a complete list row with uniform background when selected.
// Each part is styled on its own so ANSI resets do not clear the background.
func RenderListRow(parts []RowPart, selected bool, width int) string {
	bg := SlateLight
	defaultFg := LightGray
	selectedFg := White

	var result string
	visibleLen := 0

	for _, part := range parts {
		style := lipgloss.NewStyle()
		if part.Foreground != nil {
			style = style.Foreground(*part.Foreground)
		} else if selected {
			style = style.Foreground(selectedFg)
		} else {
			style = style.Foreground(defaultFg)
		}
		if part.Bold {
			style = style.Bold(true)
		}
		if selected {
			style = style.Background(bg)
		}
		result += style.Render(part.Text)
		visibleLen += lipgloss.Width(part.Text)
	}

	// Add padding to fill width (subtract 2 for left/right margin)
	paddingNeeded := width - visibleLen - 2
	if paddingNeeded > 0 {
		padStyle := lipgloss.NewStyle()
		if selected {
			padStyle = padStyle.Background(bg)
		}
		result += padStyle.Render(spaces(paddingNeeded))
	}

	// Add margins
	marginStyle := lipgloss.NewStyle()
	if selected {
		marginStyle = marginStyle.Background(bg)
	}
	margin := marginStyle.Render(" ")

	return margin + result + margin
}

// RowPart represents a part of a row with optional foreground color
type RowPart struct {
	Text       string
	Foreground *lipgloss.Color
	Bold       bool
}
