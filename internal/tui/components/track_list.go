package components

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	fuzzysearch "github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/mmcdole/tunescout/internal/domain"
	"github.com/mmcdole/tunescout/internal/tui/styles"
	"github.com/sahilm/fuzzy"
)

// Layout constants for the track list
const (
	// Border adds 1 char on each side (left+right for width, top+bottom for height)
	BorderWidth  = 2
	BorderHeight = 2

	// Scroll indicators ("↑ more" and "↓ more") each take 1 line
	ScrollIndicatorLines = 2
)

// TrackList is a scrollable list of recommended tracks. It reports row
// visibility for the load trigger.
type TrackList struct {
	tracks []domain.Track

	// Selection
	cursor     int
	offset     int
	maxVisible int

	// Dimensions
	width   int
	height  int
	focused bool

	title string

	// Filter state
	filterActive bool
	filterInput  textinput.Model
	filterQuery  string
	filteredIdx  []int         // indices into tracks
	nameMatches  map[int][]int // track index -> matched byte offsets in the name
}

// NewTrackList creates an empty track list
func NewTrackList(title string) *TrackList {
	ti := textinput.New()
	ti.Placeholder = "type to filter..."
	ti.Prompt = "/ "
	ti.PromptStyle = styles.FilterPromptStyle
	ti.TextStyle = styles.FilterStyle

	return &TrackList{
		title:       title,
		filterInput: ti,
	}
}

func (c *TrackList) Update(msg tea.Msg) (*TrackList, tea.Cmd) {
	if !c.focused {
		return c, nil
	}
	keyMsg, isKey := msg.(tea.KeyMsg)

	// Handle filter input when active AND focused (typing mode)
	if c.filterActive && c.filterInput.Focused() {
		if isKey {
			switch {
			case key.Matches(keyMsg, TrackListKeys.Escape):
				c.clearFilter()
				return c, nil
			case key.Matches(keyMsg, TrackListKeys.Accept):
				// Accept filter, blur input to allow navigation
				c.filterInput.Blur()
				return c, nil
			case key.Matches(keyMsg, TrackListKeys.Erase):
				if c.filterInput.Value() == "" {
					c.clearFilter()
					return c, nil
				}
			}
		}

		var cmd tea.Cmd
		c.filterInput, cmd = c.filterInput.Update(msg)
		c.applyFilter()
		return c, cmd
	}

	if !isKey {
		return c, nil
	}

	// Filter active but blurred: navigation over the filtered rows
	if c.filterActive {
		switch {
		case key.Matches(keyMsg, TrackListKeys.Escape):
			c.clearFilter()
			return c, nil
		case key.Matches(keyMsg, TrackListKeys.Filter):
			c.filterInput.Focus()
			return c, nil
		}
	}

	count := c.ItemCount()
	if count == 0 {
		return c, nil
	}

	switch {
	case key.Matches(keyMsg, TrackListKeys.Down):
		if c.cursor < count-1 {
			c.cursor++
			c.ensureVisible()
		}
	case key.Matches(keyMsg, TrackListKeys.Up):
		if c.cursor > 0 {
			c.cursor--
			c.ensureVisible()
		}
	case key.Matches(keyMsg, TrackListKeys.Home):
		c.cursor = 0
		c.offset = 0
	case key.Matches(keyMsg, TrackListKeys.End):
		c.cursor = count - 1
		c.ensureVisible()
	case key.Matches(keyMsg, TrackListKeys.HalfDown):
		c.cursor += c.maxVisible / 2
		if c.cursor >= count {
			c.cursor = count - 1
		}
		c.ensureVisible()
	case key.Matches(keyMsg, TrackListKeys.HalfUp):
		c.cursor -= c.maxVisible / 2
		if c.cursor < 0 {
			c.cursor = 0
		}
		c.ensureVisible()
	}

	return c, nil
}

func (c *TrackList) View() string {
	style := styles.InactiveBorder
	if c.focused {
		style = styles.ActiveBorder
	}

	content := c.renderContent()

	// Subtract frame (border) size so total rendered size equals c.width x c.height
	frameW, frameH := style.GetFrameSize()

	return style.
		Width(c.width - frameW).
		Height(c.height - frameH).
		Render(content)
}

func (c *TrackList) SetSize(width, height int) {
	c.width = width
	c.height = height
	c.recalcMaxVisible()
	c.ensureVisible()
}

func (c *TrackList) SetFocused(focused bool) {
	c.focused = focused
}

func (c *TrackList) IsFocused() bool {
	return c.focused
}

func (c *TrackList) SetTitle(title string) {
	c.title = title
}

// SetTracks replaces the rows. When the row under the cursor keeps its key
// (an appended page) the cursor and scroll position stay put; otherwise the
// list starts from the top.
func (c *TrackList) SetTracks(tracks []domain.Track) {
	keep := c.cursor < len(c.tracks) && c.cursor < len(tracks) &&
		c.tracks[c.cursor].Key(c.cursor) == tracks[c.cursor].Key(c.cursor)
	if c.filteredIdx != nil {
		keep = false
	}

	c.tracks = tracks
	if !keep {
		c.cursor = 0
		c.offset = 0
	}
	if c.filterActive {
		c.applyFilter()
	}
	c.ensureVisible()
}

// Tracks returns the rows currently held, unfiltered.
func (c *TrackList) Tracks() []domain.Track {
	return c.tracks
}

// SelectedTrack returns the track under the cursor, or nil.
func (c *TrackList) SelectedTrack() *domain.Track {
	count := c.ItemCount()
	if count == 0 || c.cursor >= count {
		return nil
	}
	t := c.tracks[c.mapIndex(c.cursor)]
	return &t
}

func (c *TrackList) SelectedIndex() int {
	return c.cursor
}

func (c *TrackList) SetSelectedIndex(idx int) {
	max := c.ItemCount() - 1
	if max < 0 {
		c.cursor = 0
		return
	}
	if idx < 0 {
		idx = 0
	}
	if idx > max {
		idx = max
	}
	c.cursor = idx
	c.ensureVisible()
}

// ItemCount returns the number of rows shown, after filtering.
func (c *TrackList) ItemCount() int {
	if c.filteredIdx != nil {
		return len(c.filteredIdx)
	}
	return len(c.tracks)
}

func (c *TrackList) IsEmpty() bool {
	return c.ItemCount() == 0
}

// IsVisible reports whether the track at index is on screen. While a filter
// is active rows do not map to positions in the result, so nothing counts as
// visible.
func (c *TrackList) IsVisible(index int) bool {
	if c.filterActive || c.maxVisible <= 0 {
		return false
	}
	if index < 0 || index >= len(c.tracks) {
		return false
	}
	return index >= c.offset && index < c.offset+c.maxVisible
}

// ToggleFilter activates the filter input
func (c *TrackList) ToggleFilter() {
	c.filterActive = true
	c.filterInput.Focus()
	c.recalcMaxVisible()
}

// IsFiltering returns true if filter mode is active
func (c *TrackList) IsFiltering() bool {
	return c.filterActive
}

// IsFilterTyping returns true if filter is active AND input is focused
func (c *TrackList) IsFilterTyping() bool {
	return c.filterActive && c.filterInput.Focused()
}

// ClearFilter deactivates the filter and shows all items
func (c *TrackList) ClearFilter() {
	c.clearFilter()
}

// SetFilter applies query as if it had been typed.
func (c *TrackList) SetFilter(query string) {
	c.ToggleFilter()
	c.filterInput.SetValue(query)
	c.applyFilter()
}

// Internal methods

func (c *TrackList) recalcMaxVisible() {
	// Interior height = total - border (top+bottom)
	// Reserve space for: title line + scroll indicators (header + footer)
	interiorHeight := c.height - BorderHeight
	c.maxVisible = interiorHeight - ScrollIndicatorLines - 1 // -1 for title
	if c.filterActive {
		c.maxVisible--
	}
	if c.maxVisible < 1 {
		c.maxVisible = 1
	}
}

func (c *TrackList) ensureVisible() {
	if c.maxVisible <= 0 {
		return
	}
	if c.cursor < c.offset {
		c.offset = c.cursor
	}
	if c.cursor >= c.offset+c.maxVisible {
		c.offset = c.cursor - c.maxVisible + 1
	}
}

func (c *TrackList) clearFilter() {
	c.filterActive = false
	c.filterQuery = ""
	c.filteredIdx = nil
	c.nameMatches = nil
	c.filterInput.SetValue("")
	c.filterInput.Blur()
	c.recalcMaxVisible()
	c.ensureVisible()
}

// applyFilter matches the query against track names (subsequence, with
// highlight positions) and artists (normalized fold, so accents are
// ignored). Name matches come first, best first.
func (c *TrackList) applyFilter() {
	query := c.filterInput.Value()
	c.filterQuery = query

	if query == "" {
		c.filteredIdx = nil
		c.nameMatches = nil
		return
	}

	names := make([]string, len(c.tracks))
	artists := make([]string, len(c.tracks))
	for i, t := range c.tracks {
		names[i] = strings.ToLower(t.TrackName)
		artists[i] = t.Artists
	}

	seen := make(map[int]bool)
	c.filteredIdx = []int{}
	c.nameMatches = make(map[int][]int)

	for _, match := range fuzzy.Find(strings.ToLower(query), names) {
		seen[match.Index] = true
		c.filteredIdx = append(c.filteredIdx, match.Index)
		c.nameMatches[match.Index] = match.MatchedIndexes
	}

	ranks := fuzzysearch.RankFindNormalizedFold(query, artists)
	sort.Stable(ranks)
	for _, rank := range ranks {
		if seen[rank.OriginalIndex] {
			continue
		}
		seen[rank.OriginalIndex] = true
		c.filteredIdx = append(c.filteredIdx, rank.OriginalIndex)
	}

	c.cursor = 0
	c.offset = 0
}

func (c *TrackList) mapIndex(i int) int {
	if c.filteredIdx != nil && i < len(c.filteredIdx) {
		return c.filteredIdx[i]
	}
	return i
}

// Rendering

func (c *TrackList) renderContent() string {
	itemWidth := c.width - BorderWidth
	if itemWidth < 10 {
		itemWidth = 10
	}

	titleLine := styles.AccentStyle.Render(styles.Truncate(c.title, itemWidth))

	count := c.ItemCount()
	if count == 0 {
		emptyMsg := styles.DimStyle.Render("No recommendations yet")
		if c.filterActive && c.filterQuery != "" {
			emptyMsg = styles.DimStyle.Render("No matches")
		}
		content := titleLine + "\n" + " " + "\n" + emptyMsg + "\n" + " "
		if c.filterActive {
			content += "\n" + c.renderFilterBar()
		}
		return content
	}

	var lines []string

	end := c.offset + c.maxVisible
	if end > count {
		end = count
	}

	for i := c.offset; i < end; i++ {
		idx := c.mapIndex(i)
		lines = append(lines, c.renderTrack(idx, i == c.cursor, itemWidth))
	}

	// Always reserve the indicator lines to prevent layout shifts
	header := " "
	if c.offset > 0 {
		header = styles.DimStyle.Render("↑ more")
	}

	footer := " "
	if end < count {
		footer = styles.DimStyle.Render("↓ more")
	}

	content := titleLine + "\n" + header + "\n" + strings.Join(lines, "\n") + "\n" + footer

	if c.filterActive {
		content += "\n" + c.renderFilterBar()
	}

	return content
}

func (c *TrackList) renderTrack(idx int, selected bool, width int) string {
	track := c.tracks[idx]
	dim := styles.DimGray

	number := fmt.Sprintf("%3d ", idx+1)

	// Title gets up to 60% of the remaining space, artists the rest
	available := width - len(number) - 2
	if available < 10 {
		available = 10
	}
	titleWidth := available * 6 / 10
	title := styles.Truncate(track.Title(), titleWidth)
	artistWidth := available - lipgloss.Width(title) - 3
	artists := ""
	if artistWidth > 0 && track.Artists != "" {
		artists = "  " + styles.Truncate(track.Artists, artistWidth)
	}

	parts := []styles.RowPart{{Text: number, Foreground: &dim}}
	parts = append(parts, highlightParts(title, c.nameMatches[idx])...)
	parts = append(parts, styles.RowPart{Text: artists, Foreground: &dim})

	return styles.RenderListRow(parts, selected, width)
}

// highlightParts splits s into runs, marking the bytes at matched offsets.
func highlightParts(s string, matched []int) []styles.RowPart {
	if len(matched) == 0 {
		return []styles.RowPart{{Text: s}}
	}

	hit := make(map[int]bool, len(matched))
	for _, i := range matched {
		hit[i] = true
	}

	accent := styles.Accent
	var parts []styles.RowPart
	var run strings.Builder
	runHit := false

	flush := func() {
		if run.Len() == 0 {
			return
		}
		part := styles.RowPart{Text: run.String()}
		if runHit {
			part.Foreground = &accent
			part.Bold = true
		}
		parts = append(parts, part)
		run.Reset()
	}

	for i, r := range s {
		if hit[i] != runHit {
			flush()
			runHit = hit[i]
		}
		run.WriteRune(r)
	}
	flush()

	return parts
}

func (c *TrackList) renderFilterBar() string {
	input := c.filterInput.View()

	countStr := ""
	if c.filterQuery != "" {
		countStr = styles.DimStyle.Render(fmt.Sprintf(" [%d/%d]", c.ItemCount(), len(c.tracks)))
	}

	return input + countStr
}
