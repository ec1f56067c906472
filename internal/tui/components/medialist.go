package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sahilm/fuzzy"

	"github.com/benw5483/rectifierr/internal/domain"
	"github.com/benw5483/rectifierr/internal/tui/styles"
)

// mediaSource adapts a media slice to the fuzzy matcher.
type mediaSource []domain.MediaFile

func (s mediaSource) String(i int) string { return s[i].DisplayTitle() }
func (s mediaSource) Len() int            { return len(s) }

// MediaList is a filterable, scrollable listing of media files. The
// filter runs locally over the loaded page with fuzzy matching; server
// search happens one level up when the user submits the filter.
type MediaList struct {
	items   []domain.MediaFile
	total   int
	matches []fuzzy.Match

	filterInput textinput.Model
	filtering   bool

	cursor int
	offset int
	width  int
	height int
}

// NewMediaList creates an empty list.
func NewMediaList() MediaList {
	ti := textinput.New()
	ti.Placeholder = "filter..."
	ti.Prompt = "/ "
	ti.CharLimit = 64
	return MediaList{filterInput: ti}
}

// SetSize updates the viewport dimensions.
func (l MediaList) SetSize(width, height int) MediaList {
	l.width = width
	l.height = height
	return l.clampScroll()
}

// SetItems replaces the backing page and re-applies the active filter.
func (l MediaList) SetItems(page domain.MediaPage) MediaList {
	l.items = page.Items
	l.total = page.Total
	l.cursor = 0
	l.offset = 0
	return l.refilter()
}

// Filtering reports whether the filter input owns keystrokes.
func (l MediaList) Filtering() bool { return l.filtering }

// FilterValue returns the current filter text.
func (l MediaList) FilterValue() string { return l.filterInput.Value() }

// Selected returns the file under the cursor, or nil for an empty view.
func (l MediaList) Selected() *domain.MediaFile {
	visible := l.visibleIndexes()
	if l.cursor < 0 || l.cursor >= len(visible) {
		return nil
	}
	return &l.items[visible[l.cursor]]
}

// Len returns the number of rows the current filter leaves visible.
func (l MediaList) Len() int { return len(l.visibleIndexes()) }

// Items returns the backing page items in load order.
func (l MediaList) Items() []domain.MediaFile { return l.items }

// JumpTo moves the cursor to the row showing the given item index, if
// the active filter still shows it.
func (l MediaList) JumpTo(itemIndex int) MediaList {
	for row, idx := range l.visibleIndexes() {
		if idx == itemIndex {
			l.cursor = row
			return l.clampScroll()
		}
	}
	return l
}

// visibleIndexes maps visible rows to positions in items. With no
// filter text every item is visible in load order; with one, rows
// follow the fuzzy ranking.
func (l MediaList) visibleIndexes() []int {
	if l.filterInput.Value() == "" {
		idx := make([]int, len(l.items))
		for i := range l.items {
			idx[i] = i
		}
		return idx
	}
	idx := make([]int, len(l.matches))
	for i, m := range l.matches {
		idx[i] = m.Index
	}
	return idx
}

func (l MediaList) refilter() MediaList {
	query := l.filterInput.Value()
	if query == "" {
		l.matches = nil
	} else {
		l.matches = fuzzy.FindFrom(query, mediaSource(l.items))
	}
	if n := len(l.visibleIndexes()); l.cursor >= n {
		l.cursor = n - 1
	}
	if l.cursor < 0 {
		l.cursor = 0
	}
	return l.clampScroll()
}

// Update handles navigation and filter editing.
func (l MediaList) Update(msg tea.Msg) (MediaList, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return l, nil
	}

	if l.filtering {
		switch key.String() {
		case "enter":
			l.filtering = false
			l.filterInput.Blur()
			return l, nil
		case "esc":
			l.filtering = false
			l.filterInput.Blur()
			l.filterInput.SetValue("")
			return l.refilter(), nil
		default:
			var cmd tea.Cmd
			l.filterInput, cmd = l.filterInput.Update(key)
			return l.refilter(), cmd
		}
	}

	switch key.String() {
	case "/":
		l.filtering = true
		l.filterInput.Focus()
		return l, textinput.Blink
	case "esc":
		if l.filterInput.Value() != "" {
			l.filterInput.SetValue("")
			return l.refilter(), nil
		}
	case "up", "k":
		l.cursor--
	case "down", "j":
		l.cursor++
	case "pgup":
		l.cursor -= l.pageRows()
	case "pgdown":
		l.cursor += l.pageRows()
	case "home", "g":
		l.cursor = 0
	case "end", "G":
		l.cursor = l.Len() - 1
	}

	if n := l.Len(); l.cursor >= n {
		l.cursor = n - 1
	}
	if l.cursor < 0 {
		l.cursor = 0
	}
	return l.clampScroll(), nil
}

func (l MediaList) pageRows() int {
	rows := l.height - 2
	if rows < 1 {
		rows = 1
	}
	return rows
}

func (l MediaList) clampScroll() MediaList {
	rows := l.pageRows()
	if l.cursor < l.offset {
		l.offset = l.cursor
	}
	if l.cursor >= l.offset+rows {
		l.offset = l.cursor - rows + 1
	}
	if l.offset < 0 {
		l.offset = 0
	}
	return l
}

// View renders the listing with issue badges and match highlighting.
func (l MediaList) View() string {
	var b strings.Builder

	if l.filtering || l.filterInput.Value() != "" {
		b.WriteString(l.filterInput.View())
		b.WriteString("\n")
	} else {
		b.WriteString(styles.DimStyle.Render(fmt.Sprintf("%d files", l.total)))
		b.WriteString("\n")
	}

	visible := l.visibleIndexes()
	if len(visible) == 0 {
		b.WriteString(styles.DimStyle.Render("  nothing to show"))
		return b.String()
	}

	rows := l.pageRows()
	end := l.offset + rows
	if end > len(visible) {
		end = len(visible)
	}

	matchAt := make(map[int][]int, len(l.matches))
	for _, m := range l.matches {
		matchAt[m.Index] = m.MatchedIndexes
	}

	for row := l.offset; row < end; row++ {
		item := l.items[visible[row]]
		selected := row == l.cursor

		label := l.renderTitle(item, matchAt[visible[row]], selected)
		badge := l.renderBadge(item)

		line := label
		if badge != "" {
			line += "  " + badge
		}
		if selected {
			b.WriteString(styles.SelectedItemStyle.Render(styles.Truncate(line, l.width-2)))
		} else {
			b.WriteString(styles.NormalItemStyle.Render(styles.Truncate(line, l.width-2)))
		}
		b.WriteString("\n")
	}

	return b.String()
}

// renderTitle highlights the fuzzy-matched runes in the display title.
func (l MediaList) renderTitle(item domain.MediaFile, matched []int, selected bool) string {
	title := item.DisplayTitle()
	if len(matched) == 0 {
		return title
	}

	highlight := styles.MatchHighlightStyle
	if selected {
		highlight = styles.MatchHighlightSelectedStyle
	}

	isMatch := make(map[int]bool, len(matched))
	for _, i := range matched {
		isMatch[i] = true
	}

	var b strings.Builder
	for i, r := range title {
		if isMatch[i] {
			b.WriteString(highlight.Render(string(r)))
		} else {
			b.WriteString(string(r))
		}
	}
	return b.String()
}

func (l MediaList) renderBadge(item domain.MediaFile) string {
	switch {
	case item.UnresolvedIssues > 0:
		return styles.ErrorStyle.Render(fmt.Sprintf("● %d", item.UnresolvedIssues))
	case item.IssueCount > 0:
		return styles.SuccessStyle.Render("✓ resolved")
	case item.LastScanned == "":
		return styles.DimStyle.Render("unscanned")
	default:
		return styles.DimStyle.Render("clean")
	}
}
