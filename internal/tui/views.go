package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/benw5483/rectifierr/internal/tui/components"
	"github.com/benw5483/rectifierr/internal/tui/styles"
)

// trimModalHeight approximates the rendered modal's height for
// vertical centering; layoutTrim relies on the same value.
const trimModalHeight = 12

func trimContentWidth(screenWidth int) int {
	w := screenWidth - 10
	if w > 66 {
		w = 66
	}
	if w < 30 {
		w = 30
	}
	return w
}

// View renders the whole screen.
func (m Model) View() string {
	if m.width == 0 {
		return "loading..."
	}

	if m.trim != nil {
		return m.renderTrimModal()
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	switch m.screen {
	case screenSettings:
		b.WriteString(m.connect.View(m.width))
	default:
		b.WriteString(m.renderDashboard())
	}

	body := b.String()
	footer := m.renderFooter()

	// Pin the footer (with toasts above it) to the bottom.
	bodyHeight := m.height - lipgloss.Height(footer)
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	return lipgloss.Place(m.width, bodyHeight, lipgloss.Left, lipgloss.Top, body) + footer
}

func (m Model) renderHeader() string {
	title := styles.TitleStyle.Render(" Rectifierr ")

	var conn string
	switch {
	case m.connSt != nil && m.connSt.Connected:
		conn = styles.SuccessStyle.Render("● " + m.connSt.Server.Name)
	case m.connect.Phase() != components.ConnIdle && m.connect.Phase() != components.ConnConnected:
		conn = styles.AccentStyle.Render("● linking...")
	default:
		conn = styles.DimStyle.Render("○ not connected")
	}

	gap := m.width - lipgloss.Width(title) - lipgloss.Width(conn) - 2
	if gap < 1 {
		gap = 1
	}
	return title + strings.Repeat(" ", gap) + conn
}

func (m Model) renderDashboard() string {
	var b strings.Builder

	if m.stats != nil {
		b.WriteString(styles.SubtitleStyle.Render(fmt.Sprintf(
			"%d files · %d unresolved issues · %d bumpers · %d logos",
			m.stats.TotalFiles, m.stats.UnresolvedIssues, m.stats.BumpersFound, m.stats.LogosFound,
		)))
	} else {
		b.WriteString(styles.DimStyle.Render("loading stats..."))
	}
	b.WriteString("\n\n")
	b.WriteString(m.list.View())
	return b.String()
}

func (m Model) renderFooter() string {
	var b strings.Builder

	if m.scanToast.Visible() {
		b.WriteString(m.scanToast.View(m.width))
		b.WriteString("\n")
	}
	if m.syncToast.Visible() {
		b.WriteString(m.syncToast.View(m.width))
		b.WriteString("\n")
	}

	if m.errText != "" {
		b.WriteString(styles.ErrorStyle.Render(styles.Truncate(m.errText, m.width-2)))
		b.WriteString("\n")
	}

	b.WriteString(m.renderHelp())
	return b.String()
}

func (m Model) renderHelp() string {
	pairs := [][2]string{}
	if m.screen == screenSettings {
		pairs = append(pairs, [2]string{"tab", "dashboard"})
	} else {
		pairs = append(pairs,
			[2]string{"enter", "trim"},
			[2]string{"s", "scan"},
			[2]string{"c", "scan file"},
			[2]string{"i", "resolve"},
			[2]string{"/", "filter"},
			[2]string{"r", "refresh"},
			[2]string{"tab", "settings"},
		)
	}
	pairs = append(pairs, [2]string{"q", "quit"})

	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = styles.HelpKeyStyle.Render(p[0]) + styles.HelpDescStyle.Render(" "+p[1])
	}
	return " " + strings.Join(parts, styles.HelpDescStyle.Render("  ·  "))
}

// renderTrimModal centers the trim editor. The placement arithmetic is
// mirrored by layoutTrim so mouse events land on the right cells.
func (m Model) renderTrimModal() string {
	contentWidth := trimContentWidth(m.width)
	box := styles.ModalStyle.Render(m.trim.View(contentWidth))

	boxWidth := lipgloss.Width(box)
	boxHeight := lipgloss.Height(box)
	left := (m.width - boxWidth) / 2
	top := (m.height - trimModalHeight) / 2
	if left < 0 {
		left = 0
	}
	if top < 0 {
		top = 0
	}

	pad := strings.Repeat(" ", left)
	var b strings.Builder
	b.WriteString(strings.Repeat("\n", top))
	for _, line := range strings.Split(box, "\n") {
		b.WriteString(pad)
		b.WriteString(line)
		b.WriteString("\n")
	}

	bottom := m.height - top - boxHeight - 1
	if bottom > 0 {
		b.WriteString(strings.Repeat("\n", bottom-1))
	}
	return b.String()
}
