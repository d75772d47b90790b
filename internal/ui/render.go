package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/logdeck/internal/record"
)

// Column widths.
const (
	minTimeWidth     = 8
	maxTimeWidth     = 26
	sourceWidth      = 3
	severityWidth    = 11
	minCategoryWidth = 8
	maxCategoryWidth = 24
	minMessageWidth  = 10
)

// chromeLines counts the header, column titles and status bar.
const chromeLines = 3

// tableHeight returns how many rows fit on screen.
func (m Model) tableHeight() int {
	h := m.height - chromeLines
	if m.showFilterBar {
		h--
	}
	return max(1, h)
}

// renderMain renders the header, filter bar, table and status bar.
func (m Model) renderMain() string {
	lines := []string{m.renderHeader()}
	if m.showFilterBar {
		lines = append(lines, m.renderFilterBar())
	}
	lines = append(lines, m.renderTable(), m.renderStatusBar())
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// renderHeader renders the listener and count summary.
func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.Surface)
	snap := m.snapshot

	parts := []string{bg.Render("logdeck", styles.Logo)}

	switch {
	case snap.LastListenError != nil:
		parts = append(parts,
			bg.Render("● OFF", styles.DangerText),
			bg.Render(truncate(snap.LastListenError.Error(), 60), styles.DangerText))
	case snap.Listening:
		parts = append(parts,
			bg.Render("● ON", styles.SuccessText),
			bg.Render("Port:", styles.MutedText)+bg.Space()+bg.Render(fmt.Sprintf("%d", snap.Port), styles.Text))
	default:
		parts = append(parts, bg.Render("Starting...", styles.WarningText.Bold(true)))
	}

	parts = append(parts,
		bg.Render("Clients:", styles.MutedText)+bg.Space()+bg.Render(fmt.Sprintf("%d", snap.ActiveConnections), styles.Text),
		bg.Render("Shown:", styles.MutedText)+bg.Space()+
			bg.Render(fmt.Sprintf("%d/%d", m.shown, m.total), styles.Text))

	if snap.DecodeErrors > 0 {
		parts = append(parts,
			bg.Render("Bad frames:", styles.MutedText)+bg.Space()+
				bg.Render(fmt.Sprintf("%d", snap.DecodeErrors), styles.WarningText))
	}
	if m.paused {
		parts = append(parts, bg.Render("PAUSED", styles.WarningText.Bold(true)))
	}

	return bg.FillLine(bg.Space()+bg.Join(parts, "  "), m.width)
}

// renderFilterBar renders the three filter inputs.
func (m Model) renderFilterBar() string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.Surface)
	labels := [fieldCount]string{"Severity", "Category", "Message"}

	parts := make([]string, 0, fieldCount)
	for i, in := range m.filterInputs {
		labelStyle := styles.MutedText
		if m.mode == modeFilters && m.filterFocus == i {
			labelStyle = styles.AccentText.Bold(true)
		}
		field := lipgloss.NewStyle().
			Background(lipgloss.Color(m.theme.SurfaceAlt)).
			Foreground(lipgloss.Color(m.theme.Text)).
			Width(in.Width + 1).
			Render(in.View())
		parts = append(parts, bg.Render(labels[i], labelStyle)+bg.Space()+field)
	}
	return bg.FillLine(bg.Space()+bg.Join(parts, "  "), m.width)
}

// tableLayout holds column widths for one frame.
type tableLayout struct {
	time, category, message int
	source                  bool
}

func (m Model) layout(rows []record.Row) tableLayout {
	l := tableLayout{time: minTimeWidth, category: minCategoryWidth}
	for _, r := range rows {
		l.time = max(l.time, lipgloss.Width(r.Time))
		l.category = max(l.category, lipgloss.Width(r.Category))
		if r.ShortSource() != "" {
			l.source = true
		}
	}
	l.time = min(l.time, maxTimeWidth)
	l.category = min(l.category, maxCategoryWidth)

	// cols counts separators; the leading space takes one more cell.
	cols := 3
	used := l.time + severityWidth + l.category
	if l.source {
		cols++
		used += sourceWidth
	}
	l.message = max(minMessageWidth, m.width-used-cols*separatorWidth-1)
	return l
}

const separatorWidth = 3

func (m Model) separator(bg BgStyle) string {
	if !m.gridLines {
		return bg.Spaces(separatorWidth)
	}
	grid := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.GridLine))
	return bg.Space() + bg.Render("│", grid) + bg.Space()
}

// renderTable renders the column titles and the visible window of rows.
func (m Model) renderTable() string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.FocusBg)
	start, end := m.visibleRange()
	window := m.rows[start:end]
	l := m.layout(window)
	sep := m.separator(bg)
	height := m.tableHeight()

	title := styles.MutedText.Bold(true)
	cells := []string{bg.Cell("Time", l.time, title)}
	if l.source {
		cells = append(cells, bg.Cell("Src", sourceWidth, title))
	}
	cells = append(cells,
		bg.Cell("Severity", severityWidth, title),
		bg.Cell("Category", l.category, title),
		bg.Cell("Message", l.message, title))

	lines := make([]string, 0, height+1)
	lines = append(lines, bg.FillLine(bg.Space()+strings.Join(cells, sep), m.width))

	if len(window) == 0 {
		hint := "Waiting for log events"
		if m.snapshot.Listening {
			hint = fmt.Sprintf("Waiting for log events on port %d", m.snapshot.Port)
		}
		if m.total > 0 {
			hint = "No records match the current filters"
		}
		lines = append(lines, bg.FillLine(bg.Space()+bg.Render(hint, styles.FaintText), m.width))
	}
	for _, r := range window {
		lines = append(lines, bg.FillLine(bg.Space()+m.renderRow(r, l, bg, sep, styles), m.width))
	}
	for len(lines) < height+1 {
		lines = append(lines, bg.FillLine("", m.width))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderRow(r record.Row, l tableLayout, bg BgStyle, sep string, styles Styles) string {
	sevStyle := styles.SeverityStyle(r.Severity)
	cells := []string{bg.Cell(r.Time, l.time, styles.MutedText)}
	if l.source {
		cells = append(cells, bg.Cell(r.ShortSource(), sourceWidth, styles.FaintText))
	}
	cells = append(cells,
		bg.Cell(r.Severity, severityWidth, sevStyle),
		bg.Cell(r.Category, l.category, styles.AccentText),
		bg.Cell(singleLine(r.Message), l.message, sevStyle))
	return strings.Join(cells, sep)
}

// renderStatusBar renders the port prompt, the last action result, or the
// short key help.
func (m Model) renderStatusBar() string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.Surface)

	var content string
	switch {
	case m.mode == modePort:
		content = m.portInput.View() + bg.Spaces(2) +
			bg.Render("enter apply  esc cancel", styles.FaintText)
	case m.flash != "":
		style := styles.SuccessText
		if m.flashErr {
			style = styles.DangerText
		}
		content = bg.Render(truncateMiddle(m.flash, max(10, m.width-2)), style)
	default:
		bindings := m.keys.ShortHelp()
		if m.mode == modeFilters {
			bindings = m.keys.FullHelp()[1]
		}
		parts := make([]string, 0, len(bindings))
		for _, b := range bindings {
			h := b.Help()
			parts = append(parts, bg.Render(h.Key, styles.WarningText)+bg.Space()+bg.Render(h.Desc, styles.MutedText))
		}
		content = bg.Join(parts, "  ")
	}
	if !m.follow && m.mode == modeTable {
		content += bg.Spaces(2) + bg.Render("SCROLL", styles.AccentText.Bold(true))
	}
	return bg.FillLine(bg.Space()+content, m.width)
}
