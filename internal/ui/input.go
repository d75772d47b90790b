package ui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// handleKey routes a key press by input mode.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if m.showHelp {
		if key.Matches(msg, m.keys.Help, m.keys.Cancel, m.keys.Quit) {
			m.showHelp = false
		}
		return m, nil
	}

	switch m.mode {
	case modeFilters:
		return m.handleFilterKey(msg)
	case modePort:
		return m.handlePortKey(msg)
	}
	return m.handleTableKey(msg)
}

func (m Model) handleTableKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		next := NextTheme(m.theme.Name)
		return m, m.call("", func(ctx context.Context) error {
			return m.ctrl.SetTheme(ctx, next)
		})

	case key.Matches(msg, m.keys.TogglePause):
		return m, m.call("", func(ctx context.Context) error {
			_, err := m.ctrl.TogglePause(ctx)
			return err
		})

	case key.Matches(msg, m.keys.ClearDisplay):
		m.follow = true
		return m, m.call("Log cleared", m.ctrl.ClearDisplay)

	case key.Matches(msg, m.keys.ClearAll):
		m.follow = true
		return m, m.call("Log and filters cleared", m.ctrl.Clear)

	case key.Matches(msg, m.keys.Export):
		return m, m.exportCmd()

	case key.Matches(msg, m.keys.ChangePort):
		m.mode = modePort
		m.portInput.SetValue("")
		if m.snapshot.Port > 0 {
			m.portInput.SetValue(strconv.Itoa(m.snapshot.Port))
		}
		m.portInput.CursorEnd()
		cmd := m.portInput.Focus()
		return m, cmd

	case key.Matches(msg, m.keys.ToggleFilterBar):
		return m, m.call("", m.ctrl.ToggleFilterBar)

	case key.Matches(msg, m.keys.FocusFilters):
		var cmd tea.Cmd
		if !m.showFilterBar {
			m.showFilterBar = true
			cmd = m.savePrefsCmd()
		}
		m.mode = modeFilters
		focus := m.focusFilter(m.filterFocus)
		return m, tea.Batch(cmd, focus)

	case key.Matches(msg, m.keys.Up):
		m.scrollBy(-1)
	case key.Matches(msg, m.keys.Down):
		m.scrollBy(1)
	case key.Matches(msg, m.keys.PageUp):
		m.scrollBy(-m.tableHeight())
	case key.Matches(msg, m.keys.PageDown):
		m.scrollBy(m.tableHeight())
	case key.Matches(msg, m.keys.Top):
		m.follow = false
		m.offset = 0
	case key.Matches(msg, m.keys.Bottom):
		m.follow = true
	}
	return m, nil
}

func (m Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.leaveInput()
		return m, nil
	case key.Matches(msg, m.keys.NextField):
		cmd := m.focusFilter((m.filterFocus + 1) % fieldCount)
		return m, cmd
	case key.Matches(msg, m.keys.PrevField):
		cmd := m.focusFilter((m.filterFocus + fieldCount - 1) % fieldCount)
		return m, cmd
	case key.Matches(msg, m.keys.Apply):
		patch := m.filterPatch()
		m.leaveInput()
		m.follow = true
		return m, m.call("", func(ctx context.Context) error {
			return m.ctrl.SetFilters(ctx, patch)
		})
	}

	var cmd tea.Cmd
	m.filterInputs[m.filterFocus], cmd = m.filterInputs[m.filterFocus].Update(msg)
	return m, cmd
}

func (m Model) handlePortKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.leaveInput()
		return m, nil
	case key.Matches(msg, m.keys.Apply):
		raw := strings.TrimSpace(m.portInput.Value())
		port, err := strconv.Atoi(raw)
		if err != nil || port < 1 || port > 65535 {
			m.flash = fmt.Sprintf("invalid port %q", raw)
			m.flashErr = true
			return m, nil
		}
		m.leaveInput()
		return m, m.call(fmt.Sprintf("Listening on port %d", port), func(ctx context.Context) error {
			return m.ctrl.ApplyPort(ctx, port)
		})
	}

	var cmd tea.Cmd
	m.portInput, cmd = m.portInput.Update(msg)
	return m, cmd
}

// focusFilter moves input focus to filter field i.
func (m *Model) focusFilter(i int) tea.Cmd {
	m.filterFocus = i
	for j := range m.filterInputs {
		if j != i {
			m.filterInputs[j].Blur()
		}
	}
	return m.filterInputs[i].Focus()
}

// leaveInput returns key handling to the table.
func (m *Model) leaveInput() {
	for i := range m.filterInputs {
		m.filterInputs[i].Blur()
	}
	m.portInput.Blur()
	m.mode = modeTable
}

func (m Model) exportCmd() tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		cctx, cancel := context.WithTimeout(ctx, actionTimeout)
		defer cancel()
		path, err := ctrl.ExportFile(cctx)
		if err != nil {
			return resultMsg{err: fmt.Errorf("export: %w", err)}
		}
		return resultMsg{text: "Exported to " + path}
	}
}

// Scrolling

// scrollBy moves the window by delta rows. Reaching the bottom resumes
// following.
func (m *Model) scrollBy(delta int) {
	h := m.tableHeight()
	maxOffset := max(0, len(m.rows)-h)
	if m.follow {
		m.offset = maxOffset
	}
	m.offset = min(max(0, m.offset+delta), maxOffset)
	m.follow = m.offset >= maxOffset
}

func (m *Model) clampOffset() {
	maxOffset := max(0, len(m.rows)-m.tableHeight())
	if m.offset > maxOffset {
		m.offset = maxOffset
	}
}

// visibleRange returns the half-open window of rows to draw.
func (m Model) visibleRange() (start, end int) {
	h := m.tableHeight()
	if m.follow {
		start = max(0, len(m.rows)-h)
	} else {
		start = min(m.offset, max(0, len(m.rows)-h))
	}
	end = min(len(m.rows), start+h)
	return start, end
}

func (m *Model) resizeInputs() {
	w := max(10, (m.width-40)/fieldCount)
	for i := range m.filterInputs {
		m.filterInputs[i].Width = w
	}
	m.portInput.Width = 8
}
