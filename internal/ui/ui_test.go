package ui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/logdeck/internal/filter"
	"github.com/five82/logdeck/internal/prefs"
	"github.com/five82/logdeck/internal/record"
	"github.com/five82/logdeck/internal/view"
)

type fakeController struct {
	shown       view.Sink
	clears      int
	displayClrs int
	pauses      int
	barToggles  int
	port        int
	portErr     error
	theme       string
	patch       filter.Patch
	patches     int
	exportPath  string
	exportErr   error
}

func (f *fakeController) Show(_ context.Context, sink view.Sink) error {
	f.shown = sink
	return nil
}
func (f *fakeController) Clear(context.Context) error        { f.clears++; return nil }
func (f *fakeController) ClearDisplay(context.Context) error { f.displayClrs++; return nil }
func (f *fakeController) ApplyPort(_ context.Context, port int) error {
	f.port = port
	return f.portErr
}
func (f *fakeController) TogglePause(context.Context) (bool, error) {
	f.pauses++
	return f.pauses%2 == 1, nil
}
func (f *fakeController) ToggleFilterBar(context.Context) error { f.barToggles++; return nil }
func (f *fakeController) SetFilters(_ context.Context, p filter.Patch) error {
	f.patch = p
	f.patches++
	return nil
}
func (f *fakeController) SetTheme(_ context.Context, theme string) error {
	f.theme = theme
	return nil
}
func (f *fakeController) ExportFile(context.Context) (string, error) {
	return f.exportPath, f.exportErr
}

func newTestModel(t *testing.T) (Model, *fakeController) {
	t.Helper()
	ctrl := &fakeController{}
	m := New(Options{
		Controller: ctrl,
		PrefsPath:  filepath.Join(t.TempDir(), "prefs.toml"),
	})
	return resize(m, 120, 10), ctrl
}

func resize(m Model, w, h int) Model {
	next, _ := m.Update(tea.WindowSizeMsg{Width: w, Height: h})
	return next.(Model)
}

func send(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// runCmd executes cmd and feeds its message back into the model.
func runCmd(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	if msg := cmd(); msg != nil {
		m, _ = send(t, m, msg)
	}
	return m
}

func rowsN(n int) []record.Row {
	rows := make([]record.Row, n)
	for i := range rows {
		rows[i] = record.Row{Time: "12:00:00.000", Severity: "Log", Category: "LogTemp", Message: fmt.Sprintf("m%d", i)}
	}
	return rows
}

func messages(rows []record.Row) string {
	parts := make([]string, len(rows))
	for i, r := range rows {
		parts[i] = r.Message
	}
	return strings.Join(parts, ",")
}

func TestApplyInstructions(t *testing.T) {
	m, _ := newTestModel(t)

	steps := []view.Instruction{
		view.SetRows{Rows: rowsN(3)},
		view.AppendRow{Row: record.Row{Message: "m3"}},
		view.RemoveOldest{Count: 1},
		view.UpdateCounts{Shown: 3, Total: 7},
		view.PauseState{Paused: true},
		view.FilterInputs{Spec: filter.Spec{Severity: ">Warning", Category: "LogNet", Message: "!noise"}},
	}
	for _, in := range steps {
		m, _ = send(t, m, instructionMsg{in: in})
	}

	if got, want := messages(m.rows), "m1,m2,m3"; got != want {
		t.Fatalf("rows = %q, want %q", got, want)
	}
	if m.shown != 3 || m.total != 7 {
		t.Fatalf("counts = %d/%d, want 3/7", m.shown, m.total)
	}
	if !m.paused {
		t.Fatal("expected paused")
	}
	spec := m.filterPatch()
	if *spec.Severity != ">Warning" || *spec.Category != "LogNet" || *spec.Message != "!noise" {
		t.Fatalf("filter inputs = %q %q %q", *spec.Severity, *spec.Category, *spec.Message)
	}

	m, _ = send(t, m, instructionMsg{in: view.ResetFilters{}})
	spec = m.filterPatch()
	if *spec.Severity != "" || *spec.Category != "" || *spec.Message != "" {
		t.Fatalf("filters after reset = %q %q %q", *spec.Severity, *spec.Category, *spec.Message)
	}

	m, _ = send(t, m, instructionMsg{in: view.RemoveOldest{Count: 10}})
	if len(m.rows) != 0 {
		t.Fatalf("rows after oversized removal = %d, want 0", len(m.rows))
	}
}

func TestSetRowsCopiesInput(t *testing.T) {
	m, _ := newTestModel(t)
	rows := rowsN(2)
	m, _ = send(t, m, instructionMsg{in: view.SetRows{Rows: rows}})
	rows[0].Message = "changed"
	if m.rows[0].Message != "m0" {
		t.Fatalf("model row mutated through caller slice: %q", m.rows[0].Message)
	}
}

func TestToggleFilterBarSavesPrefs(t *testing.T) {
	m, _ := newTestModel(t)
	if !m.showFilterBar {
		t.Fatal("filter bar should start visible")
	}

	m, cmd := send(t, m, instructionMsg{in: view.ToggleFilterBar{}})
	if m.showFilterBar {
		t.Fatal("filter bar still visible after toggle")
	}
	m = runCmd(t, m, cmd)

	p, err := prefs.Load(m.prefsPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !p.HideFilterBar {
		t.Fatal("HideFilterBar not persisted")
	}
}

func TestAppearanceAppliesThemeAndGridLines(t *testing.T) {
	m, _ := newTestModel(t)

	m, cmd := send(t, m, instructionMsg{in: view.Appearance{Theme: "Slate", GridLines: true}})
	if m.theme.Name != "Slate" || !m.gridLines {
		t.Fatalf("appearance = %q grid=%v, want Slate grid=true", m.theme.Name, m.gridLines)
	}
	m = runCmd(t, m, cmd)
	p, err := prefs.Load(m.prefsPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Theme != "Slate" {
		t.Fatalf("saved theme = %q, want Slate", p.Theme)
	}

	// Same theme again: nothing to save.
	_, cmd = send(t, m, instructionMsg{in: view.Appearance{Theme: "Slate"}})
	if cmd != nil {
		t.Fatal("unchanged theme should not save prefs")
	}
}

func TestInspectRepliesWithShownRows(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = send(t, m, instructionMsg{in: view.SetRows{Rows: rowsN(2)}})

	reply := make(chan []record.Row, 1)
	send(t, m, inspectMsg{reply: reply})
	got := <-reply
	if messages(got) != "m0,m1" {
		t.Fatalf("inspect = %q, want m0,m1", messages(got))
	}
}

func TestKeysCallController(t *testing.T) {
	tests := []struct {
		name  string
		key   tea.KeyMsg
		check func(*fakeController) bool
	}{
		{"pause", runes("p"), func(f *fakeController) bool { return f.pauses == 1 }},
		{"clear display", runes("c"), func(f *fakeController) bool { return f.displayClrs == 1 }},
		{"clear all", runes("C"), func(f *fakeController) bool { return f.clears == 1 }},
		{"toggle filter bar", runes("f"), func(f *fakeController) bool { return f.barToggles == 1 }},
		{"cycle theme", runes("T"), func(f *fakeController) bool { return f.theme == "Kanagawa" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ctrl := newTestModel(t)
			m, cmd := send(t, m, tt.key)
			runCmd(t, m, cmd)
			if !tt.check(ctrl) {
				t.Fatalf("controller not called as expected: %+v", ctrl)
			}
		})
	}
}

func TestFilterEditingAppliesPatch(t *testing.T) {
	m, ctrl := newTestModel(t)

	m, _ = send(t, m, runes("/"))
	if m.mode != modeFilters {
		t.Fatalf("mode = %v, want filters", m.mode)
	}
	m, _ = send(t, m, runes("Error"))
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m, _ = send(t, m, runes("LogNet"))
	m, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.mode != modeTable {
		t.Fatalf("mode after enter = %v, want table", m.mode)
	}
	runCmd(t, m, cmd)

	if ctrl.patches != 1 {
		t.Fatalf("SetFilters calls = %d, want 1", ctrl.patches)
	}
	if *ctrl.patch.Severity != "Error" || *ctrl.patch.Category != "LogNet" || *ctrl.patch.Message != "" {
		t.Fatalf("patch = %q %q %q", *ctrl.patch.Severity, *ctrl.patch.Category, *ctrl.patch.Message)
	}
}

func TestFilterEditingEscapeDiscards(t *testing.T) {
	m, ctrl := newTestModel(t)
	m, _ = send(t, m, runes("/"))
	m, _ = send(t, m, runes("x"))
	m, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if cmd != nil || ctrl.patches != 0 {
		t.Fatal("escape should not apply filters")
	}
	if m.mode != modeTable {
		t.Fatalf("mode = %v, want table", m.mode)
	}
}

func TestPortPrompt(t *testing.T) {
	m, ctrl := newTestModel(t)

	m, _ = send(t, m, runes("o"))
	if m.mode != modePort {
		t.Fatalf("mode = %v, want port", m.mode)
	}
	m, _ = send(t, m, runes("70000"))
	m, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil || !m.flashErr {
		t.Fatalf("out of range port accepted: flash=%q", m.flash)
	}

	m.portInput.SetValue("9001")
	m, cmd = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = runCmd(t, m, cmd)
	if ctrl.port != 9001 {
		t.Fatalf("ApplyPort port = %d, want 9001", ctrl.port)
	}
	if m.flashErr || !strings.Contains(m.flash, "9001") {
		t.Fatalf("flash = %q err=%v", m.flash, m.flashErr)
	}

	ctrl.portErr = errors.New("address already in use")
	m, _ = send(t, m, runes("o"))
	m.portInput.SetValue("9002")
	m, cmd = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = runCmd(t, m, cmd)
	if !m.flashErr || !strings.Contains(m.flash, "in use") {
		t.Fatalf("flash = %q err=%v, want listen error", m.flash, m.flashErr)
	}
}

func TestExportReportsPath(t *testing.T) {
	m, ctrl := newTestModel(t)
	ctrl.exportPath = "/tmp/logdeck-export.log"

	m, cmd := send(t, m, runes("x"))
	m = runCmd(t, m, cmd)
	if !strings.Contains(m.flash, ctrl.exportPath) {
		t.Fatalf("flash = %q, want export path", m.flash)
	}

	ctrl.exportErr = errors.New("disk full")
	m, cmd = send(t, m, runes("x"))
	m = runCmd(t, m, cmd)
	if !m.flashErr || !strings.Contains(m.flash, "disk full") {
		t.Fatalf("flash = %q, want export error", m.flash)
	}
}

func TestScrolling(t *testing.T) {
	m, _ := newTestModel(t)
	h := m.tableHeight()
	m, _ = send(t, m, instructionMsg{in: view.SetRows{Rows: rowsN(20)}})

	start, end := m.visibleRange()
	if start != 20-h || end != 20 {
		t.Fatalf("follow window = [%d,%d), want [%d,20)", start, end, 20-h)
	}

	m, _ = send(t, m, runes("k"))
	if m.follow {
		t.Fatal("scrolling up should stop following")
	}
	if start, _ = m.visibleRange(); start != 20-h-1 {
		t.Fatalf("start after up = %d, want %d", start, 20-h-1)
	}

	// Rows leaving the top keep the same records on screen.
	m, _ = send(t, m, instructionMsg{in: view.RemoveOldest{Count: 2}})
	if start, _ = m.visibleRange(); m.rows[start].Message != fmt.Sprintf("m%d", 20-h-1) {
		t.Fatalf("first visible = %q after removal", m.rows[start].Message)
	}

	m, _ = send(t, m, runes("g"))
	if start, _ = m.visibleRange(); start != 0 || m.follow {
		t.Fatalf("top: start=%d follow=%v", start, m.follow)
	}
	m, _ = send(t, m, runes("G"))
	if !m.follow {
		t.Fatal("G should resume following")
	}
	m, _ = send(t, m, instructionMsg{in: view.AppendRow{Row: record.Row{Message: "new"}}})
	if _, end = m.visibleRange(); m.rows[end-1].Message != "new" {
		t.Fatalf("newest visible = %q, want new", m.rows[end-1].Message)
	}
}

func TestViewRenders(t *testing.T) {
	m, _ := newTestModel(t)
	if got := New(Options{}).View(); got != "Loading..." {
		t.Fatalf("unsized View() = %q", got)
	}

	m, _ = send(t, m, instructionMsg{in: view.SetRows{Rows: []record.Row{
		{Time: "12:00:01.000", Severity: "Error", Category: "LogNet", Message: "socket closed", Source: "server"},
	}}})
	m, _ = send(t, m, instructionMsg{in: view.Appearance{GridLines: true}})
	out := m.View()
	for _, want := range []string{"logdeck", "LogNet", "socket", "ser", "│"} {
		if !strings.Contains(out, want) {
			t.Fatalf("View() missing %q:\n%s", want, out)
		}
	}
	if lines := strings.Count(out, "\n") + 1; lines != m.height {
		t.Fatalf("View() has %d lines, want %d", lines, m.height)
	}

	m, _ = send(t, m, runes("?"))
	if out := m.View(); !strings.Contains(out, "Keyboard Shortcuts") {
		t.Fatalf("help overlay missing title:\n%s", out)
	}
	m, _ = send(t, m, runes("?"))
	if m.showHelp {
		t.Fatal("? should close help")
	}
}
