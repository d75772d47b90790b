package ui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/logdeck/internal/filter"
	"github.com/five82/logdeck/internal/prefs"
	"github.com/five82/logdeck/internal/record"
	"github.com/five82/logdeck/internal/state"
	"github.com/five82/logdeck/internal/view"
)

const (
	defaultStatusTick = time.Second
	actionTimeout     = 5 * time.Second
)

// Controller is the subset of the application control surface the UI drives.
type Controller interface {
	Show(ctx context.Context, sink view.Sink) error
	Clear(ctx context.Context) error
	ClearDisplay(ctx context.Context) error
	ApplyPort(ctx context.Context, port int) error
	TogglePause(ctx context.Context) (bool, error)
	ToggleFilterBar(ctx context.Context) error
	SetFilters(ctx context.Context, patch filter.Patch) error
	SetTheme(ctx context.Context, theme string) error
	ExportFile(ctx context.Context) (string, error)
}

// Options configures the UI.
type Options struct {
	Controller    Controller
	Status        *state.Store
	ThemeName     string
	HideFilterBar bool
	PrefsPath     string
	StatusTick    time.Duration
}

// inputMode says where key presses go.
type inputMode int

const (
	modeTable inputMode = iota
	modeFilters
	modePort
)

// Filter field order in the filter bar.
const (
	fieldSeverity = iota
	fieldCategory
	fieldMessage
	fieldCount
)

// Model is the root application state for Bubble Tea. It is also the display
// sink: view instructions arrive as instructionMsg.
type Model struct {
	// Configuration
	ctx       context.Context
	ctrl      Controller
	status    *state.Store
	sink      view.Sink
	prefsPath string
	tick      time.Duration
	keys      keyMap

	// Presentation
	theme     Theme
	gridLines bool
	width     int
	height    int
	ready     bool
	showHelp  bool

	// Table state mirrored from the view core
	rows   []record.Row
	shown  int
	total  int
	paused bool

	// Scrolling: follow pins the newest row to the bottom, otherwise offset
	// is the first visible row.
	follow bool
	offset int

	// Inputs
	mode          inputMode
	showFilterBar bool
	filterInputs  [fieldCount]textinput.Model
	filterFocus   int
	portInput     textinput.Model

	// Status line
	snapshot state.Snapshot
	flash    string
	flashErr bool
}

// Messages

// instructionMsg carries one view instruction from the event loop.
type instructionMsg struct{ in view.Instruction }

// inspectMsg asks the model for the rows it currently shows.
type inspectMsg struct{ reply chan<- []record.Row }

type tickMsg time.Time

type snapshotMsg state.Snapshot

// resultMsg reports the outcome of a controller call.
type resultMsg struct {
	text string
	err  error
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	tick := opts.StatusTick
	if tick <= 0 {
		tick = defaultStatusTick
	}
	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	m := Model{
		ctx:           context.Background(),
		ctrl:          opts.Controller,
		status:        opts.Status,
		prefsPath:     prefsPath,
		tick:          tick,
		keys:          DefaultKeyMap(),
		theme:         GetTheme(opts.ThemeName),
		follow:        true,
		showFilterBar: !opts.HideFilterBar,
	}
	m.initInputs()
	return m
}

func (m *Model) initInputs() {
	placeholders := [fieldCount]string{
		"Error, >Warning, !Verbose",
		"LogNet, !LogTemp",
		"text, !noise",
	}
	for i := range m.filterInputs {
		ti := textinput.New()
		ti.Prompt = ""
		ti.Placeholder = placeholders[i]
		ti.CharLimit = 200
		m.filterInputs[i] = ti
	}

	port := textinput.New()
	port.Prompt = "Port: "
	port.CharLimit = 5
	port.Validate = func(s string) error {
		for _, r := range s {
			if r < '0' || r > '9' {
				return errors.New("digits only")
			}
		}
		return nil
	}
	m.portInput = port
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(m.tick)}
	if m.status != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.status))
	}
	if m.ctrl != nil && m.sink != nil {
		cmds = append(cmds, m.call("", func(ctx context.Context) error {
			return m.ctrl.Show(ctx, m.sink)
		}))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case instructionMsg:
		cmd := m.apply(msg.in)
		return m, cmd

	case inspectMsg:
		select {
		case msg.reply <- record.CloneRows(m.rows):
		default:
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resizeInputs()
		m.clampOffset()
		return m, nil

	case tickMsg:
		cmds := []tea.Cmd{tickCmd(m.tick)}
		if m.status != nil {
			cmds = append(cmds, fetchSnapshotCmd(m.status))
		}
		return m, tea.Batch(cmds...)

	case snapshotMsg:
		m.snapshot = state.Snapshot(msg)
		return m, nil

	case resultMsg:
		if msg.err != nil {
			m.flash = msg.err.Error()
			m.flashErr = true
		} else if msg.text != "" {
			m.flash = msg.text
			m.flashErr = false
		}
		return m, nil
	}

	return m, nil
}

// apply mirrors one view instruction into the model.
func (m *Model) apply(in view.Instruction) tea.Cmd {
	switch msg := in.(type) {
	case view.SetRows:
		m.rows = record.CloneRows(msg.Rows)
		m.clampOffset()
	case view.AppendRow:
		m.rows = append(m.rows, msg.Row)
	case view.RemoveOldest:
		n := min(msg.Count, len(m.rows))
		m.rows = m.rows[n:]
		if !m.follow {
			m.offset = max(0, m.offset-n)
		}
	case view.UpdateCounts:
		m.shown, m.total = msg.Shown, msg.Total
	case view.FilterInputs:
		m.setFilterValues(msg.Spec)
	case view.ResetFilters:
		m.setFilterValues(filter.Spec{})
	case view.PauseState:
		m.paused = msg.Paused
	case view.ToggleFilterBar:
		m.showFilterBar = !m.showFilterBar
		if !m.showFilterBar && m.mode == modeFilters {
			m.leaveInput()
		}
		return m.savePrefsCmd()
	case view.Appearance:
		changed := msg.Theme != "" && msg.Theme != m.theme.Name
		if msg.Theme != "" {
			m.theme = GetTheme(msg.Theme)
		}
		m.gridLines = msg.GridLines
		if changed {
			return m.savePrefsCmd()
		}
	}
	return nil
}

func (m *Model) setFilterValues(spec filter.Spec) {
	m.filterInputs[fieldSeverity].SetValue(spec.Severity)
	m.filterInputs[fieldCategory].SetValue(spec.Category)
	m.filterInputs[fieldMessage].SetValue(spec.Message)
}

func (m Model) filterPatch() filter.Patch {
	severity := m.filterInputs[fieldSeverity].Value()
	category := m.filterInputs[fieldCategory].Value()
	message := m.filterInputs[fieldMessage].Value()
	return filter.Patch{Severity: &severity, Category: &category, Message: &message}
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	return m.renderMain()
}

// call runs fn against the controller off the Bubble Tea goroutine. The event
// loop may be blocked handing this program an instruction, so controller
// calls never run inside Update.
func (m Model) call(success string, fn func(ctx context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		cctx, cancel := context.WithTimeout(ctx, actionTimeout)
		defer cancel()
		if err := fn(cctx); err != nil {
			return resultMsg{err: err}
		}
		return resultMsg{text: success}
	}
}

func (m Model) savePrefsCmd() tea.Cmd {
	path := m.prefsPath
	p := prefs.Prefs{Theme: m.theme.Name, HideFilterBar: !m.showFilterBar}
	return func() tea.Msg {
		if err := prefs.Save(path, p); err != nil {
			return resultMsg{err: err}
		}
		return nil
	}
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

// programSink forwards instructions into a running program.
type programSink struct {
	p *tea.Program
}

// Send implements view.Sink.
func (s *programSink) Send(in view.Instruction) {
	s.p.Send(instructionMsg{in: in})
}

// Inspect returns the rows the program currently shows.
func (s *programSink) Inspect(ctx context.Context) ([]record.Row, error) {
	reply := make(chan []record.Row, 1)
	go s.p.Send(inspectMsg{reply: reply})
	select {
	case rows := <-reply:
		return rows, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Run starts the Bubble Tea program and blocks until it exits or ctx is
// cancelled.
func Run(ctx context.Context, opts Options) error {
	sink := &programSink{}
	m := New(opts)
	m.ctx = ctx
	m.sink = sink

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	sink.p = p
	_, err := p.Run()

	if opts.Controller != nil {
		dctx, cancel := context.WithTimeout(context.Background(), time.Second)
		_ = opts.Controller.Show(dctx, nil)
		cancel()
	}
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
