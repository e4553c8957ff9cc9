// Package tui implements the interactive terminal browser for cached time
// entries. The event loop never performs network I/O itself: every fetch and
// mutation is handed to the application scheduler from a tea.Cmd.
package tui

import (
	"context"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ericfisherdev/timeguru/internal/application"
	"github.com/ericfisherdev/timeguru/internal/domain/model"
	"github.com/ericfisherdev/timeguru/internal/domain/processor"
)

// Service is the subset of the sync coordinator the browser needs.
type Service interface {
	LoadEntries(ctx context.Context, rng model.DateRange, f model.EntryFilter) ([]model.Entry, error)
	LoadProjects(ctx context.Context) ([]model.Project, error)
	CachedRunning(ctx context.Context) (*model.Entry, error)
	BulkPull(ctx context.Context, rng model.DateRange) (application.PullResult, error)
	AssignProjectBatch(ctx context.Context, ids []int64, projectID *int64) (application.BatchResult, error)
	Rename(ctx context.Context, entryID int64, text string) error
	StartTracking(ctx context.Context, description string) (model.Entry, error)
	StopTracking(ctx context.Context) (model.Entry, error)
}

// Options configures a Model.
type Options struct {
	Range        model.DateRange
	RoundMinutes int
	Rounding     bool
	Location     *time.Location
	// Now and Copy default to time.Now and the system clipboard.
	Now  func() time.Time
	Copy func(string) error
}

// Model is the bubbletea model of the browser.
type Model struct {
	ctx   context.Context
	svc   Service
	sched *application.Scheduler
	opts  Options

	keys  keyMap
	help  help.Model
	state viewState

	entries  []model.Entry
	projects []model.Project
	index    processor.ProjectIndex
	rows     []processor.Row
	running  *model.Entry
	loaded   bool

	busy     bool
	status   string
	errText  string
	showHelp bool

	picker picker
	editor editor

	width  int
	height int
}

// New creates a browser over rng.
func New(ctx context.Context, svc Service, sched *application.Scheduler, opts Options) Model {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Copy == nil {
		opts.Copy = clipboard.WriteAll
	}

	return Model{
		ctx:    ctx,
		svc:    svc,
		sched:  sched,
		opts:   opts,
		keys:   defaultKeyMap(),
		help:   help.New(),
		state:  viewState{rounding: opts.Rounding},
		index:  processor.ProjectIndex{},
		picker: newPicker(),
		editor: newEditor(),
		width:  100,
		height: 30,
	}
}

// Run starts the browser on the terminal and blocks until it exits.
func Run(ctx context.Context, svc Service, sched *application.Scheduler, opts Options) error {
	p := tea.NewProgram(New(ctx, svc, sched, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		// Killed by signal-driven cancellation.
		return nil
	}
	return err
}

// --- Messages ---

type loadedMsg struct {
	entries  []model.Entry
	projects []model.Project
	running  *model.Entry
	err      error
}

type mutationDoneMsg struct {
	status string
	err    error
}

// Init loads the cached entries.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadCmd(), textinput.Blink)
}

// Update handles messages and key presses.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.picker.setWidth(msg.Width)
		m.editor.setWidth(msg.Width)
		return m, nil

	case loadedMsg:
		if msg.err != nil {
			return m.showError(msg.err), nil
		}
		m.loaded = true
		m.entries = msg.entries
		m.projects = msg.projects
		m.index = processor.IndexProjects(msg.projects)
		m.running = msg.running
		m.rebuild()
		return m, nil

	case mutationDoneMsg:
		m.busy = false
		if msg.err != nil {
			m = m.showError(msg.err)
		} else {
			m.status = msg.status
		}
		return m, m.loadCmd()

	case tea.KeyMsg:
		switch m.state.overlay {
		case overlayProjectSelector:
			return m.updatePicker(msg)
		case overlayTextEdit:
			return m.updateEditor(msg)
		case overlayError:
			return m.updateError(msg)
		default:
			return m.updateBrowsing(msg)
		}
	}

	return m, nil
}

// rebuild recomputes the displayed sequence from the current toggles and
// re-clamps the selection without resetting it.
func (m *Model) rebuild() {
	filtered := processor.Filter(m.entries, m.state.filter, m.index)
	m.rows = processor.Build(filtered, processor.Options{
		Mode:         m.state.mode,
		Sort:         m.state.sort,
		Rounding:     m.state.rounding,
		RoundMinutes: m.opts.RoundMinutes,
		Now:          m.opts.Now(),
		Location:     m.opts.Location,
	})
	m.state.clamp(len(m.rows))
}

// selectedRow returns the row under the cursor.
func (m Model) selectedRow() (processor.Row, bool) {
	if len(m.rows) == 0 {
		return processor.Row{}, false
	}
	return m.rows[m.state.selected], true
}

// showError opens the error popup above the current browsing state.
func (m Model) showError(err error) Model {
	m.errText = err.Error()
	m.state.overlay = overlayError
	return m
}

func (m Model) updateError(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc", "q":
		m.state.overlay = overlayNone
		m.errText = ""
	}
	return m, nil
}
