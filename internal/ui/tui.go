// Package ui provides the terminal task list window.
package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/nibzard/tasklist/internal/controller"
	"github.com/nibzard/tasklist/internal/form"
	"github.com/nibzard/tasklist/internal/task"
)

// Option configures the UI.
type Option func(*uiConfig)

type uiConfig struct {
	refreshInterval time.Duration
	clockInterval   time.Duration
	storeLabel      string
	logger          *log.Logger
}

// WithRefreshInterval sets how often the task list is re-read.
func WithRefreshInterval(d time.Duration) Option {
	return func(c *uiConfig) {
		if d > 0 {
			c.refreshInterval = d
		}
	}
}

// WithClockInterval sets how often the clock label updates.
func WithClockInterval(d time.Duration) Option {
	return func(c *uiConfig) {
		if d > 0 {
			c.clockInterval = d
		}
	}
}

// WithStoreLabel sets the store description shown in the footer.
func WithStoreLabel(label string) Option {
	return func(c *uiConfig) {
		c.storeLabel = label
	}
}

// WithLogger sets the logger for UI events.
func WithLogger(logger *log.Logger) Option {
	return func(c *uiConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Run starts the task list window and blocks until the user quits or ctx
// is cancelled.
func Run(ctx context.Context, ctrl *controller.Controller, opts ...Option) error {
	if !IsTTY(os.Stdout) {
		return fmt.Errorf("tui requires a TTY")
	}
	m := newModel(ctx, ctrl, opts...)
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

type mode int

const (
	modeList mode = iota
	modeForm
	modeConfirm
)

const (
	fieldTitle = iota
	fieldDescription
	fieldEnd
	fieldCount
)

type model struct {
	ctx    context.Context
	ctrl   *controller.Controller
	logger *log.Logger

	refreshInterval time.Duration
	clockInterval   time.Duration
	storeLabel      string

	clock      string
	snap       controller.Snapshot
	loaded     bool
	refreshing bool
	skipped    int

	cursor int
	width  int
	height int

	mode    mode
	form    *form.Form
	inputs  []textinput.Model
	focus   int
	pending *task.Action

	status    string
	statusErr bool
}

type clockTickMsg time.Time

type refreshTickMsg time.Time

type refreshedMsg struct {
	snap controller.Snapshot
	err  error
}

type dispatchedMsg struct {
	cmd  task.Command
	snap controller.Snapshot
	err  error
}

func newModel(ctx context.Context, ctrl *controller.Controller, opts ...Option) *model {
	c := &uiConfig{
		refreshInterval: controller.DefaultInterval,
		clockInterval:   time.Second,
		storeLabel:      "memory",
		logger:          log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}
	m := &model{
		ctx:             ctx,
		ctrl:            ctrl,
		logger:          c.logger,
		refreshInterval: c.refreshInterval,
		clockInterval:   c.clockInterval,
		storeLabel:      c.storeLabel,
	}
	m.updateClock()
	return m
}

func (m *model) Init() tea.Cmd {
	m.refreshing = true
	return tea.Batch(
		m.refreshCmd(),
		clockTickCmd(m.clockInterval),
		refreshTickCmd(m.refreshInterval),
	)
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		for i := range m.inputs {
			m.inputs[i].Width = inputWidth(msg.Width)
		}
		return m, nil
	case clockTickMsg:
		m.updateClock()
		return m, clockTickCmd(m.clockInterval)
	case refreshTickMsg:
		if m.refreshing {
			m.skipped++
			m.logger.Debug("refresh tick skipped", "skipped", m.skipped)
			return m, refreshTickCmd(m.refreshInterval)
		}
		m.refreshing = true
		return m, tea.Batch(m.refreshCmd(), refreshTickCmd(m.refreshInterval))
	case refreshedMsg:
		m.refreshing = false
		if errors.Is(msg.err, controller.ErrRefreshInFlight) {
			return m, nil
		}
		if msg.err != nil {
			m.setError(fmt.Errorf("load tasks: %w", msg.err))
			return m, nil
		}
		m.applySnapshot(msg.snap)
		return m, nil
	case dispatchedMsg:
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		m.applySnapshot(msg.snap)
		m.setStatus(describe(msg.cmd))
		return m, nil
	case tea.KeyMsg:
		switch m.mode {
		case modeForm:
			return m.updateForm(msg)
		case modeConfirm:
			return m.updateConfirm(msg)
		default:
			return m.updateList(msg)
		}
	}
	return m, nil
}

func (m *model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < m.snap.Len()-1 {
			m.cursor++
		}
	case "home", "g":
		m.cursor = 0
	case "end", "G":
		if m.snap.Len() > 0 {
			m.cursor = m.snap.Len() - 1
		}
	case "a", "n":
		return m, m.openForm()
	case "d", "delete":
		entity, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.askConfirm(entity.RequestDelete())
	case "e":
		entity, ok := m.selected()
		if !ok {
			return m, nil
		}
		action, ok := entity.RequestComplete()
		if !ok {
			m.setStatus("Task is already done")
			return m, nil
		}
		m.askConfirm(action)
	case "r", "f5":
		if m.refreshing {
			return m, nil
		}
		m.refreshing = true
		return m, m.refreshCmd()
	}
	return m, nil
}

func (m *model) askConfirm(action *task.Action) {
	m.pending = action
	m.mode = modeConfirm
	m.setStatus("")
}

func (m *model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "y", "Y":
		return m, m.resolvePending(true)
	case "n", "N", "esc", "enter":
		return m, m.resolvePending(false)
	}
	return m, nil
}

func (m *model) resolvePending(confirmed bool) tea.Cmd {
	action := m.pending
	m.pending = nil
	m.mode = modeList
	cmd, ok := action.Resolve(confirmed, m.ctrl.Now())
	if !ok {
		m.setStatus("Cancelled")
		return nil
	}
	return m.dispatchCmd(cmd)
}

func (m *model) selected() (task.Entity, bool) {
	if m.cursor < 0 || m.cursor >= m.snap.Len() {
		return task.Entity{}, false
	}
	return m.snap.Entities[m.cursor], true
}

func (m *model) applySnapshot(snap controller.Snapshot) {
	m.snap = snap
	m.loaded = true
	if m.cursor >= snap.Len() {
		m.cursor = snap.Len() - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *model) updateClock() {
	m.clock = task.FormatTime(m.ctrl.Now())
}

func (m *model) setStatus(s string) {
	m.status = s
	m.statusErr = false
}

func (m *model) setError(err error) {
	m.logger.Error("action failed", "err", err)
	m.status = err.Error()
	m.statusErr = true
}

func (m *model) refreshCmd() tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		snap, err := ctrl.Refresh(ctx)
		return refreshedMsg{snap: snap, err: err}
	}
}

func (m *model) dispatchCmd(cmd task.Command) tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		snap, err := ctrl.Dispatch(ctx, cmd)
		return dispatchedMsg{cmd: cmd, snap: snap, err: err}
	}
}

func clockTickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return clockTickMsg(t)
	})
}

func refreshTickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return refreshTickMsg(t)
	})
}

func describe(cmd task.Command) string {
	switch c := cmd.(type) {
	case task.CreateCommand:
		return fmt.Sprintf("Added %q", c.Task.Title)
	case task.DeleteCommand:
		return "Task deleted"
	case task.CompleteCommand:
		return "Task ended at " + task.FormatTime(c.At)
	}
	return "Done"
}

// IsTTY returns true if w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
