// Package tui provides the Bubble Tea layer stepper.
package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"github.com/verte-zerg/fnlayer/internal/gesture"
	"github.com/verte-zerg/fnlayer/internal/keymap"
	"github.com/verte-zerg/fnlayer/internal/model"
	"github.com/verte-zerg/fnlayer/internal/trace"
)

const maxCellWidth = 6

var (
	titleStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	statusStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	mutedStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	gridStyle        = lipgloss.NewStyle().Padding(0, 1).Border(lipgloss.RoundedBorder(), true).BorderForeground(lipgloss.Color("#4A4A4A"))
	keyCellStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	dimCellStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#4A4A4A"))
	emptyCellStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	fnCellStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	trackedCellStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#1E1E1E")).Background(lipgloss.Color("#C89A3A"))
)

// KeymapMsg delivers a reloaded keymap, or the error that prevented it.
type KeymapMsg struct {
	Keymap *keymap.Keymap
	Err    error
}

// Options configures the stepper.
type Options struct {
	Config model.Config
	Steps  []trace.Step
	Keymap *keymap.Keymap
	Source string
	Logger logrus.FieldLogger
}

// Model implements the Bubble Tea stepper UI. Stepping back replays the trace
// from cycle 0, which reproduces the classifier exactly.
type Model struct {
	cfg    model.Config
	steps  []trace.Step
	km     *keymap.Keymap
	source string
	log    logrus.FieldLogger

	classifier *gesture.Classifier
	pos        int
	fired      bool
	history    []string

	viewport viewport.Model
	help     help.Model
	keys     keyMap

	width  int
	height int
	status string
	err    error
}

// NewModel constructs a stepper positioned before the first cycle.
func NewModel(opts Options) (*Model, error) {
	log := opts.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	km := opts.Keymap
	if km == nil {
		km = keymap.Default()
	}
	m := &Model{
		cfg:      opts.Config,
		steps:    opts.Steps,
		km:       km,
		source:   opts.Source,
		log:      log,
		viewport: viewport.New(80, 10),
		help:     help.New(),
		keys:     defaultKeyMap(),
	}
	if err := m.restart(); err != nil {
		return nil, err
	}
	return m, nil
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.layout()
		return m, nil
	case KeymapMsg:
		m.applyKeymap(msg)
		return m, nil
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Step):
			m.step()
		case key.Matches(msg, m.keys.Back):
			m.back()
		case key.Matches(msg, m.keys.Restart):
			m.err = m.restart()
			m.status = "restarted"
		case key.Matches(msg, m.keys.End):
			for m.pos < len(m.steps) {
				m.step()
			}
		default:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
		m.refreshHistory()
		return m, nil
	default:
		return m, nil
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	title := titleStyle.Render("fnlayer")
	if m.source != "" {
		title += mutedStyle.Render(" · " + m.source)
	}
	sections := []string{
		title,
		statusStyle.Render(m.statusLine()),
		renderGrid(m.km, m.classifier.Layer(), m.classifier.Tracked()),
		m.viewport.View(),
	}
	if m.err != nil {
		sections = append(sections, errorStyle.Render(m.err.Error()))
	} else if m.status != "" {
		sections = append(sections, mutedStyle.Render(m.status))
	}
	sections = append(sections, m.help.View(m.keys))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) statusLine() string {
	c := m.classifier
	tracked := "-"
	if t := c.Tracked(); t != 0 {
		tracked = keymap.Keycode(t).String()
	}
	return fmt.Sprintf("cycle %d/%d  state %s  layer %d (%s)  timer %d  tracked %s  faults %d",
		m.pos, len(m.steps), c.State(), int(c.Layer()), c.Layer(), c.Timer(), tracked, c.Faults())
}

func (m *Model) step() {
	if m.pos >= len(m.steps) {
		m.status = "end of trace"
		return
	}
	s := m.steps[m.pos]
	m.fired = false
	m.classifier.Advance(s.Symbol, s.Key)
	m.pos++
	m.history = append(m.history, m.historyLine(s))
	m.status = ""
}

func (m *Model) back() {
	if m.pos == 0 {
		return
	}
	target := m.pos - 1
	if m.err = m.restart(); m.err != nil {
		return
	}
	for m.pos < target {
		m.step()
	}
}

func (m *Model) restart() error {
	c, err := gesture.New(gesture.Options{
		MinHoldCycles:        m.cfg.MinHoldCycles,
		MaxDoubleClickCycles: m.cfg.MaxDoubleClickCycles,
		DoubleClickLatch:     m.cfg.DoubleClickLatch,
		Logger:               m.log,
		OnTransition:         func(gesture.Transition) { m.fired = true },
	})
	if err != nil {
		return fmt.Errorf("failed to create classifier: %w", err)
	}
	m.classifier = c
	m.pos = 0
	m.history = nil
	m.refreshHistory()
	return nil
}

func (m *Model) historyLine(s trace.Step) string {
	c := m.classifier
	marker := " "
	if m.fired {
		marker = "→"
	}
	code := ""
	if s.Symbol.HasKey() {
		code = keymap.Keycode(s.Key).String()
	}
	return fmt.Sprintf("%s %6d  %-4s %-16s %-12s %2d  %3d", marker, c.Cycle(), s.Symbol, code, c.State(), int(c.Layer()), c.Timer())
}

func (m *Model) refreshHistory() {
	m.viewport.SetContent(strings.Join(m.history, "\n"))
	m.viewport.GotoBottom()
}

func (m *Model) applyKeymap(msg KeymapMsg) {
	if msg.Err != nil {
		m.log.WithError(msg.Err).Warn("keymap reload failed")
		m.status = "keymap reload failed: " + msg.Err.Error()
		return
	}
	m.km = msg.Keymap
	m.status = "keymap reloaded"
	m.log.Info("keymap reloaded")
	m.layout()
}

// layout gives the history viewport whatever height the other sections leave.
func (m *Model) layout() {
	if m.width == 0 || m.height == 0 {
		return
	}
	grid := renderGrid(m.km, m.classifier.Layer(), m.classifier.Tracked())
	fixed := 2 + lipgloss.Height(grid) + 2
	h := m.height - fixed
	if h < 3 {
		h = 3
	}
	m.viewport.Width = m.width
	m.viewport.Height = h
	m.refreshHistory()
}
