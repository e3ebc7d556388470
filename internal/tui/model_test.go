package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/fnlayer/internal/gesture"
	"github.com/verte-zerg/fnlayer/internal/keymap"
	"github.com/verte-zerg/fnlayer/internal/model"
	"github.com/verte-zerg/fnlayer/internal/trace"
)

func holdSteps() []trace.Step {
	mod := trace.Step{Symbol: gesture.SymbolMod}
	none := trace.Step{Symbol: gesture.SymbolNone}
	return []trace.Step{mod, mod, mod, mod, none}
}

func newTestModel(t *testing.T, steps []trace.Step) *Model {
	t.Helper()
	m, err := NewModel(Options{
		Config: model.Config{MinHoldCycles: 3, MaxDoubleClickCycles: 3},
		Steps:  steps,
		Source: "hold.trace",
	})
	if err != nil {
		t.Fatalf("new model: %v", err)
	}
	return m
}

func press(m *Model, msg tea.KeyMsg) {
	m.Update(msg)
}

var (
	keyRight = tea.KeyMsg{Type: tea.KeyRight}
	keyLeft  = tea.KeyMsg{Type: tea.KeyLeft}
)

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestNewModelRejectsBadThresholds(t *testing.T) {
	if _, err := NewModel(Options{Config: model.Config{}}); err == nil {
		t.Fatalf("expected error for zero thresholds")
	}
}

func TestStepFollowsHoldScenario(t *testing.T) {
	m := newTestModel(t, holdSteps())
	want := []gesture.Layer{-1, -1, 1, 1, 0}
	for i, layer := range want {
		press(m, keyRight)
		if got := m.classifier.Layer(); got != layer {
			t.Fatalf("cycle %d: expected layer %d, got %d", i+1, layer, got)
		}
	}
	press(m, keyRight)
	if m.pos != 5 || m.status != "end of trace" {
		t.Fatalf("expected to stop at end, pos=%d status=%q", m.pos, m.status)
	}
	if len(m.history) != 5 {
		t.Fatalf("expected 5 history lines, got %d", len(m.history))
	}
	if !strings.HasPrefix(m.history[0], "→") || strings.HasPrefix(m.history[1], "→") {
		t.Fatalf("transition markers wrong: %q", m.history[:2])
	}
}

func TestStepBackReplays(t *testing.T) {
	m := newTestModel(t, holdSteps())
	for i := 0; i < 3; i++ {
		press(m, keyRight)
	}
	if m.classifier.State() != gesture.StateHoldActive {
		t.Fatalf("expected hold after 3 cycles, got %s", m.classifier.State())
	}
	press(m, keyLeft)
	if m.pos != 2 || m.classifier.State() != gesture.StateArming || m.classifier.Timer() != 1 {
		t.Fatalf("unexpected state after back: pos=%d state=%s timer=%d", m.pos, m.classifier.State(), m.classifier.Timer())
	}
	if m.classifier.Cycle() != 2 || len(m.history) != 2 {
		t.Fatalf("replay should rebuild history, cycle=%d history=%d", m.classifier.Cycle(), len(m.history))
	}
	press(m, runeKey('h'))
	press(m, runeKey('h'))
	press(m, runeKey('h'))
	if m.pos != 0 || m.classifier.State() != gesture.StateIdle {
		t.Fatalf("back should stop at cycle 0, pos=%d", m.pos)
	}
}

func TestRestartAndRunToEnd(t *testing.T) {
	m := newTestModel(t, holdSteps())
	press(m, runeKey('G'))
	if m.pos != 5 || m.classifier.State() != gesture.StateIdle {
		t.Fatalf("expected end of trace, pos=%d", m.pos)
	}
	press(m, runeKey('r'))
	if m.pos != 0 || len(m.history) != 0 || m.status != "restarted" {
		t.Fatalf("restart did not reset: pos=%d history=%d", m.pos, len(m.history))
	}
}

func TestQuitKey(t *testing.T) {
	m := newTestModel(t, holdSteps())
	_, cmd := m.Update(runeKey('q'))
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
}

func TestKeymapReload(t *testing.T) {
	m := newTestModel(t, holdSteps())
	m.Update(KeymapMsg{Err: errors.New("boom")})
	if !strings.Contains(m.status, "boom") {
		t.Fatalf("expected reload error in status, got %q", m.status)
	}
	km := keymap.Default()
	km.Name = "reloaded"
	m.Update(KeymapMsg{Keymap: km})
	if m.km != km || m.status != "keymap reloaded" {
		t.Fatalf("keymap not applied: status=%q", m.status)
	}
}

func TestViewShowsStatus(t *testing.T) {
	m := newTestModel(t, holdSteps())
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	press(m, keyRight)
	out := m.View()
	for _, want := range []string{"fnlayer", "hold.trace", "cycle 1/5", "state arming", "layer -1 (undecided)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("view missing %q:\n%s", want, out)
		}
	}
}

func TestRenderGridRows(t *testing.T) {
	km := keymap.Default()
	out := renderGrid(km, gesture.LayerBase, 0)
	if !strings.Contains(out, "Q") {
		t.Fatalf("expected Q in base grid:\n%s", out)
	}
	if got, want := len(strings.Split(out, "\n")), len(km.Rows(gesture.LayerBase))+2; got != want {
		t.Fatalf("expected %d lines including border, got %d", want, got)
	}
	if undecided := renderGrid(km, gesture.LayerUndecided, 0); !strings.Contains(undecided, "Q") {
		t.Fatalf("undecided layer should show base bindings")
	}
}

func TestCellWidthCapped(t *testing.T) {
	rows := [][]keymap.Binding{{keymap.Key(keymap.NewKeycode(0x04, keymap.ModLeftShift|keymap.ModRightAlt))}, {keymap.Function(7)}}
	if got := cellWidth(rows); got != maxCellWidth {
		t.Fatalf("expected width capped at %d, got %d", maxCellWidth, got)
	}
	if got := cellWidth(nil); got != 1 {
		t.Fatalf("expected minimum width 1, got %d", got)
	}
}
