package gesture

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

type step struct {
	sym Symbol
	key Keycode
}

func newTestClassifier(t *testing.T, minHold, maxDouble int) *Classifier {
	t.Helper()
	c, err := New(Options{MinHoldCycles: minHold, MaxDoubleClickCycles: maxDouble})
	if err != nil {
		t.Fatalf("new classifier: %v", err)
	}
	return c
}

func feed(c *Classifier, steps ...step) []Layer {
	out := make([]Layer, 0, len(steps))
	for _, s := range steps {
		out = append(out, c.Advance(s.sym, s.key))
	}
	return out
}

func repeat(s step, n int) []step {
	out := make([]step, n)
	for i := range out {
		out[i] = s
	}
	return out
}

func expectLayers(t *testing.T, got []Layer, want ...Layer) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d layers, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("cycle %d: expected layer %d, got %d (all: %v)", i+1, want[i], got[i], got)
		}
	}
}

var (
	none = step{sym: SymbolNone}
	mod  = step{sym: SymbolMod}
)

func key(code Keycode) step  { return step{sym: SymbolKey, key: code} }
func both(code Keycode) step { return step{sym: SymbolBoth, key: code} }

func TestTransitionTableIsTotal(t *testing.T) {
	for _, s := range States() {
		for sym := SymbolNone; sym < symbolCount; sym++ {
			if transitions[s][sym] == nil {
				t.Fatalf("no transition for state %s on %s", s, sym)
			}
		}
	}
	if len(States()) != int(stateCount) {
		t.Fatalf("expected %d states, got %d", stateCount, len(States()))
	}
}

func TestEveryStateAcceptsEverySymbol(t *testing.T) {
	for _, s := range States() {
		for sym := SymbolNone; sym < symbolCount; sym++ {
			c := newTestClassifier(t, 3, 3)
			c.state = s
			c.layer = s.Layer()
			c.timer.Arm(2)
			c.Advance(sym, 7)
			if c.Faults() != 0 {
				t.Fatalf("state %s on %s faulted", s, sym)
			}
			if c.State() >= stateCount {
				t.Fatalf("state %s on %s produced undefined state %d", s, sym, c.State())
			}
		}
	}
}

func TestNewRejectsZeroThresholds(t *testing.T) {
	if _, err := New(Options{MinHoldCycles: 0, MaxDoubleClickCycles: 3}); !errors.Is(err, ErrThreshold) {
		t.Fatalf("expected ErrThreshold, got %v", err)
	}
	if _, err := New(Options{MinHoldCycles: 3, MaxDoubleClickCycles: 0}); !errors.Is(err, ErrThreshold) {
		t.Fatalf("expected ErrThreshold, got %v", err)
	}
}

func TestHoldScenario(t *testing.T) {
	c := newTestClassifier(t, 3, 3)
	got := feed(c, mod, mod, mod, mod, none)
	expectLayers(t, got, LayerUndecided, LayerUndecided, LayerHold, LayerHold, LayerBase)
	if c.State() != StateIdle {
		t.Fatalf("expected idle, got %s", c.State())
	}
}

func TestHoldThresholds(t *testing.T) {
	for _, minHold := range []int{1, 2, 5, 40} {
		c := newTestClassifier(t, minHold, 10)
		layers := feed(c, repeat(mod, minHold)...)
		for i, l := range layers[:minHold-1] {
			if l != LayerUndecided {
				t.Fatalf("min-hold %d: cycle %d expected undecided, got %s", minHold, i+1, l)
			}
		}
		if layers[minHold-1] != LayerHold {
			t.Fatalf("min-hold %d: expected hold at cycle %d, got %s", minHold, minHold, layers[minHold-1])
		}
		if l := c.Advance(SymbolKey, 4); l != LayerHold {
			t.Fatalf("min-hold %d: hold should survive modifier release while a key is down, got %s", minHold, l)
		}
		if l := c.Advance(SymbolNone, 0); l != LayerBase {
			t.Fatalf("min-hold %d: expected base after release, got %s", minHold, l)
		}
	}
}

func TestClickThreshold(t *testing.T) {
	const minHold = 4
	for k := 1; k < minHold; k++ {
		c := newTestClassifier(t, minHold, 5)
		feed(c, repeat(mod, k)...)
		if l := c.Advance(SymbolNone, 0); l != LayerClick {
			t.Fatalf("release after %d cycles: expected click, got %s", k, l)
		}
		// Inactivity never closes the click layer on its own.
		layers := feed(c, repeat(none, 50)...)
		for i, l := range layers {
			if l != LayerClick {
				t.Fatalf("idle cycle %d: expected click layer, got %s", i+1, l)
			}
		}
		if c.Timer() != 1 {
			t.Fatalf("expected timer to rest at 1, got %d", c.Timer())
		}
	}
}

func TestReleaseWithKeyStillIsClick(t *testing.T) {
	c := newTestClassifier(t, 3, 3)
	got := feed(c, mod, key(9))
	expectLayers(t, got, LayerUndecided, LayerClick)
	if c.State() != StateClickActive {
		t.Fatalf("expected click, got %s", c.State())
	}
	if c.Tracked() != 0 {
		t.Fatalf("release cycle should not track a key, got %d", c.Tracked())
	}
}

func TestTrackedKeyScenario(t *testing.T) {
	c := newTestClassifier(t, 3, 3)
	layers := []Layer{c.Advance(SymbolMod, 0), c.Advance(SymbolNone, 0), c.Advance(SymbolKey, 5)}
	if c.Tracked() != 5 {
		t.Fatalf("expected tracked key 5, got %d", c.Tracked())
	}
	layers = append(layers, c.Advance(SymbolKey, 5), c.Advance(SymbolNone, 0))
	expectLayers(t, layers, LayerUndecided, LayerClick, LayerClick, LayerClick, LayerBase)
	if c.Tracked() != 0 {
		t.Fatalf("expected tracked key cleared, got %d", c.Tracked())
	}
}

func TestTrackedKeyClosesOnDifferentKey(t *testing.T) {
	c := newTestClassifier(t, 3, 3)
	got := feed(c, mod, none, key(5), key(5), key(6))
	expectLayers(t, got, LayerUndecided, LayerClick, LayerClick, LayerClick, LayerBase)
	if c.Tracked() != 0 {
		t.Fatalf("expected tracked key cleared, got %d", c.Tracked())
	}
}

func TestTrackedKeyIgnoresModifier(t *testing.T) {
	c := newTestClassifier(t, 3, 3)
	got := feed(c, mod, none, key(5), both(5), mod)
	expectLayers(t, got, LayerUndecided, LayerClick, LayerClick, LayerClick, LayerBase)
}

func TestClickKeyWithoutCodeKeepsWaiting(t *testing.T) {
	c := newTestClassifier(t, 3, 4)
	feed(c, mod, none)
	if l := c.Advance(SymbolKey, 0); l != LayerClick {
		t.Fatalf("expected click, got %s", l)
	}
	if c.State() != StateClickActive || c.Timer() != 3 {
		t.Fatalf("expected click with timer 3, got %s/%d", c.State(), c.Timer())
	}
}

func TestDoubleClick(t *testing.T) {
	c := newTestClassifier(t, 3, 5)
	got := feed(c, mod, none, mod, none)
	expectLayers(t, got, LayerUndecided, LayerClick, LayerUndecided, LayerDoubleClick)
	if c.State() != StateDoubleClickActive {
		t.Fatalf("expected double-click, got %s", c.State())
	}
	if l := c.Advance(SymbolKey, 8); l != LayerDoubleClick {
		t.Fatalf("double-click should hold while a key is pressed, got %s", l)
	}
	if l := c.Advance(SymbolNone, 0); l != LayerBase {
		t.Fatalf("expected base once everything releases, got %s", l)
	}
}

func TestLongSecondPressIsHold(t *testing.T) {
	c := newTestClassifier(t, 3, 5)
	got := feed(c, mod, none, mod, mod, mod, mod, none)
	expectLayers(t, got,
		LayerUndecided, LayerClick,
		LayerUndecided, LayerUndecided, LayerHold, LayerHold,
		LayerBase)
}

func TestSecondPressEntersHold2(t *testing.T) {
	c := newTestClassifier(t, 2, 5)
	feed(c, mod, none, mod, mod)
	if c.State() != StateHoldActive2 {
		t.Fatalf("expected hold-2, got %s", c.State())
	}
}

func TestDoubleClickChainsNeverEscalate(t *testing.T) {
	c := newTestClassifier(t, 3, 5)
	feed(c, mod, none, mod, key(2))
	if c.Layer() != LayerDoubleClick {
		t.Fatalf("expected double-click, got %s", c.Layer())
	}
	for i := 0; i < 3; i++ {
		if l := c.Advance(SymbolBoth, 2); l != LayerUndecided {
			t.Fatalf("re-press %d: expected undecided, got %s", i, l)
		}
		if c.State() != StateRearmFromClick {
			t.Fatalf("re-press %d: expected rearm, got %s", i, c.State())
		}
		if l := c.Advance(SymbolKey, 2); l != LayerDoubleClick {
			t.Fatalf("re-press %d: expected double-click, got %s", i, l)
		}
	}
}

func TestLatePressDismissesClick(t *testing.T) {
	c := newTestClassifier(t, 3, 3)
	feed(c, mod, none, none, none, none)
	if l := c.Advance(SymbolMod, 0); l != LayerUndecided {
		t.Fatalf("expected undecided, got %s", l)
	}
	if c.State() != StateRearmLate {
		t.Fatalf("expected rearm-late, got %s", c.State())
	}
	if l := c.Advance(SymbolNone, 0); l != LayerBase {
		t.Fatalf("expected base after a late tap, got %s", l)
	}
}

func TestLatePressHeldIsHold(t *testing.T) {
	c := newTestClassifier(t, 2, 2)
	feed(c, mod, none, none, none)
	got := feed(c, mod, mod, none)
	expectLayers(t, got, LayerUndecided, LayerHold, LayerBase)
}

func TestDoubleClickLatch(t *testing.T) {
	c, err := New(Options{MinHoldCycles: 3, MaxDoubleClickCycles: 5, DoubleClickLatch: true})
	if err != nil {
		t.Fatalf("new classifier: %v", err)
	}
	feed(c, mod, none, mod, none)
	layers := feed(c, repeat(none, 20)...)
	for i, l := range layers {
		if l != LayerDoubleClick {
			t.Fatalf("cycle %d: latched layer dropped to %s", i+1, l)
		}
	}
	got := feed(c, mod, none)
	expectLayers(t, got, LayerUndecided, LayerBase)
}

func TestIdempotentIdle(t *testing.T) {
	c := newTestClassifier(t, 3, 3)
	feed(c, mod, none, key(4), none)
	var fired int
	c.onTransition = func(Transition) { fired++ }
	for i := 0; i < 100; i++ {
		if l := c.Advance(SymbolNone, 0); l != LayerBase {
			t.Fatalf("cycle %d: expected base, got %s", i, l)
		}
	}
	if c.Timer() != 0 || c.Tracked() != 0 || c.State() != StateIdle {
		t.Fatalf("idle not inert: timer=%d tracked=%d state=%s", c.Timer(), c.Tracked(), c.State())
	}
	if fired != 0 {
		t.Fatalf("expected no transitions while idle, got %d", fired)
	}
}

func TestKeyOnlyInIdleStaysIdle(t *testing.T) {
	c := newTestClassifier(t, 3, 3)
	got := feed(c, key(1), key(2), none)
	expectLayers(t, got, LayerBase, LayerBase, LayerBase)
}

func TestTrackedIsZeroWheneverBase(t *testing.T) {
	c := newTestClassifier(t, 2, 3)
	seq := []step{mod, none, key(3), both(3), none, mod, mod, key(1), none, mod, none, mod, none, key(2), none}
	for i, s := range seq {
		l := c.Advance(s.sym, s.key)
		if l == LayerBase && c.Tracked() != 0 {
			t.Fatalf("cycle %d: base layer with tracked key %d", i+1, c.Tracked())
		}
	}
}

func TestUndefinedSymbolResetsToIdle(t *testing.T) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)
	var seen []Transition
	c, err := New(Options{
		MinHoldCycles:        3,
		MaxDoubleClickCycles: 3,
		Logger:               log,
		OnTransition:         func(tr Transition) { seen = append(seen, tr) },
	})
	if err != nil {
		t.Fatalf("new classifier: %v", err)
	}
	feed(c, mod, none, key(5))
	if l := c.Advance(Symbol(9), 5); l != LayerBase {
		t.Fatalf("expected base after fault, got %s", l)
	}
	if c.Faults() != 1 || c.Tracked() != 0 || c.State() != StateIdle {
		t.Fatalf("unexpected state after fault: faults=%d tracked=%d state=%s", c.Faults(), c.Tracked(), c.State())
	}
	last := seen[len(seen)-1]
	if !last.Fault || last.From != StateTrackKey || last.To != StateIdle {
		t.Fatalf("unexpected fault transition: %+v", last)
	}
	if !strings.Contains(buf.String(), "undefined gesture transition") {
		t.Fatalf("expected fault to be logged, got %q", buf.String())
	}
}

func TestCorruptedStateResetsToIdle(t *testing.T) {
	c := newTestClassifier(t, 3, 3)
	c.state = State(200)
	if l := c.Advance(SymbolMod, 0); l != LayerBase {
		t.Fatalf("expected base, got %s", l)
	}
	if c.State() != StateIdle || c.Faults() != 1 {
		t.Fatalf("expected idle with one fault, got %s/%d", c.State(), c.Faults())
	}
}

func TestTransitionsReported(t *testing.T) {
	var seen []Transition
	c, err := New(Options{MinHoldCycles: 2, MaxDoubleClickCycles: 3, OnTransition: func(tr Transition) {
		seen = append(seen, tr)
	}})
	if err != nil {
		t.Fatalf("new classifier: %v", err)
	}
	feed(c, mod, mod, mod, none)
	want := []struct {
		from, to State
		cycle    uint64
	}{
		{StateIdle, StateArming, 1},
		{StateArming, StateHoldActive, 2},
		{StateHoldActive, StateIdle, 4},
	}
	if len(seen) != len(want) {
		t.Fatalf("expected %d transitions, got %+v", len(want), seen)
	}
	for i, w := range want {
		if seen[i].From != w.from || seen[i].To != w.to || seen[i].Cycle != w.cycle {
			t.Fatalf("transition %d: expected %s->%s@%d, got %+v", i, w.from, w.to, w.cycle, seen[i])
		}
	}
}

func TestResetReportsTransition(t *testing.T) {
	var seen []Transition
	c, err := New(Options{MinHoldCycles: 1, MaxDoubleClickCycles: 3, OnTransition: func(tr Transition) {
		seen = append(seen, tr)
	}})
	if err != nil {
		t.Fatalf("new classifier: %v", err)
	}
	feed(c, mod)
	c.Reset()
	if len(seen) != 2 {
		t.Fatalf("expected hold and reset transitions, got %+v", seen)
	}
	last := seen[1]
	if !last.Reset || last.Fault || last.From != StateHoldActive || last.To != StateIdle || last.Layer != LayerBase {
		t.Fatalf("unexpected reset transition: %+v", last)
	}
	if last.Cycle != 2 {
		t.Fatalf("expected reset reported on the scanned cycle 2, got %d", last.Cycle)
	}
	if c.Faults() != 0 {
		t.Fatalf("reset must not count a fault")
	}

	c.Reset()
	if len(seen) != 2 {
		t.Fatalf("expected no transition when already idle, got %+v", seen)
	}
}

func TestParseState(t *testing.T) {
	for _, s := range States() {
		got, err := ParseState(s.String())
		if err != nil || got != s {
			t.Fatalf("parse %q: got %v, %v", s.String(), got, err)
		}
	}
	if _, err := ParseState("bogus"); err == nil {
		t.Fatalf("expected error for unknown state")
	}
}
