package trace

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/verte-zerg/fnlayer/internal/gesture"
)

// Gesture is a kind of Fn interaction the generator can synthesize.
type Gesture int

const (
	GestureTyping Gesture = iota
	GestureHold
	GestureClick
	GestureDoubleClick
)

// Gestures lists every kind in declaration order.
var Gestures = []Gesture{GestureTyping, GestureHold, GestureClick, GestureDoubleClick}

func (g Gesture) String() string {
	switch g {
	case GestureTyping:
		return "typing"
	case GestureHold:
		return "hold"
	case GestureClick:
		return "click"
	case GestureDoubleClick:
		return "double-click"
	default:
		return fmt.Sprintf("Gesture(%d)", int(g))
	}
}

// ParseGesture converts a gesture name back into a Gesture.
func ParseGesture(name string) (Gesture, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, g := range Gestures {
		if g.String() == name {
			return g, nil
		}
	}
	return 0, fmt.Errorf("unknown gesture %q", name)
}

// Layer is the layer the gesture's key press lands on.
func (g Gesture) Layer() gesture.Layer {
	switch g {
	case GestureHold:
		return gesture.LayerHold
	case GestureClick:
		return gesture.LayerClick
	case GestureDoubleClick:
		return gesture.LayerDoubleClick
	default:
		return gesture.LayerBase
	}
}

// Generator synthesizes symbol traces with jittered timing around the thresholds.
type Generator struct {
	rnd            *rand.Rand
	minHold        int
	maxDoubleClick int
}

// NewGenerator returns a Generator for the given thresholds. Both must be at
// least 2 cycles, otherwise clicks and double clicks cannot be expressed.
func NewGenerator(seed int64, minHold, maxDoubleClick int) (*Generator, error) {
	if minHold < 2 || maxDoubleClick < 2 {
		return nil, fmt.Errorf("thresholds must be at least 2 cycles to generate gestures (got %d, %d)", minHold, maxDoubleClick)
	}
	return &Generator{
		rnd:            rand.New(rand.NewSource(seed)),
		minHold:        minHold,
		maxDoubleClick: maxDoubleClick,
	}, nil
}

// Generate returns count gestures picked uniformly from kinds, each followed
// by an idle gap so the classifier is back at the base layer.
func (g *Generator) Generate(count int, kinds []Gesture) ([]Step, []Gesture) {
	if len(kinds) == 0 {
		kinds = Gestures
	}
	var steps []Step
	picked := make([]Gesture, 0, count)
	for i := 0; i < count; i++ {
		kind := kinds[g.rnd.Intn(len(kinds))]
		picked = append(picked, kind)
		steps = append(steps, g.Gesture(kind)...)
		steps = appendRun(steps, Step{Symbol: gesture.SymbolNone}, 1+g.rnd.Intn(3))
	}
	return steps, picked
}

// Gesture synthesizes one gesture. Every gesture ends with a key press on its
// target layer and a full release.
func (g *Generator) Gesture(kind Gesture) []Step {
	key := g.key()
	none := Step{Symbol: gesture.SymbolNone}
	mod := Step{Symbol: gesture.SymbolMod}
	pressKey := Step{Symbol: gesture.SymbolKey, Key: key}

	var steps []Step
	switch kind {
	case GestureHold:
		steps = appendRun(steps, mod, g.minHold+g.rnd.Intn(g.minHold+1))
		steps = appendRun(steps, Step{Symbol: gesture.SymbolBoth, Key: key}, 1+g.rnd.Intn(4))
		steps = appendRun(steps, pressKey, g.rnd.Intn(3))
	case GestureClick:
		steps = appendRun(steps, mod, g.tap())
		steps = appendRun(steps, none, 1+g.rnd.Intn(g.maxDoubleClick))
		steps = appendRun(steps, pressKey, 1+g.rnd.Intn(4))
	case GestureDoubleClick:
		steps = appendRun(steps, mod, g.tap())
		steps = appendRun(steps, none, 1+g.rnd.Intn(g.maxDoubleClick-1))
		steps = appendRun(steps, mod, g.tap())
		steps = appendRun(steps, pressKey, 1+g.rnd.Intn(4))
	default:
		steps = appendRun(steps, pressKey, 1+g.rnd.Intn(4))
	}
	return append(steps, none)
}

// tap is a modifier press short enough to count as a click.
func (g *Generator) tap() int {
	return 1 + g.rnd.Intn(g.minHold-1)
}

func (g *Generator) key() gesture.Keycode {
	// Usages a..z.
	return gesture.Keycode(0x04 + g.rnd.Intn(26))
}

func appendRun(steps []Step, s Step, n int) []Step {
	for i := 0; i < n; i++ {
		steps = append(steps, s)
	}
	return steps
}
