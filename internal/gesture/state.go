package gesture

import (
	"fmt"
	"strings"
)

// State is a classifier state.
type State uint8

const (
	StateIdle State = iota
	StateArming
	StateHoldActive
	StateClickActive
	StateRearmFromClick
	StateHoldActive2
	StateDoubleClickActive
	StateTrackKey
	// StateRearmLate is entered when the modifier is pressed again after the
	// double-click window lapsed: a quick release dismisses the click layer.
	StateRearmLate
	stateCount
)

var stateNames = [stateCount]string{
	StateIdle:              "idle",
	StateArming:            "arming",
	StateHoldActive:        "hold",
	StateClickActive:       "click",
	StateRearmFromClick:    "rearm",
	StateHoldActive2:       "hold-2",
	StateDoubleClickActive: "double-click",
	StateTrackKey:          "track-key",
	StateRearmLate:         "rearm-late",
}

var stateLayers = [stateCount]Layer{
	StateIdle:              LayerBase,
	StateArming:            LayerUndecided,
	StateHoldActive:        LayerHold,
	StateClickActive:       LayerClick,
	StateRearmFromClick:    LayerUndecided,
	StateHoldActive2:       LayerHold,
	StateDoubleClickActive: LayerDoubleClick,
	StateTrackKey:          LayerClick,
	StateRearmLate:         LayerUndecided,
}

func (s State) String() string {
	if s < stateCount {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// Layer returns the layer shown while the classifier resides in s.
func (s State) Layer() Layer {
	if s < stateCount {
		return stateLayers[s]
	}
	return LayerBase
}

// States returns every defined state in declaration order.
func States() []State {
	out := make([]State, 0, stateCount)
	for s := StateIdle; s < stateCount; s++ {
		out = append(out, s)
	}
	return out
}

// ParseState converts a state name back into a State.
func ParseState(name string) (State, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range stateNames {
		if n == name {
			return State(i), nil
		}
	}
	return 0, fmt.Errorf("unknown state %q", name)
}

// rule computes the next state. It may re-arm the timer or record the tracked key.
type rule func(c *Classifier, key Keycode) State

// transitions is total: every state has exactly one rule per symbol.
var transitions = [stateCount][symbolCount]rule{
	// Columns: NONE, MOD, KEY, BOTH.
	StateIdle:              {stay, startArming, stay, startArming},
	StateArming:            {resolveClick, contest(StateHoldActive), resolveClick, contest(StateHoldActive)},
	StateHoldActive:        {goIdle, stay, stay, stay},
	StateClickActive:       {clickWait, clickRepress, clickKey, clickRepress},
	StateRearmFromClick:    {goTo(StateDoubleClickActive), contest(StateHoldActive2), goTo(StateDoubleClickActive), contest(StateHoldActive2)},
	StateHoldActive2:       {goIdle, stay, stay, stay},
	StateDoubleClickActive: {doubleRelease, doubleRepress, stay, doubleRepress},
	StateTrackKey:          {trackKey, trackKey, trackKey, trackKey},
	StateRearmLate:         {goIdle, contest(StateHoldActive), goIdle, contest(StateHoldActive)},
}

func stay(c *Classifier, _ Keycode) State {
	return c.state
}

func goIdle(_ *Classifier, _ Keycode) State {
	return StateIdle
}

func goTo(next State) rule {
	return func(_ *Classifier, _ Keycode) State {
		return next
	}
}

func startArming(c *Classifier, _ Keycode) State {
	return c.rearm(StateArming, StateHoldActive)
}

// contest keeps timing a modifier press; expiry with the modifier still down is a hold.
func contest(expired State) rule {
	return func(c *Classifier, _ Keycode) State {
		if c.timer.Tick() {
			return expired
		}
		return c.state
	}
}

func resolveClick(c *Classifier, _ Keycode) State {
	c.timer.Arm(c.maxDoubleClick)
	return StateClickActive
}

func clickWait(c *Classifier, _ Keycode) State {
	c.timer.TickFloor(1)
	return c.state
}

func clickKey(c *Classifier, key Keycode) State {
	if c.tracked == 0 && key != 0 {
		c.tracked = key
		return StateTrackKey
	}
	c.timer.TickFloor(1)
	return c.state
}

// clickRepress decides whether a second modifier press is still inside the double-click window.
func clickRepress(c *Classifier, _ Keycode) State {
	if c.timer.Tick() {
		return c.rearm(StateRearmLate, StateHoldActive)
	}
	return c.rearm(StateRearmFromClick, StateHoldActive2)
}

func doubleRelease(c *Classifier, _ Keycode) State {
	if c.latch {
		return c.state
	}
	return StateIdle
}

func doubleRepress(c *Classifier, _ Keycode) State {
	if c.latch {
		return c.rearm(StateRearmLate, StateHoldActive)
	}
	return c.rearm(StateRearmFromClick, StateHoldActive2)
}

func trackKey(c *Classifier, key Keycode) State {
	if key != 0 && key == c.tracked {
		return c.state
	}
	return StateIdle
}
