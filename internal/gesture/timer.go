package gesture

// Timer is the single down-counter shared by the timed states.
// Its value means nothing outside those states; it is always re-armed before use.
type Timer struct {
	remaining int
}

// Arm seeds the counter with threshold.
func (t *Timer) Arm(threshold int) {
	if threshold < 0 {
		threshold = 0
	}
	t.remaining = threshold
}

// Tick decrements by one, never below zero, and reports whether the counter has expired.
func (t *Timer) Tick() bool {
	return t.TickFloor(0)
}

// TickFloor decrements by one without going below floor.
// ClickActive waits with a floor of 1 so it never truly expires on its own.
func (t *Timer) TickFloor(floor int) bool {
	if t.remaining > floor {
		t.remaining--
	}
	return t.remaining == 0
}

// Clear zeroes the counter.
func (t *Timer) Clear() {
	t.remaining = 0
}

// Remaining returns the current counter value.
func (t *Timer) Remaining() int {
	return t.remaining
}
