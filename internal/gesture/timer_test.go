package gesture

import "testing"

func TestTimerTickStopsAtZero(t *testing.T) {
	var tm Timer
	tm.Arm(2)
	if tm.Tick() {
		t.Fatalf("expected timer running after first tick")
	}
	if !tm.Tick() {
		t.Fatalf("expected timer expired after second tick")
	}
	if !tm.Tick() || tm.Remaining() != 0 {
		t.Fatalf("expected timer to stay at zero, got %d", tm.Remaining())
	}
}

func TestTimerTickFloor(t *testing.T) {
	var tm Timer
	tm.Arm(3)
	for i := 0; i < 10; i++ {
		if tm.TickFloor(1) {
			t.Fatalf("floor-1 tick must never expire")
		}
	}
	if tm.Remaining() != 1 {
		t.Fatalf("expected timer to rest at 1, got %d", tm.Remaining())
	}
}

func TestTimerArmNegative(t *testing.T) {
	var tm Timer
	tm.Arm(-4)
	if tm.Remaining() != 0 {
		t.Fatalf("expected negative threshold clamped to 0, got %d", tm.Remaining())
	}
}

func TestSymbolOf(t *testing.T) {
	cases := []struct {
		mod, key bool
		want     Symbol
	}{
		{false, false, SymbolNone},
		{true, false, SymbolMod},
		{false, true, SymbolKey},
		{true, true, SymbolBoth},
	}
	for _, tc := range cases {
		if got := SymbolOf(tc.mod, tc.key); got != tc.want {
			t.Fatalf("SymbolOf(%v, %v) = %s, want %s", tc.mod, tc.key, got, tc.want)
		}
	}
	if _, err := ParseSymbol("both"); err != nil {
		t.Fatalf("parse both: %v", err)
	}
	if _, err := ParseSymbol("fn"); err == nil {
		t.Fatalf("expected error for unknown symbol")
	}
}
