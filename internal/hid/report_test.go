package hid

import (
	"errors"
	"testing"

	"github.com/verte-zerg/fnlayer/internal/keymap"
)

func TestBuildFoldsModifiers(t *testing.T) {
	codes := []keymap.Keycode{
		keymap.NewKeycode(0x21, keymap.ModLeftShift|keymap.ModRightAlt),
		keymap.NewKeycode(0xE0, 0),
		keymap.NewKeycode(0x04, 0),
		keymap.NewKeycode(0x04, 0),
		0,
	}
	r, err := Build(codes)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if r.Modifiers != keymap.ModLeftShift|keymap.ModRightAlt|keymap.ModLeftCtrl {
		t.Fatalf("unexpected modifiers %08b", r.Modifiers)
	}
	if r.Keys != [MaxKeys]byte{0x21, 0x04} {
		t.Fatalf("unexpected keys %v", r.Keys)
	}
	if got := r.String(); got != "4300210400000000" {
		t.Fatalf("unexpected wire form %s", got)
	}
}

func TestBuildRollover(t *testing.T) {
	var codes []keymap.Keycode
	for i := 0; i < MaxKeys+1; i++ {
		codes = append(codes, keymap.NewKeycode(byte(0x04+i), 0))
	}
	r, err := Build(codes)
	if !errors.Is(err, ErrRollover) {
		t.Fatalf("expected ErrRollover, got %v", err)
	}
	for _, k := range r.Keys {
		if k != usageErrorRollOver {
			t.Fatalf("expected rollover usage in every slot, got %v", r.Keys)
		}
	}
}

func TestEmptyReport(t *testing.T) {
	r, err := Build(nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !r.IsEmpty() || len(r.Bytes()) != 8 {
		t.Fatalf("expected empty 8-byte report, got %v", r.Bytes())
	}
}
