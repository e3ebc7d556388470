package keymap

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/fnlayer/internal/gesture"
)

//go:embed default.toml
var defaultKeymap []byte

// Keymap holds one keycode table per layer, indexed by physical position.
type Keymap struct {
	Name    string
	Columns int
	Layers  [gesture.LayerCount][]Binding
}

type fileLayers struct {
	Base        []string `toml:"base" yaml:"base"`
	Hold        []string `toml:"hold" yaml:"hold"`
	Click       []string `toml:"click" yaml:"click"`
	DoubleClick []string `toml:"double-click" yaml:"double-click"`
}

type fileKeymap struct {
	Name    string     `toml:"name" yaml:"name"`
	Columns int        `toml:"columns" yaml:"columns"`
	Layers  fileLayers `toml:"layers" yaml:"layers"`
}

// Default returns the built-in 44-position Atreus keymap.
func Default() *Keymap {
	km, err := Parse(defaultKeymap, ".toml")
	if err != nil {
		panic(fmt.Sprintf("keymap: embedded default is invalid: %v", err))
	}
	return km
}

// DefaultSource returns the embedded default keymap file.
func DefaultSource() []byte {
	return bytes.Clone(defaultKeymap)
}

// Load reads a keymap from path. The extension selects TOML or YAML.
func Load(path string) (*Keymap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read keymap: %w", err)
	}
	km, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("failed to load keymap %s: %w", path, err)
	}
	return km, nil
}

// LoadOrDefault loads path, falling back to the built-in keymap when the file does not exist.
func LoadOrDefault(path string) (*Keymap, error) {
	if path == "" {
		return Default(), nil
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to stat keymap: %w", err)
	}
	return Load(path)
}

// Parse decodes keymap data. ext is ".toml", ".yaml" or ".yml".
func Parse(data []byte, ext string) (*Keymap, error) {
	var raw fileKeymap
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to decode yaml: %w", err)
		}
	case ".toml", "":
		if _, err := toml.Decode(string(data), &raw); err != nil {
			return nil, fmt.Errorf("failed to decode toml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported keymap format %q", ext)
	}

	km := &Keymap{Name: raw.Name, Columns: raw.Columns}
	for i, layer := range [][]string{raw.Layers.Base, raw.Layers.Hold, raw.Layers.Click, raw.Layers.DoubleClick} {
		bindings := make([]Binding, len(layer))
		for pos, expr := range layer {
			b, err := ParseBinding(expr)
			if err != nil {
				return nil, fmt.Errorf("layer %s position %d: %w", gesture.Layer(i), pos, err)
			}
			bindings[pos] = b
		}
		km.Layers[i] = bindings
	}
	if err := km.Validate(); err != nil {
		return nil, err
	}
	return km, nil
}

// Validate checks that all layers cover the same positions and that every
// layer binds Fn at the same positions as the base layer.
func (k *Keymap) Validate() error {
	positions := len(k.Layers[gesture.LayerBase])
	if positions == 0 {
		return fmt.Errorf("base layer is empty")
	}
	for i := range k.Layers {
		if len(k.Layers[i]) != positions {
			return fmt.Errorf("layer %s has %d positions, expected %d", gesture.Layer(i), len(k.Layers[i]), positions)
		}
	}
	if k.Columns <= 0 {
		k.Columns = positions
	}
	fn := k.FnPositions()
	if len(fn) == 0 {
		return fmt.Errorf("base layer does not bind FN")
	}
	for i := range k.Layers {
		for pos, b := range k.Layers[i] {
			isFnPos := contains(fn, pos)
			if b.IsFn() != isFnPos {
				return fmt.Errorf("layer %s position %d: FN must sit at the same positions in every layer", gesture.Layer(i), pos)
			}
		}
	}
	return nil
}

// Positions returns the number of physical key positions.
func (k *Keymap) Positions() int {
	return len(k.Layers[gesture.LayerBase])
}

// Lookup returns the binding at pos in layer. Out-of-range lookups yield no binding.
func (k *Keymap) Lookup(layer gesture.Layer, pos int) Binding {
	if !layer.Active() || pos < 0 || pos >= len(k.Layers[layer]) {
		return Binding{}
	}
	return k.Layers[layer][pos]
}

// FnPositions returns the base-layer positions bound to the Fn modifier.
func (k *Keymap) FnPositions() []int {
	var out []int
	for pos, b := range k.Layers[gesture.LayerBase] {
		if b.IsFn() {
			out = append(out, pos)
		}
	}
	return out
}

// Rows splits a layer into display rows of Columns entries.
func (k *Keymap) Rows(layer gesture.Layer) [][]Binding {
	if !layer.Active() {
		return nil
	}
	cols := k.Columns
	if cols <= 0 {
		cols = len(k.Layers[layer])
	}
	var rows [][]Binding
	bindings := k.Layers[layer]
	for start := 0; start < len(bindings); start += cols {
		end := start + cols
		if end > len(bindings) {
			end = len(bindings)
		}
		rows = append(rows, bindings[start:end])
	}
	return rows
}

func contains(values []int, v int) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
