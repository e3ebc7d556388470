package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/fnlayer/internal/gesture"
	"github.com/verte-zerg/fnlayer/internal/keymap"
	"github.com/verte-zerg/fnlayer/internal/stats"
)

var keymapLayer string

func newKeymapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keymap",
		Short: "Inspect keymaps",
	}

	show := &cobra.Command{
		Use:   "show [file]",
		Short: "Print the layers of a keymap (the configured one by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runKeymapShowCmd,
	}
	show.Flags().StringVar(&keymapLayer, "layer", "", "only print this layer (0-3 or base, hold, click, double-click)")

	check := &cobra.Command{
		Use:   "check <file>",
		Short: "Validate a keymap file",
		Args:  cobra.ExactArgs(1),
		RunE:  runKeymapCheckCmd,
	}

	def := &cobra.Command{
		Use:   "default",
		Short: "Print the built-in keymap as TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := cmd.OutOrStdout().Write(keymap.DefaultSource()); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
			return nil
		},
	}

	cmd.AddCommand(show, check, def)
	return cmd
}

func runKeymapShowCmd(cmd *cobra.Command, args []string) error {
	var (
		km  *keymap.Keymap
		err error
	)
	if len(args) == 1 {
		km, err = keymap.Load(args[0])
	} else {
		cfg, cerr := resolveConfig(cmd)
		if cerr != nil {
			return cerr
		}
		km, err = keymap.LoadOrDefault(cfg.KeymapPath)
	}
	if err != nil {
		return fmt.Errorf("failed to load keymap: %w", err)
	}

	layers := []gesture.Layer{gesture.LayerBase, gesture.LayerHold, gesture.LayerClick, gesture.LayerDoubleClick}
	if keymapLayer != "" {
		layer, err := parseLayer(keymapLayer)
		if err != nil {
			return err
		}
		layers = []gesture.Layer{layer}
	}

	out := cmd.OutOrStdout()
	if km.Name != "" {
		if _, err := fmt.Fprintf(out, "%s\n\n", km.Name); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	for _, layer := range layers {
		if _, err := fmt.Fprintf(out, "Layer %d (%s)\n", layer, layer); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		var rows [][]string
		for _, row := range km.Rows(layer) {
			cells := make([]string, 0, len(row))
			for _, b := range row {
				label := b.Label()
				if label == "" {
					label = "·"
				}
				cells = append(cells, label)
			}
			rows = append(rows, cells)
		}
		if err := stats.WriteTable(out, nil, rows, nil); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func runKeymapCheckCmd(cmd *cobra.Command, args []string) error {
	km, err := keymap.Load(args[0])
	if err != nil {
		return fmt.Errorf("invalid keymap: %w", err)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "ok: %d positions, %d columns, Fn at %v\n", km.Positions(), km.Columns, km.FnPositions())
	return err
}

func parseLayer(s string) (gesture.Layer, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil {
		layer := gesture.Layer(n)
		if !layer.Active() {
			return 0, fmt.Errorf("layer must be between 0 and %d", gesture.LayerCount-1)
		}
		return layer, nil
	}
	for layer := gesture.LayerBase; layer <= gesture.LayerDoubleClick; layer++ {
		if layer.String() == s {
			return layer, nil
		}
	}
	return 0, fmt.Errorf("unknown layer %q", s)
}
