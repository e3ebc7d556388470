package main

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/fnlayer/internal/keymap"
	"github.com/verte-zerg/fnlayer/internal/trace"
	"github.com/verte-zerg/fnlayer/internal/tui"
)

var stepWatch bool

func newStepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "step <trace>",
		Short: "Step through a symbol trace interactively",
		Args:  cobra.ExactArgs(1),
		RunE:  runStepCmd,
	}
	cmd.Flags().BoolVar(&stepWatch, "watch", true, "reload the keymap file when it changes")
	return cmd
}

func runStepCmd(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	// Anything written to the terminal would tear the alt screen.
	log := newLogger(cfg.LogLevel, io.Discard)

	km, err := keymap.LoadOrDefault(cfg.KeymapPath)
	if err != nil {
		return fmt.Errorf("failed to load keymap: %w", err)
	}
	steps, err := trace.LoadSymbols(args[0])
	if err != nil {
		return fmt.Errorf("failed to read trace: %w", err)
	}

	m, err := tui.NewModel(tui.Options{
		Config: cfg,
		Steps:  steps,
		Keymap: km,
		Source: sourceName(args[0]),
		Logger: log,
	})
	if err != nil {
		return err
	}
	program := tea.NewProgram(m, tea.WithAltScreen())

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	if stepWatch {
		startKeymapWatch(ctx, cfg.KeymapPath, log, func(km *keymap.Keymap) {
			program.Send(tui.KeymapMsg{Keymap: km})
		})
	}

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}
