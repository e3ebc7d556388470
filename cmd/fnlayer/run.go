package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/fnlayer/internal/engine"
	"github.com/verte-zerg/fnlayer/internal/hid"
	"github.com/verte-zerg/fnlayer/internal/keymap"
	"github.com/verte-zerg/fnlayer/internal/trace"
)

var (
	runAll   bool
	runSave  bool
	runWatch bool
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [matrix-trace]",
		Short: "Drive the layer dispatcher from a matrix trace and print HID reports",
		Long: `Run replays a matrix trace (one line per scan cycle listing the pressed
positions, "-" for none) through the classifier and layer dispatcher at the
configured cycle period, printing each HID boot report that differs from the
previous one.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runRunCmd,
	}
	cmd.Flags().BoolVar(&runAll, "all", false, "print a report for every cycle")
	cmd.Flags().BoolVar(&runSave, "save", true, "journal the run and its transitions")
	cmd.Flags().BoolVar(&runWatch, "watch", false, "reload the keymap file when it changes")
	return cmd
}

func runRunCmd(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	log := newLogger(cfg.LogLevel, os.Stderr)

	km, err := keymap.LoadOrDefault(cfg.KeymapPath)
	if err != nil {
		return fmt.Errorf("failed to load keymap: %w", err)
	}
	path := argOrStdin(args)
	in, err := openInput(path)
	if err != nil {
		return err
	}
	cycles, err := trace.ParseMatrix(in)
	closeInput(in)
	if err != nil {
		return fmt.Errorf("failed to read matrix trace: %w", err)
	}

	rec := &recorder{}
	c, err := newClassifier(cfg, log, rec.record)
	if err != nil {
		return err
	}
	driver := engine.New(km, c, engine.Options{
		Logger:  log,
		OnReset: func() { log.Info("classifier reset from keymap") },
	})

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	reloads := make(chan *keymap.Keymap, 1)
	if runWatch {
		startKeymapWatch(ctx, cfg.KeymapPath, log, func(km *keymap.Keymap) {
			select {
			case reloads <- km:
			default:
				// A newer reload replaces one not yet applied.
				select {
				case <-reloads:
				default:
				}
				reloads <- km
			}
		})
	}

	out := cmd.OutOrStdout()
	var prev hid.Report
	printed := false
	sink := engine.SinkFunc(func(_ context.Context, frame engine.Frame) error {
		select {
		case next := <-reloads:
			driver.SetKeymap(next)
		default:
		}
		if !runAll && printed && frame.Report == prev {
			return nil
		}
		prev, printed = frame.Report, true
		_, err := fmt.Fprintf(out, "%6d  layer %2d  %-12s  %s\n", frame.Cycle, frame.Layer, frame.State, frame.Report)
		return err
	})

	startedAt := time.Now()
	if err := driver.Run(ctx, engine.NewReplay(cycles), sink, cfg.CyclePeriod); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("run failed: %w", err)
	}
	if runSave {
		id, err := saveRun(cmd.Context(), sourceName(path), startedAt, cfg, c, rec.transitions)
		if err != nil {
			return err
		}
		log.WithField("run", id).Info("run saved")
	}
	return nil
}

// startKeymapWatch reloads the keymap file in the background until ctx ends.
// Reload errors are logged and the previous keymap stays in use.
func startKeymapWatch(ctx context.Context, path string, log logrus.FieldLogger, apply func(*keymap.Keymap)) {
	if _, err := os.Stat(path); err != nil {
		log.WithField("path", path).Warn("keymap file not found; not watching")
		return
	}
	go func() {
		err := keymap.Watch(ctx, path, func(km *keymap.Keymap, err error) {
			if err != nil {
				log.WithError(err).Warn("keymap reload failed")
				return
			}
			log.WithField("path", path).Info("keymap reloaded")
			apply(km)
		})
		if err != nil {
			log.WithError(err).Error("keymap watch stopped")
		}
	}()
}
