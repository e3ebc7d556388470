// Package store handles SQLite persistence of classifier runs.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/fnlayer/internal/gesture"
	"github.com/verte-zerg/fnlayer/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for run journals.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY,
			started_at TEXT NOT NULL,
			source TEXT NOT NULL,
			min_hold_cycles INTEGER NOT NULL,
			max_double_click_cycles INTEGER NOT NULL,
			cycles INTEGER NOT NULL,
			faults INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS transitions (
			run_id INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			cycle INTEGER NOT NULL,
			from_state TEXT NOT NULL,
			to_state TEXT NOT NULL,
			symbol INTEGER NOT NULL,
			key INTEGER NOT NULL,
			layer INTEGER NOT NULL,
			timer INTEGER NOT NULL,
			tracked INTEGER NOT NULL,
			fault INTEGER NOT NULL,
			reset INTEGER NOT NULL,
			PRIMARY KEY (run_id, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertRun stores a completed run and the transitions it produced.
func (s *Store) InsertRun(ctx context.Context, run model.RunRecord, transitions []gesture.Transition) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (started_at, source, min_hold_cycles, max_double_click_cycles, cycles, faults)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		run.StartedAt.Format(time.RFC3339Nano),
		run.Source,
		run.MinHoldCycles,
		run.MaxDoubleClickCycles,
		int64(run.Cycles),
		run.Faults,
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if len(transitions) > 0 {
		var stmt *sql.Stmt
		stmt, err = tx.PrepareContext(ctx,
			`INSERT INTO transitions (run_id, seq, cycle, from_state, to_state, symbol, key, layer, timer, tracked, fault, reset)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return 0, err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		// A reset and a classifying transition can share a cycle; seq keeps their order.
		for i, tr := range transitions {
			if _, err = stmt.ExecContext(ctx, id, i, int64(tr.Cycle), tr.From.String(), tr.To.String(),
				int(tr.Symbol), int(tr.Key), int(tr.Layer), tr.Timer, int(tr.Tracked),
				boolToInt(tr.Fault), boolToInt(tr.Reset)); err != nil {
				return 0, err
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// ListRuns returns runs filtered by stats config, oldest first. A positive
// Last keeps only the most recent runs.
func (s *Store) ListRuns(ctx context.Context, cfg model.StatsConfig) ([]model.RunRecord, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.Source != "" {
		clauses = append(clauses, "source = ?")
		args = append(args, cfg.Source)
	}
	if cfg.Since != nil {
		clauses = append(clauses, "started_at >= ?")
		args = append(args, cfg.Since.Format(time.RFC3339Nano))
	}
	limit := -1
	if cfg.Last > 0 {
		limit = cfg.Last
	}
	args = append(args, limit)
	query := fmt.Sprintf(`SELECT id, started_at, source, min_hold_cycles, max_double_click_cycles, cycles, faults
		FROM (
			SELECT * FROM runs
			WHERE %s
			ORDER BY started_at DESC, id DESC
			LIMIT ?
		)
		ORDER BY started_at ASC, id ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var runs []model.RunRecord
	for rows.Next() {
		var run model.RunRecord
		var startedAt string
		var cycles int64
		if err := rows.Scan(&run.ID, &startedAt, &run.Source, &run.MinHoldCycles, &run.MaxDoubleClickCycles, &cycles, &run.Faults); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, startedAt)
		if err != nil {
			return nil, err
		}
		run.StartedAt = parsed
		run.Cycles = uint64(cycles)
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

// GetRun returns a single run by id.
func (s *Store) GetRun(ctx context.Context, id int64) (model.RunRecord, error) {
	var run model.RunRecord
	var startedAt string
	var cycles int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, started_at, source, min_hold_cycles, max_double_click_cycles, cycles, faults
		 FROM runs WHERE id = ?`, id).
		Scan(&run.ID, &startedAt, &run.Source, &run.MinHoldCycles, &run.MaxDoubleClickCycles, &cycles, &run.Faults)
	if err != nil {
		return model.RunRecord{}, err
	}
	parsed, err := time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return model.RunRecord{}, err
	}
	run.StartedAt = parsed
	run.Cycles = uint64(cycles)
	return run, nil
}

// ListTransitions returns the transitions recorded for a run in the order they fired.
func (s *Store) ListTransitions(ctx context.Context, runID int64) ([]gesture.Transition, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT cycle, from_state, to_state, symbol, key, layer, timer, tracked, fault, reset
		 FROM transitions WHERE run_id = ? ORDER BY seq ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []gesture.Transition
	for rows.Next() {
		var (
			cycle                int64
			from, to             string
			sym, key, layer, trk int
			tr                   gesture.Transition
		)
		if err := rows.Scan(&cycle, &from, &to, &sym, &key, &layer, &tr.Timer, &trk, &tr.Fault, &tr.Reset); err != nil {
			return nil, err
		}
		if tr.From, err = gesture.ParseState(from); err != nil {
			return nil, err
		}
		if tr.To, err = gesture.ParseState(to); err != nil {
			return nil, err
		}
		tr.Cycle = uint64(cycle)
		tr.Symbol = gesture.Symbol(sym)
		tr.Key = gesture.Keycode(key)
		tr.Layer = gesture.Layer(layer)
		tr.Tracked = gesture.Keycode(trk)
		result = append(result, tr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
