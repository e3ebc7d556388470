// Package model defines shared data structures.
package model

import "time"

// Config defines classifier and engine settings after flags and the config
// file have been merged.
type Config struct {
	MinHoldCycles        int
	MaxDoubleClickCycles int
	DoubleClickLatch     bool
	CyclePeriod          time.Duration
	KeymapPath           string
	LogLevel             string
}

// StatsConfig defines filters for stats output.
type StatsConfig struct {
	Source string
	Since  *time.Time
	Last   int
}

// RunRecord captures a completed classifier run.
type RunRecord struct {
	ID                   int64
	StartedAt            time.Time
	Source               string
	MinHoldCycles        int
	MaxDoubleClickCycles int
	Cycles               uint64
	Faults               int
}
