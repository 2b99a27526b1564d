package ui

import "sync/atomic"

// Stats counts the outcome of every unit of a run.
type Stats struct {
	Downloaded atomic.Int64
	Skipped    atomic.Int64
	Failed     atomic.Int64
	Images     atomic.Int64
	Bytes      atomic.Int64
}

// Successes are units written or already present.
func (s *Stats) Successes() int64 {
	return s.Downloaded.Load() + s.Skipped.Load()
}
