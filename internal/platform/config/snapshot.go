package config

import "sync/atomic"

// Snapshot is one immutable configuration generation. A decision run captures
// a snapshot at entry and observes it end-to-end; a reload never mixes old
// and new thresholds within one run.
type Snapshot struct {
	Version uint64
	Config  Config
}

// Store hands out the current snapshot and swaps generations atomically.
// Swapping is the caller's last step after validation and rule compilation
// have both succeeded; an invalid candidate never replaces the active one.
type Store struct {
	current atomic.Pointer[Snapshot]
	version atomic.Uint64
}

func NewStore(cfg Config) *Store {
	s := &Store{}
	s.current.Store(&Snapshot{Version: s.version.Add(1), Config: cfg})
	return s
}

// Current returns the active snapshot. Never nil.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Next returns a candidate snapshot at the next generation without
// installing it. The caller compiles the candidate first and calls Install
// only on success.
func (s *Store) Next(cfg Config) *Snapshot {
	return &Snapshot{Version: s.version.Add(1), Config: cfg}
}

// Install makes a candidate snapshot the current generation.
func (s *Store) Install(snap *Snapshot) {
	s.current.Store(snap)
}
