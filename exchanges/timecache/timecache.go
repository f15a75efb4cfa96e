// Package timecache tracks which time intervals of a historical dataset have
// already been fully fetched, so repeated queries over covered windows never
// hit the network. Stores perform no locking of their own; the owning client
// serializes access behind the same lock that guards its signed requests.
package timecache

import (
	"encoding/json"
	"fmt"
	"time"
)

// Range is the interval over which a stored payload is known to be complete
type Range struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Covers reports whether a query for [start, endAtLeast] is fully satisfied
// by this range. Partial overlap never counts; callers re-fetch the whole
// window on a miss.
func (r Range) Covers(start, endAtLeast time.Time) bool {
	return !r.Start.After(start) && !r.End.Before(endAtLeast)
}

// Backend persists cache entries across processes. Implementations return
// found=false when no entry exists for the key.
type Backend interface {
	Load(kind, qualifier string) (payload []byte, r Range, found bool, err error)
	Save(kind, qualifier string, r Range, payload []byte) error
}

type entry[T any] struct {
	r       Range
	payload T
}

// Store caches one payload per qualifier for a single kind of dataset
// e.g. kind "loan_history" qualified by account
type Store[T any] struct {
	kind    string
	backend Backend
	entries map[string]entry[T]
}

// New returns an empty store for the given dataset kind. backend may be nil
// for a purely in-memory cache.
func New[T any](kind string, backend Backend) *Store[T] {
	return &Store[T]{
		kind:    kind,
		backend: backend,
		entries: make(map[string]entry[T]),
	}
}

// Check returns the stored payload if and only if a stored range for the
// qualifier covers [start, endAtLeast]. On an in-memory miss the backend, if
// any, is consulted and a covering persisted entry is promoted into memory.
func (s *Store[T]) Check(qualifier string, start, endAtLeast time.Time) (T, bool) {
	if e, ok := s.entries[qualifier]; ok && e.r.Covers(start, endAtLeast) {
		return e.payload, true
	}

	var zero T
	if s.backend == nil {
		return zero, false
	}

	raw, r, found, err := s.backend.Load(s.kind, qualifier)
	if err != nil || !found || !r.Covers(start, endAtLeast) {
		return zero, false
	}

	var payload T
	if err := json.Unmarshal(raw, &payload); err != nil {
		return zero, false
	}
	s.entries[qualifier] = entry[T]{r: r, payload: payload}
	return payload, true
}

// Update records payload as the complete dataset for [start, end],
// overwriting any prior entry for the qualifier. No range merging is
// attempted. When a backend is configured the entry is written through.
func (s *Store[T]) Update(qualifier string, start, end time.Time, payload T) error {
	r := Range{Start: start, End: end}
	s.entries[qualifier] = entry[T]{r: r, payload: payload}

	if s.backend == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshalling %s cache payload: %w", s.kind, err)
	}
	return s.backend.Save(s.kind, qualifier, r, raw)
}
