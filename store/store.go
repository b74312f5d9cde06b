// Package store implements the shared, concurrent, in-memory
// configuration hub: a mapping from section names to tables of typed
// values, guarded by a single readers-writer lock, with TOML
// persistence and typed section-scoped access.
//
// Many goroutines may hold a read acquisition concurrently; a write
// acquisition is exclusive. Every operation beyond the blocking
// constructors is safe to call from any number of concurrent
// goroutines.
package store

import (
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/confer-dev/confer/log"
	"github.com/confer-dev/confer/value"
)

var tuneProcsOnce sync.Once

// Store is the shared in-memory configuration document. The zero
// value is not usable; construct one with New.
type Store struct {
	mu       sync.RWMutex
	sections map[string]Section

	logger  log.Logger
	metrics *Metrics
	tracer  trace.Tracer

	// generation is bumped on every mutation; see Generation.
	generation uint64
}

// Option configures a Store at construction time, mirroring the
// teacher's functional-option pattern for its own storage layer.
type Option func(*Store)

// WithLogger attaches a log.Logger. Without one, operations log
// nowhere.
func WithLogger(l log.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithMetrics attaches a Metrics recorder. Without one, operations
// record into a Metrics value that is not registered anywhere.
func WithMetrics(m *Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// WithTracerName sets the instrumentation name used to obtain an
// otel.Tracer for span creation around blocking operations.
func WithTracerName(name string) Option {
	return func(s *Store) { s.tracer = otel.Tracer(name) }
}

// New returns an empty store.
func New(opts ...Option) *Store {
	tuneProcsOnce.Do(func() {
		// Best effort: a container's CPU quota, not its host's core
		// count, should bound GOMAXPROCS for the concurrent
		// reader/writer workload. Failure to detect cgroup limits
		// (e.g. running outside a container) is not an error.
		_, _ = maxprocs.Set()
	})

	s := &Store{
		sections: map[string]Section{},
		logger:   log.NewNoOp(),
		metrics:  NewMetrics(nil),
		tracer:   otel.Tracer("github.com/confer-dev/confer/store"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SectionExists reports whether section is present, even if empty.
func (s *Store) SectionExists(section string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sections[section]
	return ok
}

// AddSection ensures section is present. Idempotent.
func (s *Store) AddSection(section string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sections[section]; !ok {
		s.addSectionLocked(section)
		s.bumpGeneration()
	}
}

func (s *Store) addSectionLocked(section string) Section {
	sec, ok := s.sections[section]
	if !ok {
		sec = Section{}
		s.sections[section] = sec
	}
	return sec
}

// RemoveSection removes section. Idempotent.
func (s *Store) RemoveSection(section string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sections, section)
	s.bumpGeneration()
}

// ListSections returns a snapshot of section names.
func (s *Store) ListSections() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.sections))
	for name := range s.sections {
		out = append(out, name)
	}
	return out
}

// ListKeys returns a snapshot of section's key names, or an empty
// slice if the section is absent.
func (s *Store) ListKeys(section string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sec, ok := s.sections[section]
	if !ok {
		return nil
	}
	return sec.Keys()
}

// GetSection returns a deep clone of section's table, or ok=false if
// the section is absent.
func (s *Store) GetSection(section string) (Section, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sec, ok := s.sections[section]
	if !ok {
		return nil, false
	}
	return sec.Clone(), true
}

// GetRaw returns the Value stored at (section, key), or ok=false if
// either the section or the key is absent. Absence and
// presence-with-wrong-type are distinguished only by typed getters;
// GetRaw just reports presence.
func (s *Store) GetRaw(section, key string) (value.Value, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sec, ok := s.sections[section]
	if !ok {
		return value.Value{}, false
	}
	v, ok := sec[key]
	return v, ok
}

// SetRaw creates section if absent and upserts key to v.
func (s *Store) SetRaw(section, key string, v value.Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sec := s.addSectionLocked(section)
	sec[key] = v
	s.bumpGeneration()
	s.metrics.recordWrite(section)
}

// RemoveKey removes key from section. Idempotent: a missing section
// or key is not an error.
func (s *Store) RemoveKey(section, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sec, ok := s.sections[section]
	if !ok {
		return
	}
	delete(sec, key)
	s.bumpGeneration()
}

// ReconcileSection holds a single write acquisition across the whole
// of fn, so a concurrent reader (GetRaw, GetSection, Serialize, ...)
// observes section in either the form fn started from or the form fn
// returns, never an intermediate mixture of the two. fn receives the
// section's current table, created empty if the section did not
// already exist, and must return the table that replaces it; fn must
// not call back into the store, since the write lock is already held.
func (s *Store) ReconcileSection(section string, fn func(Section) Section) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.addSectionLocked(section)
	s.sections[section] = fn(cur)
	s.bumpGeneration()
	s.metrics.recordWrite(section)
	s.logger.WithField("section", section).Debug("section reconciled")
}

func (s *Store) bumpGeneration() {
	atomic.AddUint64(&s.generation, 1)
}

// Generation returns a counter incremented on every mutation. It has
// no meaning beyond change detection within a single process.
func (s *Store) Generation() uint64 {
	return atomic.LoadUint64(&s.generation)
}
