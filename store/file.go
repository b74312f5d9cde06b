package store

import (
	"context"
	"time"

	"github.com/confer-dev/confer/internal/atomicfile"
)

// ParseString returns a new store parsed from TOML text.
func ParseString(text string, opts ...Option) (*Store, error) {
	s := New(opts...)
	if err := s.LoadString(text); err != nil {
		return nil, err
	}
	return s, nil
}

// ReadFile returns a new store read from path (blocking).
func ReadFile(path string, opts ...Option) (*Store, error) {
	s := New(opts...)
	if err := s.LoadFile(path); err != nil {
		return nil, err
	}
	return s, nil
}

// ReadFileAsync reads and parses path without blocking the caller; the
// result arrives on the returned channel exactly once. If ctx is done
// by the time the read finishes, the result is discarded and nothing
// is sent; the read itself is not interrupted.
func ReadFileAsync(ctx context.Context, path string, opts ...Option) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		s, err := ReadFile(path, opts...)
		if ctx.Err() != nil {
			return
		}
		out <- Result{Store: s, Err: err}
	}()
	return out
}

// Result is the payload of ReadFileAsync.
type Result struct {
	Store *Store
	Err   error
}

// LoadString destructively replaces the entire mapping with the
// parsed contents of text. No reader ever observes a partially
// replaced mapping: the new map is built
// outside the lock and swapped in under a single write acquisition.
func (s *Store) LoadString(text string) error {
	start := time.Now()
	sections, err := decodeDocument([]byte(text))
	if err != nil {
		s.metrics.recordError(err.Code)
		s.logger.Error(err)
		return err
	}

	s.mu.Lock()
	s.sections = sections
	s.bumpGeneration()
	s.mu.Unlock()

	s.metrics.loadTime.Observe(time.Since(start).Seconds())
	s.logger.WithField("sections", len(sections)).Debug("store loaded from string")
	return nil
}

// LoadFile destructively replaces the entire mapping with the parsed
// contents of the file at path.
func (s *Store) LoadFile(path string) error {
	_, span := s.tracer.Start(context.Background(), "store.LoadFile")
	defer span.End()

	data, err := atomicfile.Read(path)
	if err != nil {
		wrapped := ioError(path, err)
		s.metrics.recordError(wrapped.Code)
		s.logger.WithField("path", path).Error(wrapped)
		return wrapped
	}
	return s.LoadString(string(data))
}

// Serialize reads a consistent snapshot of the store under a read
// acquisition and encodes it to TOML text.
func (s *Store) Serialize() (string, error) {
	s.mu.RLock()
	snapshot := make(map[string]Section, len(s.sections))
	for name, sec := range s.sections {
		snapshot[name] = sec.Clone()
	}
	s.mu.RUnlock()

	out, err := encodeDocument(snapshot)
	if err != nil {
		s.metrics.recordError(err.Code)
		s.logger.Error(err)
		return "", err
	}
	return string(out), nil
}

// WriteFile serializes the store and persists it to path atomically:
// the payload lands in a sibling temporary file which is then renamed
// over the destination, so a reader of path never observes a
// truncated write.
func (s *Store) WriteFile(path string) error {
	_, span := s.tracer.Start(context.Background(), "store.WriteFile")
	defer span.End()

	start := time.Now()
	text, err := s.Serialize()
	if err != nil {
		return err
	}
	if werr := atomicfile.Write(path, []byte(text)); werr != nil {
		wrapped := ioError(path, werr)
		s.metrics.recordError(wrapped.Code)
		s.logger.WithField("path", path).Error(wrapped)
		return wrapped
	}
	s.metrics.saveTime.Observe(time.Since(start).Seconds())
	s.logger.WithField("path", path).Debug("store written to file")
	return nil
}
