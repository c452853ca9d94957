package repository

import (
	"path/filepath"
	"time"
)

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithDataDir points every unset file at its default name inside dir.
func WithDataDir(dir string) Option {
	return func(s *MemoryStore) {
		if dir == "" {
			return
		}
		if s.files.Margins == "" {
			s.files.Margins = filepath.Join(dir, DefaultMarginsFile)
		}
		if s.files.Electoral == "" {
			s.files.Electoral = filepath.Join(dir, DefaultElectoralFile)
		}
		if s.files.Flips == "" {
			s.files.Flips = filepath.Join(dir, DefaultFlipsFile)
		}
	}
}

// WithFiles sets explicit file paths. Empty fields are left unchanged.
func WithFiles(f Files) Option {
	return func(s *MemoryStore) {
		if f.Margins != "" {
			s.files.Margins = f.Margins
		}
		if f.Electoral != "" {
			s.files.Electoral = f.Electoral
		}
		if f.Flips != "" {
			s.files.Flips = f.Flips
		}
	}
}

// WithDerivedFlips computes scenarios from the margins when no flip file exists.
func WithDerivedFlips(enabled bool) Option {
	return func(s *MemoryStore) {
		s.deriveFlips = enabled
	}
}

// WithOnLoad registers a callback run after every successful load with the
// new snapshot.
func WithOnLoad(fn func(*Snapshot)) Option {
	return func(s *MemoryStore) {
		if fn != nil {
			s.onLoad = append(s.onLoad, fn)
		}
	}
}

// WithDebounce sets how long the watcher waits for writes to settle.
func WithDebounce(d time.Duration) Option {
	return func(s *MemoryStore) {
		if d > 0 {
			s.debounce = d
		}
	}
}
