package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/tipping/pkg/logger"
	"github.com/okian/tipping/pkg/metrics"
)

const defaultDebounce = 500 * time.Millisecond

// Store provides read access to the active dataset snapshot.
type Store interface {
	// Snapshot returns the active snapshot. It is never nil.
	Snapshot() *Snapshot
	// Load reads the dataset and, on success, replaces the active snapshot.
	Load(ctx context.Context) error
}

// MemoryStore keeps the active snapshot behind an atomic pointer. Readers
// never block; a load builds a new snapshot and swaps it in.
type MemoryStore struct {
	files       Files
	deriveFlips bool
	debounce    time.Duration
	onLoad      []func(*Snapshot)

	snapshot atomic.Pointer[Snapshot]
	loadMu   sync.Mutex // serializes loads
	lastErr  atomic.Pointer[loadError]
}

type loadError struct {
	err error
	at  time.Time
}

// NewMemoryStore creates a store holding an empty snapshot.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{debounce: defaultDebounce}
	for _, opt := range opts {
		opt(s)
	}
	s.snapshot.Store(emptySnapshot())
	return s
}

// Files returns the configured dataset paths.
func (s *MemoryStore) Files() Files { return s.files }

// Snapshot implements Store.
func (s *MemoryStore) Snapshot() *Snapshot {
	return s.snapshot.Load()
}

// Load implements Store. On failure the previous snapshot stays active and the
// error is kept for LastError.
func (s *MemoryStore) Load(ctx context.Context) error {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	start := time.Now()
	log := logger.Get().Named("repository")
	snap, err := LoadSnapshot(ctx, s.files, s.deriveFlips)
	if err != nil {
		s.lastErr.Store(&loadError{err: err, at: time.Now()})
		metrics.RecordDatasetLoadError()
		metrics.RecordErrorByComponent("repository", "load")
		log.Error(ctx, "dataset load failed", logger.String("margins", s.files.Margins), logger.Error(err))
		return err
	}
	s.snapshot.Store(snap)
	s.lastErr.Store(nil)

	st := snap.Stats()
	metrics.RecordDatasetLoad(float64(time.Since(start).Microseconds())/1000, time.Now().Unix())
	metrics.UpdateDatasetSize(st.Records, st.Years, st.Scenarios)
	log.Info(ctx, "dataset loaded",
		logger.Int("records", st.Records),
		logger.Int("years", st.Years),
		logger.Int("scenarios", st.Scenarios),
		logger.Bool("derived_scenarios", st.DerivedScenarios),
		logger.Int("duplicates", st.Duplicates),
	)
	for _, fn := range s.onLoad {
		fn(snap)
	}
	return nil
}

// LastError returns the error of the most recent load, or nil if it succeeded.
func (s *MemoryStore) LastError() (error, time.Time) { //nolint:revive // error paired with its timestamp
	le := s.lastErr.Load()
	if le == nil {
		return nil, time.Time{}
	}
	return le.err, le.at
}
