package recorder

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRecorder keeps episode records in memory
type MemoryRecorder struct {
	mu      sync.RWMutex
	runID   string
	started bool
	closed  bool
	records []*EpisodeRecord
}

// NewMemoryRecorder creates a new in-memory recorder
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{}
}

// Start implements Recorder.Start
func (m *MemoryRecorder) Start(dir, tag string, overwrite bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started && !overwrite {
		return ErrRunExists
	}
	m.runID = uuid.New().String()
	m.started = true
	m.closed = false
	m.records = m.records[:0]
	return nil
}

// Record implements Recorder.Record
func (m *MemoryRecorder) Record(ctx context.Context, record *EpisodeRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.started {
		return ErrNotStarted
	}
	fillDefaults(record, m.runID)
	m.records = append(m.records, record)
	return nil
}

// RunID implements Recorder.RunID
func (m *MemoryRecorder) RunID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.runID
}

// Records returns a copy of the stored records
func (m *MemoryRecorder) Records() []*EpisodeRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*EpisodeRecord, len(m.records))
	copy(out, m.records)
	return out
}

// Stats returns aggregate statistics
func (m *MemoryRecorder) Stats() *Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return stats(m.runID, m.records)
}

// Closed reports whether Close was called since the last Start
func (m *MemoryRecorder) Closed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closed
}

// Close implements Recorder.Close
func (m *MemoryRecorder) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func fillDefaults(record *EpisodeRecord, runID string) {
	// Generate ID if not provided
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.RunID == "" {
		record.RunID = runID
	}
	// Set timestamp if not provided
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}
}
