package metrics

import (
	"sync"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	SnapshotsWritten        map[string]uint64
	SnapshotsFailed         map[string]uint64 // keyed by "kind/stage"
	SnapshotDurationCount   uint64
	SnapshotDurationTotalNs int64
	EntitiesCreated         map[string]uint64
	EntitiesUpdated         map[string]uint64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	mu                      sync.Mutex
	snapshotsWritten        map[string]uint64
	snapshotsFailed         map[string]uint64
	snapshotDurationCount   uint64
	snapshotDurationTotalNs int64
	entitiesCreated         map[string]uint64
	entitiesUpdated         map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		snapshotsWritten: make(map[string]uint64),
		snapshotsFailed:  make(map[string]uint64),
		entitiesCreated:  make(map[string]uint64),
		entitiesUpdated:  make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		SnapshotsWritten:        copyCounts(m.snapshotsWritten),
		SnapshotsFailed:         copyCounts(m.snapshotsFailed),
		SnapshotDurationCount:   m.snapshotDurationCount,
		SnapshotDurationTotalNs: m.snapshotDurationTotalNs,
		EntitiesCreated:         copyCounts(m.entitiesCreated),
		EntitiesUpdated:         copyCounts(m.entitiesUpdated),
	}
}

// IncSnapshotWritten increments the written counter for kind.
func (m *InMemoryRecorder) IncSnapshotWritten(kind string) {
	m.mu.Lock()
	m.snapshotsWritten[kind]++
	m.mu.Unlock()
}

// IncSnapshotFailed increments the failure counter for kind and stage.
func (m *InMemoryRecorder) IncSnapshotFailed(kind, stage string) {
	m.mu.Lock()
	m.snapshotsFailed[kind+"/"+stage]++
	m.mu.Unlock()
}

// ObserveSnapshotDuration records write duration.
func (m *InMemoryRecorder) ObserveSnapshotDuration(kind string, duration time.Duration) {
	m.mu.Lock()
	m.snapshotDurationCount++
	m.snapshotDurationTotalNs += duration.Nanoseconds()
	m.mu.Unlock()
}

// IncEntityCreated increments the created counter for kind.
func (m *InMemoryRecorder) IncEntityCreated(kind string) {
	m.mu.Lock()
	m.entitiesCreated[kind]++
	m.mu.Unlock()
}

// IncEntityUpdated increments the updated counter for kind.
func (m *InMemoryRecorder) IncEntityUpdated(kind string) {
	m.mu.Lock()
	m.entitiesUpdated[kind]++
	m.mu.Unlock()
}

func copyCounts(in map[string]uint64) map[string]uint64 {
	out := make(map[string]uint64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
