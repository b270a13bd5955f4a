// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus or keep them in memory.
type Recorder interface {
	// Snapshot export metrics
	IncSnapshotWritten(kind string)
	IncSnapshotFailed(kind, stage string)
	ObserveSnapshotDuration(kind string, duration time.Duration)

	// Entity store metrics
	IncEntityCreated(kind string)
	IncEntityUpdated(kind string)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
