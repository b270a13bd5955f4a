package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncSnapshotWritten is a no-op.
func (n *NoopRecorder) IncSnapshotWritten(kind string) {}

// IncSnapshotFailed is a no-op.
func (n *NoopRecorder) IncSnapshotFailed(kind, stage string) {}

// ObserveSnapshotDuration is a no-op.
func (n *NoopRecorder) ObserveSnapshotDuration(kind string, duration time.Duration) {}

// IncEntityCreated is a no-op.
func (n *NoopRecorder) IncEntityCreated(kind string) {}

// IncEntityUpdated is a no-op.
func (n *NoopRecorder) IncEntityUpdated(kind string) {}
