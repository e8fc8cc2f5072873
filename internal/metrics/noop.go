package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

func (n *NoopRecorder) IncTaskMutation(string) {}
func (n *NoopRecorder) ObserveTaskList(time.Duration) {}
func (n *NoopRecorder) IncCountsCache(bool) {}
func (n *NoopRecorder) IncProfileUpsert() {}
func (n *NoopRecorder) IncAvatarUpload(string) {}
func (n *NoopRecorder) IncAuthAttempt(string, string) {}
func (n *NoopRecorder) ObserveRequest(string, int, time.Duration) {}
