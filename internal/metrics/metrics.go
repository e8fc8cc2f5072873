// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Task metrics. op is one of create, update, toggle, delete.
	IncTaskMutation(op string)
	ObserveTaskList(duration time.Duration)
	IncCountsCache(hit bool)

	// Profile and avatar metrics. result is ok, rejected or failed.
	IncProfileUpsert()
	IncAvatarUpload(result string)

	// Identity metrics. result is success or failure.
	IncAuthAttempt(action, result string)

	// HTTP metrics.
	ObserveRequest(route string, status int, duration time.Duration)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
