package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	TasksCreated      uint64
	TasksUpdated      uint64
	TasksToggled      uint64
	TasksDeleted      uint64
	TaskListCount     uint64
	TaskListTotalNs   int64
	CountsCacheHits   uint64
	CountsCacheMisses uint64
	ProfileUpserts    uint64
	AvatarUploads     map[string]uint64
	AuthAttempts      map[string]uint64 // "action/result"
	Requests          uint64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	tasksCreated      uint64
	tasksUpdated      uint64
	tasksToggled      uint64
	tasksDeleted      uint64
	taskListCount     uint64
	taskListTotalNs   int64
	countsCacheHits   uint64
	countsCacheMisses uint64
	profileUpserts    uint64
	requests          uint64

	mu            sync.Mutex
	avatarUploads map[string]uint64
	authAttempts  map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		avatarUploads: make(map[string]uint64),
		authAttempts:  make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	avatars := make(map[string]uint64, len(m.avatarUploads))
	for k, v := range m.avatarUploads {
		avatars[k] = v
	}
	attempts := make(map[string]uint64, len(m.authAttempts))
	for k, v := range m.authAttempts {
		attempts[k] = v
	}
	m.mu.Unlock()

	return Snapshot{
		TasksCreated:      atomic.LoadUint64(&m.tasksCreated),
		TasksUpdated:      atomic.LoadUint64(&m.tasksUpdated),
		TasksToggled:      atomic.LoadUint64(&m.tasksToggled),
		TasksDeleted:      atomic.LoadUint64(&m.tasksDeleted),
		TaskListCount:     atomic.LoadUint64(&m.taskListCount),
		TaskListTotalNs:   atomic.LoadInt64(&m.taskListTotalNs),
		CountsCacheHits:   atomic.LoadUint64(&m.countsCacheHits),
		CountsCacheMisses: atomic.LoadUint64(&m.countsCacheMisses),
		ProfileUpserts:    atomic.LoadUint64(&m.profileUpserts),
		AvatarUploads:     avatars,
		AuthAttempts:      attempts,
		Requests:          atomic.LoadUint64(&m.requests),
	}
}

// IncTaskMutation increments the counter for op.
func (m *InMemoryRecorder) IncTaskMutation(op string) {
	switch op {
	case "create":
		atomic.AddUint64(&m.tasksCreated, 1)
	case "update":
		atomic.AddUint64(&m.tasksUpdated, 1)
	case "toggle":
		atomic.AddUint64(&m.tasksToggled, 1)
	case "delete":
		atomic.AddUint64(&m.tasksDeleted, 1)
	}
}

// ObserveTaskList records list duration.
func (m *InMemoryRecorder) ObserveTaskList(duration time.Duration) {
	atomic.AddUint64(&m.taskListCount, 1)
	atomic.AddInt64(&m.taskListTotalNs, duration.Nanoseconds())
}

// IncCountsCache records a counts cache hit or miss.
func (m *InMemoryRecorder) IncCountsCache(hit bool) {
	if hit {
		atomic.AddUint64(&m.countsCacheHits, 1)
		return
	}
	atomic.AddUint64(&m.countsCacheMisses, 1)
}

// IncProfileUpsert increments profile upsert counter.
func (m *InMemoryRecorder) IncProfileUpsert() {
	atomic.AddUint64(&m.profileUpserts, 1)
}

// IncAvatarUpload increments the avatar counter for result.
func (m *InMemoryRecorder) IncAvatarUpload(result string) {
	m.mu.Lock()
	m.avatarUploads[result]++
	m.mu.Unlock()
}

// IncAuthAttempt increments the counter for action and result.
func (m *InMemoryRecorder) IncAuthAttempt(action, result string) {
	m.mu.Lock()
	m.authAttempts[action+"/"+result]++
	m.mu.Unlock()
}

// ObserveRequest counts requests.
func (m *InMemoryRecorder) ObserveRequest(string, int, time.Duration) {
	atomic.AddUint64(&m.requests, 1)
}
