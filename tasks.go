package logbook

import (
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// BackgroundTasks is the host's background-work facility. The manager begins a task before
// a background store and always ends it, whether the store succeeded or failed.
type BackgroundTasks interface {
	Begin(name string) uuid.UUID
	End(id uuid.UUID)
}

// TaskTracker is the default BackgroundTasks. It only records which tasks are running.
type TaskTracker struct {
	logger *slog.Logger

	mu     sync.Mutex
	active map[uuid.UUID]string
}

// NewTaskTracker returns an empty tracker. A nil logger discards its diagnostics.
func NewTaskTracker(logger *slog.Logger) *TaskTracker {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &TaskTracker{
		logger: logger,
		active: make(map[uuid.UUID]string),
	}
}

// Begin records a running task and returns its id.
func (t *TaskTracker) Begin(name string) uuid.UUID {
	id := uuid.New()

	t.mu.Lock()
	t.active[id] = name
	t.mu.Unlock()

	t.logger.Debug("background task started", "task", name, "id", id)
	return id
}

// End forgets the task with id. Unknown ids are logged and ignored.
func (t *TaskTracker) End(id uuid.UUID) {
	t.mu.Lock()
	name, ok := t.active[id]
	delete(t.active, id)
	t.mu.Unlock()

	if !ok {
		t.logger.Warn("ending unknown background task", "id", id)
		return
	}
	t.logger.Debug("background task ended", "task", name, "id", id)
}

// Active returns the number of tasks begun and not yet ended.
func (t *TaskTracker) Active() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.active)
}
