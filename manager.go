// Package logbook routes log entries to a set of drivers and exposes the history kept by the
// main driver. A Manager owns a single dispatch goroutine, so drivers receive entries in the
// order they were logged and callers never wait on driver I/O.
package logbook

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/tfkr-ae/logbook/core"
	"github.com/tfkr-ae/logbook/domain"
	"github.com/tfkr-ae/logbook/internal/notify"
)

// DefaultQueueSize is the dispatch queue capacity used when none is configured.
const DefaultQueueSize = 1024

var (
	// ErrNoDriver is reported by operations that need a main driver when the manager has none.
	ErrNoDriver = errors.New("no driver configured")
	// ErrClosed is returned by operations on a closed manager.
	ErrClosed = errors.New("manager closed")
)

// Manager fans entries out to its drivers and delegates history operations to the main driver.
type Manager struct {
	Logger *slog.Logger

	drivers      []domain.Driver
	seq          domain.Sequencer
	tasks        BackgroundTasks
	queueSize    int
	dropWhenFull bool
	dropped      atomic.Int64
	level        atomic.Int64
	cascadeLevel bool

	sendMu     sync.Mutex // guards jobs against sends after close
	closed     bool
	jobs       chan func()
	workerDone chan struct{}

	subMu     sync.RWMutex
	subs      map[uint64]func(*domain.Entry)
	nextSubID uint64
	feed      *notify.Dispatcher[*domain.Entry]

	storing   atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// New creates a manager and starts its dispatch goroutine.
// A manager without drivers is valid: entries still reach subscribers and history
// operations report that no driver is configured.
//
// Parameters:
//   - options: Variadic list of option functions to configure the manager
//
// Returns:
//   - *Manager: Running manager, to be released with Close
//   - error: Configuration error if any option fails
func New(options ...func(*Manager) error) (*Manager, error) {
	m := &Manager{
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		seq:       domain.ProcessSequencer,
		queueSize: DefaultQueueSize,
		subs:      make(map[uint64]func(*domain.Entry)),
	}
	if err := m.WithOptions(options...); err != nil {
		return nil, err
	}
	if m.tasks == nil {
		m.tasks = NewTaskTracker(m.Logger)
	}
	if m.cascadeLevel {
		m.SetLevel(m.Level())
	}
	m.advanceSequencer()

	m.jobs = make(chan func(), m.queueSize)
	m.workerDone = make(chan struct{})
	m.feed = notify.New(m.publish, func(r any) {
		m.Logger.Error("subscriber panicked", "panic", r)
	})
	go m.run()
	return m, nil
}

// advanceSequencer moves the sequencer past every order key the drivers already persisted,
// so entries from this process never collide with those of an earlier one.
func (m *Manager) advanceSequencer() {
	for _, driver := range m.drivers {
		order, err := driver.MaxOrder(context.Background())
		if err != nil {
			m.Logger.Warn("can't read persisted order", "error", err)
			continue
		}
		m.seq.AdvanceTo(order)
	}
}

func (m *Manager) run() {
	defer close(m.workerDone)
	for job := range m.jobs {
		m.runJob(job)
	}
}

func (m *Manager) runJob(job func()) {
	defer func() {
		if r := recover(); r != nil {
			m.Logger.Error("dispatch job panicked", "panic", r)
		}
	}()
	job()
}

// enqueue hands job to the dispatch goroutine, blocking while the queue is full.
func (m *Manager) enqueue(job func()) error {
	m.sendMu.Lock()
	defer m.sendMu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.jobs <- job
	return nil
}

// Level returns the manager level. It is only pushed to the drivers by WithLevel and SetLevel.
func (m *Manager) Level() domain.Level {
	return domain.Level(m.level.Load())
}

// SetLevel sets the manager level and applies it to every driver immediately.
func (m *Manager) SetLevel(level domain.Level) {
	m.level.Store(int64(level))
	for _, driver := range m.drivers {
		driver.SetLevel(level)
	}
}

// Drivers returns the manager's drivers in dispatch order.
func (m *Manager) Drivers() []domain.Driver {
	drivers := make([]domain.Driver, len(m.drivers))
	copy(drivers, m.drivers)
	return drivers
}

// MainDriver returns the first driver, or nil when there is none.
func (m *Manager) MainDriver() domain.Driver {
	if len(m.drivers) == 0 {
		return nil
	}
	return m.drivers[0]
}

// LogAt records an entry for an explicit call site. file may be a full path, only its base
// name without extension is kept. The entry is handed to every driver, each applying its
// own level, and published to subscribers whether or not a driver accepted it.
//
// LogAt only waits for the drivers when the dispatch queue is full. With WithDropWhenFull
// the entry is dropped instead and counted in Dropped.
func (m *Manager) LogAt(file string, line uint, function string, level domain.Level, message string) {
	m.sendMu.Lock()
	defer m.sendMu.Unlock()
	if m.closed {
		m.Logger.Debug("dropping entry logged after close", "message", message)
		return
	}

	entry := domain.NewEntry(m.seq, level, core.ShortFileName(file), line, function, message)
	job := func() { m.dispatch(entry) }
	if !m.dropWhenFull {
		m.jobs <- job
		return
	}

	select {
	case m.jobs <- job:
	default:
		m.dropped.Add(1)
		m.Logger.Warn("dispatch queue full, dropping entry",
			"level", entry.Level().String(),
			"order", entry.Order())
	}
}

// Dropped returns the number of entries dropped because the dispatch queue was full.
func (m *Manager) Dropped() int64 {
	return m.dropped.Load()
}

func (m *Manager) dispatch(entry *domain.Entry) {
	for _, driver := range m.drivers {
		driver.Log(entry)
	}
	m.feed.Post(entry)
}

// Subscribe registers fn to receive every logged entry. Entries are delivered in log order on a
// goroutine shared by all subscribers of the manager. The returned function removes the subscription.
func (m *Manager) Subscribe(fn func(entry *domain.Entry)) (unsubscribe func()) {
	m.subMu.Lock()
	id := m.nextSubID
	m.nextSubID++
	m.subs[id] = fn
	m.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.subMu.Lock()
			delete(m.subs, id)
			m.subMu.Unlock()
		})
	}
}

func (m *Manager) publish(entry *domain.Entry) {
	m.subMu.RLock()
	subs := make([]func(*domain.Entry), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.subMu.RUnlock()

	for _, fn := range subs {
		fn(entry)
	}
}

// Filter queries the main driver on its own goroutine. The channel yields exactly one result:
// ResultUnsupported when there is no main driver or it keeps no history.
func (m *Manager) Filter(ctx context.Context, query domain.FilterQuery) <-chan domain.FilterResult {
	results := make(chan domain.FilterResult, 1)
	go func() {
		defer close(results)

		driver := m.MainDriver()
		if driver == nil {
			results <- domain.Unsupported()
			return
		}

		result := driver.Filter(ctx, query)
		if result.Status == domain.ResultError {
			m.Logger.Warn("filter failed", "text", query.Text, "offset", query.Offset, "error", result.Err)
		}
		results <- result
	}()
	return results
}

// StoreInBackground hands the main driver's unsynced entries to handler on its own goroutine.
// Only one store runs at a time: while one is in flight further calls return (nil, false).
// Otherwise the channel yields the outcome of the store and the background task begun for it
// has already been ended.
func (m *Manager) StoreInBackground(ctx context.Context, handler domain.StoreHandler) (<-chan error, bool) {
	if !m.storing.CompareAndSwap(false, true) {
		return nil, false
	}

	task := m.tasks.Begin("store logs")
	done := make(chan error, 1)
	go func() {
		defer close(done)
		done <- m.store(ctx, handler, task)
	}()
	return done, true
}

func (m *Manager) store(ctx context.Context, handler domain.StoreHandler, task uuid.UUID) error {
	defer m.storing.Store(false)
	defer m.tasks.End(task)

	driver := m.MainDriver()
	if driver == nil {
		return ErrNoDriver
	}
	if err := driver.Store(ctx, handler); err != nil {
		m.Logger.Error("can't store logs", "error", err)
		return fmt.Errorf("storing logs: %w", err)
	}
	return nil
}

// Clear clears every driver once the entries logged before the call have been dispatched.
// Errors from individual drivers are joined.
func (m *Manager) Clear(ctx context.Context) error {
	result := make(chan error, 1)
	err := m.enqueue(func() {
		var errs []error
		for _, driver := range m.drivers {
			if err := driver.Clear(ctx); err != nil {
				errs = append(errs, err)
			}
		}
		result <- errors.Join(errs...)
	})
	if err != nil {
		return err
	}

	select {
	case err := <-result:
		if err != nil {
			m.Logger.Error("can't clear logs", "error", err)
			return fmt.Errorf("clearing logs: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Flush waits until every entry logged before the call has reached the drivers.
func (m *Manager) Flush(ctx context.Context) error {
	done := make(chan struct{})
	if err := m.enqueue(func() { close(done) }); err != nil {
		return err
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close dispatches the queued entries, delivers pending notifications and closes every driver.
// Entries logged after Close are dropped.
func (m *Manager) Close() error {
	return m.shutdown(nil)
}

// shutdown is Close, except that the drivers in keep are left open.
func (m *Manager) shutdown(keep []domain.Driver) error {
	m.closeOnce.Do(func() {
		m.sendMu.Lock()
		m.closed = true
		close(m.jobs)
		m.sendMu.Unlock()

		<-m.workerDone
		m.feed.Close()

		var errs []error
		for _, driver := range m.drivers {
			if slices.Contains(keep, driver) {
				continue
			}
			if err := driver.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		m.closeErr = errors.Join(errs...)
	})
	return m.closeErr
}
