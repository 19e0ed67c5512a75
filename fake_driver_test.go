package logbook

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/tfkr-ae/logbook/domain"
)

// fakeDriver records what the manager hands it.
type fakeDriver struct {
	level atomic.Int64

	mu       sync.Mutex
	entries  []*domain.Entry
	clears   int
	closed   bool
	onLogged func(*domain.Entry)

	filterResult domain.FilterResult
	storeErr     error
	clearErr     error
	maxOrder     int64
	storeGate    chan struct{} // when set, Store waits for it to be closed
	logGate      chan struct{} // when set, Log signals logEntered and waits for it to be closed
	logEntered   chan struct{}
}

func newFakeDriver(level domain.Level) *fakeDriver {
	d := &fakeDriver{filterResult: domain.Found(nil)}
	d.level.Store(int64(level))
	return d
}

func (d *fakeDriver) Level() domain.Level         { return domain.Level(d.level.Load()) }
func (d *fakeDriver) SetLevel(level domain.Level) { d.level.Store(int64(level)) }

func (d *fakeDriver) Log(entry *domain.Entry) {
	if !entry.Level().Enabled(d.Level()) {
		return
	}
	if d.logGate != nil {
		select {
		case d.logEntered <- struct{}{}:
		default:
		}
		<-d.logGate
	}
	d.mu.Lock()
	d.entries = append(d.entries, entry)
	d.mu.Unlock()
}

func (d *fakeDriver) Filter(context.Context, domain.FilterQuery) domain.FilterResult {
	return d.filterResult
}

func (d *fakeDriver) Store(ctx context.Context, handler domain.StoreHandler) error {
	if d.storeGate != nil {
		<-d.storeGate
	}
	if d.storeErr != nil {
		return d.storeErr
	}
	d.mu.Lock()
	entries := append([]*domain.Entry(nil), d.entries...)
	d.mu.Unlock()
	return handler(ctx, domain.Batch{Entries: entries})
}

func (d *fakeDriver) Clear(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clears++
	if d.clearErr != nil {
		return d.clearErr
	}
	d.entries = nil
	return nil
}

func (d *fakeDriver) MaxOrder(context.Context) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.maxOrder, nil
}

func (d *fakeDriver) OnLogged(callback func(*domain.Entry)) {
	d.mu.Lock()
	d.onLogged = callback
	d.mu.Unlock()
}

func (d *fakeDriver) Close() error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	return nil
}

func (d *fakeDriver) messages() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	messages := make([]string, len(d.entries))
	for i, entry := range d.entries {
		messages[i] = entry.Message()
	}
	return messages
}
