// Package console provides a logbook driver that prints entries as they are logged.
// It keeps no history: Filter reports unsupported, Store fails with domain.ErrUnsupported
// and Clear does nothing.
package console

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/tfkr-ae/logbook/domain"
	"github.com/tfkr-ae/logbook/internal/notify"
)

var _ domain.Driver = (*Driver)(nil)

// Driver writes one line per entry to an io.Writer.
type Driver struct {
	logger *slog.Logger
	format FormatFunc
	level  atomic.Int64

	writeMu sync.Mutex
	w       io.Writer

	onLogged atomic.Pointer[func(*domain.Entry)]
	notifier *notify.Dispatcher[*domain.Entry]

	closed    atomic.Bool
	closeOnce sync.Once
}

// New returns a console driver. With no options it prints every level to os.Stderr,
// colored when stderr is a terminal.
func New(options ...Option) (*Driver, error) {
	s := defaultSettings()
	for _, option := range options {
		if err := option(s); err != nil {
			return nil, fmt.Errorf("applying option on console driver : %w", err)
		}
	}
	if s.format == nil {
		s.format = NewFormatter(s.writer, s.color).Format
	}

	driver := &Driver{
		logger: s.logger,
		format: s.format,
		w:      s.writer,
	}
	driver.level.Store(int64(s.level))
	driver.notifier = notify.New(driver.deliver, func(r any) {
		driver.logger.Error("log callback panicked", "panic", r)
	})
	return driver, nil
}

// Level returns the minimum level printed by the driver.
func (d *Driver) Level() domain.Level {
	return domain.Level(d.level.Load())
}

// SetLevel changes the minimum level printed by the driver.
func (d *Driver) SetLevel(level domain.Level) {
	d.level.Store(int64(level))
}

// OnLogged registers the callback fired after each printed entry. Pass nil to remove it.
func (d *Driver) OnLogged(callback func(entry *domain.Entry)) {
	if callback == nil {
		d.onLogged.Store(nil)
		return
	}
	d.onLogged.Store(&callback)
}

// Log prints the entry if it passes the driver's level.
func (d *Driver) Log(entry *domain.Entry) {
	if d.closed.Load() || !entry.Level().Enabled(d.Level()) {
		return
	}

	line := d.format(entry) + "\n"

	d.writeMu.Lock()
	_, err := io.WriteString(d.w, line)
	d.writeMu.Unlock()
	if err != nil {
		d.logger.Warn("can't write entry", "error", err)
	}

	if d.onLogged.Load() != nil {
		d.notifier.Post(entry)
	}
}

func (d *Driver) deliver(entry *domain.Entry) {
	if callback := d.onLogged.Load(); callback != nil {
		(*callback)(entry)
	}
}

func (d *Driver) Filter(context.Context, domain.FilterQuery) domain.FilterResult {
	return domain.Unsupported()
}

func (d *Driver) Store(context.Context, domain.StoreHandler) error {
	return domain.ErrUnsupported
}

func (d *Driver) Clear(context.Context) error {
	return nil
}

func (d *Driver) MaxOrder(context.Context) (int64, error) {
	return 0, nil
}

// Close delivers pending callbacks. The writer is left open.
func (d *Driver) Close() error {
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		d.notifier.Close()
	})
	return nil
}
