// Package storage provides the durable logbook driver. Entries are persisted to an embedded
// SQLite database together with a full-text index, and can be paged through, searched,
// synced to an external service and cleared.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/tfkr-ae/logbook/db"
	"github.com/tfkr-ae/logbook/domain"
	"github.com/tfkr-ae/logbook/internal/notify"
)

var _ domain.Driver = (*Driver)(nil)

// Driver persists entries through a domain.EntryRepository.
type Driver struct {
	repo   domain.EntryRepository
	logger *slog.Logger
	level  atomic.Int64

	writeMu  sync.Mutex // serializes writes to the repository
	onLogged atomic.Pointer[func(*domain.Entry)]
	notifier *notify.Dispatcher[*domain.Entry]

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// New opens (or creates) the driver's database and returns a ready driver.
// With no options the driver logs every level to DefaultFileName in DefaultDirectory.
//
// If the database cannot be opened or migrated the error is logged and returned,
// and no driver is created.
func New(options ...Option) (*Driver, error) {
	s := &settings{
		level:    domain.LevelDebug,
		fileName: DefaultFileName,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, option := range options {
		if err := option(s); err != nil {
			return nil, fmt.Errorf("applying option on storage driver : %w", err)
		}
	}

	repo, err := openRepository(s)
	if err != nil {
		s.logger.Error("can't create log database", "error", err)
		return nil, err
	}

	driver := &Driver{
		repo:   repo,
		logger: s.logger,
	}
	driver.level.Store(int64(s.level))
	driver.notifier = notify.New(driver.deliver, func(r any) {
		driver.logger.Error("log callback panicked", "panic", r)
	})
	return driver, nil
}

func openRepository(s *settings) (domain.EntryRepository, error) {
	if s.repo != nil {
		return s.repo, nil
	}

	if s.inMemory {
		conn, err := db.NewInMemory()
		if err != nil {
			return nil, fmt.Errorf("opening in-memory database: %w", err)
		}
		return db.NewLogRepo(conn), nil
	}

	dir := s.directory
	if dir == "" {
		defaultDir, err := DefaultDirectory()
		if err != nil {
			return nil, err
		}
		dir = defaultDir
	}
	if err := ensureDirectory(dir); err != nil {
		return nil, err
	}

	path := filepath.Join(dir, s.fileName)
	conn, err := db.New(path)
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", path, err)
	}
	return db.NewLogRepo(conn), nil
}

// Level returns the minimum level persisted by the driver.
func (d *Driver) Level() domain.Level {
	return domain.Level(d.level.Load())
}

// SetLevel changes the minimum level persisted by the driver.
func (d *Driver) SetLevel(level domain.Level) {
	d.level.Store(int64(level))
}

// OnLogged registers the callback fired after each persisted entry. Pass nil to remove it.
func (d *Driver) OnLogged(callback func(entry *domain.Entry)) {
	if callback == nil {
		d.onLogged.Store(nil)
		return
	}
	d.onLogged.Store(&callback)
}

// Log persists the entry if it passes the driver's level. A failed write is logged and the entry
// is dropped; the callback only fires for entries that were committed.
func (d *Driver) Log(entry *domain.Entry) {
	if d.closed.Load() || !entry.Level().Enabled(d.Level()) {
		return
	}

	d.writeMu.Lock()
	err := d.repo.InsertEntry(context.Background(), entry)
	d.writeMu.Unlock()

	if err != nil {
		d.logger.Error("can't insert entry",
			"created_at", entry.CreatedAt().Unix(),
			"order", entry.Order(),
			"error", err)
		return
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

// Filter returns one page of entries, newest first. A failing query yields an empty ResultError page.
func (d *Driver) Filter(ctx context.Context, query domain.FilterQuery) domain.FilterResult {
	entries, err := d.repo.FilterEntries(ctx, query)
	if err != nil {
		d.logger.Warn("can't fetch logs", "text", query.Text, "offset", query.Offset, "error", err)
		return domain.Failed(err)
	}
	return domain.Found(entries)
}

// Store hands every unsynced entry, oldest first, to handler. When the handler succeeds each
// entry is marked stored one at a time; entries that vanished in the meantime are only logged.
func (d *Driver) Store(ctx context.Context, handler domain.StoreHandler) error {
	if handler == nil {
		return errors.New("nil store handler")
	}

	entries, err := d.repo.UnsyncedEntries(ctx)
	if err != nil {
		return fmt.Errorf("selecting unsynced logs: %w", err)
	}

	batchID, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generating uuid: %w", err)
	}

	if err := handler(ctx, domain.Batch{ID: batchID, Entries: entries}); err != nil {
		return fmt.Errorf("storing batch %s: %w", batchID, err)
	}

	d.writeMu.Lock()
	defer d.writeMu.Unlock()
	for _, entry := range entries {
		err := d.repo.MarkStored(ctx, entry)
		switch {
		case errors.Is(err, db.ErrEntryNotFound):
			d.logger.Warn("log not found", "created_at", entry.CreatedAt().Unix(), "order", entry.Order())
		case err != nil:
			d.logger.Error("can't update log", "created_at", entry.CreatedAt().Unix(), "order", entry.Order(), "error", err)
		}
	}
	return nil
}

// Clear deletes every entry and empties the full-text index.
func (d *Driver) Clear(ctx context.Context) error {
	d.writeMu.Lock()
	defer d.writeMu.Unlock()

	if err := d.repo.ClearEntries(ctx); err != nil {
		d.logger.Error("can't clear log", "error", err)
		return fmt.Errorf("clearing logs: %w", err)
	}
	return nil
}

// Count returns the number of persisted entries.
func (d *Driver) Count(ctx context.Context) (int, error) {
	return d.repo.CountEntries(ctx)
}

// CountUnsynced returns the number of entries waiting for the next Store.
func (d *Driver) CountUnsynced(ctx context.Context) (int, error) {
	return d.repo.CountUnsynced(ctx)
}

// Close delivers pending callbacks and closes the database.
func (d *Driver) Close() error {
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		d.notifier.Close()

		d.writeMu.Lock()
		defer d.writeMu.Unlock()
		d.closeErr = d.repo.Close()
	})
	return d.closeErr
}

// MaxOrder returns the highest persisted order key.
func (d *Driver) MaxOrder(ctx context.Context) (int64, error) {
	return d.repo.MaxOrder(ctx)
}
