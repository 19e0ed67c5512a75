package storage

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tfkr-ae/logbook/domain"
)

func newTestDriver(t *testing.T, options ...Option) *Driver {
	t.Helper()

	driver, err := New(append([]Option{InMemory()}, options...)...)
	require.NoError(t, err)
	t.Cleanup(func() { driver.Close() })
	return driver
}

func newEntry(seq domain.Sequencer, level domain.Level, message string) *domain.Entry {
	return domain.NewEntry(seq, level, "driver_test", 1, "storage.test", message)
}

func count(t *testing.T, driver *Driver) int {
	t.Helper()

	n, err := driver.Count(context.Background())
	require.NoError(t, err)
	return n
}

func TestDriver_Log(t *testing.T) {
	t.Run("drops entries below the driver level", func(t *testing.T) {
		seq := domain.NewAtomicSequencer(0)
		driver := newTestDriver(t, WithLevel(domain.LevelInfo))

		driver.Log(newEntry(seq, domain.LevelDebug, "ignored"))
		assert.Equal(t, 0, count(t, driver))

		driver.Log(newEntry(seq, domain.LevelInfo, "kept"))
		assert.Equal(t, 1, count(t, driver))
	})

	t.Run("follows level changes", func(t *testing.T) {
		seq := domain.NewAtomicSequencer(0)
		driver := newTestDriver(t)

		driver.SetLevel(domain.LevelError)
		assert.Equal(t, domain.LevelError, driver.Level())

		driver.Log(newEntry(seq, domain.LevelWarn, "ignored"))
		driver.Log(newEntry(seq, domain.LevelError, "kept"))
		assert.Equal(t, 1, count(t, driver))
	})

	t.Run("fires the callback asynchronously in log order", func(t *testing.T) {
		seq := domain.NewAtomicSequencer(0)
		driver := newTestDriver(t, WithLevel(domain.LevelInfo))

		var mu sync.Mutex
		var got []string
		driver.OnLogged(func(entry *domain.Entry) {
			mu.Lock()
			defer mu.Unlock()
			got = append(got, entry.Message())
		})

		driver.Log(newEntry(seq, domain.LevelInfo, "one"))
		driver.Log(newEntry(seq, domain.LevelDebug, "skipped"))
		driver.Log(newEntry(seq, domain.LevelInfo, "two"))

		require.Eventually(t, func() bool {
			mu.Lock()
			defer mu.Unlock()
			return len(got) == 2
		}, time.Second, 5*time.Millisecond)

		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, []string{"one", "two"}, got)
	})

	t.Run("drops the entry and skips the callback when the write fails", func(t *testing.T) {
		var logs bytes.Buffer
		repo := &failingRepo{err: errors.New("disk full")}
		driver := newTestDriver(t,
			WithRepository(repo),
			WithLogger(slog.New(slog.NewTextHandler(&logs, nil))),
		)

		called := make(chan struct{}, 1)
		driver.OnLogged(func(*domain.Entry) { called <- struct{}{} })

		driver.Log(newEntry(nil, domain.LevelError, "lost"))
		driver.Close()

		assert.Empty(t, called)
		assert.Contains(t, logs.String(), "can't insert entry")
		assert.Contains(t, logs.String(), "disk full")
	})
}

func TestDriver_Filter(t *testing.T) {
	t.Run("pages through history newest first", func(t *testing.T) {
		seq := domain.NewAtomicSequencer(0)
		driver := newTestDriver(t)

		for i := 0; i < 120; i++ {
			driver.Log(newEntry(seq, domain.LevelDebug, "entry"))
		}

		for offset, want := range map[int]int{0: 50, 50: 50, 100: 20} {
			result := driver.Filter(context.Background(), domain.FilterQuery{Offset: offset})
			require.Equal(t, domain.ResultOK, result.Status)
			assert.Len(t, result.Entries, want, "offset %d", offset)
			assert.Equal(t, int64(120-offset), result.Entries[0].Order(), "offset %d", offset)
		}
	})

	t.Run("matches text prefixes", func(t *testing.T) {
		seq := domain.NewAtomicSequencer(0)
		driver := newTestDriver(t)

		driver.Log(newEntry(seq, domain.LevelError, "connection timeout"))
		driver.Log(newEntry(seq, domain.LevelError, "disk io error"))

		for _, text := range []string{"conn", "time"} {
			result := driver.Filter(context.Background(), domain.FilterQuery{Text: text})
			require.Equal(t, domain.ResultOK, result.Status)
			require.Len(t, result.Entries, 1, text)
			assert.Equal(t, "connection timeout", result.Entries[0].Message())
		}
	})

	t.Run("returns an empty page rather than nil when nothing matches", func(t *testing.T) {
		driver := newTestDriver(t)

		result := driver.Filter(context.Background(), domain.FilterQuery{Text: "nothing"})
		assert.Equal(t, domain.ResultOK, result.Status)
		assert.NotNil(t, result.Entries)
		assert.Empty(t, result.Entries)
	})

	t.Run("fails soft when the query fails", func(t *testing.T) {
		driver := newTestDriver(t, WithRepository(&failingRepo{err: errors.New("locked")}))

		result := driver.Filter(context.Background(), domain.FilterQuery{})
		assert.Equal(t, domain.ResultError, result.Status)
		assert.NotNil(t, result.Entries)
		assert.Empty(t, result.Entries)
		assert.ErrorContains(t, result.Err, "locked")
	})
}

func TestDriver_Store(t *testing.T) {
	logThree := func(t *testing.T) (*Driver, []*domain.Entry) {
		seq := domain.NewAtomicSequencer(0)
		driver := newTestDriver(t)
		entries := []*domain.Entry{
			newEntry(seq, domain.LevelInfo, "first"),
			newEntry(seq, domain.LevelWarn, "second"),
			newEntry(seq, domain.LevelError, "third"),
		}
		for _, entry := range entries {
			driver.Log(entry)
		}
		return driver, entries
	}

	t.Run("marks the batch stored when the handler succeeds", func(t *testing.T) {
		driver, entries := logThree(t)

		var got domain.Batch
		err := driver.Store(context.Background(), func(_ context.Context, batch domain.Batch) error {
			got = batch
			return nil
		})
		require.NoError(t, err)

		require.Len(t, got.Entries, 3)
		assert.NotZero(t, got.ID)
		for i, entry := range entries {
			assert.Equal(t, entry.Message(), got.Entries[i].Message())
		}

		unsynced, err := driver.CountUnsynced(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 0, unsynced)

		result := driver.Filter(context.Background(), domain.FilterQuery{})
		for _, entry := range result.Entries {
			assert.True(t, entry.Stored(), entry.Message())
		}

		var next domain.Batch
		require.NoError(t, driver.Store(context.Background(), func(_ context.Context, batch domain.Batch) error {
			next = batch
			return nil
		}))
		assert.Empty(t, next.Entries)
		assert.NotEqual(t, got.ID, next.ID)
	})

	t.Run("leaves the batch unsynced when the handler fails", func(t *testing.T) {
		driver, _ := logThree(t)
		uploadErr := errors.New("upload failed")

		err := driver.Store(context.Background(), func(context.Context, domain.Batch) error {
			return uploadErr
		})
		assert.ErrorIs(t, err, uploadErr)

		unsynced, err := driver.CountUnsynced(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 3, unsynced)
	})

	t.Run("warns about entries removed during the upload", func(t *testing.T) {
		var logs bytes.Buffer
		seq := domain.NewAtomicSequencer(0)
		driver := newTestDriver(t, WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))
		driver.Log(newEntry(seq, domain.LevelInfo, "gone"))

		err := driver.Store(context.Background(), func(ctx context.Context, _ domain.Batch) error {
			return driver.Clear(ctx)
		})
		require.NoError(t, err)
		assert.Contains(t, logs.String(), "log not found")
	})

	t.Run("rejects a nil handler", func(t *testing.T) {
		driver := newTestDriver(t)
		assert.Error(t, driver.Store(context.Background(), nil))
	})
}

func TestDriver_Clear(t *testing.T) {
	t.Run("empties the store every time", func(t *testing.T) {
		seq := domain.NewAtomicSequencer(0)
		driver := newTestDriver(t)
		driver.Log(newEntry(seq, domain.LevelInfo, "one"))
		driver.Log(newEntry(seq, domain.LevelInfo, "two"))

		for i := 0; i < 2; i++ {
			require.NoError(t, driver.Clear(context.Background()))
			assert.Equal(t, 0, count(t, driver))
			result := driver.Filter(context.Background(), domain.FilterQuery{Text: "one"})
			assert.Empty(t, result.Entries)
		}
	})
}

func TestNew(t *testing.T) {
	t.Run("creates the database file in the configured directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "app")
		driver, err := New(WithDirectory(dir), WithFileName("custom.sqlite3"))
		require.NoError(t, err)
		defer driver.Close()

		driver.Log(newEntry(nil, domain.LevelInfo, "on disk"))

		info, err := os.Stat(filepath.Join(dir, "custom.sqlite3"))
		require.NoError(t, err)
		assert.False(t, info.IsDir())
	})

	t.Run("logs and returns the error when the database cannot be opened", func(t *testing.T) {
		var logs bytes.Buffer
		file := filepath.Join(t.TempDir(), "not-a-dir")
		require.NoError(t, os.WriteFile(file, []byte("x"), 0600))

		driver, err := New(WithDirectory(file), WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))
		assert.Error(t, err)
		assert.Nil(t, driver)
		assert.Contains(t, logs.String(), "can't create log database")
	})

	t.Run("rejects invalid options", func(t *testing.T) {
		_, err := New(InMemory(), WithLevel(domain.Level(5)))
		assert.Error(t, err)

		_, err = New(InMemory(), WithFileName("../escape.sqlite3"))
		assert.Error(t, err)
	})
}

// failingRepo fails every operation with err.
type failingRepo struct {
	err error
}

func (r *failingRepo) InsertEntry(context.Context, *domain.Entry) error { return r.err }
func (r *failingRepo) FilterEntries(context.Context, domain.FilterQuery) ([]*domain.Entry, error) {
	return nil, r.err
}
func (r *failingRepo) UnsyncedEntries(context.Context) ([]*domain.Entry, error) { return nil, r.err }
func (r *failingRepo) MarkStored(context.Context, *domain.Entry) error          { return r.err }
func (r *failingRepo) ClearEntries(context.Context) error                       { return r.err }
func (r *failingRepo) CountEntries(context.Context) (int, error)                { return 0, r.err }
func (r *failingRepo) CountUnsynced(context.Context) (int, error)               { return 0, r.err }
func (r *failingRepo) MaxOrder(context.Context) (int64, error)                  { return 0, r.err }
func (r *failingRepo) Close() error                                             { return nil }
