package logbook

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tfkr-ae/logbook/domain"
	"github.com/tfkr-ae/logbook/storage"
)

func resetDefault(t *testing.T) {
	t.Helper()

	defaultMu.Lock()
	previous := defaultManager
	defaultManager = nil
	defaultMu.Unlock()

	t.Cleanup(func() {
		defaultMu.Lock()
		current := defaultManager
		defaultManager = previous
		defaultMu.Unlock()
		if current != nil {
			current.Close()
		}
	})
}

func TestDefault(t *testing.T) {
	t.Run("panics before setup", func(t *testing.T) {
		resetDefault(t)

		assert.Panics(t, func() { Default() })
		assert.Panics(t, func() { Info("too early") })
	})

	t.Run("routes package level calls to the installed manager", func(t *testing.T) {
		resetDefault(t)
		driver := newFakeDriver(domain.LevelDebug)

		require.NoError(t, Setup(driver))
		Debug("one")
		Logf(domain.LevelError, "%s", "two")
		LogAt("main.go", 3, "main.main", domain.LevelWarn, "three")
		flush(t, Default())

		assert.Equal(t, []string{"one", "two", "three"}, driver.messages())

		driver.mu.Lock()
		defer driver.mu.Unlock()
		assert.Equal(t, "global_test", driver.entries[0].File())
	})

	t.Run("closes the manager it replaces", func(t *testing.T) {
		resetDefault(t)
		first, second := newFakeDriver(domain.LevelDebug), newFakeDriver(domain.LevelDebug)

		require.NoError(t, Setup(first))
		require.NoError(t, Setup(second))

		assert.True(t, first.closed)
		assert.Same(t, second, Default().MainDriver())
	})

	t.Run("keeps a driver reused by the next setup open", func(t *testing.T) {
		resetDefault(t)
		driver, err := storage.New(storage.InMemory())
		require.NoError(t, err)

		require.NoError(t, Setup(driver))
		Info("before re-setup")
		require.NoError(t, Setup(driver))
		Info("after re-setup")
		flush(t, Default())

		count, err := driver.Count(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})
}
