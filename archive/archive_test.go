package archive

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tfkr-ae/logbook/domain"
)

func testBatch(t *testing.T) domain.Batch {
	t.Helper()

	seq := domain.NewAtomicSequencer(0)
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	id, err := uuid.NewV7()
	require.NoError(t, err)

	return domain.Batch{
		ID: id,
		Entries: []*domain.Entry{
			domain.NewEntry(seq, domain.LevelInfo, "server", 10, "main.start", "listening", domain.WithCreatedAt(created)),
			domain.NewEntry(seq, domain.LevelError, "server", 20, "main.serve", "connection reset", domain.WithCreatedAt(created)),
		},
	}
}

func TestHandler(t *testing.T) {
	t.Run("writes a batch that reads back in order", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "archive")
		batch := testBatch(t)

		require.NoError(t, Handler(dir)(context.Background(), batch))

		got, err := Read(filepath.Join(dir, FileName(batch.ID)))
		require.NoError(t, err)
		require.Len(t, got, len(batch.Entries))
		for i, entry := range batch.Entries {
			assert.True(t, entry.Equal(got[i]), "entry %d", i)
			assert.Equal(t, entry.Message(), got[i].Message())
			assert.Equal(t, entry.Level(), got[i].Level())
			assert.Equal(t, entry.Line(), got[i].Line())
		}
	})

	t.Run("writes nothing for an empty batch", func(t *testing.T) {
		dir := t.TempDir()

		err := Handler(dir)(context.Background(), domain.Batch{ID: uuid.New()})
		require.NoError(t, err)

		paths, err := List(dir)
		require.NoError(t, err)
		assert.Empty(t, paths)
	})

	t.Run("leaves no file behind when cancelled", func(t *testing.T) {
		dir := t.TempDir()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := Handler(dir)(ctx, testBatch(t))
		assert.True(t, errors.Is(err, context.Canceled))

		files, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, files)
	})
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	first, second := testBatch(t), testBatch(t)
	require.NoError(t, Handler(dir)(context.Background(), second))
	require.NoError(t, Handler(dir)(context.Background(), first))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), nil, 0600))

	paths, err := List(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, FileName(first.ID)),
		filepath.Join(dir, FileName(second.ID)),
	}, paths)
}

func TestRead(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "missing"+Extension))
	assert.Error(t, err)
}
