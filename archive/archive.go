// Package archive provides a StoreHandler that writes each synced batch to a
// brotli-compressed JSON Lines file, and the reader for those files.
package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/tfkr-ae/logbook/domain"
)

// Extension is the suffix of every archive file.
const Extension = ".jsonl.br"

// FileName returns the archive file name of a batch.
func FileName(batchID uuid.UUID) string {
	return batchID.String() + Extension
}

// Handler returns a StoreHandler writing each batch to dir/<batch id>.jsonl.br.
// Empty batches produce no file. The file only appears once it is complete.
func Handler(dir string) domain.StoreHandler {
	return func(ctx context.Context, batch domain.Batch) error {
		if len(batch.Entries) == 0 {
			return nil
		}
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("creating archive dir %s: %w", dir, err)
		}
		return write(ctx, filepath.Join(dir, FileName(batch.ID)), batch.Entries)
	}
}

func write(ctx context.Context, path string, entries []*domain.Entry) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".archive-*")
	if err != nil {
		return fmt.Errorf("creating archive file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	bw := brotli.NewWriter(tmp)
	enc := json.NewEncoder(bw)
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := enc.Encode(entry.Record()); err != nil {
			return fmt.Errorf("encoding entry %d: %w", entry.Order(), err)
		}
	}
	if err := bw.Close(); err != nil {
		return fmt.Errorf("closing brotli writer: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing archive file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("renaming archive file: %w", err)
	}
	return nil
}

// Read decodes every entry of an archive file, in the order they were written.
func Read(path string) ([]*domain.Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening archive %s: %w", path, err)
	}
	defer f.Close()

	dec := json.NewDecoder(brotli.NewReader(f))
	var entries []*domain.Entry
	for {
		var record domain.Record
		err := dec.Decode(&record)
		if errors.Is(err, io.EOF) {
			return entries, nil
		}
		if err != nil {
			return nil, fmt.Errorf("decoding archive %s: %w", path, err)
		}
		entries = append(entries, record.Entry())
	}
}

// List returns the archive files in dir sorted by name. Batch ids are time-ordered,
// so this is also the order the batches were synced in.
func List(dir string) ([]string, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading archive dir %s: %w", dir, err)
	}

	var paths []string
	for _, dirEntry := range dirEntries {
		if dirEntry.IsDir() || !strings.HasSuffix(dirEntry.Name(), Extension) {
			continue
		}
		paths = append(paths, filepath.Join(dir, dirEntry.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}
