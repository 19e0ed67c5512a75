package domain

import "context"

// EntryRepository defines the persistence contract used by the storage driver.
// Creation times are persisted with one-second precision, the order key keeps
// entries within the same second in sequence.
type EntryRepository interface {
	// InsertEntry writes the entry to the record table and the full-text index in one
	// transaction. Either both writes are visible or neither is.
	InsertEntry(ctx context.Context, entry *Entry) error

	// FilterEntries returns one page of entries at or above the query level, newest first.
	// When the query carries search text only entries matching every term are returned.
	FilterEntries(ctx context.Context, query FilterQuery) ([]*Entry, error)

	// UnsyncedEntries returns every entry not yet marked stored, oldest first.
	UnsyncedEntries(ctx context.Context) ([]*Entry, error)

	// MarkStored flags the entry with the same (created_at, order) key as stored.
	MarkStored(ctx context.Context, entry *Entry) error

	// ClearEntries deletes every entry from the record table and the full-text index.
	ClearEntries(ctx context.Context) error

	// CountEntries returns the number of stored entries.
	CountEntries(ctx context.Context) (int, error)

	// CountUnsynced returns the number of entries not yet marked stored.
	CountUnsynced(ctx context.Context) (int, error)

	// MaxOrder returns the highest persisted order key, 0 when nothing is persisted.
	MaxOrder(ctx context.Context) (int64, error)

	// Close releases the underlying connection.
	Close() error
}
