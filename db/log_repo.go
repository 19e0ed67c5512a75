package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tfkr-ae/logbook/domain"
)

var _ domain.EntryRepository = (*Repository)(nil)

var (
	// ErrEntryNotFound is returned when no row matches an entry's (created_at, order) key.
	ErrEntryNotFound = errors.New("log entry not found")
)

// dbEntry represents a log entry as stored in the database.
type dbEntry struct {
	Level     int64  `db:"level"`      // Rank of the entry's level.
	Message   string `db:"message"`    // The main content of the log message.
	File      string `db:"file"`       // Short identifier of the file that logged the entry.
	Line      int64  `db:"line"`       // Line that logged the entry.
	Function  string `db:"function"`   // Function that logged the entry.
	CreatedAt int64  `db:"created_at"` // Creation time in epoch seconds.
	Order     int64  `db:"order_seq"`  // Tie-breaking order key.
	Stored    bool   `db:"stored"`     // Whether the entry was synced to an external service.
}

// toDomainEntry converts a dbEntry to a domain.Entry.
func toDomainEntry(dbEntry *dbEntry) *domain.Entry {
	return domain.NewEntry(nil,
		domain.Level(dbEntry.Level),
		dbEntry.File,
		uint(dbEntry.Line),
		dbEntry.Function,
		dbEntry.Message,
		domain.WithCreatedAt(time.Unix(dbEntry.CreatedAt, 0)),
		domain.WithOrder(dbEntry.Order),
		domain.WithStored(dbEntry.Stored),
	)
}

// fromDomainEntry converts a domain.Entry to a dbEntry.
func fromDomainEntry(entry *domain.Entry) *dbEntry {
	return &dbEntry{
		Level:     int64(entry.Level()),
		Message:   entry.Message(),
		File:      entry.File(),
		Line:      int64(entry.Line()),
		Function:  entry.Function(),
		CreatedAt: entry.CreatedAt().Unix(),
		Order:     entry.Order(),
		Stored:    entry.Stored(),
	}
}

func toDomainEntries(dbEntries []*dbEntry) []*domain.Entry {
	entries := make([]*domain.Entry, len(dbEntries))
	for i, dbEntry := range dbEntries {
		entries[i] = toDomainEntry(dbEntry)
	}
	return entries
}

const entryColumns = `logs.level, logs.message, logs.file, logs.line, logs.function, logs.created_at, logs.order_seq, logs.stored`

// InsertEntry saves a new entry to the logs table and the search index in a single transaction.
func (repo *Repository) InsertEntry(ctx context.Context, entry *domain.Entry) error {
	dbEntry := fromDomainEntry(entry)

	tx, err := repo.dbConn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	insertQuery := `INSERT INTO logs (level, message, file, line, function, created_at, order_seq, stored)
	                VALUES (:level, :message, :file, :line, :function, :created_at, :order_seq, :stored)`
	if _, err := tx.NamedExecContext(ctx, insertQuery, dbEntry); err != nil {
		return fmt.Errorf("inserting log %d/%d: %w", dbEntry.CreatedAt, dbEntry.Order, err)
	}

	indexQuery := `INSERT INTO logs_search (message, file, function, created_at, order_seq)
	               VALUES (:message, :file, :function, :created_at, :order_seq)`
	if _, err := tx.NamedExecContext(ctx, indexQuery, dbEntry); err != nil {
		return fmt.Errorf("indexing log %d/%d: %w", dbEntry.CreatedAt, dbEntry.Order, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing log %d/%d: %w", dbEntry.CreatedAt, dbEntry.Order, err)
	}
	return nil
}

// FilterEntries retrieves one page of entries, newest first, optionally restricted by a full-text match.
func (repo *Repository) FilterEntries(ctx context.Context, query domain.FilterQuery) ([]*domain.Entry, error) {
	var dbEntries []*dbEntry
	level := int64(query.MinLevel())

	if match := MatchExpression(query.Text); match != "" {
		fullTextQuery := `SELECT ` + entryColumns + `
		                  FROM logs
		                  JOIN logs_search
		                    ON logs_search.created_at = logs.created_at
		                   AND logs_search.order_seq = logs.order_seq
		                  WHERE logs_search MATCH ? AND logs.level >= ?
		                  ORDER BY logs.created_at DESC, logs.order_seq DESC
		                  LIMIT ? OFFSET ?`

		err := repo.dbConn.SelectContext(ctx, &dbEntries, fullTextQuery, match, level, query.PageLimit(), query.Offset)
		if err != nil {
			return nil, fmt.Errorf("searching logs for %q: %w", match, err)
		}
		return toDomainEntries(dbEntries), nil
	}

	simpleQuery := `SELECT ` + entryColumns + `
	                FROM logs
	                WHERE logs.level >= ?
	                ORDER BY logs.created_at DESC, logs.order_seq DESC
	                LIMIT ? OFFSET ?`

	err := repo.dbConn.SelectContext(ctx, &dbEntries, simpleQuery, level, query.PageLimit(), query.Offset)
	if err != nil {
		return nil, fmt.Errorf("fetching logs at level %d: %w", level, err)
	}
	return toDomainEntries(dbEntries), nil
}

// UnsyncedEntries retrieves every entry that has not been stored yet, oldest first.
func (repo *Repository) UnsyncedEntries(ctx context.Context) ([]*domain.Entry, error) {
	var dbEntries []*dbEntry
	query := `SELECT ` + entryColumns + `
	          FROM logs
	          WHERE logs.stored = 0
	          ORDER BY logs.created_at ASC, logs.order_seq ASC`

	err := repo.dbConn.SelectContext(ctx, &dbEntries, query)
	if err != nil {
		return nil, fmt.Errorf("fetching unsynced logs: %w", err)
	}
	return toDomainEntries(dbEntries), nil
}

// MarkStored flags a single entry as stored, matched by its (created_at, order_seq) key.
func (repo *Repository) MarkStored(ctx context.Context, entry *domain.Entry) error {
	createdAt, order := entry.CreatedAt().Unix(), entry.Order()
	query := `UPDATE logs SET stored = 1 WHERE created_at = ? AND order_seq = ?`

	result, err := repo.dbConn.ExecContext(ctx, query, createdAt, order)
	if err != nil {
		return fmt.Errorf("marking log %d/%d as stored: %w", createdAt, order, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update rows affected for %d/%d: %w", createdAt, order, err)
	}

	if rowsAffected == 0 {
		return ErrEntryNotFound
	}
	return nil
}

// ClearEntries deletes every row from the logs table and the search index in a single transaction.
func (repo *Repository) ClearEntries(ctx context.Context) error {
	tx, err := repo.dbConn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM logs`); err != nil {
		return fmt.Errorf("deleting logs: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM logs_search`); err != nil {
		return fmt.Errorf("deleting search index: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing clear: %w", err)
	}
	return nil
}
