package migrations

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

func init() {
	goose.AddMigrationContext(upCreateSearchIndex, downCreateSearchIndex)
}

// upCreateSearchIndex creates the full-text index over message, file and function, keyed by the
// same (created_at, order_seq) pair as the logs table, and indexes any rows already stored.
func upCreateSearchIndex(ctx context.Context, tx *sql.Tx) error {
	createQuery := `
		CREATE VIRTUAL TABLE IF NOT EXISTS logs_search USING fts5(
			message,
			file,
			function,
			created_at UNINDEXED,
			order_seq UNINDEXED,
			tokenize = 'unicode61'
		)
	`
	if _, err := tx.ExecContext(ctx, createQuery); err != nil {
		return fmt.Errorf("creating search index : %w", err)
	}

	rows, err := tx.QueryContext(ctx, `SELECT message, file, function, created_at, order_seq FROM logs`)
	if err != nil {
		return fmt.Errorf("getting all rows: %w", err)
	}
	defer rows.Close()

	type row struct {
		message, file, function string
		createdAt, order        int64
	}
	var pending []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.message, &r.file, &r.function, &r.createdAt, &r.order); err != nil {
			return fmt.Errorf("scanning row: %w", err)
		}
		pending = append(pending, r)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating rows: %w", err)
	}

	for _, r := range pending {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO logs_search (message, file, function, created_at, order_seq) VALUES (?, ?, ?, ?, ?)`,
			r.message, r.file, r.function, r.createdAt, r.order)
		if err != nil {
			return fmt.Errorf("indexing row %d/%d : %w", r.createdAt, r.order, err)
		}
	}
	return nil
}

func downCreateSearchIndex(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS logs_search`); err != nil {
		return fmt.Errorf("dropping search index: %w", err)
	}
	return nil
}
