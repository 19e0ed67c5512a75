package db

import (
	"context"
	"fmt"
)

// CountEntries returns the total number of entries in the logs table.
func (repo *Repository) CountEntries(ctx context.Context) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM logs`

	err := repo.dbConn.GetContext(ctx, &count, query)
	if err != nil {
		return 0, fmt.Errorf("getting log count: %w", err)
	}

	return count, nil
}

// CountUnsynced returns the number of entries that have not been stored yet.
func (repo *Repository) CountUnsynced(ctx context.Context) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM logs WHERE stored = 0`

	err := repo.dbConn.GetContext(ctx, &count, query)
	if err != nil {
		return 0, fmt.Errorf("getting unsynced log count: %w", err)
	}

	return count, nil
}

// MaxOrder returns the highest order key in the logs table, or 0 when it is empty.
func (repo *Repository) MaxOrder(ctx context.Context) (int64, error) {
	var order int64
	query := `SELECT COALESCE(MAX(order_seq), 0) FROM logs`

	err := repo.dbConn.GetContext(ctx, &order, query)
	if err != nil {
		return 0, fmt.Errorf("getting max log order: %w", err)
	}

	return order, nil
}
