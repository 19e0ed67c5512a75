// Package db provides the persistence layer for logbook.
// It encapsulates all interactions with the embedded SQLite database that backs the
// storage driver.
//
// This package is responsible for:
// - Establishing file-backed or in-memory connections and applying migrations (`db.go`).
// - Defining the database row structures that map to the `logs` table.
// - Implementing the `domain.EntryRepository` interface: the atomic dual write into the
//   record table and the full-text index, paginated filters, sync selection, and bulk clear.
// - Building full-text match expressions from free-form search text (`search.go`).
// - Managing database migrations (`migrations/`).
package db
