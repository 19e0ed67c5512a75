package db

import (
	"embed"
	"fmt"
	"sync"

	_ "github.com/tfkr-ae/logbook/db/migrations"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql migrations/*.go
var embedMigrations embed.FS

// goose keeps its base FS and dialect in package state.
var migrateMu sync.Mutex

// Repository provides a centralized structure for database operations, embedding the database connection.
// It implements the domain.EntryRepository interface.
type Repository struct {
	dbConn *sqlx.DB // dbConn is the active database connection pool.
}

// NewLogRepo initializes a new Repository with the given sqlx.DB database connection.
func NewLogRepo(db *sqlx.DB) *Repository {
	return &Repository{
		dbConn: db,
	}
}

// Close terminates the database connection.
func (repo *Repository) Close() error {
	err := repo.dbConn.Close()
	if err != nil {
		return fmt.Errorf("closing repo : %w", err)
	}
	return nil
}

// New establishes a connection to a SQLite database file, creating it if needed, and applies all
// pending migrations. The connection runs in WAL mode with a busy timeout.
//
// The `name` parameter should be the file path for the SQLite database.
func New(name string) (*sqlx.DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", name)
	return open(dsn, fileMaxOpenConns)
}

// NewInMemory opens a private in-memory database and applies all migrations.
// In-memory databases never share state, every call returns an independent store.
func NewInMemory() (*sqlx.DB, error) {
	return open(":memory:", 1)
}

// fileMaxOpenConns lets WAL readers run next to the single writer of a file-backed database.
const fileMaxOpenConns = 4

func open(dsn string, maxOpenConns int) (*sqlx.DB, error) {
	db, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to db : %w", err)
	}

	// An in-memory database lives and dies with its only connection.
	db.SetMaxOpenConns(maxOpenConns)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func migrate(db *sqlx.DB) error {
	migrateMu.Lock()
	defer migrateMu.Unlock()

	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect(string(goose.DialectSQLite3)); err != nil {
		return fmt.Errorf("setting dialect for migrations : %w", err)
	}

	if err := goose.Up(db.DB, "migrations"); err != nil {
		return fmt.Errorf("applying migration : %w", err)
	}
	return nil
}
