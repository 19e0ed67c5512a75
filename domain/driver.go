package domain

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrUnsupported is returned by drivers that do not keep a history, for operations that need one.
var ErrUnsupported = errors.New("operation not supported by driver")

// PageSize is the number of entries returned by a filter when no limit is given.
const PageSize = 50

// Driver is the capability set every logging backend implements.
//
// Log must never block on the caller's behalf for longer than the backend's own write and must
// silently drop entries below the driver's level. Filter, Store and Clear operate on the
// driver's history; drivers without one report ResultUnsupported or ErrUnsupported.
type Driver interface {
	// Level returns the minimum level accepted by Log.
	Level() Level
	// SetLevel changes the minimum level accepted by Log.
	SetLevel(level Level)
	// Log records an entry. Failures are handled by the driver and never returned.
	Log(entry *Entry)
	// Filter returns one page of the driver's history, newest first.
	Filter(ctx context.Context, query FilterQuery) FilterResult
	// Store hands the unsynced entries to handler and marks them stored if it succeeds.
	Store(ctx context.Context, handler StoreHandler) error
	// Clear deletes the driver's history.
	Clear(ctx context.Context) error
	// MaxOrder returns the highest order key the driver has persisted, 0 for drivers that keep
	// nothing between process lifetimes. New entries must be ordered above it.
	MaxOrder(ctx context.Context) (int64, error)
	// OnLogged registers a callback fired asynchronously after each accepted entry.
	OnLogged(callback func(entry *Entry))
	// Close releases the driver's resources.
	Close() error
}

// FilterQuery selects a page of entries.
type FilterQuery struct {
	Level  *Level // Minimum level, nil means every level.
	Text   string // Optional full-text terms, each matched as a prefix.
	Offset int
	Limit  int // Zero means PageSize.
}

// MinLevel returns the requested level or debug when none was set.
func (q FilterQuery) MinLevel() Level {
	if q.Level == nil {
		return LevelDebug
	}
	return *q.Level
}

// PageLimit returns the effective page size.
func (q FilterQuery) PageLimit() int {
	if q.Limit <= 0 {
		return PageSize
	}
	return q.Limit
}

// ResultStatus tags the outcome of a filter.
type ResultStatus int

const (
	ResultOK ResultStatus = iota
	ResultUnsupported
	ResultError
)

func (s ResultStatus) String() string {
	switch s {
	case ResultOK:
		return "ok"
	case ResultUnsupported:
		return "unsupported"
	case ResultError:
		return "error"
	default:
		return "unknown"
	}
}

// FilterResult is the outcome of a filter. Entries is never nil for ResultOK and ResultError,
// so a failed query can be displayed as an empty page.
type FilterResult struct {
	Status  ResultStatus
	Entries []*Entry
	Err     error
}

// Found builds a successful result.
func Found(entries []*Entry) FilterResult {
	if entries == nil {
		entries = []*Entry{}
	}
	return FilterResult{Status: ResultOK, Entries: entries}
}

// Unsupported builds the result of a driver without history.
func Unsupported() FilterResult {
	return FilterResult{Status: ResultUnsupported}
}

// Failed builds the result of a query that could not run.
func Failed(err error) FilterResult {
	return FilterResult{Status: ResultError, Entries: []*Entry{}, Err: err}
}

// Batch is the set of unsynced entries handed to a StoreHandler, oldest first.
type Batch struct {
	ID      uuid.UUID
	Entries []*Entry
}

// StoreHandler uploads a batch to an external service. Returning nil reports success,
// after which the driver marks every entry in the batch as stored.
type StoreHandler func(ctx context.Context, batch Batch) error
