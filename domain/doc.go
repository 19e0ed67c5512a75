// Package domain defines the core data structures and contracts of logbook:
// the log entry model with its levels, and the Driver interface every logging
// backend implements.
//
// This package has no I/O of its own. Persistence lives in the db and storage
// packages and the coordination of drivers lives in the root logbook package.
package domain
