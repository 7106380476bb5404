// Package database provides SQLite connectivity for Lumina Core.
//
// It wraps database/sql with the mattn/go-sqlite3 driver and adds
// embedded schema migrations, WAL-mode configuration, and health
// checks. The catalogue snapshot repository in the lighting package
// is its only consumer.
//
// SQLite is configured for a single writer (MaxOpenConns=1) with WAL
// mode enabled so reads are not blocked during writes.
package database
