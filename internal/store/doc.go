// Package store defines interfaces for data persistence operations.
// These interfaces abstract the underlying data storage mechanism from
// the application's core logic. The server backs them with PostgreSQL and
// the study CLI with an embedded SQLite file.
package store
