//go:build integration

// Package testdb connects integration tests to a PostgreSQL database named
// by DATABASE_URL, applies the embedded migrations once per process and
// isolates each test in a rolled-back transaction.
package testdb
