// Package postgres provides PostgreSQL implementations of the storage
// interfaces defined in internal/store, plus the task store used by the
// background runner. Queries go through database/sql with the pgx driver;
// driver errors are translated into store sentinels by MapError.
//
// The schema lives in the embedded migrations directory and is applied
// with goose through Migrate.
package postgres
