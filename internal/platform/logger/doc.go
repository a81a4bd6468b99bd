// Package logger provides structured logging functionality for the application
// using Go's standard library log/slog package.
//
// Setup builds the process logger from configuration. Request-scoped loggers
// travel through context.Context: middleware stores them with WithLogger and
// components retrieve them with FromContext or FromContextOrDefault, so every
// line written while serving a request carries its request ID and trace ID.
package logger
