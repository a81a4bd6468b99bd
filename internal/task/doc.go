// Package task runs background work such as vocabulary generation.
//
// Tasks are persisted through a TaskStore before they are queued, so work
// that was pending or in flight when the process stopped is picked up again
// on the next start. A Rehydrator rebuilds executable tasks from the stored
// records during that recovery.
package task
