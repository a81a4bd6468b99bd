// Package events decouples services that request background work from the
// task machinery that performs it.
//
// A service builds a TaskRequestEvent and hands it to an EventEmitter. The
// emitter delivers it to every handler subscribed to the event's type; in the
// server that handler turns the event into a task and submits it to the runner.
package events
