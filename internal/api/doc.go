// Package api exposes the vocabulary review API over HTTP. Handlers decode
// and validate requests, call the review, progress, vocabulary, generation
// and user services, and translate their errors into status codes and safe
// messages.
package api
