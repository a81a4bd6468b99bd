// Package service contains the application use cases. It orchestrates the
// domain types and the store interfaces (defined in internal/store) and
// never depends on a concrete database.
//
// Services receive their stores through constructor injection and apply a
// transaction whenever an operation writes to more than one store. Expected
// failures come back as sentinel errors so the API layer can map them to
// status codes; anything else is wrapped in a ServiceError.
//
// The review loop and progress views live in the review and progress
// subpackages, authentication tokens in auth.
package service
