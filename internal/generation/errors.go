package generation

import "errors"

var (
	// ErrGenerationFailed covers any non-retryable generator failure.
	ErrGenerationFailed = errors.New("failed to generate vocabulary")

	// ErrInvalidResponse means the model answered but the payload could not
	// be decoded into vocabulary entries.
	ErrInvalidResponse = errors.New("invalid response from language model")

	ErrContentBlocked   = errors.New("content blocked by language model safety filters")
	ErrTransientFailure = errors.New("transient error during vocabulary generation")
	ErrInvalidConfig    = errors.New("invalid generator configuration")
)
