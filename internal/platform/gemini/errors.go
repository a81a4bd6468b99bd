package gemini

import "errors"

// Error definitions for the gemini package.
var (
	// ErrEmptyTheme is returned when a generation is requested without a theme.
	ErrEmptyTheme = errors.New("theme cannot be empty")
)
