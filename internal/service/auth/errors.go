package auth

import "errors"

// Access token errors.
var (
	ErrInvalidToken     = errors.New("invalid authentication token")
	ErrExpiredToken     = errors.New("authentication token has expired")
	ErrTokenNotYetValid = errors.New("authentication token not yet valid")
	ErrMissingToken     = errors.New("authentication token is missing")
)

// Refresh token errors.
var (
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrExpiredRefreshToken = errors.New("refresh token has expired")

	// ErrWrongTokenType is returned when an access token is presented where a
	// refresh token is expected, or the reverse.
	ErrWrongTokenType = errors.New("wrong token type")
)

// ErrInvalidCredentials is returned on a failed login. It never says which
// half of the credentials was wrong.
var ErrInvalidCredentials = errors.New("invalid email or password")
