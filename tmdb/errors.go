package tmdb

import "errors"

// Common errors
var (
	// ErrInvalidConfig indicates invalid client configuration
	ErrInvalidConfig = errors.New("invalid tmdb configuration")
	// ErrMissingID indicates a detail response without a numeric id
	ErrMissingID = errors.New("response has no numeric id")
)
