package port

import "errors"

var (
	// ErrGenerationFailed wraps any failure of a language model call.
	ErrGenerationFailed = errors.New("generation failed")

	// ErrEmptyOutput is returned by adapters when a provider answered with no text.
	ErrEmptyOutput = errors.New("provider returned empty output")

	// ErrDimensionMismatch is returned when a vector does not match the index dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
