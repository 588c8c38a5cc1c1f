package interview

import (
	"errors"
	"fmt"
)

// ErrInvalidRequest is returned when a required request field is missing.
var ErrInvalidRequest = errors.New("invalid request")

// GenerationError wraps a failure of the text generation backend.
type GenerationError struct {
	Phase Phase
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generate %s turn: %v", e.Phase, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// IsGenerationFailure reports whether err came from the generation backend.
func IsGenerationFailure(err error) bool {
	var genErr *GenerationError
	return errors.As(err, &genErr)
}
