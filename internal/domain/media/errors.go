package media

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("media record not found")
	ErrUnsupportedType = errors.New("unsupported media type")
)

// ExtractionError wraps any decode, process or IO failure raised while
// deriving a thumbnail and perceptual hash. It is surfaced synchronously to
// the caller creating the record.
type ExtractionError struct {
	Stage string
	Err   error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("thumbnail extraction failed at %s: %v", e.Stage, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// NewExtractionError wraps cause with the stage it occurred in.
func NewExtractionError(stage string, cause error) *ExtractionError {
	return &ExtractionError{Stage: stage, Err: cause}
}
