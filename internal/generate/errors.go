package generate

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrMissingImageURL  = errors.New("no image URL provided")
	ErrInvalidImageType = errors.New("invalid image type. Supported types: JPEG, PNG, JPG, WEBP")
)

// QuotaError reports an exhausted daily credit window, carrying the
// reset metadata the client needs to compute a retry time.
type QuotaError struct {
	Remaining int
	Reset     int64
	ResetDate time.Time
}

func (e *QuotaError) Error() string {
	return "daily credit limit reached"
}

// GenerationError wraps a failure of the external model call. By the
// time it is returned, compensating cleanup of the uploaded object has
// already been attempted.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("alt text generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
