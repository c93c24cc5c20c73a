package features

import (
	"errors"
	"fmt"
)

var (
	// ErrUndecodable means the bytes are not a supported image.
	ErrUndecodable = errors.New("image could not be decoded")

	// ErrInvalidDimensions means the image decoded to a zero or negative size.
	ErrInvalidDimensions = errors.New("image has invalid dimensions")

	// ErrTooManyPixels means the declared canvas exceeds the pixel limit. It is
	// always reported under ErrInvalidDimensions.
	ErrTooManyPixels = errors.New("image canvas exceeds the pixel limit")
)

// ExtractionError reports why features could not be computed for an image.
type ExtractionError struct {
	Kind  error // ErrUndecodable or ErrInvalidDimensions
	Cause error
}

func (e *ExtractionError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("feature extraction failed: %v", e.Kind)
	}
	return fmt.Sprintf("feature extraction failed: %v: %v", e.Kind, e.Cause)
}

// Unwrap exposes both the kind sentinel and the cause to errors.Is/As.
func (e *ExtractionError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

func undecodable(cause error) error {
	return &ExtractionError{Kind: ErrUndecodable, Cause: cause}
}

func invalidDimensions(width, height int) error {
	return &ExtractionError{
		Kind:  ErrInvalidDimensions,
		Cause: fmt.Errorf("decoded size %dx%d", width, height),
	}
}

func tooManyPixels(width, height int, limit int64) error {
	return &ExtractionError{
		Kind:  ErrInvalidDimensions,
		Cause: fmt.Errorf("%w: %dx%d is more than %d pixels", ErrTooManyPixels, width, height, limit),
	}
}
