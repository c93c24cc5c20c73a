package similarity

import (
	"errors"
	"fmt"
)

var errInvalidCoverage = errors.New("coverage must be a non-negative number")

// InvalidColorError reports a palette entry that cannot be interpreted. It only
// arises from corrupt stored data.
type InvalidColorError struct {
	Value string
	Err   error
}

func (e *InvalidColorError) Error() string {
	return fmt.Sprintf("invalid palette color %q: %v", e.Value, e.Err)
}

func (e *InvalidColorError) Unwrap() error {
	return e.Err
}
