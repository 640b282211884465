package glass

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the public API. Test with errors.Is.
var (
	// ErrTooManyShapes is returned when registering a shape would exceed
	// MaxShapes in one group.
	ErrTooManyShapes = errors.New("glass: too many shapes in group")

	// ErrShapeNotFound is returned by Update and Unregister for an unknown
	// shape handle.
	ErrShapeNotFound = errors.New("glass: shape not found")

	// ErrNoDevice is returned when a GPU-backed operation is requested but
	// no usable device is available.
	ErrNoDevice = errors.New("glass: no GPU device available")
)

// ConfigurationError reports an invalid shape or settings configuration.
// It is returned synchronously by the call that introduced the violation;
// the caller must not proceed with that configuration.
type ConfigurationError struct {
	// Field names the offending descriptor or settings field.
	Field string

	// Reason describes the violation.
	Reason string

	// Err is an optional underlying sentinel, e.g. ErrTooManyShapes.
	Err error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("glass: invalid configuration: %s: %s: %v", e.Field, e.Reason, e.Err)
	}
	return fmt.Sprintf("glass: invalid configuration: %s: %s", e.Field, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// configErr builds a ConfigurationError.
func configErr(field, reason string, err error) error {
	return &ConfigurationError{Field: field, Reason: reason, Err: err}
}

// ResourceError reports a recoverable per-frame resource failure, such as
// a matte or snapshot allocation that did not succeed. The painting code
// absorbs it: the affected group degrades to pass-through for one frame
// and retries on the next paint.
type ResourceError struct {
	Op  string
	Err error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("glass: %s: %v", e.Op, e.Err)
}

func (e *ResourceError) Unwrap() error { return e.Err }
