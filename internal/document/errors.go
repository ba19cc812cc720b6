package document

import (
	"errors"
	"fmt"
)

// ReadError is the single fatal error class of the document source: the file
// cannot be opened, validated, or walked at all. It aborts the whole
// extraction call with no partial result.
type ReadError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *ReadError) Error() string {
	return fmt.Sprintf("cannot read document %s: %v", e.Path, e.Err)
}

// Unwrap exposes the underlying cause.
func (e *ReadError) Unwrap() error {
	return e.Err
}

// IsReadError reports whether err is (or wraps) a document ReadError.
func IsReadError(err error) bool {
	var re *ReadError
	return errors.As(err, &re)
}
