package patient

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("patient not found")
	ErrNameRequired = errors.New("name is required")
)

// ValidationError reports a submitted value that does not fit the column's
// declared type.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s must be a number", e.Field)
}

// SignatureError reports an attempt by a physician to open a record signed
// by a colleague.
type SignatureError struct {
	Signature string
}

func (e *SignatureError) Error() string {
	return fmt.Sprintf("Seul le %s a le droit de modifier ce patient.", e.Signature)
}
