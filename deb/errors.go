package deb

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingControl is returned when none of the control inputs is named
// "control".
var ErrMissingControl = errors.New("no control file")

// ErrPathOutsideRoot is returned for entry names such as "../x" that resolve
// outside of the package root.
var ErrPathOutsideRoot = errors.New("path outside of the package root")

// PackagingError is returned by the [Processor] for every failure except an
// invalid descriptor. Err holds the original cause.
type PackagingError struct {
	Msg string
	Err error
}

func (e *PackagingError) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	return fmt.Sprintf("%s: %v", e.Msg, e.Err)
}

func (e *PackagingError) Unwrap() error { return e.Err }

// InvalidDescriptorError reports a descriptor lacking required fields.
type InvalidDescriptorError struct {
	Descriptor *Descriptor
	Missing    []Field
}

func (e *InvalidDescriptorError) Error() string {
	names := make([]string, len(e.Missing))
	for i, f := range e.Missing {
		names[i] = string(f)
	}
	return fmt.Sprintf("invalid descriptor: missing required fields %s", strings.Join(names, ", "))
}
