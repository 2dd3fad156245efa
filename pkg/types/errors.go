package types

import (
	"errors"
	"fmt"
)

// Persistence error kinds. Every error returned by the persistence engine
// matches exactly one of these with errors.Is, or none when it could not
// be classified.
var (
	ErrFileNotFound = errors.New("file not found")
	ErrParse        = errors.New("malformed task file")
	ErrPermission   = errors.New("permission denied")
	ErrIO           = errors.New("i/o failure")
)

// Validation errors. ErrBlankTag and ErrBlankTitle both match ErrValidation.
var (
	ErrValidation = errors.New("validation failed")
	ErrBlankTag   = fmt.Errorf("%w: tag filter must not be blank", ErrValidation)
	ErrBlankTitle = fmt.Errorf("%w: title must not be blank", ErrValidation)
)

// Lookup errors used by front ends resolving user-supplied IDs.
var (
	ErrNotFound    = errors.New("task not found")
	ErrAmbiguousID = errors.New("id prefix matches more than one task")
)

// PathError records a failed file operation together with its kind.
// errors.Is matches both the kind (ErrPermission, ErrParse, ...) and the
// underlying cause (fs.ErrPermission, *json.SyntaxError via errors.As, ...).
type PathError struct {
	Op   string // "read", "write", "mkdir", "decode", ...
	Path string
	Kind error // one of the kind sentinels above, or nil if unclassified
	Err  error
}

func (e *PathError) Error() string {
	if e.Kind == nil {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("%s %s: %v: %v", e.Op, e.Path, e.Kind, e.Err)
}

// Unwrap returns the kind and the cause.
func (e *PathError) Unwrap() []error {
	if e.Kind == nil {
		return []error{e.Err}
	}
	return []error{e.Kind, e.Err}
}

// KindOf returns the persistence kind of err, or nil if err carries none.
func KindOf(err error) error {
	for _, k := range []error{ErrFileNotFound, ErrParse, ErrPermission, ErrIO} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
