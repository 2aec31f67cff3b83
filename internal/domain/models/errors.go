package models

import (
	"errors"
	"fmt"
)

// ErrInvariant is matched by every *InvariantError.
var ErrInvariant = errors.New("invariant violation")

// InvariantError is returned by constructors when the input would populate
// more (or fewer) branches of an exclusive relationship than allowed, or
// break an ordering rule between fields.
type InvariantError struct {
	Which  string
	Detail string
}

func (e *InvariantError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("invariant violation: %s", e.Which)
	}
	return fmt.Sprintf("invariant violation: %s: %s", e.Which, e.Detail)
}

func (e *InvariantError) Is(target error) bool { return target == ErrInvariant }

func invariant(which, format string, args ...any) error {
	return &InvariantError{Which: which, Detail: fmt.Sprintf(format, args...)}
}
