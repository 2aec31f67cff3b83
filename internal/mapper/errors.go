package mapper

import (
	"errors"
	"fmt"
	"strings"

	"github.com/guttosm/firdspulse/internal/domain/models"
	"github.com/guttosm/firdspulse/internal/enums"
)

// Kind classifies a per-record mapping failure.
type Kind int

const (
	MissingField Kind = iota + 1
	InvalidValue
	UnknownCode
	InvariantViolation
	UnexpectedAttributes
)

// String returns the ledger key of the kind.
func (k Kind) String() string {
	switch k {
	case MissingField:
		return models.KindMissingField
	case InvalidValue:
		return models.KindInvalidValue
	case UnknownCode:
		return models.KindUnknownCode
	case InvariantViolation:
		return models.KindInvariantViolation
	case UnexpectedAttributes:
		return models.KindUnexpectedAttributes
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// MappingError rejects a single record. The stream continues after it.
//
// Field is the element path (MissingField, InvalidValue, UnexpectedAttributes)
// or the invariant name (InvariantViolation). Table and Code are set for UnknownCode.
type MappingError struct {
	Kind    Kind
	Field   string
	Table   enums.Table
	Code    string
	ISIN    string
	Ordinal int
	Err     error
}

func (e *MappingError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "record %d", e.Ordinal)
	if e.ISIN != "" {
		fmt.Fprintf(&b, " (%s)", e.ISIN)
	}
	switch e.Kind {
	case UnknownCode:
		fmt.Fprintf(&b, ": unknown code %q in %s", e.Code, e.Table)
	case InvariantViolation:
		fmt.Fprintf(&b, ": invariant violation %s", e.Field)
	default:
		fmt.Fprintf(&b, ": %s %s", strings.ReplaceAll(e.Kind.String(), "_", " "), e.Field)
	}
	if e.Err != nil && e.Kind != UnknownCode {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *MappingError) Unwrap() error { return e.Err }

// ErrMalformedDocument is matched by *DocumentError.
var ErrMalformedDocument = errors.New("malformed document")

// DocumentError ends a stream: the XML itself could not be tokenized.
type DocumentError struct {
	Offset int64
	Err    error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("malformed document at byte %d: %v", e.Offset, e.Err)
}

func (e *DocumentError) Unwrap() error { return e.Err }

func (e *DocumentError) Is(target error) bool { return target == ErrMalformedDocument }

func missing(path ...string) error {
	return &MappingError{Kind: MissingField, Field: strings.Join(path, "/")}
}

func invalid(field string, err error) error {
	return &MappingError{Kind: InvalidValue, Field: field, Err: err}
}

func unexpected(field, reason string) error {
	return &MappingError{Kind: UnexpectedAttributes, Field: field, Err: errors.New(reason)}
}

// asMappingError converts constructor and registry errors into a *MappingError.
func asMappingError(err error) *MappingError {
	var me *MappingError
	if errors.As(err, &me) {
		return me
	}
	var uc *enums.UnknownCodeError
	if errors.As(err, &uc) {
		return &MappingError{Kind: UnknownCode, Table: uc.Table, Code: uc.Code, Err: err}
	}
	var ie *models.InvariantError
	if errors.As(err, &ie) {
		return &MappingError{Kind: InvariantViolation, Field: ie.Which, Err: err}
	}
	return &MappingError{Kind: InvalidValue, Err: err}
}
