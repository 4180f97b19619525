// Package dberrors defines the error kinds the storage core surfaces to its
// callers, grounded on the teacher's DatabaseError{Code, Message, Cause}
// shape (refactor_code/pkg/errors/errors.go) and specialized to the eight
// kinds named in spec.md section 7.
package dberrors

import (
	"errors"
	"fmt"
)

// Kind classifies a DBError. Callers switch on Kind (or use errors.Is
// against the sentinel values below) rather than matching error strings.
type Kind int

const (
	Unknown Kind = iota
	IOError
	PoolExhausted
	PageFull
	DuplicateKey
	ReferencedRow
	SchemaViolation
	NotFound
	InvariantViolation
)

func (k Kind) String() string {
	switch k {
	case IOError:
		return "IOError"
	case PoolExhausted:
		return "PoolExhausted"
	case PageFull:
		return "PageFull"
	case DuplicateKey:
		return "DuplicateKey"
	case ReferencedRow:
		return "ReferencedRow"
	case SchemaViolation:
		return "SchemaViolation"
	case NotFound:
		return "NotFound"
	case InvariantViolation:
		return "InvariantViolation"
	default:
		return "Unknown"
	}
}

// sentinel, one per Kind, so errors.Is(err, dberrors.ErrPageFull) works
// regardless of which message/cause a given call site attached.
var (
	ErrIOError            = &DBError{Kind: IOError, Message: "io error"}
	ErrPoolExhausted      = &DBError{Kind: PoolExhausted, Message: "pool exhausted"}
	ErrPageFull           = &DBError{Kind: PageFull, Message: "page full"}
	ErrDuplicateKey       = &DBError{Kind: DuplicateKey, Message: "duplicate key"}
	ErrReferencedRow      = &DBError{Kind: ReferencedRow, Message: "row is referenced"}
	ErrSchemaViolation    = &DBError{Kind: SchemaViolation, Message: "schema violation"}
	ErrNotFound           = &DBError{Kind: NotFound, Message: "not found"}
	ErrInvariantViolation = &DBError{Kind: InvariantViolation, Message: "invariant violation"}
)

// DBError is the typed error every storage-core operation returns on
// failure. Cause, when set, is unwrapped via Unwrap so errors.Is/As chains
// through it.
type DBError struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *DBError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *DBError) Unwrap() error { return e.Cause }

// Is lets errors.Is(err, dberrors.ErrPageFull) match any DBError of the
// same Kind, independent of Message/Cause.
func (e *DBError) Is(target error) bool {
	t, ok := target.(*DBError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New builds a DBError of the given kind wrapping cause (cause may be nil).
func New(kind Kind, message string, cause error) error {
	return &DBError{Kind: kind, Message: message, Cause: cause}
}

// Newf is New with a formatted message.
func Newf(kind Kind, cause error, format string, args ...any) error {
	return &DBError{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// KindOf extracts the Kind of err if it (or something it wraps) is a
// *DBError, and Unknown otherwise.
func KindOf(err error) Kind {
	var de *DBError
	if errors.As(err, &de) {
		return de.Kind
	}
	return Unknown
}
