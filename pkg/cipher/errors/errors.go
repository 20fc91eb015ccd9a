package errors

import (
	"errors"
	"fmt"
)

var (
	// Table errors 📜
	ErrParse = errors.New("❌ malformed conversion table")

	// Pad errors 🎲
	ErrInsufficientPad = errors.New("❌ pad pool smaller than payload")
	ErrLocked          = errors.New("❌ pad pool locked by another process")
	ErrJournal         = errors.New("❌ pad ledger journal is corrupt")

	// Transform errors 🔁
	ErrLookup          = errors.New("❌ code byte not found in reverse table")
	ErrInvalidOperator = errors.New("❌ invalid operator in table token")

	// Filesystem errors 💾
	ErrIO = errors.New("❌ filesystem operation failed")
)

// ParseError reports a malformed line in a conversion table.
type ParseError struct {
	Line int
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("table line %d %q: %v", e.Line, e.Text, e.Err)
	}
	return fmt.Sprintf("table line %d %q: malformed entry", e.Line, e.Text)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Is implements errors.Is for sentinel error matching.
func (e *ParseError) Is(target error) bool { return target == ErrParse }

// InsufficientPadError is returned when the pool cannot cover the payload.
type InsufficientPadError struct {
	Available int
	Required  int
}

func (e *InsufficientPadError) Error() string {
	return fmt.Sprintf("pad pool has %d bytes, payload needs %d", e.Available, e.Required)
}

// Is implements errors.Is for sentinel error matching.
func (e *InsufficientPadError) Is(target error) bool { return target == ErrInsufficientPad }

// LookupError is returned when a code byte has no reverse table entry.
type LookupError struct {
	Code   byte
	Offset int
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("code byte 0x%02X at offset %d has no reverse table entry", e.Code, e.Offset)
}

// Is implements errors.Is for sentinel error matching.
func (e *LookupError) Is(target error) bool { return target == ErrLookup }

// InvalidOperatorError is returned when a reverse table token carries a sign
// other than '+' or '-', or an unreadable magnitude.
type InvalidOperatorError struct {
	Token  string
	Offset int
}

func (e *InvalidOperatorError) Error() string {
	return fmt.Sprintf("invalid operator in token %q at offset %d", e.Token, e.Offset)
}

// Is implements errors.Is for sentinel error matching.
func (e *InvalidOperatorError) Is(target error) bool { return target == ErrInvalidOperator }

// IOError wraps a filesystem failure with the operation and path involved.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Is implements errors.Is for sentinel error matching.
func (e *IOError) Is(target error) bool { return target == ErrIO }

// WrapIO returns nil for a nil err, otherwise an *IOError.
func WrapIO(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &IOError{Op: op, Path: path, Err: err}
}
