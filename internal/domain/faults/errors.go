package faults

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so callers can decide how to react without
// string matching on messages.
type Kind string

const (
	KindService       Kind = "service"
	KindModelLoad     Kind = "model_load"
	KindInference     Kind = "inference"
	KindDecode        Kind = "decode"
	KindCorruptStream Kind = "corrupt_stream"
	KindConfig        Kind = "config"
)

// Error is a tagged failure from one operation.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

// Sentinels untuk errors.Is, dicocokkan berdasarkan Kind saja.
var (
	ErrService       = &Error{Kind: KindService}
	ErrModelLoad     = &Error{Kind: KindModelLoad}
	ErrInference     = &Error{Kind: KindInference}
	ErrDecode        = &Error{Kind: KindDecode}
	ErrCorruptStream = &Error{Kind: KindCorruptStream}
	ErrConfig        = &Error{Kind: KindConfig}
)

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	default:
		return string(e.Kind) + " error"
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is a sentinel (or any Error) of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New wraps err as a fault of the given kind.
func New(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Newf is New with a formatted cause.
func Newf(kind Kind, op, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of the first tagged fault in err's chain, or "" if
// err carries none.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// IsInput reports whether err was caused by the submitted content itself
// rather than by an analyzer or its backing service.
func IsInput(err error) bool {
	switch KindOf(err) {
	case KindDecode, KindCorruptStream:
		return true
	}
	return false
}
