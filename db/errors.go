package db

import (
	"errors"
	"fmt"
)

var (
	ErrValidation        = errors.New("validation error")
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrNoActiveLoan      = errors.New("no active loan")
)

// opError 带一条给人看的消息，errors.Is 仍能匹配到上面的哨兵错误
type opError struct {
	kind error
	msg  string
}

func (e *opError) Error() string { return e.msg }
func (e *opError) Unwrap() error { return e.kind }

func newOpError(kind error, format string, args ...any) error {
	return &opError{kind: kind, msg: fmt.Sprintf(format, args...)}
}

func validationf(format string, args ...any) error {
	return newOpError(ErrValidation, format, args...)
}

// ValidationError lets callers outside the repo report input errors that
// map to ErrValidation.
func ValidationError(msg string) error { return newOpError(ErrValidation, "%s", msg) }
