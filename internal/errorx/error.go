package errorx

import (
	"errors"
	"fmt"
)

type Error struct {
	Code    Code
	Message string

	cause error
}

func New(code Code, format string, a ...any) Error {
	return Error{Code: code, Message: fmt.Sprintf(format, a...)}
}

// Wrap attaches a cause to a coded error. The cause stays reachable through
// errors.Is and errors.As.
func Wrap(code Code, err error, format string, a ...any) Error {
	return Error{Code: code, Message: fmt.Sprintf(format, a...), cause: err}
}

func (e Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e Error) Unwrap() error {
	return e.cause
}

// Is matches any Error carrying the same code, whatever its message.
func (e Error) Is(target error) bool {
	t, ok := target.(Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// CodeOf returns the code of the first Error in err's chain, or 0.
func CodeOf(err error) Code {
	var e Error
	if errors.As(err, &e) {
		return e.Code
	}
	return 0
}
