package errorx

import "fmt"

type Error struct {
	Code    Code
	Message string
}

func New(code Code, format string, a ...any) Error {
	return Error{Code: code, Message: fmt.Sprintf(format, a...)}
}

func (e Error) Error() string {
	return e.Message
}

func (e Error) Is(target error) bool {
	t, ok := target.(Error)
	if !ok {
		return false
	}

	return e.Code == t.Code
}

// DetailedError carries a payload the client needs to act on the failure,
// for example the payment requirements of a 402 response.
type DetailedError struct {
	Err  Error
	Data any
}

func WithData(err Error, data any) *DetailedError {
	return &DetailedError{Err: err, Data: data}
}

func (e *DetailedError) Error() string {
	return e.Err.Message
}

func (e *DetailedError) Unwrap() error {
	return e.Err
}
