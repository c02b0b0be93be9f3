package data

import (
	"fmt"

	"github.com/pkg/errors"
)

type ErrorKind string

const (
	ErrorKindInvalidInput ErrorKind = "invalid_input"
	ErrorKindNotFound     ErrorKind = "not_found"
)

// Error is a domain error, its message is what's returned to api clients
type Error struct {
	Kind    ErrorKind `json:"-"`
	Message string    `json:"message"`
}

func (e *Error) Error() string {
	return e.Message
}

var (
	ErrNameRequired  = &Error{Kind: ErrorKindInvalidInput, Message: "Employee name is required"}
	ErrEmailRequired = &Error{Kind: ErrorKindInvalidInput, Message: "Employee email is required"}
)

func NewErrorNotFound(id int64) error {
	return &Error{
		Kind:    ErrorKindNotFound,
		Message: fmt.Sprintf("Employee with ID %d not found", id),
	}
}

func NewErrorInvalidInput(format string, v ...any) error {
	return &Error{
		Kind:    ErrorKindInvalidInput,
		Message: fmt.Sprintf(format, v...),
	}
}

// ErrorKindOf returns the kind of the first domain error in err's chain or an
// empty kind
func ErrorKindOf(err error) ErrorKind {
	var e *Error

	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func IsNotFound(err error) bool {
	return ErrorKindOf(err) == ErrorKindNotFound
}
