package provider

import (
	"errors"
	"fmt"
)

// Error kinds raised by providers. The HTTP layer matches them with errors.Is.
var (
	ErrNotFound        = errors.New("not found")
	ErrNotOwner        = errors.New("message does not belong to user")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInternal        = errors.New("internal error")
)

// Error is a provider condition carrying a client facing message
type Error struct {
	kind error
	msg  string
	err  error
}

func (e *Error) Error() string { return e.msg }

// Is makes errors.Is(e, ErrNotFound) and friends match by kind
func (e *Error) Is(target error) bool { return e.kind == target }

// Unwrap returns underlying storage error, if any
func (e *Error) Unwrap() error { return e.err }

func userNotFound(id int64) error {
	return &Error{kind: ErrNotFound, msg: fmt.Sprintf("A user with ID: %d not found", id)}
}

func messageNotFound(id int64) error {
	return &Error{kind: ErrNotFound, msg: fmt.Sprintf("A message with ID: %d not found", id)}
}

func notOwner(messageID, userID int64) error {
	return &Error{kind: ErrNotOwner, msg: fmt.Sprintf("The message with ID: %d does not belong to user with ID: %d", messageID, userID)}
}

func invalidArgument(msg string) error {
	return &Error{kind: ErrInvalidArgument, msg: msg}
}

func internal(msg string, err error) error {
	return &Error{kind: ErrInternal, msg: msg, err: err}
}
