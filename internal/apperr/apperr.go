// Package apperr carries the expected outcome taxonomy of the transfer
// core: validation, not-found, conflict and rate-limit errors are produced
// deliberately and reported to the caller; anything else is an internal
// failure whose detail stays server-side.
package apperr

import "errors"

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindRateLimited
)

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "internal error"
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(msg string) error  { return &Error{Kind: KindValidation, Msg: msg} }
func NotFound(msg string) error    { return &Error{Kind: KindNotFound, Msg: msg} }
func Conflict(msg string) error    { return &Error{Kind: KindConflict, Msg: msg} }
func RateLimited(msg string) error { return &Error{Kind: KindRateLimited, Msg: msg} }

func Internal(err error) error {
	return &Error{Kind: KindInternal, Err: err}
}

// KindOf classifies any error; non-app errors are internal.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}
