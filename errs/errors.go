// Package errs defines the failure variants of the request pipeline.
package errs

import (
	"errors"
	"fmt"
)

type Kind int8

const (
	KindInternal Kind = iota
	KindBadRequest
	KindNotFound
	KindDelegation
	KindCompilation
)

func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "bad_request"
	case KindNotFound:
		return "not_found"
	case KindDelegation:
		return "delegation_failure"
	case KindCompilation:
		return "compilation_failure"
	default:
		return "internal"
	}
}

// Error is a pipeline failure. Code, Stdout and Stderr are only meaningful
// for KindCompilation.
type Error struct {
	Kind    Kind
	Message string
	Code    int
	Stdout  string
	Stderr  string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Kind == KindCompilation:
		return fmt.Sprintf("compilation failed with code %d", e.Code)
	case e.Err != nil && e.Message != "":
		return e.Message + ": " + e.Err.Error()
	case e.Err != nil:
		return e.Err.Error()
	default:
		return e.Message
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

func BadRequest(format string, args ...any) *Error {
	return &Error{Kind: KindBadRequest, Message: fmt.Sprintf(format, args...)}
}

func NotFound(lang, id string) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("no compiler %q for language %q", id, lang)}
}

func Delegation(remote string, err error) *Error {
	return &Error{Kind: KindDelegation, Message: "proxy to " + remote + " failed", Err: err}
}

func Compilation(code int, stdout, stderr string) *Error {
	return &Error{Kind: KindCompilation, Code: code, Stdout: stdout, Stderr: stderr}
}

func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain. Errors that
// are not *Error are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// As returns the first *Error in err's chain, wrapping err as an internal
// error if there is none.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err)
}
