package abs

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for the machine-readable error payload.
type Kind string

const (
	// KindValidation marks malformed or contradictory caller arguments.
	KindValidation Kind = "abs/validation-error"
	// KindTransport marks an unexpected HTTP status from ABS.
	KindTransport Kind = "abs/transport-error"
	// KindNotProvisionable marks a 404 while polling: the hosts will never be available.
	KindNotProvisionable Kind = "abs/not-provisionable"
	// KindTimeout marks a poll loop that ran past its deadline.
	KindTimeout Kind = "abs/timeout"
	// KindLookup marks a teardown target missing from an existing inventory.
	KindLookup Kind = "abs/lookup-error"
	// KindFailure is used for everything else (I/O, decoding).
	KindFailure Kind = "abs/failure"
)

// Error is a classified failure. All kinds abort the running operation.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf creates a classified error with a formatted message.
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap classifies err. A nil err yields nil.
func Wrap(kind Kind, msg string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf returns the kind of the outermost classified error in err's chain,
// or KindFailure when err carries no classification.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindFailure
}

// IsKind reports whether err carries the given classification.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
