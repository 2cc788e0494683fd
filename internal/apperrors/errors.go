package apperrors

import (
	"errors"
	"strings"
)

type Kind string

const (
	KindTransient     Kind = "transient"
	KindRateLimit     Kind = "rate_limit"
	KindSafetyBlocked Kind = "safety_blocked"
	KindValidation    Kind = "validation"
	KindAuth          Kind = "auth"
	KindBadRequest    Kind = "bad_request"
	KindFatal         Kind = "fatal"

	// Terminal kinds produced by the retry controller, never by a backend.
	KindRetriesExhausted     Kind = "retries_exhausted"
	KindCredentialsExhausted Kind = "credentials_exhausted"
)

type Error struct {
	Kind Kind
	// SafeMessage is intended for user-facing output and logs.
	SafeMessage string
	// Cause keeps the original internal error for troubleshooting.
	Cause error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if msg := strings.TrimSpace(e.SafeMessage); msg != "" {
		return msg
	}
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return "unknown error"
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func defaultSafeMessage(kind Kind) string {
	switch kind {
	case KindTransient:
		return "Temporary upstream error. Please try again."
	case KindRateLimit:
		return "Rate limit or quota exceeded. Please try again later."
	case KindSafetyBlocked:
		return "Request blocked by upstream content filtering."
	case KindAuth:
		return "Authentication failed. Please verify your API key and permissions."
	case KindValidation:
		return "Response validation failed."
	case KindBadRequest:
		return "Request rejected by upstream API."
	case KindFatal:
		return "Unrecoverable upstream error."
	case KindRetriesExhausted:
		return "Operation failed after the maximum number of attempts."
	case KindCredentialsExhausted:
		return "All API keys are rate limited."
	default:
		return "Request failed."
	}
}

func New(kind Kind, safeMessage string, cause error) error {
	msg := strings.TrimSpace(safeMessage)
	if msg == "" {
		msg = defaultSafeMessage(kind)
	}
	return &Error{
		Kind:        kind,
		SafeMessage: msg,
		Cause:       cause,
	}
}

func Transient(err error) error {
	return New(KindTransient, "", err)
}

func RateLimit(err error) error {
	return New(KindRateLimit, "", err)
}

func SafetyBlocked(err error) error {
	return New(KindSafetyBlocked, "", err)
}

func Auth(err error) error {
	return New(KindAuth, "", err)
}

func Validation(err error) error {
	return New(KindValidation, "", err)
}

func BadRequest(err error) error {
	return New(KindBadRequest, "", err)
}

func Fatal(err error) error {
	return New(KindFatal, "", err)
}

func RetriesExhausted(err error) error {
	return New(KindRetriesExhausted, "", err)
}

func CredentialsExhausted(err error) error {
	return New(KindCredentialsExhausted, "", err)
}

// KindOf returns the kind of the outermost apperrors.Error in the chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if !errors.As(err, &e) {
		return "", false
	}
	return e.Kind, true
}

// Is reports whether err carries the given kind anywhere in its chain.
func Is(err error, kind Kind) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Cause
	}
	return false
}

func PublicMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Error()
	}
	return err.Error()
}

// IsRetryable reports whether the failure may succeed when repeated.
// Validation covers malformed model output, which is non-deterministic.
// Safety blocks are deliberately excluded: the same prompt hits the same filter.
func IsRetryable(err error) bool {
	kind, ok := KindOf(err)
	if !ok {
		return false
	}
	return kind == KindTransient || kind == KindRateLimit || kind == KindValidation
}

func IsRateLimit(err error) bool {
	kind, ok := KindOf(err)
	return ok && kind == KindRateLimit
}

// IsSafetyBlocked looks through terminal wrappers so callers can detect a
// content-filter rejection regardless of which layer surfaced it.
func IsSafetyBlocked(err error) bool {
	return Is(err, KindSafetyBlocked)
}

// IsFatal reports failures that must abort the operation without retry.
func IsFatal(err error) bool {
	kind, ok := KindOf(err)
	if !ok {
		return true
	}
	return kind == KindAuth || kind == KindBadRequest || kind == KindFatal
}
