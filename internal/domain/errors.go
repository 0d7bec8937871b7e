package domain

import (
	"errors"
	"fmt"
)

// Error categories. Handlers branch on these with errors.Is; the wrapped
// message is the client-visible reason. Anything that doesn't match is an
// internal failure and must stay opaque to the client.
var (
	// ErrNotFound is returned for unknown share tokens or result ids.
	ErrNotFound = errors.New("not found")
	// ErrValidation covers client-correctable input problems: bad
	// nickname, malformed answers, invalid or expired session token.
	ErrValidation = errors.New("validation failed")
	// ErrRateLimited is returned while a cooldown, day-ban or feedback
	// window is active.
	ErrRateLimited = errors.New("rate limited")
)

// NotFoundf wraps ErrNotFound with a client-visible reason.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// Validationf wraps ErrValidation with a client-visible reason.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// RateLimitedf wraps ErrRateLimited with a client-visible reason.
func RateLimitedf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrRateLimited, fmt.Sprintf(format, args...))
}

// Reason strips the category prefix added by the wrappers above, leaving
// only the human-readable part for the response body.
func Reason(err error) string {
	for _, sentinel := range []error{ErrNotFound, ErrValidation, ErrRateLimited} {
		if errors.Is(err, sentinel) {
			msg := err.Error()
			prefix := sentinel.Error() + ": "
			if len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
				return msg[len(prefix):]
			}
			return msg
		}
	}
	return "internal error"
}
