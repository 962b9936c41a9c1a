package core

import (
	"errors"
	"strings"
)

// Error kinds surfaced by the tracker. Callers wrap them with detail via
// fmt.Errorf("%w: ...") and test with errors.Is.
var (
	ErrInvalidFilter = errors.New("invalid filter")
	ErrUnauthorized  = errors.New("authentication credentials were not provided or are invalid")
	ErrForbidden     = errors.New("you do not have permission to perform this action")
	ErrNotFound      = errors.New("not found")
	ErrValidation    = errors.New("validation error")
	ErrConflict      = errors.New("already exists")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidDate   = errors.New("invalid date")
)

// Detail returns the client-facing part of a wrapped error: whatever follows
// the innermost known sentinel, or the whole message when none matches.
func Detail(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for _, sentinel := range []error{ErrInvalidFilter, ErrValidation, ErrConflict, ErrNotFound, ErrUnauthorized, ErrForbidden, ErrInvalidAmount, ErrInvalidDate} {
		if !errors.Is(err, sentinel) {
			continue
		}
		prefix := sentinel.Error() + ": "
		if i := strings.LastIndex(msg, prefix); i >= 0 {
			return msg[i+len(prefix):]
		}
	}
	return msg
}
