// Package apperr holds the error kinds shared by the vote, settings and photo services.
// Services wrap them with details (fmt.Errorf("%w: ...")); handlers translate them with Status.
package apperr

import (
	"errors"
	"net/http"
	"strings"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrLimitExceeded      = errors.New("vote limit reached")
	ErrWindowClosed       = errors.New("window closed")
	ErrNotFound           = errors.New("not found")
	ErrUnauthorized       = errors.New("access denied")
	ErrBackendUnavailable = errors.New("backend unavailable")
)

// Status maps an error to the HTTP status code returned to clients
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrWindowClosed):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrLimitExceeded):
		return http.StatusConflict
	case errors.Is(err, ErrBackendUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// Message returns the client facing text: the details after the kind, e.g.
// "validation failed: photo_id is required" -> "photo_id is required"
func Message(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrBackendUnavailable) {
		// Don't leak database errors
		return "Backend unavailable, please retry"
	}
	msg := err.Error()
	for _, kind := range []error{ErrValidation, ErrLimitExceeded, ErrWindowClosed, ErrNotFound, ErrUnauthorized} {
		if errors.Is(err, kind) {
			if rest, ok := strings.CutPrefix(msg, kind.Error()+": "); ok {
				return rest
			}
			break
		}
	}
	return msg
}

// Backend wraps a storage/database failure
func Backend(err error) error {
	if err == nil {
		return nil
	}
	return errors.Join(ErrBackendUnavailable, err)
}
