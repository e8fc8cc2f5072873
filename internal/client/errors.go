package client

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/taskdeck/taskdeck/internal/model"
)

// TransientError reports a failure that may succeed later: the network
// failed, the server was unavailable or the request was rate limited.
// It unwraps to model.ErrTransient and, when known, to the server's error.
type TransientError struct {
	Op         model.Operation
	StatusCode int // zero for network failures
	Err        error
}

func (e *TransientError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: transient: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: transient (status %d): %v", e.Op, e.StatusCode, e.Err)
}

func (e *TransientError) Unwrap() []error {
	return []error{model.ErrTransient, e.Err}
}

// Retryable reports whether repeating the operation cannot duplicate its
// effect. Nothing in this package retries on its own.
func (e *TransientError) Retryable() bool {
	return model.Retryable(e.Op)
}

// kindForStatus is used for error codes this client does not know.
func kindForStatus(status int) error {
	switch {
	case status == http.StatusUnauthorized:
		return model.ErrAuthentication
	case status == http.StatusForbidden:
		return model.ErrAuthorization
	case status == http.StatusNotFound:
		return model.ErrNotFound
	case status == http.StatusConflict:
		return model.ErrConflict
	case status >= 400 && status < 500:
		return model.ErrValidation
	default:
		return errors.New("unexpected status")
	}
}

// decodeError turns an error response into the matching model error.
func decodeError(op model.Operation, status int, code, message string) error {
	var err error
	if known, ok := model.LookupCode(code); ok {
		err = known
	} else {
		if code == "" {
			code = http.StatusText(status)
		}
		err = &model.Error{Kind: kindForStatus(status), Code: code, Message: message}
	}

	if status >= http.StatusInternalServerError || status == http.StatusTooManyRequests {
		return &TransientError{Op: op, StatusCode: status, Err: err}
	}
	return err
}
