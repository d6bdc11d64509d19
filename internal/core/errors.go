package core

import "errors"

// Error codes sent to clients alongside failure messages.
const (
	ErrCodeUnauthorized   = "unauthorized"
	ErrCodeBadRequest     = "bad_request"
	ErrCodeInvalidMessage = "invalid_message"
	ErrCodeRateLimited    = "rate_limited"
)

// ErrHubStopped is returned by hub queries after Run has exited.
var ErrHubStopped = errors.New("hub stopped")

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}

// failureError maps a login failure onto the error sent to the client. The
// message is kept verbatim.
func failureError(f Failure) *CoreError {
	code := ErrCodeUnauthorized
	if f.Kind == FailureMissingCredentials {
		code = ErrCodeBadRequest
	}
	return coreError(code, f.Message)
}
