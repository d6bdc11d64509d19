package core

// FailureKind classifies a Failure without changing its message.
type FailureKind string

const (
	// FailureUnavailable means the users service could not be reached or reported itself unhealthy.
	FailureUnavailable FailureKind = "unavailable"
	// FailureRejected means the users service refused the login.
	FailureRejected FailureKind = "rejected"
	// FailureTimeout means a remote call did not finish within the configured deadline.
	FailureTimeout FailureKind = "timeout"
	// FailureBadResponse means the remote answered with a body that could not be decoded.
	FailureBadResponse FailureKind = "bad_response"
	// FailureMissingCredentials means the handshake lacked a username or password.
	FailureMissingCredentials FailureKind = "missing_credentials"
	// FailureNotFound means the token store holds nothing for the requested user.
	FailureNotFound FailureKind = "not_found"
	// FailureInternal covers everything else.
	FailureInternal FailureKind = "internal"
)

// Failure is the single error shape passed between the gateway, the login
// orchestrator and the session manager. Message is human readable and is
// forwarded to the client verbatim.
type Failure struct {
	Kind    FailureKind
	Message string
}

// NewFailure builds a Failure of the given kind.
func NewFailure(kind FailureKind, msg string) Failure {
	return Failure{Kind: kind, Message: msg}
}

func (f Failure) Error() string {
	return f.Message
}

// Success is the payload of operations that only report completion.
type Success struct{}

// Result holds exactly one of a value or a Failure.
type Result[T any] struct {
	ok      bool
	value   T
	failure Failure
}

// Ok wraps a value.
func Ok[T any](v T) Result[T] {
	return Result[T]{ok: true, value: v}
}

// Err wraps a failure.
func Err[T any](f Failure) Result[T] {
	return Result[T]{failure: f}
}

// IsOk reports whether the result carries a value.
func (r Result[T]) IsOk() bool {
	return r.ok
}

// Value returns the wrapped value and true, or the zero value and false.
func (r Result[T]) Value() (T, bool) {
	return r.value, r.ok
}

// Failure returns the wrapped failure and true, or a zero Failure and false.
func (r Result[T]) Failure() (Failure, bool) {
	return r.failure, !r.ok
}

// Match calls exactly one of ok or fail. Both must be non-nil.
func (r Result[T]) Match(ok func(T), fail func(Failure)) {
	if r.ok {
		ok(r.value)
		return
	}
	fail(r.failure)
}

// Then runs next with the value of r. A failed r is returned unchanged and
// next is never called.
func Then[T, U any](r Result[T], next func(T) Result[U]) Result[U] {
	if !r.ok {
		return Err[U](r.failure)
	}
	return next(r.value)
}
