package core

import "context"

// AccessToken is the opaque credential issued by the users service.
type AccessToken struct {
	Token string `json:"token"`
}

// Credentials are taken from the connection handshake and live only for the
// duration of the login call.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Complete reports whether both fields are present.
func (c Credentials) Complete() bool {
	return c.Username != "" && c.Password != ""
}

// TokenStore caches access tokens keyed by username.
type TokenStore interface {
	Persist(ctx context.Context, username string, token AccessToken) Result[Success]
	// Fetch returns a FailureNotFound failure when nothing is stored for username.
	Fetch(ctx context.Context, username string) Result[AccessToken]
}

// MissingTokenFailure is the failure returned by TokenStore.Fetch for an unknown user.
func MissingTokenFailure(username string) Failure {
	return NewFailure(FailureNotFound, "There is no access-token for user "+username)
}
