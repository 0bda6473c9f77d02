// Package auth provides the identity boundary: exchanging a login code for
// a session key plus email, and validating a session key on later requests.
// It has no knowledge of the game simulation or the wire protocol beyond
// the Login request's code field.
package auth

import "github.com/lab1702/starfarer/game"

// Authenticator is the contract server.Processor depends on, grounded on
// original_source/callisto/src/authentication.rs's Authenticator struct.
// Two implementations exist: Google (real OAuth2 exchange) and Mock
// (deterministic, for -test mode).
type Authenticator interface {
	// Authenticate exchanges a login code for a session key and the
	// authenticated user's email. Returns a Transient *game.Error on
	// identity-provider failure, Unauthorized if the resulting email is
	// not on the authorized-users list.
	Authenticate(code string) (sessionKey, email string, err error)

	// ValidateSessionKey looks up a previously issued session key.
	// Returns an Unauthorized *game.Error if the key is unknown.
	ValidateSessionKey(sessionKey string) (email string, err error)
}

func unauthorized(msg string) error {
	return game.NewError(game.Unauthorized, "%s", msg)
}

func transient(format string, args ...any) error {
	return game.NewError(game.Transient, format, args...)
}
