// Package identity abstracts the external identity provider. The engine
// only needs "get current user id, or none", plus a change-notification
// subscription so the session controller can reload lists on sign-in and
// sign-out.
package identity

import "fmt"

// User is the minimal identity the engine cares about.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}

// Provider supplies the current user and change notifications.
type Provider interface {
	// Current returns the signed-in user, or ok=false when nobody is.
	Current() (User, bool)
	// Subscribe registers fn to be called with the current user (nil when
	// signed out) on every auth-state change. It returns an unsubscribe
	// function.
	Subscribe(fn func(*User)) (unsubscribe func())
}

// AuthError is a sign-in/sign-out failure with a reason code the
// presentation layer can map to a specific remediation.
type AuthError struct {
	Reason string // one of the Reason* constants
	Err    error
}

// Reason codes for AuthError.
const (
	ReasonMissingToken     = "missing-token"
	ReasonExpiredToken     = "expired-token"
	ReasonInvalidSignature = "invalid-signature"
	ReasonInvalidClaims    = "invalid-claims"
)

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth failed (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("auth failed (%s)", e.Reason)
}

func (e *AuthError) Unwrap() error { return e.Err }
