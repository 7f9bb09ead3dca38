package auth

import "fmt"

// Reason classifies why a session was turned away.
type Reason string

const (
	ReasonMissingToken Reason = "missing_token"
	ReasonInvalidToken Reason = "invalid_token"
	ReasonNotAdmin     Reason = "not_admin"
)

// AuthError means the session cannot see the dashboard. The token has
// already been cleared when Reason is not ReasonMissingToken.
type AuthError struct {
	Reason Reason
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth: %s: %v", e.Reason, e.Err)
	}
	return "auth: " + string(e.Reason)
}

func (e *AuthError) Unwrap() error { return e.Err }
