// Package notify delivers account emails: verification links and password
// reset links. The session service only depends on the Sender interface, so
// development setups can log instead of sending.
package notify

import "context"

// VerificationEmail carries everything needed to render the verify-address
// message. Token is the opaque single-use token, never a URL; the sender
// composes the link from its configured base URL.
type VerificationEmail struct {
	To    string
	Name  string
	Token string
}

// PasswordResetEmail carries the reset message inputs.
type PasswordResetEmail struct {
	To    string
	Name  string
	Token string
}

// Sender delivers account emails. Implementations must not retain the token
// after delivery.
type Sender interface {
	SendVerificationEmail(ctx context.Context, msg VerificationEmail) error
	SendPasswordResetEmail(ctx context.Context, msg PasswordResetEmail) error
}
