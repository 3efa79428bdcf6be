// Package auth provides the authentication capability the session store
// depends on: credential creation, sign-in, re-authentication and
// credential updates, plus signed session tokens. Any backend
// implementing Authenticator is substitutable.
package auth

import "context"

// Credential is the backing authentication identity. Its ID becomes the
// profile ID at account creation and never changes.
type Credential struct {
	ID    string
	Email string
}

// Authenticator is the contract the session store programs against. It is
// stateful in the client sense: after a successful CreateCredential or
// SignIn the implementation tracks a current credential, which the
// mutating operations act on.
type Authenticator interface {
	// CreateCredential registers a new email/password pair and makes it
	// current. Duplicate emails and weak passwords fail with
	// common.ErrCredentialFailed.
	CreateCredential(ctx context.Context, email, password string) (*Credential, error)

	// SignIn authenticates email/password and makes the credential
	// current. Wrong passwords and unknown emails fail with
	// common.ErrIncorrectPassword.
	SignIn(ctx context.Context, email, password string) (*Credential, error)

	// SignOut clears the current credential.
	SignOut(ctx context.Context) error

	// Reauthenticate re-verifies the current credential's password.
	// Required before email or password changes.
	Reauthenticate(ctx context.Context, password string) error

	// UpdateEmail changes the current credential's email.
	UpdateEmail(ctx context.Context, newEmail string) error

	// UpdatePassword changes the current credential's password.
	UpdatePassword(ctx context.Context, newPassword string) error

	// DeleteCredential removes the current credential entirely.
	DeleteCredential(ctx context.Context) error

	// CurrentCredential reports the credential persisted from a prior
	// sign-in, if any.
	CurrentCredential() (*Credential, bool)
}

// CredentialAdopter is implemented by backends that can resume a
// previously verified credential without re-presenting the password,
// e.g. from a signed session token. The adopted credential becomes
// current.
type CredentialAdopter interface {
	AdoptCredential(ctx context.Context, id string) (*Credential, error)
}

// minPasswordLen is the backend's own floor, independent of the sign-up
// validator's stricter rules.
const minPasswordLen = 6
