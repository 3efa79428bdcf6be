// Package common defines shared sentinel errors used across the journal
// backend. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Account creation errors. ErrCredentialFailed covers rejections from
	// the authentication collaborator (duplicate email, weak password).
	// ErrProfilePersistFailed means the credential was created but the
	// profile write failed; the credential has been rolled back.
	ErrCredentialFailed     = errors.New("credential creation failed")
	ErrProfilePersistFailed = errors.New("profile persist failed")

	// Username lookup/uniqueness errors.
	ErrUsernameNotFound = errors.New("username not found")
	ErrUsernameTaken    = errors.New("username taken")

	// Sign-in and re-authentication errors.
	ErrIncorrectPassword = errors.New("incorrect password")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalidToken      = errors.New("invalid token")

	// ErrTransient marks network/server failures that are safe to retry.
	ErrTransient = errors.New("transient backend failure")
)

// userMessages maps domain errors to the text shown to users. Internal
// error detail must never leak into these strings.
var userMessages = []struct {
	err error
	msg string
}{
	{ErrCredentialFailed, "Account may already exist under this email. Try again later or try a new email!"},
	{ErrProfilePersistFailed, "Oops! We couldn't save your account details. Please try again."},
	{ErrUsernameNotFound, "Username not found."},
	{ErrUsernameTaken, "Username is already taken"},
	{ErrIncorrectPassword, "Incorrect password. Please try again."},
	{ErrUnauthorized, "Please sign in first."},
	{ErrNotFound, "We couldn't find what you were looking for."},
}

// UserMessage returns a non-technical message for err. Errors without a
// mapped domain message fall back to a generic retry prompt.
func UserMessage(err error) string {
	for _, m := range userMessages {
		if errors.Is(err, m.err) {
			return m.msg
		}
	}
	return "Something went wrong. Please try again later."
}
