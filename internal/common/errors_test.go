package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{ErrCredentialFailed, "Account may already exist under this email. Try again later or try a new email!"},
		{ErrProfilePersistFailed, "Oops! We couldn't save your account details. Please try again."},
		{ErrUsernameNotFound, "Username not found."},
		{ErrUsernameTaken, "Username is already taken"},
		{ErrIncorrectPassword, "Incorrect password. Please try again."},
		{ErrUnauthorized, "Please sign in first."},
		{ErrNotFound, "We couldn't find what you were looking for."},
		{errors.New("pq: connection refused"), "Something went wrong. Please try again later."},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, UserMessage(tt.err))
	}
}

func TestUserMessage_MatchesWrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("%w: duplicate email", ErrCredentialFailed)
	assert.Equal(t,
		"Account may already exist under this email. Try again later or try a new email!",
		UserMessage(wrapped))
}
