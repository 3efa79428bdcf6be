// Package signup implements the ordered sign-up validation pipeline. All
// checks are pure except the username-uniqueness lookup, which is bounded
// by a timeout and retried on transient failure.
package signup

import (
	"context"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/sethvargo/go-retry"
)

// UsernameChecker reports whether a username is already registered. The
// session layer's profile repository satisfies it.
type UsernameChecker interface {
	UserNameExists(ctx context.Context, userName string) (bool, error)
}

// Result is the outcome of a validation run. Message is user-facing and
// non-empty exactly when OK is false.
type Result struct {
	OK      bool
	Message string
}

func fail(msg string) Result { return Result{OK: false, Message: msg} }

var passed = Result{OK: true}

// Input carries the raw sign-up form fields.
type Input struct {
	FullName    string
	UserName    string
	EmailOne    string
	EmailTwo    string
	PasswordOne string
	PasswordTwo string
}

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// Validator runs the sign-up pipeline. Checks run in a fixed order and
// the first violation wins, so the caller always sees the earliest
// failing rule's message.
type Validator struct {
	checker UsernameChecker
	timeout time.Duration
}

func NewValidator(checker UsernameChecker, timeout time.Duration) *Validator {
	return &Validator{checker: checker, timeout: timeout}
}

// ValidName requires a non-empty full name containing at least one space
// (first and last name).
func ValidName(fullName string) string {
	if strings.TrimSpace(fullName) == "" {
		return "Full name cannot be empty."
	}
	if !strings.ContainsFunc(fullName, unicode.IsSpace) {
		return "Please enter your full name."
	}
	return ""
}

// ValidUsername requires a non-empty username with no whitespace.
func ValidUsername(userName string) string {
	if strings.TrimSpace(userName) == "" {
		return "Username cannot be empty."
	}
	if strings.ContainsFunc(userName, unicode.IsSpace) {
		return "Username cannot contain spaces."
	}
	return ""
}

// ValidEmail requires a non-empty address matching non-space "@"
// non-space "." non-space.
func ValidEmail(email string) string {
	if strings.TrimSpace(email) == "" {
		return "Email cannot be empty."
	}
	if !emailPattern.MatchString(email) {
		return "Please enter a valid email address."
	}
	return ""
}

// ValidPassword requires at least 8 characters and at least one decimal
// digit.
func ValidPassword(password string) string {
	if len([]rune(password)) < 8 {
		return "Password must be at least 8 characters long."
	}
	if !strings.ContainsFunc(password, unicode.IsDigit) {
		return "Password must contain at least 1 digit."
	}
	return ""
}

// uniquenessAttempts bounds the transient-failure retry of the lookup.
const uniquenessAttempts = 2

// checkUsernameFree runs the backend lookup under the configured timeout.
// An unreachable backend yields a user-facing retry message rather than
// an unbounded hang.
func (v *Validator) checkUsernameFree(ctx context.Context, userName string) string {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	var exists bool
	backoff := retry.WithMaxRetries(uniquenessAttempts, retry.NewConstant(250*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var err error
		exists, err = v.checker.UserNameExists(ctx, userName)
		if err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return "We couldn't check that username right now. Please try again later."
	}
	if exists {
		return "Username is already taken"
	}
	return ""
}

// ValidateSignUp runs all checks in order and short-circuits on the first
// failure:
//
//  1. username uniqueness (backend lookup)
//  2. full name shape
//  3. username shape
//  4. email shape
//  5. email confirmation match
//  6. password strength
//  7. password confirmation match
func (v *Validator) ValidateSignUp(ctx context.Context, in Input) Result {
	if msg := v.checkUsernameFree(ctx, in.UserName); msg != "" {
		return fail(msg)
	}
	if msg := ValidName(in.FullName); msg != "" {
		return fail(msg)
	}
	if msg := ValidUsername(in.UserName); msg != "" {
		return fail(msg)
	}
	if msg := ValidEmail(in.EmailOne); msg != "" {
		return fail(msg)
	}
	if in.EmailOne != in.EmailTwo {
		return fail("Email addresses do not match.")
	}
	if msg := ValidPassword(in.PasswordOne); msg != "" {
		return fail(msg)
	}
	if in.PasswordOne != in.PasswordTwo {
		return fail("Passwords do not match.")
	}
	return passed
}
