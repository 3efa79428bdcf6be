package signup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChecker struct {
	taken map[string]bool
	err   error
	calls int
}

func (f *fakeChecker) UserNameExists(ctx context.Context, userName string) (bool, error) {
	f.calls++
	if f.err != nil {
		return false, f.err
	}
	return f.taken[userName], nil
}

func validInput() Input {
	return Input{
		FullName:    "Ada Lovelace",
		UserName:    "ada",
		EmailOne:    "ada@example.com",
		EmailTwo:    "ada@example.com",
		PasswordOne: "s3curepass",
		PasswordTwo: "s3curepass",
	}
}

func TestValidName(t *testing.T) {
	assert.Equal(t, "Full name cannot be empty.", ValidName(""))
	assert.Equal(t, "Full name cannot be empty.", ValidName("   "))
	assert.Equal(t, "Please enter your full name.", ValidName("Ada"))
	assert.Equal(t, "", ValidName("Ada Lovelace"))
}

func TestValidUsername(t *testing.T) {
	assert.Equal(t, "Username cannot be empty.", ValidUsername(""))
	assert.Equal(t, "Username cannot contain spaces.", ValidUsername("ada l"))
	assert.Equal(t, "", ValidUsername("ada"))
}

func TestValidEmail(t *testing.T) {
	assert.Equal(t, "Email cannot be empty.", ValidEmail(""))
	assert.Equal(t, "Please enter a valid email address.", ValidEmail("ada"))
	assert.Equal(t, "Please enter a valid email address.", ValidEmail("ada@host"))
	assert.Equal(t, "Please enter a valid email address.", ValidEmail("ada lovelace@host.com"))
	assert.Equal(t, "", ValidEmail("ada@host.com"))
}

func TestValidPassword(t *testing.T) {
	assert.Equal(t, "Password must be at least 8 characters long.", ValidPassword("sh0rt"))
	assert.Equal(t, "Password must contain at least 1 digit.", ValidPassword("nodigitshere"))
	assert.Equal(t, "", ValidPassword("s3curepass"))
}

func TestValidateSignUp_FirstFailureWins(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Input)
		want   string
	}{
		{
			name:   "taken username reported before bad name",
			mutate: func(in *Input) { in.UserName = "taken"; in.FullName = "" },
			want:   "Username is already taken",
		},
		{
			name:   "name before username shape",
			mutate: func(in *Input) { in.FullName = "Ada"; in.UserName = "ada l" },
			want:   "Username is already taken",
		},
		{
			name:   "bad name before bad email",
			mutate: func(in *Input) { in.FullName = "Ada"; in.EmailOne = "nope" },
			want:   "Please enter your full name.",
		},
		{
			name:   "bad email before mismatch",
			mutate: func(in *Input) { in.EmailOne = "nope"; in.EmailTwo = "other" },
			want:   "Please enter a valid email address.",
		},
		{
			name:   "email mismatch before weak password",
			mutate: func(in *Input) { in.EmailTwo = "other@host.com"; in.PasswordOne = "weak" },
			want:   "Email addresses do not match.",
		},
		{
			name:   "weak password before password mismatch",
			mutate: func(in *Input) { in.PasswordOne = "weak"; in.PasswordTwo = "different1" },
			want:   "Password must be at least 8 characters long.",
		},
		{
			name:   "password mismatch last",
			mutate: func(in *Input) { in.PasswordTwo = "other1234" },
			want:   "Passwords do not match.",
		},
		{
			name:   "all good",
			mutate: func(in *Input) {},
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := &fakeChecker{taken: map[string]bool{"taken": true, "ada l": true}}
			v := NewValidator(checker, time.Second)

			in := validInput()
			tt.mutate(&in)

			got := v.ValidateSignUp(context.Background(), in)
			if tt.want == "" {
				assert.True(t, got.OK)
				assert.Empty(t, got.Message)
			} else {
				assert.False(t, got.OK)
				assert.Equal(t, tt.want, got.Message)
			}
		})
	}
}

func TestValidateSignUp_UniquenessLookupRetries(t *testing.T) {
	checker := &fakeChecker{err: errors.New("connection refused")}
	v := NewValidator(checker, time.Second)

	got := v.ValidateSignUp(context.Background(), validInput())

	require.False(t, got.OK)
	assert.Equal(t, "We couldn't check that username right now. Please try again later.", got.Message)
	assert.Equal(t, 3, checker.calls)
}

func TestValidateSignUp_UniquenessLookupTimesOut(t *testing.T) {
	checker := &fakeChecker{err: errors.New("slow backend")}
	v := NewValidator(checker, 50*time.Millisecond)

	start := time.Now()
	got := v.ValidateSignUp(context.Background(), validInput())

	require.False(t, got.OK)
	assert.Equal(t, "We couldn't check that username right now. Please try again later.", got.Message)
	assert.Less(t, time.Since(start), time.Second)
}
