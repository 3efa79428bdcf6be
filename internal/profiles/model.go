// Package profiles manages the durable user identity record and the
// username-to-email lookup used by sign-in and the forgot-email flow.
package profiles

import (
	"strings"
	"time"
)

// Profile is the durable identity record. ID equals the backing
// credential's ID and is immutable after account creation. Email and
// UserName are unique across all profiles.
type Profile struct {
	ID        string
	FullName  string
	Email     string
	UserName  string
	CreatedAt time.Time
}

// Initials returns the first letter of up to two name components,
// uppercased, for display badges.
func (p *Profile) Initials() string {
	fields := strings.Fields(p.FullName)
	if len(fields) == 0 {
		return ""
	}

	initials := string([]rune(fields[0])[0])
	if len(fields) > 1 {
		last := fields[len(fields)-1]
		initials += string([]rune(last)[0])
	}
	return strings.ToUpper(initials)
}
