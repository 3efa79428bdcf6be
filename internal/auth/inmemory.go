package auth

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/spiralapp/journal/internal/common"
)

type memCredential struct {
	id   string
	hash []byte
}

// InMemoryAuthenticator keeps credentials in a map. Used by tests and by
// the CLI when no database is configured.
type InMemoryAuthenticator struct {
	mu      sync.Mutex
	byEmail map[string]*memCredential
	current *Credential
}

func NewInMemoryAuthenticator() *InMemoryAuthenticator {
	return &InMemoryAuthenticator{byEmail: make(map[string]*memCredential)}
}

func (a *InMemoryAuthenticator) CreateCredential(ctx context.Context, email, password string) (*Credential, error) {
	if len(password) < minPasswordLen {
		return nil, common.ErrCredentialFailed
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.byEmail[email]; exists {
		return nil, common.ErrCredentialFailed
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}

	cred := &Credential{ID: uuid.NewString(), Email: email}
	a.byEmail[email] = &memCredential{id: cred.ID, hash: hash}
	a.current = cred
	return cred, nil
}

func (a *InMemoryAuthenticator) SignIn(ctx context.Context, email, password string) (*Credential, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	rec, ok := a.byEmail[email]
	if !ok || bcrypt.CompareHashAndPassword(rec.hash, []byte(password)) != nil {
		return nil, common.ErrIncorrectPassword
	}

	cred := &Credential{ID: rec.id, Email: email}
	a.current = cred
	return cred, nil
}

func (a *InMemoryAuthenticator) SignOut(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.current = nil
	return nil
}

func (a *InMemoryAuthenticator) Reauthenticate(ctx context.Context, password string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.current == nil {
		return common.ErrUnauthorized
	}
	rec, ok := a.byEmail[a.current.Email]
	if !ok || bcrypt.CompareHashAndPassword(rec.hash, []byte(password)) != nil {
		return common.ErrIncorrectPassword
	}
	return nil
}

func (a *InMemoryAuthenticator) UpdateEmail(ctx context.Context, newEmail string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.current == nil {
		return common.ErrUnauthorized
	}
	if _, exists := a.byEmail[newEmail]; exists {
		return common.ErrCredentialFailed
	}

	rec := a.byEmail[a.current.Email]
	delete(a.byEmail, a.current.Email)
	a.byEmail[newEmail] = rec
	a.current = &Credential{ID: a.current.ID, Email: newEmail}
	return nil
}

func (a *InMemoryAuthenticator) UpdatePassword(ctx context.Context, newPassword string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.current == nil {
		return common.ErrUnauthorized
	}
	if len(newPassword) < minPasswordLen {
		return common.ErrCredentialFailed
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.MinCost)
	if err != nil {
		return err
	}
	a.byEmail[a.current.Email].hash = hash
	return nil
}

func (a *InMemoryAuthenticator) DeleteCredential(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.current == nil {
		return common.ErrUnauthorized
	}
	delete(a.byEmail, a.current.Email)
	a.current = nil
	return nil
}

func (a *InMemoryAuthenticator) AdoptCredential(ctx context.Context, id string) (*Credential, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for email, rec := range a.byEmail {
		if rec.id == id {
			cred := &Credential{ID: id, Email: email}
			a.current = cred
			return cred, nil
		}
	}
	return nil, common.ErrNotFound
}

func (a *InMemoryAuthenticator) CurrentCredential() (*Credential, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.current == nil {
		return nil, false
	}
	c := *a.current
	return &c, true
}
