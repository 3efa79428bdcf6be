// Package session manages the authentication lifecycle and the profile
// projection: account creation with compensating rollback, sign-in with
// identifier resolution, sign-out, account deletion and profile updates.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/multierr"

	"github.com/spiralapp/journal/internal/auth"
	"github.com/spiralapp/journal/internal/common"
	"github.com/spiralapp/journal/internal/logging"
	"github.com/spiralapp/journal/internal/profiles"
)

// Session is the ephemeral authenticated-client state: the current
// credential, the loaded profile and a signed access token.
type Session struct {
	Credential *auth.Credential
	Profile    *profiles.Profile
	Token      string
}

// Store owns the current Session and drives the authentication
// collaborator and profile repository.
type Store struct {
	authn         auth.Authenticator
	profiles      profiles.Repository
	resolver      *profiles.Resolver
	log           logging.Logger
	secretKey     []byte
	tokenValidity time.Duration

	mu      sync.RWMutex
	current *Session
}

func NewStore(authn auth.Authenticator, repo profiles.Repository, log logging.Logger,
	secretKey []byte, tokenValidity time.Duration) *Store {
	return &Store{
		authn:         authn,
		profiles:      repo,
		resolver:      profiles.NewResolver(repo),
		log:           log,
		secretKey:     secretKey,
		tokenValidity: tokenValidity,
	}
}

// Current returns the active session, if any.
func (s *Store) Current() (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil, false
	}
	c := *s.current
	return &c, true
}

func (s *Store) setCurrent(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = sess
}

// Restore re-establishes the session on process start when a valid
// credential persists from a prior run. Absence of a credential is not an
// error; a failed profile fetch is logged and the session stays clear.
func (s *Store) Restore(ctx context.Context) {
	cred, ok := s.authn.CurrentCredential()
	if !ok {
		return
	}

	profile, err := s.profiles.GetByID(ctx, cred.ID)
	if err != nil {
		s.log.Error(ctx, "failed to fetch profile on init", "credential_id", cred.ID, "error", err)
		return
	}

	token, err := auth.GenerateToken(profile.ID, s.secretKey, s.tokenValidity)
	if err != nil {
		s.log.Error(ctx, "failed to issue session token", "error", err)
		return
	}

	s.setCurrent(&Session{Credential: cred, Profile: profile, Token: token})
}

// Resume establishes a session for an already-verified identity, e.g.
// the profile ID extracted from a signed session token. It requires an
// Authenticator that implements auth.CredentialAdopter.
func (s *Store) Resume(ctx context.Context, profileID string) (*Session, error) {
	adopter, ok := s.authn.(auth.CredentialAdopter)
	if !ok {
		return nil, common.ErrUnauthorized
	}

	cred, err := adopter.AdoptCredential(ctx, profileID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized
		}
		return nil, err
	}

	profile, err := s.profiles.GetByID(ctx, cred.ID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized
		}
		return nil, err
	}

	token, err := auth.GenerateToken(profile.ID, s.secretKey, s.tokenValidity)
	if err != nil {
		return nil, err
	}

	sess := &Session{Credential: cred, Profile: profile, Token: token}
	s.setCurrent(sess)
	c := *sess
	return &c, nil
}

// CreateAccount creates the backing credential, then persists a Profile
// whose ID equals the credential ID. If the profile write fails, the
// credential is deleted again (compensating rollback) so no orphaned
// credential survives, and common.ErrProfilePersistFailed is returned.
// On success the session is established.
func (s *Store) CreateAccount(ctx context.Context, email, password, fullName, userName string) (*profiles.Profile, error) {
	cred, err := s.authn.CreateCredential(ctx, email, password)
	if err != nil {
		if errors.Is(err, common.ErrCredentialFailed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", common.ErrCredentialFailed, err)
	}

	profile := &profiles.Profile{
		ID:       cred.ID,
		FullName: fullName,
		Email:    email,
		UserName: userName,
	}

	if err := s.profiles.Create(ctx, profile); err != nil {
		if delErr := s.authn.DeleteCredential(ctx); delErr != nil {
			s.log.Error(ctx, "failed to roll back credential after profile write error",
				"credential_id", cred.ID, "error", delErr)
		}
		return nil, fmt.Errorf("%w: %v", common.ErrProfilePersistFailed, err)
	}

	token, err := auth.GenerateToken(profile.ID, s.secretKey, s.tokenValidity)
	if err != nil {
		return nil, err
	}

	s.setCurrent(&Session{Credential: cred, Profile: profile, Token: token})
	return profile, nil
}

// SignIn authenticates an identifier/password pair. Identifiers with an
// "@" are emails; anything else is resolved to an email through the
// username lookup first.
func (s *Store) SignIn(ctx context.Context, identifier, password string) (*Session, error) {
	email := identifier
	if !strings.Contains(identifier, "@") {
		resolved, err := s.resolver.Resolve(ctx, identifier)
		if err != nil {
			return nil, err
		}
		email = resolved
	}

	cred, err := s.authn.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}

	profile, err := s.profiles.GetByID(ctx, cred.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrTransient, err)
	}

	token, err := auth.GenerateToken(profile.ID, s.secretKey, s.tokenValidity)
	if err != nil {
		return nil, err
	}

	sess := &Session{Credential: cred, Profile: profile, Token: token}
	s.setCurrent(sess)
	c := *sess
	return &c, nil
}

// SignOut clears the session. Failures in the collaborator are logged,
// never surfaced: the caller-visible path always succeeds.
func (s *Store) SignOut(ctx context.Context) {
	if err := s.authn.SignOut(ctx); err != nil {
		s.log.Error(ctx, "sign-out failed", "error", err)
	}
	s.setCurrent(nil)
}

// DeleteAccount deletes the profile document, then the backing
// credential. Best-effort: failures from both steps are aggregated and
// reported, and local state is cleared after both were attempted.
func (s *Store) DeleteAccount(ctx context.Context) error {
	sess, ok := s.Current()
	if !ok {
		return common.ErrUnauthorized
	}

	var errs error
	if err := s.profiles.Delete(ctx, sess.Profile.ID); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("deleting profile: %w", err))
	}
	if err := s.authn.DeleteCredential(ctx); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("deleting credential: %w", err))
	}

	s.setCurrent(nil)
	return errs
}

// UpdateUserName re-checks uniqueness, then updates the profile.
func (s *Store) UpdateUserName(ctx context.Context, newName string) error {
	sess, ok := s.Current()
	if !ok {
		return common.ErrUnauthorized
	}

	taken, err := s.profiles.UserNameExists(ctx, newName)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrTransient, err)
	}
	if taken {
		return common.ErrUsernameTaken
	}

	if err := s.profiles.UpdateUserName(ctx, sess.Profile.ID, newName); err != nil {
		return err
	}

	s.mutateProfile(func(p *profiles.Profile) { p.UserName = newName })
	return nil
}

// UpdateFullName updates the display name.
func (s *Store) UpdateFullName(ctx context.Context, newName string) error {
	sess, ok := s.Current()
	if !ok {
		return common.ErrUnauthorized
	}

	if err := s.profiles.UpdateFullName(ctx, sess.Profile.ID, newName); err != nil {
		return err
	}

	s.mutateProfile(func(p *profiles.Profile) { p.FullName = newName })
	return nil
}

// UpdateEmail re-authenticates with the current password, updates the
// credential email, then the profile projection.
func (s *Store) UpdateEmail(ctx context.Context, currentPassword, newEmail string) error {
	sess, ok := s.Current()
	if !ok {
		return common.ErrUnauthorized
	}

	if err := s.authn.Reauthenticate(ctx, currentPassword); err != nil {
		return err
	}
	if err := s.authn.UpdateEmail(ctx, newEmail); err != nil {
		return err
	}
	if err := s.profiles.UpdateEmail(ctx, sess.Profile.ID, newEmail); err != nil {
		return err
	}

	s.mutateProfile(func(p *profiles.Profile) { p.Email = newEmail })
	s.mutateCredential(func(c *auth.Credential) { c.Email = newEmail })
	return nil
}

// UpdatePassword re-authenticates with the current password before
// changing it.
func (s *Store) UpdatePassword(ctx context.Context, currentPassword, newPassword string) error {
	if _, ok := s.Current(); !ok {
		return common.ErrUnauthorized
	}

	if err := s.authn.Reauthenticate(ctx, currentPassword); err != nil {
		return err
	}
	return s.authn.UpdatePassword(ctx, newPassword)
}

// ResolveEmail serves the forgot-email flow: it maps a username to the
// canonical email.
func (s *Store) ResolveEmail(ctx context.Context, userName string) (string, error) {
	return s.resolver.Resolve(ctx, userName)
}

func (s *Store) mutateProfile(fn func(*profiles.Profile)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil && s.current.Profile != nil {
		p := *s.current.Profile
		fn(&p)
		s.current.Profile = &p
	}
}

func (s *Store) mutateCredential(fn func(*auth.Credential)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil && s.current.Credential != nil {
		c := *s.current.Credential
		fn(&c)
		s.current.Credential = &c
	}
}
