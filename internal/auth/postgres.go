package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"github.com/spiralapp/journal/internal/common"
	"github.com/spiralapp/journal/internal/dbx"
)

// PostgresAuthenticator stores credentials in the credentials table with
// bcrypt password hashes. The current credential lives in memory.
type PostgresAuthenticator struct {
	db dbx.DBTX

	mu      sync.Mutex
	current *Credential
}

func NewPostgresAuthenticator(db dbx.DBTX) *PostgresAuthenticator {
	return &PostgresAuthenticator{db: db}
}

// uniqueViolation is the PostgreSQL error code for duplicate keys.
const uniqueViolation = "23505"

func (a *PostgresAuthenticator) CreateCredential(ctx context.Context, email, password string) (*Credential, error) {
	if len(password) < minPasswordLen {
		return nil, common.ErrCredentialFailed
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	cred := &Credential{ID: uuid.NewString(), Email: email}

	query := `INSERT INTO credentials (id, email, password_hash) VALUES ($1, $2, $3)`
	if _, err := a.db.ExecContext(ctx, query, cred.ID, cred.Email, hash); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, common.ErrCredentialFailed
		}
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}

	a.setCurrent(cred)
	return cred, nil
}

func (a *PostgresAuthenticator) SignIn(ctx context.Context, email, password string) (*Credential, error) {
	cred, hash, err := a.fetchByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrIncorrectPassword
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword(hash, []byte(password)) != nil {
		return nil, common.ErrIncorrectPassword
	}

	a.setCurrent(cred)
	return cred, nil
}

func (a *PostgresAuthenticator) SignOut(ctx context.Context) error {
	a.setCurrent(nil)
	return nil
}

func (a *PostgresAuthenticator) Reauthenticate(ctx context.Context, password string) error {
	cred, ok := a.CurrentCredential()
	if !ok {
		return common.ErrUnauthorized
	}

	_, hash, err := a.fetchByEmail(ctx, cred.Email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrIncorrectPassword
		}
		return err
	}

	if bcrypt.CompareHashAndPassword(hash, []byte(password)) != nil {
		return common.ErrIncorrectPassword
	}
	return nil
}

func (a *PostgresAuthenticator) UpdateEmail(ctx context.Context, newEmail string) error {
	cred, ok := a.CurrentCredential()
	if !ok {
		return common.ErrUnauthorized
	}

	query := `UPDATE credentials SET email = $1 WHERE id = $2`
	if _, err := a.db.ExecContext(ctx, query, newEmail, cred.ID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return common.ErrCredentialFailed
		}
		return fmt.Errorf("error performing sql request: %w", err)
	}

	a.setCurrent(&Credential{ID: cred.ID, Email: newEmail})
	return nil
}

func (a *PostgresAuthenticator) UpdatePassword(ctx context.Context, newPassword string) error {
	cred, ok := a.CurrentCredential()
	if !ok {
		return common.ErrUnauthorized
	}
	if len(newPassword) < minPasswordLen {
		return common.ErrCredentialFailed
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	query := `UPDATE credentials SET password_hash = $1 WHERE id = $2`
	if _, err := a.db.ExecContext(ctx, query, hash, cred.ID); err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}

func (a *PostgresAuthenticator) DeleteCredential(ctx context.Context) error {
	cred, ok := a.CurrentCredential()
	if !ok {
		return common.ErrUnauthorized
	}

	query := `DELETE FROM credentials WHERE id = $1`
	if _, err := a.db.ExecContext(ctx, query, cred.ID); err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}

	a.setCurrent(nil)
	return nil
}

func (a *PostgresAuthenticator) AdoptCredential(ctx context.Context, id string) (*Credential, error) {
	query := `SELECT id, email FROM credentials WHERE id = $1`

	cred := &Credential{}
	err := a.db.QueryRowContext(ctx, query, id).Scan(&cred.ID, &cred.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}

	a.setCurrent(cred)
	return cred, nil
}

func (a *PostgresAuthenticator) CurrentCredential() (*Credential, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.current == nil {
		return nil, false
	}
	c := *a.current
	return &c, true
}

func (a *PostgresAuthenticator) setCurrent(c *Credential) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.current = c
}

func (a *PostgresAuthenticator) fetchByEmail(ctx context.Context, email string) (*Credential, []byte, error) {
	query := `SELECT id, email, password_hash FROM credentials WHERE email = $1`

	cred := &Credential{}
	var hash []byte
	err := a.db.QueryRowContext(ctx, query, email).Scan(&cred.ID, &cred.Email, &hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, common.ErrNotFound
		}
		return nil, nil, fmt.Errorf("error performing sql request: %w", err)
	}

	return cred, hash, nil
}
