package profiles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/spiralapp/journal/internal/common"
	"github.com/spiralapp/journal/internal/dbx"
)

// PostgresRepository implements Repository over the profiles table using a
// DBTX (either *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, profile *Profile) error {
	query :=
		`INSERT INTO profiles (id, fullname, email, username)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		profile.ID, profile.FullName, profile.Email, profile.UserName).Scan(&profile.CreatedAt)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}

	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Profile, error) {
	query :=
		`SELECT id, fullname, email, username, created_at FROM profiles
		 WHERE id = $1
		 `
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetByUserName(ctx context.Context, userName string) (*Profile, error) {
	query :=
		`SELECT id, fullname, email, username, created_at FROM profiles
		 WHERE username = $1
		 `
	return r.scanOne(r.db.QueryRowContext(ctx, query, userName))
}

func (r *PostgresRepository) UserNameExists(ctx context.Context, userName string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM profiles WHERE username = $1)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, userName).Scan(&exists); err != nil {
		return false, fmt.Errorf("error performing sql request: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) UpdateUserName(ctx context.Context, id, userName string) error {
	return r.updateField(ctx, `UPDATE profiles SET username = $1 WHERE id = $2`, userName, id)
}

func (r *PostgresRepository) UpdateFullName(ctx context.Context, id, fullName string) error {
	return r.updateField(ctx, `UPDATE profiles SET fullname = $1 WHERE id = $2`, fullName, id)
}

func (r *PostgresRepository) UpdateEmail(ctx context.Context, id, email string) error {
	return r.updateField(ctx, `UPDATE profiles SET email = $1 WHERE id = $2`, email, id)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM profiles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}

func (r *PostgresRepository) updateField(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}

	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) scanOne(row *sql.Row) (*Profile, error) {
	p := &Profile{}
	err := row.Scan(&p.ID, &p.FullName, &p.Email, &p.UserName, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	return p, nil
}
