package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/spiralapp/journal/internal/common"
	"github.com/spiralapp/journal/internal/dbx"
)

// PostgresStore implements Store over the task_dates and task_entries
// tables. DeleteBatch runs in a single transaction, which gives the
// all-or-nothing batch commit the clear-all operation requires.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) EnsureBucket(ctx context.Context, profileID, date string) error {
	query :=
		`INSERT INTO task_dates (profile_id, date) VALUES ($1, $2)
		 ON CONFLICT (profile_id, date) DO NOTHING
		 `
	if _, err := s.db.ExecContext(ctx, query, profileID, date); err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}

func (s *PostgresStore) InsertEntry(ctx context.Context, profileID, date, text string) (*Entry, error) {
	query :=
		`INSERT INTO task_entries (id, profile_id, date, task, created_at)
		 VALUES ($1, $2, $3, $4, now())
		 RETURNING created_at
		 `

	e := &Entry{ID: uuid.NewString(), Task: text}
	err := s.db.QueryRowContext(ctx, query, e.ID, profileID, date, text).Scan(&e.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	return e, nil
}

func (s *PostgresStore) ListEntries(ctx context.Context, profileID, date string) ([]Entry, error) {
	query :=
		`SELECT id, task, created_at FROM task_entries
		 WHERE profile_id = $1 AND date = $2
		 ORDER BY created_at, id
		 `
	rows, err := s.db.QueryContext(ctx, query, profileID, date)
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	defer rows.Close()

	var result []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Task, &e.Timestamp); err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *PostgresStore) DeleteEntry(ctx context.Context, profileID, date, entryID string) error {
	query := `DELETE FROM task_entries WHERE profile_id = $1 AND date = $2 AND id = $3`

	res, err := s.db.ExecContext(ctx, query, profileID, date, entryID)
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

func (s *PostgresStore) DeleteMatching(ctx context.Context, profileID, date, text string) (int, error) {
	query := `DELETE FROM task_entries WHERE profile_id = $1 AND date = $2 AND task = $3`

	res, err := s.db.ExecContext(ctx, query, profileID, date, text)
	if err != nil {
		return 0, fmt.Errorf("error performing sql request: %w", err)
	}

	ra, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(ra), nil
}

func (s *PostgresStore) ListDates(ctx context.Context, profileID string) ([]string, error) {
	query := `SELECT date FROM task_dates WHERE profile_id = $1 ORDER BY date`

	rows, err := s.db.QueryContext(ctx, query, profileID)
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return dates, nil
}

func (s *PostgresStore) DeleteBatch(ctx context.Context, profileID string, dates, entryIDs []string) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if len(entryIDs) > 0 {
			query := `DELETE FROM task_entries WHERE profile_id = $1 AND id = ANY($2)`
			if _, err := tx.ExecContext(ctx, query, profileID, entryIDs); err != nil {
				return err
			}
		}
		if len(dates) > 0 {
			query := `DELETE FROM task_dates WHERE profile_id = $1 AND date = ANY($2)`
			if _, err := tx.ExecContext(ctx, query, profileID, dates); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return fmt.Errorf("%w: %v", common.ErrTransient, err)
	}
	return nil
}
