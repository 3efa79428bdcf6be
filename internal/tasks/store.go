package tasks

import "context"

// Store is the document-store backend the repository drives. A
// date-bucket row may exist with no entries; no entry exists without its
// bucket.
type Store interface {
	// EnsureBucket creates the date-bucket if missing. Idempotent, never
	// overwrites existing fields.
	EnsureBucket(ctx context.Context, profileID, date string) error

	// InsertEntry appends an entry with a backend-assigned timestamp.
	InsertEntry(ctx context.Context, profileID, date, text string) (*Entry, error)

	// ListEntries returns the scope's entries ordered by creation time.
	ListEntries(ctx context.Context, profileID, date string) ([]Entry, error)

	// DeleteEntry removes one entry by id. common.ErrNotFound when absent.
	DeleteEntry(ctx context.Context, profileID, date, entryID string) error

	// DeleteMatching removes every entry whose task text equals text and
	// reports how many were removed.
	DeleteMatching(ctx context.Context, profileID, date, text string) (int, error)

	// ListDates returns the profile's existing date-bucket keys, sorted.
	ListDates(ctx context.Context, profileID string) ([]string, error)

	// DeleteBatch removes the given entries and buckets in one atomic
	// commit: all deletes succeed or none do.
	DeleteBatch(ctx context.Context, profileID string, dates, entryIDs []string) error
}
