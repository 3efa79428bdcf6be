package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"

	"github.com/spiralapp/journal/internal/common"
	"github.com/spiralapp/journal/internal/logging"
)

var (
	ErrEmptyTask   = errors.New("task text is empty")
	ErrInvalidDate = errors.New("invalid date, want YYYY-MM-DD")
)

type scopeKey struct {
	profileID string
	date      string
}

// Repository is the write path and subscription hub for task entries.
// All mutations go through it, so it can push a fresh snapshot to the
// scope's subscriber after every change.
type Repository struct {
	store Store
	log   logging.Logger

	mu   sync.Mutex
	subs map[scopeKey]*Subscription
}

func NewRepository(store Store, log logging.Logger) *Repository {
	return &Repository{
		store: store,
		log:   log,
		subs:  make(map[scopeKey]*Subscription),
	}
}

// Subscription delivers snapshots for one (profile, date) scope. Snapshots
// arrive on Updates(), produced by a single goroutine, so delivery is
// serialized and never reentrant. The channel is closed by Close or when
// the subscribing context ends.
type Subscription struct {
	scope   scopeKey
	repo    *Repository
	updates chan Snapshot
	wake    chan struct{}
	cancel  context.CancelFunc
	done    chan struct{}
	once    sync.Once
}

// Updates returns the snapshot stream. Before the first snapshot arrives
// the scope should be treated as loading.
func (s *Subscription) Updates() <-chan Snapshot {
	return s.updates
}

// Close tears the subscription down and waits for the delivery goroutine
// to finish. Safe to call multiple times.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.cancel()
		<-s.done
	})
}

// Subscribe opens a live subscription for (profileID, date). At most one
// subscription per scope is open at a time: any prior subscription for
// the same scope is closed first, so snapshots are never delivered twice.
func (r *Repository) Subscribe(ctx context.Context, profileID, date string) (*Subscription, error) {
	if err := validDate(date); err != nil {
		return nil, err
	}

	subCtx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		scope:   scopeKey{profileID, date},
		repo:    r,
		updates: make(chan Snapshot),
		wake:    make(chan struct{}, 1),
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	r.mu.Lock()
	prev := r.subs[sub.scope]
	r.subs[sub.scope] = sub
	r.mu.Unlock()

	if prev != nil {
		prev.Close()
	}

	go sub.run(subCtx)
	return sub, nil
}

func (s *Subscription) run(ctx context.Context) {
	defer close(s.done)
	defer close(s.updates)
	defer s.repo.forget(s)

	s.deliver(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.wake:
			s.deliver(ctx)
		}
	}
}

func (s *Subscription) deliver(ctx context.Context) {
	entries, err := s.repo.store.ListEntries(ctx, s.scope.profileID, s.scope.date)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.repo.log.Error(ctx, "snapshot query failed",
			"profile_id", s.scope.profileID, "date", s.scope.date, "error", err)
	}

	select {
	case s.updates <- Snapshot{Entries: entries, Err: err}:
	case <-ctx.Done():
	}
}

// forget removes sub from the scope index unless it was already replaced
// by a newer subscription.
func (r *Repository) forget(sub *Subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.subs[sub.scope] == sub {
		delete(r.subs, sub.scope)
	}
}

// notify wakes the scope's subscriber, if any. The wake channel has
// capacity one, so bursts of changes coalesce into a single fresh
// snapshot.
func (r *Repository) notify(key scopeKey) {
	r.mu.Lock()
	sub := r.subs[key]
	r.mu.Unlock()

	if sub == nil {
		return
	}
	select {
	case sub.wake <- struct{}{}:
	default:
	}
}

func (r *Repository) notifyProfile(profileID string) {
	r.mu.Lock()
	var keys []scopeKey
	for key := range r.subs {
		if key.profileID == profileID {
			keys = append(keys, key)
		}
	}
	r.mu.Unlock()

	for _, key := range keys {
		r.notify(key)
	}
}

// AddTask ensures the date-bucket exists, then appends an entry with a
// backend-assigned timestamp.
func (r *Repository) AddTask(ctx context.Context, profileID, date, text string) (*Entry, error) {
	if text == "" {
		return nil, ErrEmptyTask
	}
	if err := validDate(date); err != nil {
		return nil, err
	}

	if err := r.store.EnsureBucket(ctx, profileID, date); err != nil {
		return nil, fmt.Errorf("ensuring date bucket: %w", err)
	}

	entry, err := r.store.InsertEntry(ctx, profileID, date, text)
	if err != nil {
		return nil, fmt.Errorf("inserting entry: %w", err)
	}

	r.notify(scopeKey{profileID, date})
	return entry, nil
}

// List returns a one-shot snapshot of the scope's entries.
func (r *Repository) List(ctx context.Context, profileID, date string) ([]Entry, error) {
	if err := validDate(date); err != nil {
		return nil, err
	}
	return r.store.ListEntries(ctx, profileID, date)
}

// DeleteTask removes one entry by id.
func (r *Repository) DeleteTask(ctx context.Context, profileID, date, entryID string) error {
	if err := r.store.DeleteEntry(ctx, profileID, date, entryID); err != nil {
		return err
	}
	r.notify(scopeKey{profileID, date})
	return nil
}

// DeleteMatching removes every entry in the scope whose text equals text
// and reports the count. Two entries with identical text are
// indistinguishable under this operation: deleting one deletes both.
// Prefer DeleteTask with an entry id.
func (r *Repository) DeleteMatching(ctx context.Context, profileID, date, text string) (int, error) {
	n, err := r.store.DeleteMatching(ctx, profileID, date, text)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		r.notify(scopeKey{profileID, date})
	}
	return n, nil
}

// ListDates returns the profile's existing date-buckets.
func (r *Repository) ListDates(ctx context.Context, profileID string) ([]string, error) {
	return r.store.ListDates(ctx, profileID)
}

// clearAllBackoff bounds the idempotent retry of the batch commit.
const clearAllAttempts = 3

// ClearAll deletes every date-bucket and entry owned by profileID. Entry
// enumeration fans out concurrently per bucket; the collected delete set
// is committed as one atomic batch, retried with idempotent semantics on
// transient failure.
func (r *Repository) ClearAll(ctx context.Context, profileID string) error {
	dates, err := r.store.ListDates(ctx, profileID)
	if err != nil {
		return fmt.Errorf("listing date buckets: %w", err)
	}
	if len(dates) == 0 {
		return nil
	}

	perBucket := make([][]Entry, len(dates))
	g, gctx := errgroup.WithContext(ctx)
	for i, date := range dates {
		g.Go(func() error {
			entries, err := r.store.ListEntries(gctx, profileID, date)
			if err != nil {
				return fmt.Errorf("enumerating %s: %w", date, err)
			}
			perBucket[i] = entries
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var entryIDs []string
	for _, entries := range perBucket {
		for _, e := range entries {
			entryIDs = append(entryIDs, e.ID)
		}
	}

	backoff := retry.WithMaxRetries(clearAllAttempts, retry.NewConstant(200*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := r.store.DeleteBatch(ctx, profileID, dates, entryIDs)
		if errors.Is(err, common.ErrTransient) {
			r.log.Warn(ctx, "clear-all batch failed, retrying", "profile_id", profileID, "error", err)
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return err
	}

	r.notifyProfile(profileID)
	return nil
}

func validDate(date string) error {
	if _, err := time.Parse(DateLayout, date); err != nil {
		return ErrInvalidDate
	}
	return nil
}
