package tasks

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spiralapp/journal/internal/common"
	"github.com/spiralapp/journal/internal/logging"
)

const snapshotWait = 2 * time.Second

func newTestRepo() *Repository {
	return NewRepository(NewInMemoryStore(), logging.Nop{})
}

func recvSnapshot(t *testing.T, sub *Subscription) Snapshot {
	t.Helper()
	select {
	case snap, ok := <-sub.Updates():
		require.True(t, ok, "updates channel closed early")
		return snap
	case <-time.After(snapshotWait):
		t.Fatal("timed out waiting for snapshot")
		return Snapshot{}
	}
}

// waitForSnapshot drains until a snapshot satisfying ok arrives. Bursty
// changes may coalesce, so intermediate states are allowed to be skipped.
func waitForSnapshot(t *testing.T, sub *Subscription, ok func(Snapshot) bool) Snapshot {
	t.Helper()
	deadline := time.After(snapshotWait)
	for {
		select {
		case snap, chOK := <-sub.Updates():
			require.True(t, chOK, "updates channel closed early")
			if ok(snap) {
				return snap
			}
		case <-deadline:
			t.Fatal("timed out waiting for matching snapshot")
			return Snapshot{}
		}
	}
}

func TestAddTask_Validation(t *testing.T) {
	repo := newTestRepo()
	ctx := context.Background()

	_, err := repo.AddTask(ctx, "p1", "2026-08-29", "")
	assert.ErrorIs(t, err, ErrEmptyTask)

	_, err = repo.AddTask(ctx, "p1", "29-08-2026", "water plants")
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, err = repo.AddTask(ctx, "p1", "2026-02-30", "water plants")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestAddTask_CreatesBucketAndEntry(t *testing.T) {
	repo := newTestRepo()
	ctx := context.Background()

	entry, err := repo.AddTask(ctx, "p1", "2026-08-29", "water plants")
	require.NoError(t, err)
	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, "water plants", entry.Task)
	assert.False(t, entry.Timestamp.IsZero())

	entries, err := repo.List(ctx, "p1", "2026-08-29")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entry.ID, entries[0].ID)

	dates, err := repo.ListDates(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-08-29"}, dates)
}

func TestSubscribe_InitialSnapshotThenUpdates(t *testing.T) {
	repo := newTestRepo()
	ctx := context.Background()

	_, err := repo.AddTask(ctx, "p1", "2026-08-29", "water plants")
	require.NoError(t, err)

	sub, err := repo.Subscribe(ctx, "p1", "2026-08-29")
	require.NoError(t, err)
	defer sub.Close()

	snap := recvSnapshot(t, sub)
	require.NoError(t, snap.Err)
	require.Len(t, snap.Entries, 1)
	assert.Equal(t, "water plants", snap.Entries[0].Task)

	_, err = repo.AddTask(ctx, "p1", "2026-08-29", "buy milk")
	require.NoError(t, err)

	snap = waitForSnapshot(t, sub, func(s Snapshot) bool { return len(s.Entries) == 2 })
	assert.Equal(t, "buy milk", snap.Entries[1].Task)
}

func TestSubscribe_InvalidDate(t *testing.T) {
	repo := newTestRepo()
	_, err := repo.Subscribe(context.Background(), "p1", "yesterday")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestSubscribe_ScopedToProfileAndDate(t *testing.T) {
	repo := newTestRepo()
	ctx := context.Background()

	sub, err := repo.Subscribe(ctx, "p1", "2026-08-29")
	require.NoError(t, err)
	defer sub.Close()
	recvSnapshot(t, sub)

	// Changes in other scopes must not produce snapshots here.
	_, err = repo.AddTask(ctx, "p2", "2026-08-29", "someone else's task")
	require.NoError(t, err)
	_, err = repo.AddTask(ctx, "p1", "2026-08-30", "tomorrow's task")
	require.NoError(t, err)

	select {
	case snap := <-sub.Updates():
		t.Fatalf("unexpected snapshot: %+v", snap)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSubscribe_ReplacesPriorScopeSubscription(t *testing.T) {
	repo := newTestRepo()
	ctx := context.Background()

	first, err := repo.Subscribe(ctx, "p1", "2026-08-29")
	require.NoError(t, err)
	recvSnapshot(t, first)

	second, err := repo.Subscribe(ctx, "p1", "2026-08-29")
	require.NoError(t, err)
	defer second.Close()

	// The first subscription's stream ends when it is replaced.
	select {
	case _, ok := <-first.Updates():
		assert.False(t, ok)
	case <-time.After(snapshotWait):
		t.Fatal("first subscription was not closed on replacement")
	}

	recvSnapshot(t, second)
	_, err = repo.AddTask(ctx, "p1", "2026-08-29", "only the new stream sees this")
	require.NoError(t, err)
	snap := waitForSnapshot(t, second, func(s Snapshot) bool { return len(s.Entries) == 1 })
	require.NoError(t, snap.Err)
}

func TestSubscribe_ContextCancelEndsStream(t *testing.T) {
	repo := newTestRepo()
	ctx, cancel := context.WithCancel(context.Background())

	sub, err := repo.Subscribe(ctx, "p1", "2026-08-29")
	require.NoError(t, err)
	recvSnapshot(t, sub)

	cancel()

	select {
	case _, ok := <-sub.Updates():
		assert.False(t, ok)
	case <-time.After(snapshotWait):
		t.Fatal("stream did not end after context cancel")
	}

	// Close after cancel is still safe.
	sub.Close()
}

func TestClose_Idempotent(t *testing.T) {
	repo := newTestRepo()
	sub, err := repo.Subscribe(context.Background(), "p1", "2026-08-29")
	require.NoError(t, err)
	recvSnapshot(t, sub)

	sub.Close()
	sub.Close()
}

func TestDeleteTask_ByID(t *testing.T) {
	repo := newTestRepo()
	ctx := context.Background()

	keep, err := repo.AddTask(ctx, "p1", "2026-08-29", "water plants")
	require.NoError(t, err)
	drop, err := repo.AddTask(ctx, "p1", "2026-08-29", "water plants")
	require.NoError(t, err)

	require.NoError(t, repo.DeleteTask(ctx, "p1", "2026-08-29", drop.ID))

	entries, err := repo.List(ctx, "p1", "2026-08-29")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, keep.ID, entries[0].ID)

	err = repo.DeleteTask(ctx, "p1", "2026-08-29", drop.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestDeleteMatching_RemovesAllDuplicates(t *testing.T) {
	repo := newTestRepo()
	ctx := context.Background()

	_, err := repo.AddTask(ctx, "p1", "2026-08-29", "water plants")
	require.NoError(t, err)
	_, err = repo.AddTask(ctx, "p1", "2026-08-29", "water plants")
	require.NoError(t, err)
	_, err = repo.AddTask(ctx, "p1", "2026-08-29", "buy milk")
	require.NoError(t, err)

	n, err := repo.DeleteMatching(ctx, "p1", "2026-08-29", "water plants")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	entries, err := repo.List(ctx, "p1", "2026-08-29")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "buy milk", entries[0].Task)

	n, err = repo.DeleteMatching(ctx, "p1", "2026-08-29", "water plants")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestClearAll_RemovesEveryBucket(t *testing.T) {
	repo := newTestRepo()
	ctx := context.Background()

	for _, date := range []string{"2026-08-27", "2026-08-28", "2026-08-29"} {
		_, err := repo.AddTask(ctx, "p1", date, "task on "+date)
		require.NoError(t, err)
		_, err = repo.AddTask(ctx, "p1", date, "second on "+date)
		require.NoError(t, err)
	}
	_, err := repo.AddTask(ctx, "p2", "2026-08-29", "other profile survives")
	require.NoError(t, err)

	require.NoError(t, repo.ClearAll(ctx, "p1"))

	dates, err := repo.ListDates(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, dates)

	other, err := repo.List(ctx, "p2", "2026-08-29")
	require.NoError(t, err)
	assert.Len(t, other, 1)
}

func TestClearAll_NoBucketsIsNoop(t *testing.T) {
	repo := newTestRepo()
	assert.NoError(t, repo.ClearAll(context.Background(), "p1"))
}

func TestClearAll_NotifiesSubscribers(t *testing.T) {
	repo := newTestRepo()
	ctx := context.Background()

	_, err := repo.AddTask(ctx, "p1", "2026-08-29", "water plants")
	require.NoError(t, err)

	sub, err := repo.Subscribe(ctx, "p1", "2026-08-29")
	require.NoError(t, err)
	defer sub.Close()
	recvSnapshot(t, sub)

	require.NoError(t, repo.ClearAll(ctx, "p1"))

	snap := waitForSnapshot(t, sub, func(s Snapshot) bool { return len(s.Entries) == 0 })
	assert.NoError(t, snap.Err)
}

// transientStore fails DeleteBatch a fixed number of times before
// delegating, to exercise the idempotent retry.
type transientStore struct {
	*InMemoryStore
	failures int
	calls    int
}

func (s *transientStore) DeleteBatch(ctx context.Context, profileID string, dates, entryIDs []string) error {
	s.calls++
	if s.calls <= s.failures {
		return common.ErrTransient
	}
	return s.InMemoryStore.DeleteBatch(ctx, profileID, dates, entryIDs)
}

func TestClearAll_RetriesTransientBatchFailure(t *testing.T) {
	store := &transientStore{InMemoryStore: NewInMemoryStore(), failures: 2}
	repo := NewRepository(store, logging.Nop{})
	ctx := context.Background()

	_, err := repo.AddTask(ctx, "p1", "2026-08-29", "water plants")
	require.NoError(t, err)

	require.NoError(t, repo.ClearAll(ctx, "p1"))
	assert.Equal(t, 3, store.calls)

	dates, err := repo.ListDates(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, dates)
}

func TestClearAll_GivesUpAfterRetryBudget(t *testing.T) {
	store := &transientStore{InMemoryStore: NewInMemoryStore(), failures: 100}
	repo := NewRepository(store, logging.Nop{})
	ctx := context.Background()

	_, err := repo.AddTask(ctx, "p1", "2026-08-29", "water plants")
	require.NoError(t, err)

	err = repo.ClearAll(ctx, "p1")
	assert.ErrorIs(t, err, common.ErrTransient)
	assert.Equal(t, 4, store.calls)
}
