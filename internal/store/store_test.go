package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/major-app/notify-engine/internal/model"
	"github.com/major-app/notify-engine/internal/repository/memory"
	"github.com/major-app/notify-engine/pkg/metrics"
)

type failingPersister struct {
	loadErr error
	saveErr error
}

func (p *failingPersister) Load(context.Context, string) ([]model.Notification, error) {
	return nil, p.loadErr
}

func (p *failingPersister) Save(context.Context, string, []model.Notification) error {
	return p.saveErr
}

func (p *failingPersister) Delete(context.Context, string) error {
	return nil
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	m := metrics.New(prometheus.NewRegistry(), "test")
	s := New(memory.NewPersister(), zerolog.Nop(), m)
	s.BindSession(context.Background(), "user-1")
	return s
}

func notif(id string) model.Notification {
	return model.Notification{
		ID:       id,
		Type:     model.TypeGeneral,
		Title:    "Notification",
		Priority: model.PriorityNormal,
	}
}

func TestInsertOrdersByArrival(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.True(t, s.Insert(ctx, notif("a")))
	require.True(t, s.Insert(ctx, notif("b")))
	require.True(t, s.Insert(ctx, notif("c")))

	list := s.List()
	require.Len(t, list, 3)
	assert.Equal(t, "c", list[0].ID)
	assert.Equal(t, "b", list[1].ID)
	assert.Equal(t, "a", list[2].ID)
}

func TestInsertEvictsOldestBeyondCap(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < MaxEntries+20; i++ {
		s.Insert(ctx, notif(fmt.Sprintf("n-%d", i)))
	}

	list := s.List()
	require.Len(t, list, MaxEntries)
	// Newest arrival at the head, the first 20 arrivals evicted.
	assert.Equal(t, fmt.Sprintf("n-%d", MaxEntries+19), list[0].ID)
	assert.Equal(t, "n-20", list[len(list)-1].ID)
}

func TestInsertDeduplicatesOnExternalID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := notif("a")
	first.ExternalID = "msg-1"
	first.Message = "original"
	require.True(t, s.Insert(ctx, first))

	duplicate := notif("b")
	duplicate.ExternalID = "msg-1"
	duplicate.Message = "replayed"
	assert.False(t, s.Insert(ctx, duplicate))

	list := s.List()
	require.Len(t, list, 1)
	assert.Equal(t, "a", list[0].ID)
	assert.Equal(t, "original", list[0].Message)
}

func TestInsertAllowsEmptyExternalIDDuplicates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.True(t, s.Insert(ctx, notif("a")))
	require.True(t, s.Insert(ctx, notif("b")))
	assert.Len(t, s.List(), 2)
}

func TestMarkAsRead(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.Insert(ctx, notif("a"))
	s.Insert(ctx, notif("b"))
	require.Equal(t, 2, s.UnreadCount())

	s.MarkAsRead(ctx, "a")
	assert.Equal(t, 1, s.UnreadCount())

	list := s.List()
	for _, n := range list {
		if n.ID == "a" {
			assert.True(t, n.IsRead)
			require.NotNil(t, n.ReadAt)
		} else {
			assert.False(t, n.IsRead)
			assert.Nil(t, n.ReadAt)
		}
	}

	// Unknown id is a no-op.
	s.MarkAsRead(ctx, "missing")
	assert.Equal(t, 1, s.UnreadCount())
}

func TestMarkAllAsReadIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.Insert(ctx, notif("a"))
	s.Insert(ctx, notif("b"))

	s.MarkAllAsRead(ctx)
	require.Equal(t, 0, s.UnreadCount())

	first := s.List()
	require.NotNil(t, first[0].ReadAt)
	require.NotNil(t, first[1].ReadAt)

	s.MarkAllAsRead(ctx)
	second := s.List()

	// readAt must be untouched by the second call.
	assert.Equal(t, first[0].ReadAt, second[0].ReadAt)
	assert.Equal(t, first[1].ReadAt, second[1].ReadAt)
}

func TestUnreadCountAlwaysDerived(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		s.Insert(ctx, notif(fmt.Sprintf("n-%d", i)))
	}
	assert.Equal(t, 5, s.UnreadCount())

	s.MarkAsRead(ctx, "n-0")
	s.MarkAsRead(ctx, "n-1")
	assert.Equal(t, 3, s.UnreadCount())

	s.MarkAllAsRead(ctx)
	assert.Equal(t, 0, s.UnreadCount())

	s.Insert(ctx, notif("fresh"))
	assert.Equal(t, 1, s.UnreadCount())
}

func TestRemove(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.Insert(ctx, notif("a"))
	s.Insert(ctx, notif("b"))

	s.Remove(ctx, "a")
	list := s.List()
	require.Len(t, list, 1)
	assert.Equal(t, "b", list[0].ID)

	s.Remove(ctx, "missing")
	assert.Len(t, s.List(), 1)
}

func TestClearAll(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.Insert(ctx, notif("a"))
	s.ClearAll(ctx)
	assert.Empty(t, s.List())
	assert.Equal(t, 0, s.UnreadCount())
}

func TestBindSessionLoadFailureDegradesToEmpty(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry(), "test")
	s := New(&failingPersister{loadErr: fmt.Errorf("boom")}, zerolog.Nop(), m)

	s.BindSession(context.Background(), "user-1")
	assert.Empty(t, s.List())
	assert.Equal(t, 0, s.UnreadCount())
}

func TestSaveFailureKeepsInMemoryState(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry(), "test")
	s := New(&failingPersister{saveErr: fmt.Errorf("disk full")}, zerolog.Nop(), m)
	ctx := context.Background()
	s.BindSession(ctx, "user-1")

	require.True(t, s.Insert(ctx, notif("a")))
	assert.Len(t, s.List(), 1)
}

func TestSessionSwapReplacesListAtomically(t *testing.T) {
	ctx := context.Background()
	persister := memory.NewPersister()
	m := metrics.New(prometheus.NewRegistry(), "test")
	s := New(persister, zerolog.Nop(), m)

	s.BindSession(ctx, "user-x")
	s.Insert(ctx, notif("x-1"))
	s.Insert(ctx, notif("x-2"))

	s.BindSession(ctx, "user-y")
	assert.Empty(t, s.List())
	assert.Equal(t, 0, s.UnreadCount())

	s.Insert(ctx, notif("y-1"))

	// Rebinding X restores exactly X's entries, no bleed-through from Y.
	s.BindSession(ctx, "user-x")
	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, "x-2", list[0].ID)
	assert.Equal(t, "x-1", list[1].ID)
}

func TestUnbindClearsInMemoryOnly(t *testing.T) {
	ctx := context.Background()
	persister := memory.NewPersister()
	m := metrics.New(prometheus.NewRegistry(), "test")
	s := New(persister, zerolog.Nop(), m)

	s.BindSession(ctx, "user-x")
	s.Insert(ctx, notif("x-1"))

	s.UnbindSession()
	assert.Empty(t, s.List())
	assert.Equal(t, "", s.SessionID())

	s.BindSession(ctx, "user-x")
	assert.Len(t, s.List(), 1)
}

func TestLoadTruncatesOversizedPersistedList(t *testing.T) {
	ctx := context.Background()
	persister := memory.NewPersister()

	oversized := make([]model.Notification, MaxEntries+5)
	for i := range oversized {
		oversized[i] = notif(fmt.Sprintf("n-%d", i))
	}
	require.NoError(t, persister.Save(ctx, "user-1", oversized))

	m := metrics.New(prometheus.NewRegistry(), "test")
	s := New(persister, zerolog.Nop(), m)
	s.BindSession(ctx, "user-1")
	assert.Len(t, s.List(), MaxEntries)
}
