package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"lorealchat/internal/chat"
	"lorealchat/internal/models"
)

var testTemplate = Template{SystemPrompt: "system", Greeting: "Hello!"}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestMemoryStoreLifecycle(t *testing.T) {
	defer goleak.VerifyNone(t)
	store := NewMemoryStore(testTemplate, time.Hour, nil)
	defer store.Close()
	ctx := context.Background()

	sess, err := store.Create(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, sess.ID)
	assert.Equal(t, []models.Message{
		{Role: models.RoleSystem, Content: "system"},
		{Role: models.RoleAssistant, Content: "Hello!"},
	}, sess.Messages())

	got, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Same(t, sess, got)
	require.NoError(t, store.Save(ctx, got))

	unlock, err := store.Lock(ctx, sess.ID)
	require.NoError(t, err)
	unlock()

	require.NoError(t, store.Delete(ctx, sess.ID))
	_, err = store.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, sess.ID), ErrNotFound)
	assert.ErrorIs(t, store.Save(ctx, sess), ErrNotFound)
}

func TestMemoryStoreSessionsAreDistinct(t *testing.T) {
	defer goleak.VerifyNone(t)
	store := NewMemoryStore(testTemplate, time.Hour, nil)
	defer store.Close()

	a, err := store.Create(context.Background())
	require.NoError(t, err)
	b, err := store.Create(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestMemoryStoreEvictsIdleSessions(t *testing.T) {
	defer goleak.VerifyNone(t)
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	store := NewMemoryStore(testTemplate, 10*time.Minute, nil)
	defer store.Close()
	store.now = clock.Now
	ctx := context.Background()

	stale, err := store.Create(ctx)
	require.NoError(t, err)
	clock.Advance(6 * time.Minute)
	fresh, err := store.Create(ctx)
	require.NoError(t, err)

	clock.Advance(5 * time.Minute)
	assert.Equal(t, 1, store.evictIdle())

	_, err = store.Get(ctx, stale.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Get(ctx, fresh.ID)
	assert.NoError(t, err)
}

func TestMemoryStoreCloseIsIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t)
	store := NewMemoryStore(testTemplate, time.Minute, nil)
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())
}

func TestMemoryStoreRunTurn(t *testing.T) {
	defer goleak.VerifyNone(t)
	store := NewMemoryStore(testTemplate, time.Hour, nil)
	defer store.Close()
	ctx := context.Background()

	sess, err := store.Create(ctx)
	require.NoError(t, err)

	err = RunTurn(ctx, store, sess.ID, func(s *chat.Session) error {
		_, err := chat.NewController(stubCompleter("Use SPF daily."), chat.ControllerConfig{}).Submit(ctx, s, "Sunscreen?", nil)
		return err
	})
	require.NoError(t, err)
	assert.Len(t, sess.Messages(), 4)

	err = RunTurn(ctx, store, "missing", func(*chat.Session) error {
		t.Fatal("turn ran for an unknown session")
		return nil
	})
	assert.ErrorIs(t, err, ErrNotFound)
}
