package session

import (
	"context"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lorealchat/internal/chat"
	"lorealchat/internal/config"
	"lorealchat/internal/models"
	"lorealchat/internal/redis"
)

func TestRedisStoreRoundTrip(t *testing.T) {
	store := newRedisStore(t, miniredis.RunT(t), 0)
	ctx := context.Background()

	sess, err := store.Create(ctx)
	require.NoError(t, err)

	ctrl := chat.NewController(stubCompleter("Try a gentle cleanser."), chat.ControllerConfig{})
	_, err = ctrl.Submit(ctx, sess, "I'm Lea", nil)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, sess))

	loaded, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.Messages(), loaded.Messages())
	assert.Equal(t, "Lea", loaded.Context().UserName)

	require.NoError(t, store.Delete(ctx, sess.ID))
	_, err = store.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStoreTurnLock(t *testing.T) {
	store := newRedisStore(t, miniredis.RunT(t), 0)
	ctx := context.Background()
	sess, err := store.Create(ctx)
	require.NoError(t, err)

	unlock, err := store.Lock(ctx, sess.ID)
	require.NoError(t, err)
	_, err = store.Lock(ctx, sess.ID)
	assert.ErrorIs(t, err, chat.ErrTurnInProgress)

	unlock()
	unlock2, err := store.Lock(ctx, sess.ID)
	require.NoError(t, err)
	unlock2()
}

func TestRedisStoreLockOutlivesTurnTimeout(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	cases := []struct {
		name        string
		turnTimeout time.Duration
		want        time.Duration
	}{
		{name: "configured timeout", turnTimeout: 2 * time.Minute, want: 2*time.Minute + turnLockGrace},
		{name: "no timeout", want: defaultTurnLockTTL},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newRedisStore(t, mr, tc.turnTimeout)
			sess, err := store.Create(ctx)
			require.NoError(t, err)

			unlock, err := store.Lock(ctx, sess.ID)
			require.NoError(t, err)
			defer unlock()
			assert.Equal(t, tc.want, mr.TTL(lockKey(sess.ID)))
		})
	}
}

func TestRedisStoreExpiredLockAdmitsNextTurn(t *testing.T) {
	mr := miniredis.RunT(t)
	store := newRedisStore(t, mr, time.Minute)
	ctx := context.Background()
	sess, err := store.Create(ctx)
	require.NoError(t, err)

	stale, err := store.Lock(ctx, sess.ID)
	require.NoError(t, err)
	mr.FastForward(time.Minute + turnLockGrace)

	unlock, err := store.Lock(ctx, sess.ID)
	require.NoError(t, err)
	stale()
	_, err = store.Lock(ctx, sess.ID)
	assert.ErrorIs(t, err, chat.ErrTurnInProgress, "an expired holder must not release the new lock")
	unlock()
}

// Two replicas share one redis. Every turn must land in the saved
// transcript, whichever replica serves it.
func TestRunTurnAcrossReplicasKeepsEveryTurn(t *testing.T) {
	mr := miniredis.RunT(t)
	replicaA := newRedisStore(t, mr, time.Minute)
	replicaB := newRedisStore(t, mr, time.Minute)
	ctx := context.Background()

	sess, err := replicaA.Create(ctx)
	require.NoError(t, err)

	blocking := &gatedCompleter{reply: "reply A", entered: make(chan struct{}), release: make(chan struct{})}
	ctrlA := chat.NewController(blocking, chat.ControllerConfig{})
	ctrlB := chat.NewController(stubCompleter("reply B"), chat.ControllerConfig{})

	var wg sync.WaitGroup
	wg.Add(1)
	var errA error
	go func() {
		defer wg.Done()
		errA = RunTurn(ctx, replicaA, sess.ID, func(s *chat.Session) error {
			_, err := ctrlA.Submit(ctx, s, "question A", nil)
			return err
		})
	}()
	<-blocking.entered

	submitB := func(s *chat.Session) error {
		_, err := ctrlB.Submit(ctx, s, "question B", nil)
		return err
	}
	err = RunTurn(ctx, replicaB, sess.ID, submitB)
	assert.ErrorIs(t, err, chat.ErrTurnInProgress)

	close(blocking.release)
	wg.Wait()
	require.NoError(t, errA)

	require.NoError(t, RunTurn(ctx, replicaB, sess.ID, submitB))

	final, err := replicaA.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.Message{
		{Role: models.RoleSystem, Content: "system"},
		{Role: models.RoleAssistant, Content: "Hello!"},
		{Role: models.RoleUser, Content: "question A"},
		{Role: models.RoleAssistant, Content: "reply A"},
		{Role: models.RoleUser, Content: "question B"},
		{Role: models.RoleAssistant, Content: "reply B"},
	}, final.Messages())
	assert.Equal(t, []string{"question A", "question B"}, final.Context().PastQuestions)
}

func TestRunTurnSequentialReplicas(t *testing.T) {
	mr := miniredis.RunT(t)
	replicaA := newRedisStore(t, mr, time.Minute)
	replicaB := newRedisStore(t, mr, time.Minute)
	ctx := context.Background()

	sess, err := replicaA.Create(ctx)
	require.NoError(t, err)

	for i, store := range []*RedisStore{replicaB, replicaA, replicaB} {
		q := "question " + strconv.Itoa(i)
		ctrl := chat.NewController(stubCompleter("reply "+strconv.Itoa(i)), chat.ControllerConfig{})
		require.NoError(t, RunTurn(ctx, store, sess.ID, func(s *chat.Session) error {
			_, err := ctrl.Submit(ctx, s, q, nil)
			return err
		}))
	}

	final, err := replicaB.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Len(t, final.Messages(), 8)
	assert.Equal(t, []string{"question 0", "question 1", "question 2"}, final.Context().PastQuestions)
	assert.False(t, mr.Exists(lockKey(sess.ID)), "lock released after each turn")
}

func TestRunTurnUnknownSession(t *testing.T) {
	mr := miniredis.RunT(t)
	store := newRedisStore(t, mr, time.Minute)

	called := false
	err := RunTurn(context.Background(), store, "missing", func(*chat.Session) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, called)
	assert.False(t, mr.Exists(lockKey("missing")))
}

type stubCompleter string

func (s stubCompleter) Complete(ctx context.Context, messages []models.Message) (string, error) {
	return string(s), nil
}

type gatedCompleter struct {
	reply   string
	entered chan struct{}
	release chan struct{}
}

func (g *gatedCompleter) Complete(ctx context.Context, messages []models.Message) (string, error) {
	close(g.entered)
	<-g.release
	return g.reply, nil
}

func newRedisStore(t *testing.T, mr *miniredis.Miniredis, turnTimeout time.Duration) *RedisStore {
	t.Helper()
	host, portStr, err := net.SplitHostPort(mr.Addr())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	client, err := redis.NewRedisClient(&config.Config{
		Redis: config.RedisConfig{Host: host, Port: port},
	})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client, testTemplate, time.Minute, turnTimeout, nil)
}
