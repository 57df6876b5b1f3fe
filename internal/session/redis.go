package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"lorealchat/internal/chat"
	"lorealchat/internal/redis"
)

const (
	redisKeyPrefix = "lorealchat:session:"
	// Lock lifetime when no turn timeout is configured.
	defaultTurnLockTTL = 10 * time.Minute
	// Extra lock lifetime past the turn timeout to cover saving the session.
	turnLockGrace = 30 * time.Second
)

// RedisStore shares session state between service replicas. Entries expire
// after the idle timeout.
type RedisStore struct {
	client  *redis.Client
	tmpl    Template
	idle    time.Duration
	lockTTL time.Duration
	logger  *zap.Logger
}

// NewRedisStore builds a store whose turn lock outlives turnTimeout, the
// deadline callers put on a completion.
func NewRedisStore(client *redis.Client, tmpl Template, idle, turnTimeout time.Duration, logger *zap.Logger) *RedisStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	lockTTL := defaultTurnLockTTL
	if turnTimeout > 0 {
		lockTTL = turnTimeout + turnLockGrace
	}
	return &RedisStore{client: client, tmpl: tmpl, idle: idle, lockTTL: lockTTL, logger: logger}
}

func sessionKey(id string) string { return redisKeyPrefix + id }
func lockKey(id string) string    { return redisKeyPrefix + id + ":turn" }

func (s *RedisStore) Create(ctx context.Context) (*chat.Session, error) {
	sess := s.tmpl.newSession()
	if err := s.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*chat.Session, error) {
	raw, err := s.client.Get(ctx, sessionKey(id))
	if err != nil {
		if errors.Is(err, redis.ErrCacheMiss) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	var snap chat.Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	sess, err := chat.RestoreSession(snap)
	if err != nil {
		return nil, fmt.Errorf("restore session %s: %w", id, err)
	}
	if err := s.client.Expire(ctx, sessionKey(id), s.idle); err != nil {
		s.logger.Warn("refresh session ttl failed", zap.String("session", id), zap.Error(err))
	}
	return sess, nil
}

func (s *RedisStore) Save(ctx context.Context, sess *chat.Session) error {
	data, err := json.Marshal(sess.Snapshot())
	if err != nil {
		return fmt.Errorf("encode session %s: %w", sess.ID, err)
	}
	if err := s.client.Set(ctx, sessionKey(sess.ID), data, s.idle); err != nil {
		return fmt.Errorf("store session %s: %w", sess.ID, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.client.Del(ctx, sessionKey(id), lockKey(id)); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}

// Lock takes a per-session turn lock visible to every replica.
func (s *RedisStore) Lock(ctx context.Context, id string) (func(), error) {
	token := uuid.NewString()
	ok, err := s.client.SetNX(ctx, lockKey(id), token, s.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("lock session %s: %w", id, err)
	}
	if !ok {
		return nil, chat.ErrTurnInProgress
	}
	return func() {
		if err := s.client.CompareAndDelete(context.Background(), lockKey(id), token); err != nil {
			s.logger.Warn("release session lock failed", zap.String("session", id), zap.Error(err))
		}
	}, nil
}

// Close leaves the shared client open; its owner closes it.
func (s *RedisStore) Close() error {
	return nil
}
