package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"lorealchat/internal/chat"
)

const minSweepInterval = time.Second

type memoryEntry struct {
	sess     *chat.Session
	lastSeen time.Time
}

// MemoryStore keeps sessions in process and drops them after idle time.
type MemoryStore struct {
	tmpl   Template
	idle   time.Duration
	logger *zap.Logger
	now    func() time.Time

	mu       sync.Mutex
	sessions map[string]*memoryEntry

	stop chan struct{}
	done chan struct{}
}

func NewMemoryStore(tmpl Template, idle time.Duration, logger *zap.Logger) *MemoryStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &MemoryStore{
		tmpl:     tmpl,
		idle:     idle,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]*memoryEntry),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go s.sweepLoop()
	return s
}

func (s *MemoryStore) Create(ctx context.Context) (*chat.Session, error) {
	sess := s.tmpl.newSession()
	s.mu.Lock()
	s.sessions[sess.ID] = &memoryEntry{sess: sess, lastSeen: s.now()}
	s.mu.Unlock()
	return sess, nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*chat.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	entry.lastSeen = s.now()
	return entry.sess, nil
}

// Save only refreshes the idle clock; sessions are shared by pointer.
func (s *MemoryStore) Save(ctx context.Context, sess *chat.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.sessions[sess.ID]
	if !ok {
		return ErrNotFound
	}
	entry.lastSeen = s.now()
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(s.sessions, id)
	return nil
}

// Lock is a no-op: the session's own turn guard covers a single process.
func (s *MemoryStore) Lock(ctx context.Context, id string) (func(), error) {
	return func() {}, nil
}

// Close stops the idle sweeper.
func (s *MemoryStore) Close() error {
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
	<-s.done
	return nil
}

func (s *MemoryStore) sweepLoop() {
	defer close(s.done)
	interval := s.idle / 2
	if interval < minSweepInterval {
		interval = minSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			if n := s.evictIdle(); n > 0 {
				s.logger.Debug("evicted idle sessions", zap.Int("count", n))
			}
		}
	}
}

// evictIdle drops sessions idle longer than the timeout, skipping any with a
// turn in flight.
func (s *MemoryStore) evictIdle() int {
	if s.idle <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.idle)
	s.mu.Lock()
	defer s.mu.Unlock()
	evicted := 0
	for id, entry := range s.sessions {
		if entry.lastSeen.Before(cutoff) && !entry.sess.Busy() {
			delete(s.sessions, id)
			evicted++
		}
	}
	return evicted
}
