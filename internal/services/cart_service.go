// internal/services/cart_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/storefront/internal/cart"
	"github.com/javajoker/storefront/internal/config"
	"github.com/javajoker/storefront/internal/utils"
)

var ErrSessionNotFound = errors.New("session not found")

// watchBuffer is how many snapshots a slow watcher may lag behind before
// older ones are dropped in favour of the newest.
const watchBuffer = 8

// session pairs a cart manager with the lock that makes it single threaded.
type session struct {
	id        uuid.UUID
	mu        sync.Mutex
	manager   *cart.Manager
	createdAt time.Time
	lastSeen  time.Time

	// guarded by mu
	watchers map[chan cart.Snapshot]func()
	swept    bool
}

// close detaches and closes every watcher. Caller holds mu.
func (sess *session) close() {
	for ch, unsubscribe := range sess.watchers {
		unsubscribe()
		close(ch)
	}
	sess.watchers = nil
	sess.swept = true
}

// CartService owns one cart.Manager per shopper session and serializes every
// transition on it.
type CartService struct {
	catalogs *CatalogService
	idle     time.Duration
	ttl      time.Duration
	now      func() time.Time

	mu       sync.RWMutex
	sessions map[uuid.UUID]*session
}

type SessionInfo struct {
	SessionID uuid.UUID `json:"session_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func NewCartService(catalogs *CatalogService, cfg config.SessionConfig) *CartService {
	return &CartService{
		catalogs: catalogs,
		idle:     time.Duration(cfg.IdleMinutes) * time.Minute,
		ttl:      time.Duration(cfg.TTLHours) * time.Hour,
		now:      time.Now,
		sessions: make(map[uuid.UUID]*session),
	}
}

// CreateSession starts an empty cart over the current catalog.
func (s *CartService) CreateSession() (*SessionInfo, error) {
	c, err := s.catalogs.Catalog()
	if err != nil {
		return nil, err
	}

	manager, err := cart.NewManager(c.Records())
	if err != nil {
		return nil, fmt.Errorf("failed to build cart: %w", err)
	}

	id := uuid.New()
	token, expiresAt, err := utils.GenerateSessionToken(id, s.ttl)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session token: %w", err)
	}

	now := s.now()
	s.mu.Lock()
	s.sessions[id] = &session{id: id, manager: manager, createdAt: now, lastSeen: now}
	s.mu.Unlock()

	logrus.WithField("session_id", id).Debug("Session created")
	return &SessionInfo{SessionID: id, Token: token, ExpiresAt: expiresAt}, nil
}

// WithSession runs fn while holding the session's lock.
func (s *CartService) WithSession(id uuid.UUID, fn func(m *cart.Manager) error) error {
	return s.withSession(id, func(sess *session) error {
		return fn(sess.manager)
	})
}

func (s *CartService) withSession(id uuid.UUID, fn func(sess *session) error) error {
	sess, err := s.session(id)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	// lost a race with the janitor
	if sess.swept {
		return ErrSessionNotFound
	}
	return fn(sess)
}

func (s *CartService) Snapshot(id uuid.UUID) (cart.Snapshot, error) {
	var snap cart.Snapshot
	err := s.WithSession(id, func(m *cart.Manager) error {
		snap = m.Snapshot()
		return nil
	})
	return snap, err
}

// Apply runs one cart transition and returns the resulting snapshot.
func (s *CartService) Apply(id uuid.UUID, op cart.Op, key string) (cart.Snapshot, error) {
	var snap cart.Snapshot
	err := s.WithSession(id, func(m *cart.Manager) error {
		var err error
		switch op {
		case cart.OpAdd:
			err = m.Add(key)
		case cart.OpIncrease:
			err = m.Increase(key)
		case cart.OpDecrease:
			err = m.Decrease(key)
		case cart.OpRemove:
			err = m.Remove(key)
		case cart.OpReset:
			m.Reset()
		default:
			err = fmt.Errorf("unsupported cart operation %q", op)
		}
		if err != nil {
			return err
		}
		snap = m.Snapshot()
		return nil
	})

	fields := logrus.Fields{"session_id": id, "op": op, "key": key}
	if err != nil {
		logrus.WithFields(fields).WithError(err).Debug("Cart transition rejected")
		return cart.Snapshot{}, err
	}
	logrus.WithFields(fields).WithField("count", snap.Count).Debug("Cart transition applied")
	return snap, nil
}

// Watch streams the session's snapshots, starting with the current one.
// The channel keeps the newest snapshots when the reader falls behind and is
// closed when the session is swept.
func (s *CartService) Watch(id uuid.UUID) (<-chan cart.Snapshot, func(), error) {
	ch := make(chan cart.Snapshot, watchBuffer)

	err := s.withSession(id, func(sess *session) error {
		ch <- sess.manager.Snapshot()
		if sess.watchers == nil {
			sess.watchers = make(map[chan cart.Snapshot]func())
		}
		sess.watchers[ch] = sess.manager.Subscribe(func(snap cart.Snapshot) {
			offer(ch, snap)
		})
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			// a swept session has already closed ch
			_ = s.withSession(id, func(sess *session) error {
				if unsubscribe, ok := sess.watchers[ch]; ok {
					unsubscribe()
					delete(sess.watchers, ch)
				}
				return nil
			})
		})
	}
	return ch, cancel, nil
}

func offer(ch chan cart.Snapshot, snap cart.Snapshot) {
	select {
	case ch <- snap:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- snap:
	default:
	}
}

// SweepIdle forgets sessions not used for longer than the idle timeout and
// returns how many were dropped.
func (s *CartService) SweepIdle() int {
	cutoff := s.now().Add(-s.idle)

	var swept []*session
	s.mu.Lock()
	for id, sess := range s.sessions {
		if sess.lastSeen.Before(cutoff) {
			delete(s.sessions, id)
			swept = append(swept, sess)
		}
	}
	s.mu.Unlock()

	// outside s.mu: a checkout may hold a session lock for a while
	for _, sess := range swept {
		sess.mu.Lock()
		sess.close()
		sess.mu.Unlock()
	}
	return len(swept)
}

// RunJanitor sweeps idle sessions every interval until ctx is done.
func (s *CartService) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.SweepIdle(); n > 0 {
				logrus.WithField("sessions", n).Info("Swept idle sessions")
			}
		}
	}
}

func (s *CartService) ActiveSessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *CartService) session(id uuid.UUID) (*session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	sess.lastSeen = s.now()
	return sess, nil
}
