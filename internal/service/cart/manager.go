package cart

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"jewelry-storefront/internal/domain"
	"jewelry-storefront/internal/notice"
	"jewelry-storefront/internal/pricing"
)

const (
	defaultQueueSize    = 256
	defaultWriteTimeout = 5 * time.Second
)

// Persister stores cart snapshots per browser session.
type Persister interface {
	Save(ctx context.Context, sessionID string, c domain.Cart) error
	Load(ctx context.Context, sessionID string) (*domain.Cart, error)
}

type openStore struct {
	store    *Store
	lastSeen time.Time
}

type saveJob struct {
	sessionID string
	cart      domain.Cart
}

// Manager hands out one Store per session and owns the asynchronous snapshot
// writer. Writes never block a mutation: when the queue is full the snapshot
// is dropped and the next mutation writes a newer one.
type Manager struct {
	mu     sync.Mutex
	stores map[string]*openStore
	now    func() time.Time

	persister Persister
	calc      pricing.Calculator
	notifier  notice.Notifier
	recorder  Recorder
	logger    zerolog.Logger

	writeTimeout time.Duration

	queueMu sync.RWMutex
	queue   chan saveJob
	closed  bool
	done    chan struct{}
}

type Option func(*Manager)

func WithRecorder(r Recorder) Option {
	return func(m *Manager) { m.recorder = r }
}

func WithQueueSize(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.queue = make(chan saveJob, n)
		}
	}
}

func WithWriteTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.writeTimeout = d
		}
	}
}

func NewManager(persister Persister, calc pricing.Calculator, notifier notice.Notifier, logger zerolog.Logger, opts ...Option) *Manager {
	if notifier == nil {
		notifier = notice.Discard{}
	}
	m := &Manager{
		stores:       make(map[string]*openStore),
		now:          time.Now,
		persister:    persister,
		calc:         calc,
		notifier:     notifier,
		logger:       logger,
		writeTimeout: defaultWriteTimeout,
		queue:        make(chan saveJob, defaultQueueSize),
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	go m.runWriter()
	return m
}

// Open returns the session's store, restoring the persisted snapshot the
// first time the session is seen. A failed restore starts an empty cart.
// The snapshot is read without holding the manager lock.
func (m *Manager) Open(ctx context.Context, sessionID string) *Store {
	if st, ok := m.lookup(sessionID); ok {
		return st
	}

	st := NewStore(sessionID, m.calc, m.notifier)
	st.recorder = m.recorder
	st.save = m.enqueue

	if m.persister != nil {
		persisted, err := m.persister.Load(ctx, sessionID)
		switch {
		case err == nil && persisted != nil:
			st.restore(*persisted)
		case err != nil && !errors.Is(err, domain.ErrNotFound):
			m.logger.Warn().Err(err).Str("session_id", sessionID).Msg("cart: restore snapshot failed")
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.stores[sessionID]; ok {
		existing.lastSeen = m.now()
		return existing.store
	}
	m.stores[sessionID] = &openStore{store: st, lastSeen: m.now()}
	return st
}

func (m *Manager) lookup(sessionID string) (*Store, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.stores[sessionID]
	if !ok {
		return nil, false
	}
	entry.lastSeen = m.now()
	return entry.store, true
}

// Forget drops the in-memory store so the next Open restores from the
// persisted snapshot.
func (m *Manager) Forget(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.stores, sessionID)
}

// EvictIdle forgets every store not opened since before cutoff and returns
// how many were dropped. Their snapshots stay in the persister.
func (m *Manager) EvictIdle(cutoff time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, entry := range m.stores {
		if entry.lastSeen.Before(cutoff) {
			delete(m.stores, id)
			n++
		}
	}
	return n
}

func (m *Manager) enqueue(sessionID string, c domain.Cart) {
	if m.persister == nil {
		return
	}
	m.queueMu.RLock()
	defer m.queueMu.RUnlock()
	if m.closed {
		return
	}
	select {
	case m.queue <- saveJob{sessionID: sessionID, cart: c}:
	default:
		m.logger.Warn().Str("session_id", sessionID).Msg("cart: snapshot queue full, dropping write")
	}
}

func (m *Manager) runWriter() {
	defer close(m.done)
	for job := range m.queue {
		ctx, cancel := context.WithTimeout(context.Background(), m.writeTimeout)
		if err := m.persister.Save(ctx, job.sessionID, job.cart); err != nil {
			m.logger.Warn().Err(err).Str("session_id", job.sessionID).Msg("cart: persist snapshot failed")
		}
		cancel()
	}
}

// Close stops accepting snapshots and waits for queued ones to be written.
func (m *Manager) Close(ctx context.Context) error {
	m.queueMu.Lock()
	if !m.closed {
		m.closed = true
		close(m.queue)
	}
	m.queueMu.Unlock()

	select {
	case <-m.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
