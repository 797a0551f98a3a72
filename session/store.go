package session

import (
	"errors"
	"sync"
	"time"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/vidya-core/locale"
	"go.uber.org/zap"
)

var (
	ErrAlreadyExists = errors.New("session already exists")
	ErrNotFound      = errors.New("session not found")

	// ErrBusy signals a duplicate concurrent request for a session whose
	// pipeline lock is already held.
	ErrBusy = errors.New("session busy")
)

const sweepInterval = time.Minute

type entry struct {
	sess *Session
	lock chan struct{} // capacity 1; held for the span of one pipeline run
}

// Store is the arena of active sessions, keyed by phone/session id. A short
// store-wide mutex guards the map and field mutation; a per-id channel lock
// serializes pipeline runs for one caller without blocking other callers.
type Store struct {
	mu         sync.Mutex
	sessions   map[string]*entry
	historyCap int
	idle       time.Duration
	stop       chan struct{}
	stopOnce   sync.Once
	now        func() time.Time
}

func NewStore(historyCap int, idleTimeout time.Duration) *Store {
	s := &Store{
		sessions:   make(map[string]*entry),
		historyCap: historyCap,
		idle:       idleTimeout,
		stop:       make(chan struct{}),
		now:        time.Now,
	}
	go s.sweepLoop()
	return s
}

// Create registers a new session. Fails with ErrAlreadyExists when the id is
// already active.
func (s *Store) Create(id string, lang locale.Language) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; ok {
		return Session{}, ErrAlreadyExists
	}

	now := s.now()
	e := &entry{
		sess: &Session{
			ID:         id,
			Language:   lang,
			Menu:       MenuMain,
			CreatedOn:  now,
			LastActive: now,
		},
		lock: make(chan struct{}, 1),
	}
	s.sessions[id] = e
	return snapshot(e.sess), nil
}

// Get returns a snapshot of the session.
func (s *Store) Get(id string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	return snapshot(e.sess), nil
}

// GetOrCreate returns the active session or registers a fresh one. Telephony
// layers retry call-start webhooks, so an existing id is not an error here.
func (s *Store) GetOrCreate(id string, lang locale.Language) Session {
	if sess, err := s.Get(id); err == nil {
		return sess
	}
	if sess, err := s.Create(id, lang); err == nil {
		return sess
	}
	sess, _ := s.Get(id)
	return sess
}

// WithLock acquires the session's pipeline lock, runs fn with a snapshot, and
// releases on every exit path. A held lock fails fast with ErrBusy so
// duplicate concurrent webhook deliveries are rejected, not queued.
func (s *Store) WithLock(id string, fn func(Session) error) error {
	s.mu.Lock()
	e, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	snap := snapshot(e.sess)
	s.mu.Unlock()

	select {
	case e.lock <- struct{}{}:
	default:
		return ErrBusy
	}
	defer func() { <-e.lock }()

	return fn(snap)
}

// AppendHistory records an answered question, evicting the oldest turn past
// the cap.
func (s *Store) AppendHistory(id, question, answer string) error {
	return s.mutate(id, func(sess *Session) {
		sess.History = append(sess.History, Turn{Question: question, Answer: answer, AskedAt: s.now()})
		if len(sess.History) > s.historyCap {
			sess.History = sess.History[len(sess.History)-s.historyCap:]
		}
	})
}

// Touch refreshes the session's last-activity time.
func (s *Store) Touch(id string) error {
	return s.mutate(id, func(sess *Session) {})
}

func (s *Store) SetMenu(id, menu string) error {
	return s.mutate(id, func(sess *Session) { sess.Menu = menu })
}

func (s *Store) SetLanguage(id string, lang locale.Language) error {
	return s.mutate(id, func(sess *Session) { sess.Language = lang })
}

// AddTimings folds one run's stage timings into the session accumulators.
func (s *Store) AddTimings(id string, t StageTimings) error {
	return s.mutate(id, func(sess *Session) { sess.Timings.Add(t) })
}

// End removes the session. The pipeline lock of an in-flight run stays valid;
// its late mutations simply find no session.
func (s *Store) End(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(s.sessions, id)
	return nil
}

func (s *Store) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Close stops the idle sweeper.
func (s *Store) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// mutate runs fn on the live session under the store mutex and refreshes
// LastActive, per the rule that every mutation counts as activity.
func (s *Store) mutate(id string, fn func(*Session)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[id]
	if !ok {
		return ErrNotFound
	}
	fn(e.sess)
	e.sess.LastActive = s.now()
	return nil
}

func (s *Store) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

// sweep removes sessions idle past the threshold. Sessions with a held
// pipeline lock are skipped; their run will refresh activity when it ends.
func (s *Store) sweep() {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, e := range s.sessions {
		if now.Sub(e.sess.LastActive) < s.idle {
			continue
		}
		select {
		case e.lock <- struct{}{}:
			<-e.lock
			delete(s.sessions, id)
			logger.Info("swept idle session", zap.String("sessionId", id))
		default:
		}
	}
}

func snapshot(sess *Session) Session {
	out := *sess
	out.History = append([]Turn(nil), sess.History...)
	return out
}
