package web

import (
	"sync"
	"time"

	"github.com/goliatone/go-questionnaire/pkg/render"
	"github.com/goliatone/go-questionnaire/pkg/session"
)

type entry struct {
	sess     *session.Session
	notice   render.Notice
	lastSeen time.Time
}

// Store keeps one session per browser and form. Idle entries are closed and
// dropped on the next access.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
	idle    time.Duration
	now     func() time.Time
}

// NewStore creates a store; idle <= 0 keeps sessions until closed.
func NewStore(idle time.Duration) *Store {
	return &Store{
		entries: make(map[string]*entry),
		idle:    idle,
		now:     time.Now,
	}
}

func storeKey(browserID, formID string) string {
	return browserID + "|" + formID
}

// Get returns the live session for the browser and form.
func (s *Store) Get(browserID, formID string) (*session.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	e, ok := s.entries[storeKey(browserID, formID)]
	if !ok {
		return nil, false
	}
	e.lastSeen = s.now()
	return e.sess, true
}

// Put registers sess, closing any session it replaces.
func (s *Store) Put(browserID, formID string, sess *session.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := storeKey(browserID, formID)
	if previous, ok := s.entries[key]; ok && previous.sess != sess {
		previous.sess.Close()
	}
	s.entries[key] = &entry{sess: sess, lastSeen: s.now()}
}

// Close tears the session down and forgets it.
func (s *Store) Close(browserID, formID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := storeKey(browserID, formID)
	e, ok := s.entries[key]
	if !ok {
		return false
	}
	e.sess.Close()
	delete(s.entries, key)
	return true
}

// SetNotice stores a notice for the next render.
func (s *Store) SetNotice(browserID, formID string, notice render.Notice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[storeKey(browserID, formID)]; ok {
		e.notice = notice
	}
}

// TakeNotice returns and clears the pending notice.
func (s *Store) TakeNotice(browserID, formID string) render.Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[storeKey(browserID, formID)]
	if !ok {
		return render.Notice{}
	}
	notice := e.notice
	e.notice = render.Notice{}
	return notice
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Store) sweepLocked() {
	if s.idle <= 0 {
		return
	}
	cutoff := s.now().Add(-s.idle)
	for key, e := range s.entries {
		if e.lastSeen.Before(cutoff) {
			e.sess.Close()
			delete(s.entries, key)
		}
	}
}
