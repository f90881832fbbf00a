package session

import (
	"context"
	"reflect"
	"sync"

	"github.com/jrsteele09/clinician-portal/profile"
	"github.com/rs/zerolog/log"
)

// Listener is notified with a snapshot after every change to the store.
// Notifications run outside the store's lock, so a listener can see an older
// snapshot after a newer one; Session.Version orders them.
type Listener func(Session)

// Store owns the current Session. All mutation goes through its setters;
// every mutation is persisted through the Repo and then broadcast to listeners.
type Store struct {
	repo Repo

	mu      sync.RWMutex
	session Session
	dirty   bool // mutated before hydration finished

	hydrateOnce sync.Once
	hydrated    chan struct{}

	listenersLock sync.Mutex
	listeners     map[int]Listener
	nextListener  int
}

// NewStore creates an unhydrated store backed by repo.
func NewStore(repo Repo) *Store {
	return &Store{
		repo:      repo,
		hydrated:  make(chan struct{}),
		listeners: make(map[int]Listener),
	}
}

// Hydrate reads the persisted record into memory and marks the store hydrated.
// It runs at most once; later calls return immediately. A record that cannot
// be read leaves the session empty.
func (s *Store) Hydrate(ctx context.Context) {
	s.hydrateOnce.Do(func() {
		record, found, err := s.repo.Load(ctx)
		if err != nil {
			log.Err(err).Msg("Failed to read persisted session, starting signed out")
			found = false
		}

		s.mu.Lock()
		if found && !s.dirty {
			record.apply(&s.session)
		}
		s.session.Hydrated = true
		s.session.Version++
		snapshot := s.snapshotLocked()
		s.mu.Unlock()

		close(s.hydrated)
		s.notify(snapshot)
	})
}

// Hydrated is closed once Hydrate has completed.
func (s *Store) Hydrated() <-chan struct{} {
	return s.hydrated
}

// Snapshot returns a copy of the current session.
func (s *Store) Snapshot() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// SetAuth replaces tokens and profile after a successful login or signup.
func (s *Store) SetAuth(accessToken, refreshToken string, p *profile.Profile) {
	s.mutate(func(sess *Session) bool {
		sess.AccessToken = accessToken
		sess.RefreshToken = refreshToken
		sess.Profile = p.Clone()
		return true
	})
}

// Clear removes tokens and profile (logout).
func (s *Store) Clear() {
	s.mutate(func(sess *Session) bool {
		sess.AccessToken = ""
		sess.RefreshToken = ""
		sess.Profile = nil
		return true
	})
}

// SetProfileIfToken replaces the profile only while accessToken is still the
// current token. It reports whether the write happened.
func (s *Store) SetProfileIfToken(accessToken string, p *profile.Profile) bool {
	return s.mutate(func(sess *Session) bool {
		if accessToken == "" || sess.AccessToken != accessToken {
			return false
		}
		sess.Profile = p.Clone()
		return true
	})
}

// Adopt replaces the session with a record written by another process.
// The record is not saved back. Nothing happens before hydration or when
// the record matches the current session.
func (s *Store) Adopt(record Record, found bool) {
	if !found {
		record = Record{}
	}

	s.mu.Lock()
	if !s.session.Hydrated || reflect.DeepEqual(recordFrom(s.session), record) {
		s.mu.Unlock()
		return
	}
	record.apply(&s.session)
	s.session.Version++
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snapshot)
}

// Subscribe registers l for change notifications and returns a function that
// removes it.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	s.listenersLock.Lock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = l
	s.listenersLock.Unlock()

	return func() {
		s.listenersLock.Lock()
		delete(s.listeners, id)
		s.listenersLock.Unlock()
	}
}

func (s *Store) mutate(change func(*Session) bool) bool {
	s.mu.Lock()
	if !change(&s.session) {
		s.mu.Unlock()
		return false
	}
	if !s.session.Hydrated {
		s.dirty = true
	}
	s.session.Version++
	snapshot := s.snapshotLocked()
	// Saved under the lock so the file never lags behind a later mutation.
	if err := s.repo.Save(context.Background(), recordFrom(snapshot)); err != nil {
		log.Err(err).Msg("Failed to persist session")
	}
	s.mu.Unlock()

	s.notify(snapshot)
	return true
}

func (s *Store) snapshotLocked() Session {
	snapshot := s.session
	snapshot.Profile = s.session.Profile.Clone()
	return snapshot
}

func (s *Store) notify(snapshot Session) {
	s.listenersLock.Lock()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.listenersLock.Unlock()

	for _, l := range listeners {
		l(snapshot)
	}
}
