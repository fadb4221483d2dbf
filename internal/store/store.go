package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/berdskdekor-ux/agro-bot/internal/domain"
)

// saveTimeout bounds one snapshot write. Saves run on a detached context so
// a shutdown signal never cuts a write in half.
const saveTimeout = 10 * time.Second

// MutateFunc changes a user record under the store lock and reports whether
// anything changed. A returned error is passed back to the caller; changes
// made before it are still persisted when changed is true.
type MutateFunc func(u *domain.User) (changed bool, err error)

// Store owns every user record. All access goes through its methods, which
// hold one process-wide mutex for the whole read-modify-persist sequence.
type Store struct {
	mu    sync.Mutex
	users map[string]*domain.User
	p     Persister
	log   *zap.Logger
	now   func() time.Time
}

// Open loads the snapshot from p. Load failures are logged and the store
// starts empty; they never prevent start-up.
func Open(ctx context.Context, p Persister, log *zap.Logger) *Store {
	s := &Store{users: make(map[string]*domain.User), p: p, log: log, now: time.Now}

	users, err := p.LoadAll(ctx)
	if err != nil {
		var corrupt *domain.CorruptStoreError
		if errors.As(err, &corrupt) {
			log.Error("store snapshot is corrupt, starting empty",
				zap.Strings("records", corrupt.IDs), zap.Error(err))
		} else {
			log.Error("store load failed, starting empty", zap.Error(err))
		}
		return s
	}
	for id, u := range users {
		if u.State == domain.StateIdle {
			u.Scratch = nil
		}
		s.users[id] = u
	}
	log.Info("store loaded", zap.Int("users", len(s.users)))
	return s
}

// Update runs fn on the user with id, creating an empty record on first
// contact, and persists the full snapshot before returning when fn reports
// a change.
func (s *Store) Update(id string, fn MutateFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	created := false
	if !ok {
		u = domain.NewUser(id, s.now())
		s.users[id] = u
		created = true
	}
	changed, err := fn(u)
	if changed || created {
		s.persistLocked()
	}
	return err
}

// Get returns a deep copy of the user.
func (s *Store) Get(id string) (*domain.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, false
	}
	return u.Clone(), true
}

// Sweep runs fn on every user during one lock hold and persists once if any
// call reported a change. Background workers use it for their scans.
func (s *Store) Sweep(fn func(u *domain.User) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := false
	for _, u := range s.users {
		if fn(u) {
			changed = true
		}
	}
	if changed {
		s.persistLocked()
	}
}

// Len is the number of known users.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

// persistLocked writes the snapshot; the caller holds s.mu. A failed write
// is logged and the in-memory state stays authoritative.
func (s *Store) persistLocked() {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	if err := s.p.SaveAll(ctx, s.users); err != nil {
		s.log.Error("store save failed, continuing in memory", zap.Error(err))
	}
}
