package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/n-device/core/internal/models"
)

// MemoryUserStore is an in-memory UserStore used by tests and local runs
// without a database.
type MemoryUserStore struct {
	mu    sync.RWMutex
	users map[string]models.User
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[string]models.User)}
}

func (s *MemoryUserStore) Get(_ context.Context, userID string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (s *MemoryUserStore) Create(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.UserID]; ok {
		return ErrDuplicate
	}
	s.users[u.UserID] = *u
	return nil
}

func (s *MemoryUserStore) UpdateProfile(_ context.Context, userID string, patch models.UserPatch, now time.Time) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, nil
	}
	u.Apply(patch, now)
	s.users[userID] = u
	return &u, nil
}

// MemorySessionStore is an in-memory SessionStore mirroring the Mongo
// implementation's query semantics, including the legacy-flag shim.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]models.Session // keyed by session_id
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]models.Session)}
}

// Seed inserts a record directly, bypassing uniqueness checks. Test helper.
func (s *MemorySessionStore) Seed(sess models.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.SessionID] = sess
}

func (s *MemorySessionStore) FindByUserDevice(_ context.Context, userID, deviceID string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sess := range s.sessions {
		if sess.UserID == userID && sess.DeviceID == deviceID {
			out := sess
			return &out, nil
		}
	}
	return nil, nil
}

func (s *MemorySessionStore) FindByDevice(_ context.Context, deviceID string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *models.Session
	for _, sess := range s.sessions {
		if sess.DeviceID != deviceID {
			continue
		}
		sess := sess
		if sess.Active() {
			return &sess, nil
		}
		if latest == nil || sess.LastSeen().After(latest.LastSeen()) {
			latest = &sess
		}
	}
	return latest, nil
}

func (s *MemorySessionStore) ListActive(_ context.Context, userID string) ([]models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var flagged, legacy []models.Session
	for _, sess := range s.sessions {
		if sess.UserID != userID {
			continue
		}
		switch {
		case sess.Active():
			flagged = append(flagged, sess)
		case sess.IsActive == nil:
			legacy = append(legacy, sess)
		}
	}

	out := flagged
	if len(out) == 0 {
		out = legacy
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].DeviceID < out[j].DeviceID
	})
	return out, nil
}

func (s *MemorySessionStore) Insert(_ context.Context, sess *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.sessions {
		if existing.UserID == sess.UserID && existing.DeviceID == sess.DeviceID {
			return ErrDuplicate
		}
	}
	s.sessions[sess.SessionID] = *sess
	return nil
}

func (s *MemorySessionStore) Reactivate(_ context.Context, userID, deviceID, sessionID, deviceName string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var target string
	var best models.Session
	for id, sess := range s.sessions {
		if sess.UserID != userID || sess.DeviceID != deviceID {
			continue
		}
		if target == "" || sess.LastSeen().After(best.LastSeen()) {
			target, best = id, sess
		}
	}
	if target == "" {
		return ErrNotFound
	}
	best.SessionID = sessionID
	best.IsActive = models.BoolPtr(true)
	best.DeviceName = deviceName
	best.LastActive = now
	best.LoggedOutAt = nil
	delete(s.sessions, target)
	s.sessions[sessionID] = best
	return nil
}

func (s *MemorySessionStore) Deactivate(_ context.Context, userID, deviceID string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	matched := false
	for id, sess := range s.sessions {
		if sess.UserID != userID || sess.DeviceID != deviceID {
			continue
		}
		sess.IsActive = models.BoolPtr(false)
		sess.LoggedOutAt = &now
		s.sessions[id] = sess
		matched = true
	}
	if !matched {
		return ErrNotFound
	}
	return nil
}

func (s *MemorySessionStore) PurgeInactive(_ context.Context, userID, deviceID, keepSessionID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var deleted int64
	for id, sess := range s.sessions {
		if sess.UserID == userID && sess.DeviceID == deviceID && sess.Revoked() && id != keepSessionID {
			delete(s.sessions, id)
			deleted++
		}
	}
	return deleted, nil
}
