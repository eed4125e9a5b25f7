// Package store defines the record-store abstractions the session engine is
// built against, plus MongoDB-backed and in-memory implementations. The store
// is deliberately mechanical: point lookups, set-scoped queries, inserts and
// field updates. All admission policy lives in the engine.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/n-device/core/internal/models"
)

var (
	// ErrDuplicate is returned when an insert collides with an existing
	// record on a unique key.
	ErrDuplicate = errors.New("store: duplicate record")
	// ErrNotFound is returned by targeted updates whose filter matched
	// no record.
	ErrNotFound = errors.New("store: record not found")
)

// UserStore persists user records keyed by the caller-supplied user_id.
type UserStore interface {
	// Get returns the user, or (nil, nil) when absent.
	Get(ctx context.Context, userID string) (*models.User, error)
	// Create inserts a new user. Returns ErrDuplicate on a user_id collision.
	Create(ctx context.Context, u *models.User) error
	// UpdateProfile applies a partial profile update and bumps updated_at.
	// Returns the updated user, or (nil, nil) when the user is absent.
	UpdateProfile(ctx context.Context, userID string, patch models.UserPatch, now time.Time) (*models.User, error)
}

// SessionStore persists device-session records.
type SessionStore interface {
	// FindByUserDevice is the point lookup for one (user_id, device_id)
	// pair, active or not. Returns (nil, nil) when absent.
	FindByUserDevice(ctx context.Context, userID, deviceID string) (*models.Session, error)
	// FindByDevice returns the current record for a device_id, preferring
	// an active record over revoked ones. Returns (nil, nil) when no record
	// exists for the device at all.
	FindByDevice(ctx context.Context, deviceID string) (*models.Session, error)
	// ListActive returns the user's active session set sorted by created_at
	// descending. Compatibility shim: when no record for the user carries
	// an explicit active flag at all, records without the flag are treated
	// as the active set (pre-migration data).
	ListActive(ctx context.Context, userID string) ([]models.Session, error)
	// Insert stores a brand-new session. Returns ErrDuplicate when a record
	// for the same (user_id, device_id) pair already exists.
	Insert(ctx context.Context, s *models.Session) error
	// Reactivate flags the pair's current record active, refreshes
	// session_id, device_name and last_active, and clears logged_out_at.
	// Also used for the idempotent re-login refresh of an already-active
	// session. Mutations key on the pair rather than session_id because
	// pre-migration records carry no session_id.
	Reactivate(ctx context.Context, userID, deviceID, sessionID, deviceName string, now time.Time) error
	// Deactivate flags every record for the pair inactive and stamps
	// logged_out_at.
	Deactivate(ctx context.Context, userID, deviceID string, now time.Time) error
	// PurgeInactive hard-deletes inactive records for the pair, sparing
	// keepSessionID. Returns the number of records removed.
	PurgeInactive(ctx context.Context, userID, deviceID, keepSessionID string) (int64, error)
}
