package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UnknownDeviceName is substituted when a session carries no device name.
const UnknownDeviceName = "Unknown Device"

// Session tracks one device's logged-in state for one user. There is at most
// one current record per (user_id, device_id) pair; the record is reused on
// re-login from the same device rather than replaced.
//
// IsActive is a pointer because documents written before the activity flag was
// introduced carry no field at all. A nil flag means "legacy, presumed active";
// new writes always set it explicitly, so the nil case decays over time.
type Session struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"            json:"-"`
	SessionID   string             `bson:"session_id"               json:"session_id"`
	UserID      string             `bson:"user_id"                  json:"user_id"`
	DeviceID    string             `bson:"device_id"                json:"device_id"`
	DeviceName  string             `bson:"device_name,omitempty"    json:"device_name"`
	IsActive    *bool              `bson:"is_active,omitempty"      json:"is_active"`
	CreatedAt   time.Time          `bson:"created_at"               json:"created_at"`
	LastActive  time.Time          `bson:"last_active,omitempty"    json:"last_active"`
	LoggedOutAt *time.Time         `bson:"logged_out_at,omitempty"  json:"logged_out_at,omitempty"`
}

func (Session) Collection() string { return "sessions" }

// Active reports whether the session is explicitly flagged active.
func (s *Session) Active() bool {
	return s.IsActive != nil && *s.IsActive
}

// Revoked reports whether the session was explicitly deactivated. Legacy
// records without the flag are neither Active nor Revoked.
func (s *Session) Revoked() bool {
	return s.IsActive != nil && !*s.IsActive
}

// LastSeen returns last_active, falling back to created_at for records that
// predate the last_active field.
func (s *Session) LastSeen() time.Time {
	if s.LastActive.IsZero() {
		return s.CreatedAt
	}
	return s.LastActive
}

// DisplayName returns the device name with the unknown-device fallback.
func (s *Session) DisplayName() string {
	if s.DeviceName == "" {
		return UnknownDeviceName
	}
	return s.DeviceName
}

// BoolPtr is a convenience for populating the activity flag.
func BoolPtr(v bool) *bool { return &v }
