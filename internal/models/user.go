package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultDeviceLimit is applied to users created on first login.
const DefaultDeviceLimit = 3

// User represents an account tracked by the device-session service.
// user_id is an opaque identifier supplied by the caller, not generated here.
type User struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"  json:"-"`
	UserID      string             `bson:"user_id"        json:"user_id"`
	FullName    string             `bson:"full_name"      json:"full_name"`
	Email       string             `bson:"email"          json:"email"`
	Phone       string             `bson:"phone"          json:"phone"`
	DeviceLimit int                `bson:"device_limit"   json:"device_limit"`
	CreatedAt   time.Time          `bson:"created_at"     json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"     json:"updated_at"`
}

func (User) Collection() string { return "users" }

// UserPatch is a partial profile update. Only non-nil fields are applied.
type UserPatch struct {
	FullName *string `json:"full_name"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
}

// Empty reports whether the patch carries no updatable fields.
func (p UserPatch) Empty() bool {
	return p.FullName == nil && p.Email == nil && p.Phone == nil
}

// Apply merges the patch into the user, overwriting only supplied fields.
func (u *User) Apply(p UserPatch, now time.Time) {
	if p.FullName != nil {
		u.FullName = *p.FullName
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Phone != nil {
		u.Phone = *p.Phone
	}
	u.UpdatedAt = now
}
