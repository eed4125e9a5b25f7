package session

import (
	"errors"
	"time"

	"github.com/n-device/core/internal/models"
)

// Login outcome statuses carried in the response payload.
const (
	StatusLoggedIn        = "logged_in"
	StatusAlreadyLoggedIn = "already_logged_in"
	StatusLimitReached    = "limit_reached"
	StatusLoggedOut       = "logged_out"
)

type LoginDTO struct {
	DeviceID   string `json:"device_id" binding:"required"`
	DeviceName string `json:"device_name"`
	FullName   string `json:"full_name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Force      bool   `json:"force"`
}

// SessionInfo is the projection of an active session returned to clients.
type SessionInfo struct {
	DeviceID   string    `json:"device_id"`
	DeviceName string    `json:"device_name"`
	CreatedAt  time.Time `json:"created_at"`
	LastActive time.Time `json:"last_active"`
}

// DeviceInfo is the device-list projection of an active session.
type DeviceInfo struct {
	DeviceID   string    `json:"device_id"`
	DeviceName string    `json:"device_name"`
	LastActive time.Time `json:"last_active"`
	IsCurrent  bool      `json:"is_current"`
}

// LoginResult is the engine's admission decision.
type LoginResult struct {
	Status         string
	User           *models.User
	ActiveSessions []SessionInfo
	Message        string
}

// LogoutResult reports a deactivation, including the idempotent
// already-logged-out case.
type LogoutResult struct {
	DeviceID string
	Already  bool
}

type loginResponse struct {
	Status         string        `json:"status"`
	User           *models.User  `json:"user,omitempty"`
	ActiveSessions []SessionInfo `json:"active_sessions,omitempty"`
	Message        string        `json:"message,omitempty"`
}

type sessionsResponse struct {
	Sessions []SessionInfo `json:"sessions"`
	Count    int           `json:"count"`
}

type devicesResponse struct {
	Devices    []DeviceInfo `json:"devices"`
	TotalCount int          `json:"total_count"`
}

var (
	errUserNotFound    = errors.New("user not found")
	errSessionNotFound = errors.New("session not found")
)
