package models

import (
	"testing"
	"time"
)

func TestSessionActivityFlag(t *testing.T) {
	tests := []struct {
		name        string
		flag        *bool
		wantActive  bool
		wantRevoked bool
	}{
		{name: "flagged active", flag: BoolPtr(true), wantActive: true},
		{name: "flagged inactive", flag: BoolPtr(false), wantRevoked: true},
		{name: "legacy unflagged", flag: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Session{IsActive: tt.flag}
			if s.Active() != tt.wantActive {
				t.Fatalf("Active() = %v, want %v", s.Active(), tt.wantActive)
			}
			if s.Revoked() != tt.wantRevoked {
				t.Fatalf("Revoked() = %v, want %v", s.Revoked(), tt.wantRevoked)
			}
		})
	}
}

func TestSessionLastSeenFallback(t *testing.T) {
	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	s := Session{CreatedAt: created}
	if !s.LastSeen().Equal(created) {
		t.Fatalf("expected created_at fallback, got %v", s.LastSeen())
	}

	s.LastActive = created.Add(time.Hour)
	if !s.LastSeen().Equal(created.Add(time.Hour)) {
		t.Fatalf("expected last_active, got %v", s.LastSeen())
	}
}

func TestSessionDisplayName(t *testing.T) {
	s := Session{}
	if s.DisplayName() != UnknownDeviceName {
		t.Fatalf("expected %q, got %q", UnknownDeviceName, s.DisplayName())
	}
	s.DeviceName = "Pixel 9"
	if s.DisplayName() != "Pixel 9" {
		t.Fatalf("expected device name, got %q", s.DisplayName())
	}
}

func TestUserPatchApply(t *testing.T) {
	name := "Grace Hopper"
	now := time.Now().UTC()

	u := User{FullName: "Ada", Email: "ada@example.com", Phone: "1", DeviceLimit: 3}
	u.Apply(UserPatch{FullName: &name}, now)

	if u.FullName != name {
		t.Fatalf("expected name applied, got %q", u.FullName)
	}
	if u.Email != "ada@example.com" || u.Phone != "1" {
		t.Fatal("expected untouched fields preserved")
	}
	if !u.UpdatedAt.Equal(now) {
		t.Fatalf("expected updated_at bumped to %v, got %v", now, u.UpdatedAt)
	}
}
