package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/n-device/core/internal/models"
	"github.com/n-device/core/internal/store"
	"go.uber.org/zap"
)

const purgeTimeout = 5 * time.Second

// Service is the session admission engine. It decides whether a candidate
// device login is accepted, rejected, reactivated, or evicts another device,
// and keeps the active-session set within the user's device limit. All state
// lives in the injected stores; the service itself holds none.
type Service struct {
	users        store.UserStore
	sessions     store.SessionStore
	defaultLimit int
	log          *zap.Logger
}

func NewService(users store.UserStore, sessions store.SessionStore, defaultLimit int, log *zap.Logger) *Service {
	if defaultLimit <= 0 {
		defaultLimit = models.DefaultDeviceLimit
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{users: users, sessions: sessions, defaultLimit: defaultLimit, log: log}
}

// Login runs the admission policy for one (user, device) candidate.
func (s *Service) Login(ctx context.Context, userID string, dto *LoginDTO) (*LoginResult, error) {
	now := time.Now().UTC()

	user, err := s.upsertUser(ctx, userID, dto, now)
	if err != nil {
		return nil, err
	}

	existing, err := s.sessions.FindByUserDevice(ctx, userID, dto.DeviceID)
	if err != nil {
		return nil, err
	}

	active, err := s.sessions.ListActive(ctx, userID)
	if err != nil {
		return nil, err
	}

	// A device that is already in the active set does not count as new:
	// refresh it and report idempotent success without touching the count.
	// Membership is decided against the set, not the record's own flag, so
	// an unflagged pre-migration record superseded by flagged sessions
	// still faces the limit check below.
	if existing != nil && deviceInSet(active, dto.DeviceID) {
		if err := s.refresh(ctx, existing, dto.DeviceName, now); err != nil {
			return nil, err
		}
		return &LoginResult{Status: StatusAlreadyLoggedIn, User: user}, nil
	}

	limit := user.DeviceLimit
	if limit <= 0 {
		limit = s.defaultLimit
	}

	if len(active) >= limit {
		if !dto.Force {
			return &LoginResult{
				Status:         StatusLimitReached,
				ActiveSessions: toSessionInfos(active),
				Message:        fmt.Sprintf("Already %d devices logged in!", limit),
			}, nil
		}
		victim := leastRecentlyActive(active)
		if err := s.sessions.Deactivate(ctx, victim.UserID, victim.DeviceID, now); err != nil {
			return nil, err
		}
		s.log.Info("evicted least-recently-active device",
			zap.String("user_id", userID),
			zap.String("evicted_device_id", victim.DeviceID),
			zap.String("for_device_id", dto.DeviceID),
		)
	}

	if existing != nil {
		// Reactivation path: reuse the record, created_at is preserved.
		if err := s.refresh(ctx, existing, dto.DeviceName, now); err != nil {
			return nil, err
		}
	} else {
		sess := &models.Session{
			SessionID:  uuid.New().String(),
			UserID:     userID,
			DeviceID:   dto.DeviceID,
			DeviceName: dto.DeviceName,
			IsActive:   models.BoolPtr(true),
			CreatedAt:  now,
			LastActive: now,
		}
		err := s.sessions.Insert(ctx, sess)
		if errors.Is(err, store.ErrDuplicate) {
			// Lost an insert race against another login from the same
			// device; fall back to refreshing the winner's record.
			err = s.sessions.Reactivate(ctx, userID, dto.DeviceID, sess.SessionID, dto.DeviceName, now)
		}
		if err != nil {
			return nil, err
		}
	}

	s.enforceLimit(ctx, userID, dto.DeviceID, limit, now)

	return &LoginResult{Status: StatusLoggedIn, User: user}, nil
}

// Logout deactivates the device's session. Already-inactive records report
// idempotent success; unknown devices are an error.
func (s *Service) Logout(ctx context.Context, deviceID string) (*LogoutResult, error) {
	sess, err := s.sessions.FindByDevice(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, errSessionNotFound
	}
	if sess.Revoked() {
		return &LogoutResult{DeviceID: deviceID, Already: true}, nil
	}

	if err := s.sessions.Deactivate(ctx, sess.UserID, deviceID, time.Now().UTC()); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errSessionNotFound
		}
		return nil, err
	}

	go s.purgeSuperseded(sess.UserID, deviceID, sess.SessionID)

	return &LogoutResult{DeviceID: deviceID}, nil
}

// ActiveSessions returns the user's active session set, newest first.
func (s *Service) ActiveSessions(ctx context.Context, userID string) ([]SessionInfo, error) {
	active, err := s.sessions.ListActive(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toSessionInfos(active), nil
}

// Devices projects the active set into a device list. The user must exist;
// an empty device list is a valid result.
func (s *Service) Devices(ctx context.Context, userID, currentDeviceID string) ([]DeviceInfo, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errUserNotFound
	}

	active, err := s.sessions.ListActive(ctx, userID)
	if err != nil {
		return nil, err
	}

	devices := make([]DeviceInfo, 0, len(active))
	for i := range active {
		sess := &active[i]
		devices = append(devices, DeviceInfo{
			DeviceID:   sess.DeviceID,
			DeviceName: sess.DisplayName(),
			LastActive: sess.LastSeen(),
			IsCurrent:  currentDeviceID != "" && sess.DeviceID == currentDeviceID,
		})
	}
	return devices, nil
}

// upsertUser refreshes the profile of an existing user or creates a new one
// with the default device limit. The limit itself is never overwritten by a
// login payload.
func (s *Service) upsertUser(ctx context.Context, userID string, dto *LoginDTO, now time.Time) (*models.User, error) {
	patch := models.UserPatch{FullName: &dto.FullName, Email: &dto.Email, Phone: &dto.Phone}

	user, err := s.users.UpdateProfile(ctx, userID, patch, now)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}

	user = &models.User{
		UserID:      userID,
		FullName:    dto.FullName,
		Email:       dto.Email,
		Phone:       dto.Phone,
		DeviceLimit: s.defaultLimit,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err = s.users.Create(ctx, user)
	if errors.Is(err, store.ErrDuplicate) {
		// Raced a concurrent first login for the same user.
		return s.users.UpdateProfile(ctx, userID, patch, now)
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// refresh reactivates (or touches) the pair's record, assigning a session_id
// to pre-migration records that never had one.
func (s *Service) refresh(ctx context.Context, sess *models.Session, deviceName string, now time.Time) error {
	sessionID := sess.SessionID
	if sessionID == "" {
		sessionID = uuid.New().String()
	}
	return s.sessions.Reactivate(ctx, sess.UserID, sess.DeviceID, sessionID, deviceName, now)
}

// enforceLimit re-checks the active set after an activation commits. Two
// logins for the same user can race past the count check; the overflow is
// corrected here by evicting least-recently-active sessions, never the one
// just activated.
func (s *Service) enforceLimit(ctx context.Context, userID, justActivated string, limit int, now time.Time) {
	active, err := s.sessions.ListActive(ctx, userID)
	if err != nil {
		s.log.Warn("post-login limit re-check failed", zap.String("user_id", userID), zap.Error(err))
		return
	}
	if len(active) <= limit {
		return
	}

	candidates := make([]models.Session, 0, len(active))
	for _, sess := range active {
		if sess.DeviceID != justActivated {
			candidates = append(candidates, sess)
		}
	}
	sortByEvictionOrder(candidates)

	overflow := len(active) - limit
	if overflow > len(candidates) {
		overflow = len(candidates)
	}
	for _, victim := range candidates[:overflow] {
		if err := s.sessions.Deactivate(ctx, victim.UserID, victim.DeviceID, now); err != nil {
			s.log.Warn("overflow eviction failed",
				zap.String("user_id", userID),
				zap.String("device_id", victim.DeviceID),
				zap.Error(err),
			)
			continue
		}
		s.log.Warn("corrected device limit overflow after concurrent login",
			zap.String("user_id", userID),
			zap.String("evicted_device_id", victim.DeviceID),
		)
	}
}

// purgeSuperseded is the best-effort cleanup sweep after a logout. It runs
// detached from the request and is not required for correctness.
func (s *Service) purgeSuperseded(userID, deviceID, keepSessionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), purgeTimeout)
	defer cancel()

	n, err := s.sessions.PurgeInactive(ctx, userID, deviceID, keepSessionID)
	if err != nil {
		s.log.Warn("session purge failed",
			zap.String("user_id", userID),
			zap.String("device_id", deviceID),
			zap.Error(err),
		)
		return
	}
	if n > 0 {
		s.log.Info("purged superseded sessions",
			zap.String("user_id", userID),
			zap.String("device_id", deviceID),
			zap.Int64("count", n),
		)
	}
}

// deviceInSet reports whether the device has a session in the given set.
func deviceInSet(sessions []models.Session, deviceID string) bool {
	for i := range sessions {
		if sessions[i].DeviceID == deviceID {
			return true
		}
	}
	return false
}

// leastRecentlyActive picks the eviction victim: minimum last_active, ties
// broken by earlier created_at, then device_id, so eviction is deterministic.
func leastRecentlyActive(active []models.Session) *models.Session {
	candidates := make([]models.Session, len(active))
	copy(candidates, active)
	sortByEvictionOrder(candidates)
	return &candidates[0]
}

func sortByEvictionOrder(sessions []models.Session) {
	sort.Slice(sessions, func(i, j int) bool {
		a, b := &sessions[i], &sessions[j]
		if !a.LastSeen().Equal(b.LastSeen()) {
			return a.LastSeen().Before(b.LastSeen())
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.DeviceID < b.DeviceID
	})
}

func toSessionInfos(sessions []models.Session) []SessionInfo {
	infos := make([]SessionInfo, 0, len(sessions))
	for i := range sessions {
		sess := &sessions[i]
		infos = append(infos, SessionInfo{
			DeviceID:   sess.DeviceID,
			DeviceName: sess.DeviceName,
			CreatedAt:  sess.CreatedAt,
			LastActive: sess.LastSeen(),
		})
	}
	return infos
}
