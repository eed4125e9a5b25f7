package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/n-device/core/internal/pkg/response"
	"github.com/n-device/core/internal/store"
	"go.uber.org/zap"
)

// Identity headers carried by every gated request.
const (
	HeaderUserID   = "X-User-ID"
	HeaderDeviceID = "X-Device-ID"
)

// StatusForceLoggedOut marks a request whose session was revoked by a login
// elsewhere; distinct from ordinary authorization failures.
const StatusForceLoggedOut = "force_logged_out"

// SessionGate rejects requests whose (user, device) identity headers no longer
// map to an active session. Requests without both headers pass through
// untouched (authentication itself is out of scope). The login route and
// preflight requests are exempt so a logged-out device can log back in.
func SessionGate(sessions store.SessionStore, log *zap.Logger, skipRoutes ...string) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(skipRoutes))
	for _, route := range skipRoutes {
		skip[route] = struct{}{}
	}

	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}
		if _, ok := skip[c.FullPath()]; ok {
			c.Next()
			return
		}

		userID := c.GetHeader(HeaderUserID)
		deviceID := c.GetHeader(HeaderDeviceID)
		if userID == "" || deviceID == "" {
			c.Next()
			return
		}

		sess, err := sessions.FindByUserDevice(c.Request.Context(), userID, deviceID)
		if err != nil {
			log.Error("session gate lookup failed",
				zap.String("user_id", userID),
				zap.String("device_id", deviceID),
				zap.Error(err),
			)
			response.InternalError(c, err)
			return
		}
		if sess == nil || sess.Revoked() {
			forceLogout(c)
			return
		}

		// Pre-migration records carry no flag; they stay valid only while
		// they remain part of the user's active set, since flagged
		// sessions supersede them.
		if sess.IsActive == nil {
			active, err := sessions.ListActive(c.Request.Context(), userID)
			if err != nil {
				log.Error("session gate lookup failed",
					zap.String("user_id", userID),
					zap.String("device_id", deviceID),
					zap.Error(err),
				)
				response.InternalError(c, err)
				return
			}
			current := false
			for i := range active {
				if active[i].DeviceID == deviceID {
					current = true
					break
				}
			}
			if !current {
				forceLogout(c)
				return
			}
		}

		c.Next()
	}
}

func forceLogout(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
		"status":  StatusForceLoggedOut,
		"message": "You were logged out from another device.",
	})
}
