package session

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/n-device/core/internal/middleware"
	"github.com/n-device/core/internal/pkg/response"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/login/:userId", h.login)
	rg.POST("/logout/:deviceId", h.logout)
	rg.GET("/sessions/:userId", h.listSessions)
	rg.GET("/devices/:userId", h.listDevices)
}

func (h *Handler) login(c *gin.Context) {
	userID := pathParam(c, "userId")
	if userID == "" {
		response.BadRequest(c, "user_id is required")
		return
	}

	var dto LoginDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.svc.Login(c.Request.Context(), userID, &dto)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, loginResponse{
		Status:         result.Status,
		User:           result.User,
		ActiveSessions: result.ActiveSessions,
		Message:        result.Message,
	})
}

func (h *Handler) logout(c *gin.Context) {
	deviceID := pathParam(c, "deviceId")
	if deviceID == "" {
		response.BadRequest(c, "device_id is required")
		return
	}

	result, err := h.svc.Logout(c.Request.Context(), deviceID)
	if err != nil {
		if errors.Is(err, errSessionNotFound) {
			response.NotFoundMsg(c, "session not found")
			return
		}
		response.InternalError(c, fmt.Errorf("logout failed: %w", err))
		return
	}

	message := "Logged out successfully"
	if result.Already {
		message = "Device already logged out"
	}
	response.OK(c, gin.H{
		"status":    StatusLoggedOut,
		"device_id": result.DeviceID,
		"message":   message,
	})
}

func (h *Handler) listSessions(c *gin.Context) {
	sessions, err := h.svc.ActiveSessions(c.Request.Context(), pathParam(c, "userId"))
	if err != nil {
		response.InternalError(c, fmt.Errorf("list sessions failed: %w", err))
		return
	}
	response.OK(c, sessionsResponse{Sessions: sessions, Count: len(sessions)})
}

func (h *Handler) listDevices(c *gin.Context) {
	userID := pathParam(c, "userId")
	devices, err := h.svc.Devices(c.Request.Context(), userID, c.GetHeader(middleware.HeaderDeviceID))
	if err != nil {
		if errors.Is(err, errUserNotFound) {
			response.NotFoundMsg(c, "User not found")
			return
		}
		response.InternalError(c, fmt.Errorf("list devices failed: %w", err))
		return
	}
	response.OK(c, devicesResponse{Devices: devices, TotalCount: len(devices)})
}

// pathParam returns the named route parameter with URL escapes resolved, so
// encoded identifiers survive the trip through the path.
func pathParam(c *gin.Context, name string) string {
	raw := strings.TrimSpace(c.Param(name))
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}
