package user

import (
	"errors"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/n-device/core/internal/models"
	"github.com/n-device/core/internal/pkg/response"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/me/:userId", h.getProfile)
	rg.PATCH("/me/:userId", h.updateProfile)
}

func (h *Handler) getProfile(c *gin.Context) {
	u, err := h.svc.Get(c.Request.Context(), userParam(c))
	if err != nil {
		if errors.Is(err, errUserNotFound) {
			response.NotFoundMsg(c, "User not found")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, u)
}

func (h *Handler) updateProfile(c *gin.Context) {
	var patch models.UserPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	u, err := h.svc.Update(c.Request.Context(), userParam(c), patch)
	if err != nil {
		switch {
		case errors.Is(err, errNoFields):
			response.BadRequest(c, "no updatable fields supplied")
		case errors.Is(err, errUserNotFound):
			response.NotFoundMsg(c, "User not found")
		default:
			response.InternalError(c, err)
		}
		return
	}
	response.OK(c, u)
}

func userParam(c *gin.Context) string {
	raw := strings.TrimSpace(c.Param("userId"))
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}
