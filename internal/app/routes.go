package app

import (
	"github.com/gin-gonic/gin"
	"github.com/n-device/core/internal/middleware"
	"github.com/n-device/core/internal/modules/auth/session"
	"github.com/n-device/core/internal/modules/auth/user"
	"github.com/n-device/core/internal/modules/system/health"
	"github.com/n-device/core/internal/pkg/response"
)

const (
	apiPrefix  = "/api/v1"
	loginRoute = apiPrefix + "/auth/login/:userId"
)

func (a *App) registerRoutes() {
	r := a.router

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c)
	})
	r.NoMethod(func(c *gin.Context) {
		response.MethodNotAllowed(c)
	})

	r.GET("/", func(c *gin.Context) {
		response.OK(c, gin.H{
			"name":    "n-device-backend",
			"message": "Welcome to the N-Device Backend API",
		})
	})

	health.RegisterRoutes(r.Group(""), a.client)

	sessionSvc := session.NewService(a.users, a.sessions, a.cfg.DeviceLimit, a.logger)
	userSvc := user.NewService(a.users)

	api := r.Group(apiPrefix)
	if a.rc != nil {
		api.Use(middleware.RateLimit(a.rc.Raw()))
		api.Use(middleware.Idempotence(a.rc.Raw()))
	}
	// The gate exempts the login route so an evicted device can log back in.
	api.Use(middleware.SessionGate(a.sessions, a.logger, loginRoute))

	auth := api.Group("/auth")
	session.NewHandler(sessionSvc).RegisterRoutes(auth)
	user.NewHandler(userSvc).RegisterRoutes(auth)
}
