package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/spotit-app/spotit-api/internal/container"
	handlers "github.com/spotit-app/spotit-api/internal/interface/http"
	"github.com/spotit-app/spotit-api/internal/interface/middleware"
	"github.com/spotit-app/spotit-api/pkg/helpers"
)

// UserModule wires user HTTP handlers and auth middleware into routes.
// Public: POST /api/users/register, POST /api/users/login,
// POST /api/refresh, GET /api/users/rank
// Protected: POST /api/logout, GET /api/users/me

type UserModule struct {
	Handler *handlers.UserHandler
	JWT     *helpers.JWTManager
}

func NewUserModule(h *handlers.UserHandler, jwt *helpers.JWTManager) *UserModule {
	return &UserModule{Handler: h, JWT: jwt}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	registerLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByIP(), nil)
	loginLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByIP(), nil)
	refreshLimiter := middleware.RateLimit(container.GetRedis(), 60, time.Minute, middleware.KeyByIP(), nil)

	rg.POST("/users/register", registerLimiter, m.Handler.Register)
	rg.POST("/users/login", loginLimiter, m.Handler.Login)
	rg.POST("/refresh", refreshLimiter, m.Handler.Refresh)
	rg.GET("/users/rank", m.Handler.Rank)

	auth := rg.Group("/")
	auth.Use(middleware.Auth(container.GetRedis(), m.JWT))
	auth.Use(middleware.RateLimit(container.GetRedis(), 300, time.Minute, middleware.KeyByIP(), nil))
	{
		auth.POST("/logout", m.Handler.Logout)
		auth.GET("/users/me", m.Handler.GetProfile)
	}
}
