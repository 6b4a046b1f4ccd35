package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/spotit-app/spotit-api/internal/container"
	handlers "github.com/spotit-app/spotit-api/internal/interface/http"
	"github.com/spotit-app/spotit-api/internal/interface/middleware"
	"github.com/spotit-app/spotit-api/pkg/helpers"
)

// WallyModule wires the wally catalogue routes. Reads are public,
// writes require an authenticated session.

type WallyModule struct {
	Handler *handlers.WallyHandler
	JWT     *helpers.JWTManager
}

func NewWallyModule(h *handlers.WallyHandler, jwt *helpers.JWTManager) *WallyModule {
	return &WallyModule{Handler: h, JWT: jwt}
}

func (m *WallyModule) Register(rg *gin.RouterGroup) {
	rl := middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByIP(), nil)

	rg.GET("/wallies", rl, m.Handler.List)
	rg.GET("/wallies/search", rl, m.Handler.Search)
	rg.GET("/wallies/roles", rl, m.Handler.ListRoles)

	auth := rg.Group("/")
	auth.Use(middleware.Auth(container.GetRedis(), m.JWT))
	{
		auth.GET("/wallies/:id", m.Handler.Get)
		auth.POST("/wallies", m.Handler.Create)
		auth.POST("/wallies/roles", m.Handler.CreateRole)
	}
}
