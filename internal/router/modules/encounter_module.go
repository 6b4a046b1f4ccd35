package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/spotit-app/spotit-api/internal/container"
	handlers "github.com/spotit-app/spotit-api/internal/interface/http"
	"github.com/spotit-app/spotit-api/internal/interface/middleware"
	"github.com/spotit-app/spotit-api/pkg/helpers"
)

// EncounterModule wires encounter registration behind authentication.
// Registration gets a tight per-user limiter since every call fans out
// to storage and the validator.

type EncounterModule struct {
	Handler *handlers.EncounterHandler
	JWT     *helpers.JWTManager
}

func NewEncounterModule(h *handlers.EncounterHandler, jwt *helpers.JWTManager) *EncounterModule {
	return &EncounterModule{Handler: h, JWT: jwt}
}

func (m *EncounterModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/")
	auth.Use(middleware.Auth(container.GetRedis(), m.JWT))
	{
		auth.POST("/encounters",
			middleware.RateLimit(container.GetRedis(), 30, time.Minute, middleware.KeyByUserID(), nil),
			m.Handler.Register)
		auth.GET("/encounters", m.Handler.List)
	}
}
