package router

import (
	"github.com/spotit-app/spotit-api/internal/application"
	"github.com/spotit-app/spotit-api/internal/container"
	pginfra "github.com/spotit-app/spotit-api/internal/infrastructure/postgres"
	handlers "github.com/spotit-app/spotit-api/internal/interface/http"
	"github.com/spotit-app/spotit-api/internal/router/modules"
)

// InitModules builds every feature module from the container singletons
// and registers it. Called once during startup.
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	pool := container.GetPGPool()
	logger := container.GetLogger()
	pictures := container.GetPictures()

	users := pginfra.NewUserRepository(pool)
	wallies := pginfra.NewWallyRepository(pool)
	encounters := pginfra.NewEncounterRepository(pool)

	userSvc := application.NewUserService(users, encounters, pictures,
		container.GetJWT(), container.GetRedis(), logger)
	wallySvc := application.NewWallyService(wallies, pictures,
		container.GetES(), cfg.ESWalliesIndex, logger)
	encounterSvc := application.NewEncounterService(users, wallies, encounters,
		pictures, container.GetValidator(), container.GetRabbitPub(), logger)

	userHandler := handlers.NewUserHandler(userSvc, logger, cfg.CookieDomain, cfg.CookieSecure, cfg.MaxEncounterUpload)
	wallyHandler := handlers.NewWallyHandler(wallySvc, logger, cfg.MaxEncounterUpload)
	encounterHandler := handlers.NewEncounterHandler(encounterSvc, logger, cfg.MaxEncounterUpload)

	r.Add(modules.NewUserModule(userHandler, container.GetJWT()))
	r.Add(modules.NewWallyModule(wallyHandler, container.GetJWT()))
	r.Add(modules.NewEncounterModule(encounterHandler, container.GetJWT()))
	if cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule())
	}
}
