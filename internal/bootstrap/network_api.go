package bootstrap

import (
	"context"
	"strings"
	"time"

	"network_server/adapter/in/http"
	"network_server/config"
	"network_server/core/domain"
	"network_server/infra/middleware"
	"network_server/pkg/logger"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func NewAPI(ctx context.Context, cfg *config.Config) (*fiber.App, func(), error) {
	deps, cleanup, err := NewDependencies(ctx, cfg)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize dependencies")
		return nil, nil, err
	}

	app := fiber.New(fiber.Config{
		ErrorHandler:          middleware.ErrorHandler(),
		DisableStartupMessage: cfg.IsProduction(),
		StrictRouting:         false,
		CaseSensitive:         false,
		ReadBufferSize:        16384,
		WriteBufferSize:       16384,
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		BodyLimit:             1 * 1024 * 1024,
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          15 * time.Second,
		ServerHeader:          "",
	})

	app.Use(middleware.Recover())
	app.Use(middleware.RequestID())
	app.Use(middleware.SecurityHeaders())
	app.Use(middleware.RequestLogger())
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
	app.Use(cors.New(corsConfig(cfg)))

	// Health checks (no auth)
	http.NewHealthHandler(map[string]http.Pinger{
		"postgres": deps.DB.Ping,
		"redis":    func(ctx context.Context) error { return deps.Redis.Ping(ctx).Err() },
		"mongodb":  func(ctx context.Context) error { return deps.MongoDB.Ping(ctx, nil) },
		"neo4j":    deps.Neo4j.VerifyConnectivity,
	}).Register(app)

	api := app.Group("/api/v1")
	api.Use(middleware.JWTAuth(cfg.JWTSecret, middleware.NewTokenBlacklist(deps.Redis)))
	api.Use(middleware.NewRateLimiter(deps.Redis, cfg.RateLimitPerMinute, time.Minute).Handler())

	http.NewConnectionHandler(deps.ConnectionService, deps.RecommendationService).Register(api)
	http.NewReputationHandler(deps.ReputationEngine, deps.BadgeEvaluator).Register(api)
	http.NewCommunityHandler(deps.CommunityService, deps.ActivityAggregator).Register(api)

	admin := api.Group("/admin", middleware.RequireRole(string(domain.UserRoleAdmin)))
	http.NewAdminHandler(deps.ReputationEngine).Register(admin)

	return app, cleanup, nil
}

// corsConfig never pairs credentials with a wildcard origin.
func corsConfig(cfg *config.Config) cors.Config {
	allowOrigins := strings.Join(cfg.AllowedOrigins, ",")
	allowCredentials := true
	if allowOrigins == "" || allowOrigins == "*" {
		allowCredentials = false
		if cfg.IsProduction() {
			allowOrigins = ""
		} else {
			allowOrigins = "*"
		}
	}
	return cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     "GET,POST,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization,X-Request-ID",
		ExposeHeaders:    "X-Request-ID,X-RateLimit-Limit,X-RateLimit-Remaining,Retry-After",
		AllowCredentials: allowCredentials,
		MaxAge:           86400,
	}
}
