package server

import (
	"time"

	"github.com/Yash-Ainapure/walstar-task/internal/auth"
	"github.com/Yash-Ainapure/walstar-task/internal/config"
	"github.com/Yash-Ainapure/walstar-task/internal/match"
	"github.com/Yash-Ainapure/walstar-task/internal/reconstruct"
	"github.com/Yash-Ainapure/walstar-task/internal/route"
	"github.com/Yash-Ainapure/walstar-task/internal/users"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App     *fiber.App
	Cfg     config.Config
	DB      *pgxpool.Pool
	Redis   *redis.Client
	started time.Time
}

func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client) *Server {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	s := &Server{
		App:     app,
		Cfg:     cfg,
		DB:      db,
		Redis:   redisClient,
		started: time.Now(),
	}

	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Keep-alive target for external uptime pingers on free hosting tiers.
	s.App.Get("/cron/ping", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "alive",
			"uptime": time.Since(s.started).Round(time.Second).String(),
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	})

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)

	matcher := match.NewClient(
		s.Cfg.OSRMBaseURL,
		s.Cfg.OSRMProfile,
		time.Duration(s.Cfg.OSRMTimeoutMS)*time.Millisecond,
		s.Cfg.MatchMaxPoints,
		s.Cfg.MatchRadiusM,
	)
	builder := reconstruct.New(matcher, s.Redis, time.Duration(s.Cfg.RouteCacheTTLSec)*time.Second)

	userService := users.NewService(s.DB)
	store := route.NewStore(s.DB, s.Cfg.BucketTZOffsetMin)

	auth.RegisterRoutes(s.App.Group("/auth"), auth.NewService(s.Cfg.JWTSecret, s.Cfg.JWTExpirySec, s.DB))
	users.RegisterRoutes(s.App.Group("/users"), userService, jwtMiddleware)
	route.RegisterRoutes(s.App.Group("/routes"), store, builder, userService, jwtMiddleware)
}
