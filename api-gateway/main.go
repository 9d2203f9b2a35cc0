package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	fiberSwagger "github.com/swaggo/fiber-swagger"

	_ "streamshare/api-gateway/docs"
	"streamshare/api-gateway/handlers"
	"streamshare/api-gateway/middleware"
	"streamshare/config"
	"streamshare/internal/auth"
	"streamshare/internal/pipeline"
)

// @title StreamShare API
// @version 1.0
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	log := config.NewLogger(cfg, "api-gateway")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := config.NewDocumentStore(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize document store")
	}
	defer closeStore()

	objects, err := config.NewObjectStore(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize object store")
	}
	verifier, err := config.NewTokenVerifier(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize Firebase auth")
	}

	h := handlers.NewApplicationHandler(
		pipeline.NewIntake(objects, store, cfg.RawBucket, cfg.UploadURLTTL, log),
		pipeline.NewQuery(store, log),
		pipeline.NewUsers(store, log),
		log,
	)
	app := newApp(cfg, h, verifier, log)

	go func() {
		<-ctx.Done()
		log.Info("Shutting down API Gateway...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.WithError(err).Warn("Shutdown incomplete")
		}
	}()

	log.WithField("address", cfg.Address).Info("Starting API Gateway")
	if err := app.Listen(cfg.Address); err != nil {
		log.WithError(err).Fatal("API Gateway stopped")
	}
}

func newApp(cfg *config.Configuration, h *handlers.ApplicationHandler, verifier auth.TokenVerifier, log *logrus.Logger) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(middleware.RequestLogger(log))

	app.Get("/health", handlers.Health)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	app.Get("/swagger/*", fiberSwagger.WrapHandler)

	apiV1 := app.Group("/api/v1", middleware.Authenticate(verifier, log))
	h.Register(apiV1)
	return app
}
