package main

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pdfpages/docs"
	"pdfpages/internal/config"
	"pdfpages/internal/database"
	"pdfpages/internal/database/migration"
	handlers "pdfpages/internal/http/handler"
	"pdfpages/internal/http/middleware"
	"pdfpages/internal/otel"
	"pdfpages/internal/quota"
	"pdfpages/internal/render"
	"pdfpages/internal/repository/postgres"
	"pdfpages/internal/service"
	"pdfpages/internal/storage"
)

// @title pdfpages API
// @version 1.0
// @BasePath /
func main() {
	// Bare flags: all JSON-line log output carries its own timestamp
	log.SetFlags(0)

	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	loc := time.UTC

	ctx := context.Background()

	// Tracing (no-op when OTEL_SDK_DISABLED=true or no exporter is reachable)
	shutdownTracing, err := otel.Init(ctx, loc)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer shutdownTracing(context.Background())

	// PostgreSQL metadata catalog (with pooling via database/sql)
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, loc, cfg.Database.Host); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// On-disk layout: documents, rendered page cache, quota ledger
	layout, err := storage.NewLayout(cfg.Storage.DataDir)
	if err != nil {
		log.Fatalf("failed to resolve data dir: %v", err)
	}
	if err := layout.EnsureDirs(); err != nil {
		log.Fatalf("failed to create data dirs: %v", err)
	}
	store := storage.NewDocumentStore(layout)

	// Optional S3-compatible upload mirror
	var mirror storage.Mirror
	if cfg.MinIO.Endpoint != "" {
		mirror, err = storage.NewMinIOMirror(cfg.MinIO)
		if err != nil {
			log.Fatalf("failed to initialize upload mirror: %v", err)
		}
	}

	// Quota gate over the configured counter backend
	var counterStore quota.Store
	switch cfg.Quota.Backend {
	case "redis":
		redisStore, err := quota.NewRedisStore(ctx, cfg.Quota.Redis)
		if err != nil {
			log.Fatalf("failed to connect to redis quota store: %v", err)
		}
		defer redisStore.Close()
		counterStore = redisStore
	case "file":
		counterStore = quota.NewFileStore(layout.QuotaPath())
	default:
		log.Fatalf("unknown quota backend %q", cfg.Quota.Backend)
	}
	gate := quota.NewGate(counterStore, cfg.Quota.FreeDailyLimit)

	// Render pipeline: pdftoppm behind the page cache
	registry := prometheus.NewRegistry()
	renderMetrics, err := render.NewMetrics(registry)
	if err != nil {
		log.Fatalf("failed to register render metrics: %v", err)
	}
	rasterizer := render.NewPdftoppm(cfg.Render.PdftoppmPath)
	engine := render.NewEngine(layout, rasterizer, cfg.Render.DPI,
		time.Duration(cfg.Render.TimeoutSec)*time.Second, renderMetrics)

	// Repositories and services
	docRepo := postgres.NewDocumentPostgres(db)
	docSvc := service.NewDocumentService(store, layout, docRepo, mirror, loc)
	pageSvc := service.NewPageService(store, engine, gate)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    100 * 1024 * 1024, // PDFs can be large
	})

	// Register global middleware
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(loc))
	app.Use(otelfiber.Middleware())

	promMiddleware, err := middleware.NewPrometheusMiddleware(registry)
	if err != nil {
		log.Fatalf("failed to register http metrics: %v", err)
	}
	app.Use(promMiddleware.Handler())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	// Register HTTP routes with injected services
	handlers.RegisterRoutes(app, db, docSvc, pageSvc)

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	addr := ":" + cfg.Server.Port

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
