package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"pdfpages/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Handlers stay thin; all business logic lives in the service layer.
func RegisterRoutes(app *fiber.App, db *sql.DB, docSvc service.DocumentService, pageSvc service.PageService) {
	// Liveness endpoints never touch dependencies; DB connectivity is a
	// readiness concern on its own path
	app.Get("/health", HealthCheck())
	app.Get("/healthz", LivenessProbe())
	app.Get("/ready", ReadinessCheck(db))

	v1 := app.Group("/v1")

	v1.Post("/upload", UploadDocument(docSvc))

	v1.Get("/documents", ListDocuments(docSvc))
	v1.Get("/documents/:id", GetDocument(docSvc))

	// Raw cached image; the ".png" suffix is part of the route pattern
	v1.Get("/docs/:doc_id/pages/:page.png", GetPagePNG(pageSvc))

	// Quota-gated HTML viewer
	v1.Get("/docs/:doc_id/page/:page", ViewPage(pageSvc))
}
