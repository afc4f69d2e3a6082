package api

import (
	"github.com/gofiber/fiber/v2"
)

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, h *Handlers, metrics *MetricsHandler) {
	// Health check
	app.Get("/health", h.Health)

	// API v1 routes
	v1 := app.Group("/api/v1")

	// Document routes
	docs := v1.Group("/documents")
	docs.Post("/", h.UploadDocument)
	docs.Get("/", h.ListDocuments)
	docs.Get("/search", h.SearchDocuments)
	docs.Post("/merge", h.MergeDocuments)
	docs.Get("/:id", h.GetDocument)
	docs.Put("/:id/file", h.ReplaceDocument)
	docs.Post("/:id/reprocess", h.ReprocessDocument)
	docs.Delete("/:id", h.DeleteDocument)

	// Version routes
	docs.Post("/:id/versions", h.UploadVersion)
	docs.Get("/:id/versions", h.ListVersions)

	// Monitoring routes
	if metrics != nil {
		monitoring := v1.Group("/metrics")
		monitoring.Get("/", metrics.GetMetrics)
		monitoring.Get("/summary", metrics.GetSummary)
	}

	// Root redirect
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service": "LexVault",
			"version": "0.1.0",
		})
	})
}
