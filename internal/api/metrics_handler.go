package api

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/lexvault/lexvault/internal/store"
)

// MetricsHandler exposes store operation metrics for monitoring.
type MetricsHandler struct {
	collector *store.SimpleMetricsCollector
}

// NewMetricsHandler creates a metrics handler around the store's collector.
func NewMetricsHandler(collector *store.SimpleMetricsCollector) *MetricsHandler {
	return &MetricsHandler{collector: collector}
}

// GetMetrics returns the raw operation metrics.
func (m *MetricsHandler) GetMetrics(c *fiber.Ctx) error {
	metrics := m.collector.GetMetrics()
	out := make([]fiber.Map, 0, len(metrics))
	for _, metric := range metrics {
		entry := fiber.Map{
			"operation":   metric.Operation,
			"backend":     metric.Backend,
			"duration_ms": time.Duration(metric.Duration).Milliseconds(),
			"success":     metric.Success,
		}
		if metric.Error != nil {
			entry["error"] = metric.Error.Error()
		}
		out = append(out, entry)
	}
	return c.JSON(fiber.Map{
		"metrics": out,
		"count":   len(out),
	})
}

// GetSummary returns per-backend aggregate statistics.
func (m *MetricsHandler) GetSummary(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"summary":   m.collector.Summary(),
		"timestamp": time.Now().UTC(),
	})
}
