package store

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// SimpleMetricsCollector provides basic in-memory metrics collection for
// store operations.
type SimpleMetricsCollector struct {
	metrics []Metric
	mutex   sync.RWMutex
}

// NewSimpleMetricsCollector creates a new simple metrics collector.
func NewSimpleMetricsCollector() *SimpleMetricsCollector {
	return &SimpleMetricsCollector{metrics: make([]Metric, 0)}
}

// RecordMetric records a store operation metric.
func (s *SimpleMetricsCollector) RecordMetric(metric Metric) {
	s.mutex.Lock()
	s.metrics = append(s.metrics, metric)
	s.mutex.Unlock()

	logger := log.With().
		Str("operation", metric.Operation).
		Str("backend", metric.Backend).
		Int64("duration_ns", metric.Duration).
		Bool("success", metric.Success).
		Logger()
	if metric.Error != nil {
		logger = logger.With().Err(metric.Error).Logger()
	}
	logger.Debug().Msg("Store operation metric recorded")
}

// GetMetrics returns a copy of all collected metrics.
func (s *SimpleMetricsCollector) GetMetrics() []Metric {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	result := make([]Metric, len(s.metrics))
	copy(result, s.metrics)
	return result
}

// OperationStats aggregates one operation's metrics.
type OperationStats struct {
	Count         int64
	SuccessCount  int64
	TotalDuration int64
}

// Summary aggregates collected metrics per backend and operation.
func (s *SimpleMetricsCollector) Summary() map[string]map[string]*OperationStats {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	byBackend := make(map[string]map[string]*OperationStats)
	for _, metric := range s.metrics {
		if byBackend[metric.Backend] == nil {
			byBackend[metric.Backend] = make(map[string]*OperationStats)
		}
		stats := byBackend[metric.Backend][metric.Operation]
		if stats == nil {
			stats = &OperationStats{}
			byBackend[metric.Backend][metric.Operation] = stats
		}
		stats.Count++
		stats.TotalDuration += metric.Duration
		if metric.Success {
			stats.SuccessCount++
		}
	}
	return byBackend
}

// record is the helper backends call around each operation.
// record is deferred by the store backends with a pointer to their named
// error return, so the metric reflects the outcome rather than the zero value
// captured at defer time.
func record(collector MetricsCollector, backend, operation string, start time.Time, err *error) {
	if collector == nil {
		return
	}
	collector.RecordMetric(Metric{
		Operation: operation,
		Backend:   backend,
		Duration:  time.Since(start).Nanoseconds(),
		Success:   *err == nil,
		Error:     *err,
	})
}
