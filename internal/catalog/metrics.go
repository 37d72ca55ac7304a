package catalog

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// resolveDuration tracks the time taken for a full grid resolution.
	resolveDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_resolve_duration_seconds",
		Help:    "Time taken to resolve a price grid by outcome",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"outcome"}) // outcome: ok, invalid, error

	// stageDuration tracks the time taken by each resolution stage.
	stageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_stage_duration_seconds",
		Help:    "Time taken by each price grid stage",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}, []string{"stage"}) // stage: load, override, gap_fill, assemble

	// gridItems tracks the number of items per resolved grid.
	gridItems = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "catalog_grid_items_count",
		Help:    "Number of items in resolved price grids",
		Buckets: []float64{0, 1, 10, 50, 100, 500, 1000},
	})

	// derivedCells counts cells written by the override and gap-fill passes.
	derivedCells = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_derived_cells_total",
		Help: "Total number of price cells derived by pass",
	}, []string{"pass"})

	// cacheHits tracks grid cache hits.
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_grid_cache_hits_total",
		Help: "Total number of price grid cache hits",
	})

	// cacheMisses tracks grid cache misses.
	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_grid_cache_misses_total",
		Help: "Total number of price grid cache misses",
	})

	// cacheEntries tracks the number of cached grids.
	cacheEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "catalog_grid_cache_entries",
		Help: "Number of price grids currently cached",
	})

	// breakerState tracks the source circuit breaker state (0 closed, 1 open, 2 half-open).
	breakerState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "catalog_source_breaker_state",
		Help: "State of the catalog source circuit breaker",
	})
)

// MetricsRecorder provides methods to record catalog metrics.
type MetricsRecorder struct{}

// NewMetricsRecorder creates a new metrics recorder.
func NewMetricsRecorder() *MetricsRecorder {
	return &MetricsRecorder{}
}

// RecordResolve records a resolve operation.
func (m *MetricsRecorder) RecordResolve(outcome string, duration time.Duration) {
	resolveDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// RecordStage records the duration of a single stage.
func (m *MetricsRecorder) RecordStage(stage string, duration time.Duration) {
	stageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordGridItems records the number of items in a grid.
func (m *MetricsRecorder) RecordGridItems(count int) {
	gridItems.Observe(float64(count))
}

// RecordDerivedCells records cells derived by a pass.
func (m *MetricsRecorder) RecordDerivedCells(pass string, count int) {
	derivedCells.WithLabelValues(pass).Add(float64(count))
}

// RecordCacheHit records a grid cache hit.
func (m *MetricsRecorder) RecordCacheHit() {
	cacheHits.Inc()
}

// RecordCacheMiss records a grid cache miss.
func (m *MetricsRecorder) RecordCacheMiss() {
	cacheMisses.Inc()
}

// RecordCacheEntries records the current cache size.
func (m *MetricsRecorder) RecordCacheEntries(count int) {
	cacheEntries.Set(float64(count))
}

// RecordBreakerState records the circuit breaker state.
func (m *MetricsRecorder) RecordBreakerState(state CircuitBreakerState) {
	breakerState.Set(float64(state))
}
