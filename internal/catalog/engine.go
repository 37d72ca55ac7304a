package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const tracerName = "github.com/bizsuite/catalog-service/internal/catalog"

// Engine resolves price grids from the catalog sources. It holds no per-request
// state and is safe for concurrent use.
type Engine struct {
	sources Sources
	matrix  *ColumnMatrix
	config  *Config
	breaker *CircuitBreaker
	metrics *MetricsRecorder
	logger  zerolog.Logger
	tracer  trace.Tracer
}

// NewEngine creates a new price resolution engine.
func NewEngine(sources Sources, config *Config) *Engine {
	metrics := NewMetricsRecorder()
	logger := log.With().Str("component", "price_engine").Logger()

	return &Engine{
		sources: sources,
		matrix:  config.ColumnMatrix(),
		config:  config,
		breaker: NewCircuitBreaker("catalog_sources", DefaultCircuitBreakerConfig(), metrics, &logger),
		metrics: metrics,
		logger:  logger,
		tracer:  otel.Tracer(tracerName),
	}
}

// Matrix returns the column matrix used by the engine.
func (e *Engine) Matrix() *ColumnMatrix {
	return e.matrix
}

// BreakerState returns the state of the source circuit breaker.
func (e *Engine) BreakerState() CircuitBreakerState {
	return e.breaker.State()
}

// loadResult holds everything read from the sources for one request.
type loadResult struct {
	selected       PriceList
	columns        []string
	codeByList     map[int64]string
	referenceOrder []string
	items          []Item
	observations   []PriceObservation
	differentials  map[int64]decimal.Decimal
}

// Resolve computes the price grid for the request.
func (e *Engine) Resolve(ctx context.Context, req *ResolveRequest) ([]ItemGrid, error) {
	startTime := time.Now()

	if err := req.Validate(); err != nil {
		e.metrics.RecordResolve("invalid", time.Since(startTime))
		return nil, err
	}

	ctx, span := e.tracer.Start(ctx, "catalog.Resolve",
		trace.WithAttributes(attribute.Int64("price_list_id", req.PriceListID)))
	defer span.End()

	grids, err := e.resolve(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.metrics.RecordResolve("error", time.Since(startTime))
		return nil, err
	}

	span.SetAttributes(attribute.Int("items", len(grids)))
	e.metrics.RecordResolve("ok", time.Since(startTime))
	e.metrics.RecordGridItems(len(grids))
	return grids, nil
}

func (e *Engine) resolve(ctx context.Context, req *ResolveRequest) ([]ItemGrid, error) {
	if !e.breaker.Allow() {
		e.logger.Warn().
			Str("circuit_state", e.breaker.State().String()).
			Msg("Circuit breaker rejected source load")
		return nil, ErrSourceUnavailable
	}

	stageStart := time.Now()
	loaded, err := e.load(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrPriceListNotFound):
			e.breaker.RecordSuccess()
		case ctx.Err() != nil:
			e.breaker.Release()
		default:
			e.breaker.RecordFailure(err)
		}
		return nil, err
	}
	e.breaker.RecordSuccess()
	e.metrics.RecordStage("load", time.Since(stageStart))

	grid := BuildGrid(loaded.observations, loaded.codeByList)

	_, overrideSpan := e.tracer.Start(ctx, "catalog.ApplyCostOverride")
	stageStart = time.Now()
	grid, overridden := ApplyCostOverride(grid, loaded.items, loaded.differentials, e.matrix.ExportBaselineCode())
	e.metrics.RecordStage("override", time.Since(stageStart))
	e.metrics.RecordDerivedCells("override", overridden)
	overrideSpan.SetAttributes(attribute.Int("cells", overridden))
	overrideSpan.End()

	_, gapSpan := e.tracer.Start(ctx, "catalog.FillGaps")
	stageStart = time.Now()
	grid, filled := FillGaps(grid, loaded.referenceOrder)
	e.metrics.RecordStage("gap_fill", time.Since(stageStart))
	e.metrics.RecordDerivedCells("gap_fill", filled)
	gapSpan.SetAttributes(attribute.Int("cells", filled))
	gapSpan.End()

	stageStart = time.Now()
	grids := Assemble(grid, loaded.items, AssembleOptions{
		SelectedCode:        loaded.selected.Code,
		Columns:             loaded.columns,
		ExportBaselineCode:  e.config.ExportBaselineCode,
		WholesaleExportCode: e.config.WholesaleExportCode,
		WeightBasedCode:     e.config.WeightBasedCode,
	})
	e.metrics.RecordStage("assemble", time.Since(stageStart))

	e.logger.Debug().
		Int64("price_list_id", req.PriceListID).
		Str("price_code", loaded.selected.Code).
		Int("items", len(loaded.items)).
		Int("observations", len(loaded.observations)).
		Int("overridden", overridden).
		Int("gap_filled", filled).
		Msg("Resolved price grid")

	return grids, nil
}

// load reads the selected list, the matrix lists, items, observations and cost
// differentials. Items and observations are read concurrently; differentials
// wait for the item ids. Any failed read aborts the whole load.
func (e *Engine) load(ctx context.Context, req *ResolveRequest) (*loadResult, error) {
	loadCtx, cancel := context.WithTimeout(ctx, e.config.LoadTimeout)
	defer cancel()

	selected, err := e.sources.Lists.ResolveList(loadCtx, req.PriceListID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve price list %d: %w", req.PriceListID, err)
	}
	// ListsByScope never loads inactive lists
	if !selected.Active {
		return nil, fmt.Errorf("price list %d is inactive: %w", req.PriceListID, ErrPriceListNotFound)
	}

	columns := e.matrix.Columns(selected.Code)
	lists, err := e.sources.Lists.ListsByScope(loadCtx, selected.ScopeID, columns)
	if err != nil {
		return nil, fmt.Errorf("failed to load matrix price lists: %w", err)
	}

	res := &loadResult{
		selected:   selected,
		columns:    columns,
		codeByList: make(map[int64]string, len(lists)),
	}

	sort.Slice(lists, func(i, j int) bool { return lists[i].ID < lists[j].ID })
	listIDs := make([]int64, 0, len(lists))
	for _, l := range lists {
		if _, dup := res.codeByList[l.ID]; dup {
			continue
		}
		res.codeByList[l.ID] = l.Code
		listIDs = append(listIDs, l.ID)
		res.referenceOrder = append(res.referenceOrder, l.Code)
	}

	var rawObservations []PriceObservation
	g, gctx := errgroup.WithContext(loadCtx)
	g.Go(func() error {
		items, err := e.sources.Items.FindItems(gctx, req.Filter)
		if err != nil {
			return fmt.Errorf("failed to load items: %w", err)
		}
		res.items = items
		return nil
	})
	if len(listIDs) > 0 {
		g.Go(func() error {
			obs, err := e.sources.Observations.LoadObservations(gctx, listIDs, req.Filter)
			if err != nil {
				return fmt.Errorf("failed to load price observations: %w", err)
			}
			rawObservations = obs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res.observations = restrictToItems(LatestObservations(rawObservations), res.items)

	res.differentials = map[int64]decimal.Decimal{}
	if len(res.items) > 0 && e.hasList(res.codeByList, e.matrix.ExportBaselineCode()) {
		itemIDs := make([]int64, len(res.items))
		for i, it := range res.items {
			itemIDs[i] = it.ID
		}
		diffs, err := e.sources.Differentials.Differentials(loadCtx, itemIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to load cost differentials: %w", err)
		}
		res.differentials = diffs
	}

	return res, nil
}

func (e *Engine) hasList(codeByList map[int64]string, code string) bool {
	for _, c := range codeByList {
		if c == code {
			return true
		}
	}
	return false
}
