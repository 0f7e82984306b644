package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"mealhub/internal/mealdb"
	"mealhub/internal/metrics"
	"mealhub/internal/projection"
	"mealhub/internal/store"
	"mealhub/pkg/models"
)

// Engine builds the full catalog: every category's meals, deduplicated by
// id and sorted by name, published into the shared cache.
type Engine struct {
	Fetcher mealdb.Fetcher
	Cache   *store.Store
	logger  *zap.Logger
	group   singleflight.Group
}

// NewEngine creates an Engine publishing into cache.
func NewEngine(fetcher mealdb.Fetcher, cache *store.Store, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{Fetcher: fetcher, Cache: cache, logger: logger}
}

// FetchCatalog runs one full aggregation and returns the result without
// publishing it. Categories are fetched one after another in the order the
// API lists them. Any failed request aborts the run and nothing is returned.
func (e *Engine) FetchCatalog(ctx context.Context) ([]models.Meal, error) {
	run := uuid.NewString()
	log := e.logger.With(zap.String("run", run))

	categories, err := e.Fetcher.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	log.Info("fetching catalog", zap.Int("categories", len(categories)))

	merged := newMerger()
	fetched := 0
	for _, cat := range categories {
		meals, err := e.Fetcher.FilterByCategory(ctx, cat)
		if err != nil {
			return nil, fmt.Errorf("fetch category %q: %w", cat, err)
		}
		for _, m := range meals {
			m = normalizeMeal(m, cat)
			if m.ID == "" {
				log.Debug("skipping meal without id", zap.String("category", cat), zap.String("name", m.Name))
				continue
			}
			merged.add(m)
			fetched++
		}
	}

	result := projection.Sort(merged.result(), projection.DefaultSort)
	log.Info("catalog fetched",
		zap.Int("fetched", fetched),
		zap.Int("unique", len(result)),
	)
	return result, nil
}

// EnsureCatalog returns the cached collection, running the full aggregation
// first when the cache is empty. Concurrent callers share one run. The
// result is published only if tok is still live and the cache is still
// empty; a cancelled caller gets ErrCancelled.
func (e *Engine) EnsureCatalog(ctx context.Context, tok *Token) (store.Snapshot, error) {
	if snap := e.Cache.Snapshot(); !snap.Empty() {
		return snap, nil
	}

	v, err, shared := e.group.Do("catalog", func() (any, error) {
		// Requests are never aborted on behalf of a departed view.
		return e.FetchCatalog(context.WithoutCancel(ctx))
	})
	if err != nil {
		metrics.RecordAggregation("catalog", "error")
		e.logger.Warn("catalog aggregation failed", zap.Error(err), zap.Bool("shared", shared))
		return store.Snapshot{}, err
	}
	if tok.Cancelled() {
		metrics.RecordAggregation("catalog", "discarded")
		e.logger.Info("catalog result discarded, view went away")
		return store.Snapshot{}, ErrCancelled
	}

	meals := v.([]models.Meal)
	snap, published := e.Cache.PublishIfEmpty(store.SourceCatalog, meals)
	if published {
		metrics.RecordAggregation("catalog", "published")
		e.logger.Info("catalog published",
			zap.String("generation", snap.Generation),
			zap.Int("meals", len(snap.Meals)),
		)
	}
	return snap, nil
}
