package catalog

import (
	"context"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"mealhub/internal/mealdb"
	"mealhub/internal/metrics"
	"mealhub/internal/projection"
	"mealhub/internal/store"
	"mealhub/pkg/models"
)

// Details resolves one meal for the detail view. Enrichment is for display
// only; the shared cache is never modified here.
type Details struct {
	Fetcher mealdb.Fetcher
	Cache   *store.Store
	logger  *zap.Logger
	lookups *lru.Cache[string, models.Meal] // nil when disabled
}

// DetailResult is what the detail view renders.
type DetailResult struct {
	Meal        models.Meal
	Ingredients []models.Ingredient
	Adjacency   projection.Adjacency
	InCache     bool // the shared cache knows the id
	Enriched    bool // a lookup payload was merged in
}

// NewDetails creates a Details resolver. lookupCacheSize bounds the number
// of remembered lookup payloads; 0 disables remembering.
func NewDetails(fetcher mealdb.Fetcher, cache *store.Store, lookupCacheSize int, logger *zap.Logger) (*Details, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Details{Fetcher: fetcher, Cache: cache, logger: logger}
	if lookupCacheSize > 0 {
		c, err := lru.New[string, models.Meal](lookupCacheSize)
		if err != nil {
			return nil, fmt.Errorf("lookup cache: %w", err)
		}
		d.lookups = c
	}
	return d, nil
}

// Get resolves id. Adjacency comes from the cache's iteration order.
//
// When the cached record already has its detail fields no request is made.
// Otherwise the meal is looked up and the payload laid over the cached
// record. A failed lookup returns the error together with whatever the cache
// knows, so callers can show it inline. ErrNotFound is returned only when
// neither the cache nor the API knows the id.
func (d *Details) Get(ctx context.Context, tok *Token, id string) (DetailResult, error) {
	id = strings.TrimSpace(id)
	snap := d.Cache.Snapshot()

	res := DetailResult{Adjacency: projection.Adjacent(snap.Meals, id)}
	cached, ok := snap.Find(id)
	if ok {
		res.Meal = cached
		res.InCache = true
		if cached.HasDetail() {
			res.Ingredients = projection.Ingredients(cached.Detail)
			return res, nil
		}
	}

	enriched, err := d.lookup(ctx, id)
	if tok.Cancelled() {
		return res, ErrCancelled
	}
	if err != nil {
		d.logger.Warn("detail lookup failed", zap.String("id", id), zap.Bool("in_cache", ok), zap.Error(err))
		return res, err
	}
	if enriched == nil {
		if ok {
			return res, nil
		}
		return res, ErrNotFound
	}

	m := normalizeMeal(*enriched, cached.Category)
	if ok {
		m = overlay(cached, m)
	}
	res.Meal = m
	res.Enriched = true
	res.Ingredients = projection.Ingredients(m.Detail)
	return res, nil
}

func (d *Details) lookup(ctx context.Context, id string) (*models.Meal, error) {
	if d.lookups != nil {
		if m, ok := d.lookups.Get(id); ok {
			metrics.DetailCacheHits.Inc()
			return &m, nil
		}
	}

	m, err := d.Fetcher.LookupByID(context.WithoutCancel(ctx), id)
	if err != nil {
		return nil, fmt.Errorf("lookup %q: %w", id, err)
	}
	if m != nil && d.lookups != nil {
		d.lookups.Add(id, *m)
	}
	return m, nil
}
