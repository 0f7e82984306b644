package catalog

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"mealhub/internal/mealdb"
	"mealhub/internal/metrics"
	"mealhub/internal/projection"
	"mealhub/internal/store"
	"mealhub/pkg/models"
)

// Gallery is the filtered fetch: the meals of the selected categories (all
// of them when none is selected), concatenated without deduplication.
type Gallery struct {
	Fetcher mealdb.Fetcher
	Cache   *store.Store
	logger  *zap.Logger
	group   singleflight.Group

	mu         sync.Mutex
	categories []string // nil until the first successful listing
	applied    bool
	appliedKey string
	appliedGen string
}

// GalleryResult is what a gallery request renders.
type GalleryResult struct {
	Categories []string
	Filters    projection.FilterSet
	Active     []string
	Snapshot   store.Snapshot
	Refetched  bool
}

func NewGallery(fetcher mealdb.Fetcher, cache *store.Store, logger *zap.Logger) *Gallery {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gallery{Fetcher: fetcher, Cache: cache, logger: logger}
}

// Categories lists categories once per process. A failed listing is not
// remembered, so the next call tries again.
func (g *Gallery) Categories(ctx context.Context) ([]string, error) {
	g.mu.Lock()
	if g.categories != nil {
		out := slices.Clone(g.categories)
		g.mu.Unlock()
		return out, nil
	}
	g.mu.Unlock()

	v, err, _ := g.group.Do("categories", func() (any, error) {
		cats, err := g.Fetcher.ListCategories(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		if cats == nil {
			cats = []string{}
		}
		g.mu.Lock()
		g.categories = cats
		g.mu.Unlock()
		return cats, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch categories: %w", err)
	}
	return slices.Clone(v.([]string)), nil
}

// Refresh applies a category selection. Every change of selection triggers
// a full refetch; repeating the selection that produced the current cache
// contents is served from the cache. On failure the cache is left as it was.
func (g *Gallery) Refresh(ctx context.Context, tok *Token, selected []string) (GalleryResult, error) {
	cats, err := g.Categories(ctx)
	if err != nil {
		return GalleryResult{}, err
	}

	filters := projection.NewFilterSet(cats).Select(selected...)
	res := GalleryResult{
		Categories: cats,
		Filters:    filters,
		Active:     filters.Active(cats),
	}
	key := strings.Join(res.Active, "\x00")

	if snap, ok := g.current(key); ok {
		res.Snapshot = snap
		return res, nil
	}

	v, err, _ := g.group.Do("refresh\x01"+key, func() (any, error) {
		return g.fetch(context.WithoutCancel(ctx), filters.Effective(cats))
	})
	if err != nil {
		metrics.RecordAggregation("gallery", "error")
		g.logger.Warn("gallery refetch failed", zap.Strings("active", res.Active), zap.Error(err))
		return GalleryResult{}, err
	}
	if tok.Cancelled() {
		metrics.RecordAggregation("gallery", "discarded")
		g.logger.Info("gallery result discarded, view went away", zap.Strings("active", res.Active))
		return GalleryResult{}, ErrCancelled
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	// A caller sharing the same run may have published it already.
	if g.applied && g.appliedKey == key && g.appliedGen == g.Cache.Generation() {
		res.Snapshot = g.Cache.Snapshot()
		res.Refetched = true
		return res, nil
	}
	snap := g.Cache.Replace(store.SourceGallery, v.([]models.Meal))
	g.applied, g.appliedKey, g.appliedGen = true, key, snap.Generation
	metrics.RecordAggregation("gallery", "published")
	g.logger.Info("gallery published",
		zap.Strings("active", res.Active),
		zap.String("generation", snap.Generation),
		zap.Int("meals", len(snap.Meals)),
	)

	res.Snapshot = snap
	res.Refetched = true
	return res, nil
}

func (g *Gallery) current(key string) (store.Snapshot, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.applied || g.appliedKey != key {
		return store.Snapshot{}, false
	}
	snap := g.Cache.Snapshot()
	if snap.Generation != g.appliedGen {
		return store.Snapshot{}, false
	}
	return snap, true
}

func (g *Gallery) fetch(ctx context.Context, categories []string) ([]models.Meal, error) {
	var out []models.Meal
	for _, cat := range categories {
		meals, err := g.Fetcher.FilterByCategory(ctx, cat)
		if err != nil {
			return nil, fmt.Errorf("fetch category %q: %w", cat, err)
		}
		for _, m := range meals {
			m = normalizeMeal(m, cat)
			if m.ID == "" {
				continue
			}
			out = append(out, m)
		}
	}
	return out, nil
}
