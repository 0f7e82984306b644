package mirror

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"mealhub/internal/mealdb"
)

// BuildOptions controls Build.
type BuildOptions struct {
	// Lookups caps how many meals get their detail fields fetched; 0 means
	// every meal, negative means none.
	Lookups int
	Logger  *zap.Logger
}

// Build walks a MealDB API and captures it as a Dataset: every category's
// filter results, plus lookup details for the first entry of each id.
func Build(ctx context.Context, f mealdb.Fetcher, opts BuildOptions) (*Dataset, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	categories, err := f.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	ds := &Dataset{Categories: categories}
	first := make(map[string]int)
	var order []string
	for _, cat := range categories {
		meals, err := f.FilterByCategory(ctx, cat)
		if err != nil {
			return nil, fmt.Errorf("fetch category %q: %w", cat, err)
		}
		for _, m := range meals {
			m.ID = strings.TrimSpace(m.ID)
			if m.ID == "" {
				continue
			}
			m.Category = cat
			if _, seen := first[m.ID]; !seen {
				first[m.ID] = len(ds.Meals)
				order = append(order, m.ID)
			}
			ds.Meals = append(ds.Meals, m)
		}
		logger.Info("category captured", zap.String("category", cat), zap.Int("meals", len(meals)))
	}

	n := len(order)
	if opts.Lookups < 0 {
		n = 0
	} else if opts.Lookups > 0 && opts.Lookups < n {
		n = opts.Lookups
	}
	for _, id := range order[:n] {
		full, err := f.LookupByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("lookup %q: %w", id, err)
		}
		if full == nil {
			logger.Warn("listed meal has no lookup record", zap.String("id", id))
			continue
		}
		m := &ds.Meals[first[id]]
		m.Region = full.Region
		m.Detail = full.Detail
		if m.ImageURL == "" {
			m.ImageURL = full.ImageURL
		}
	}
	logger.Info("dataset built",
		zap.Int("categories", len(categories)),
		zap.Int("entries", len(ds.Meals)),
		zap.Int("unique", len(order)),
		zap.Int("lookups", n),
	)
	return ds, nil
}
