package catalog

import (
	"strings"

	"mealhub/pkg/models"
)

// normalizeMeal trims the identifying fields of a fetched meal. An empty
// category defaults to the category the meal was fetched under.
func normalizeMeal(m models.Meal, fetchedUnder string) models.Meal {
	m.ID = strings.TrimSpace(m.ID)
	m.Name = strings.TrimSpace(m.Name)
	m.Category = strings.TrimSpace(m.Category)
	m.ImageURL = strings.TrimSpace(m.ImageURL)
	if m.Category == "" {
		m.Category = strings.TrimSpace(fetchedUnder)
	}
	return m
}

// merger deduplicates by id: a meal keeps the position of its first
// occurrence and the value of its last.
type merger struct {
	order []string
	byID  map[string]models.Meal
}

func newMerger() *merger {
	return &merger{byID: make(map[string]models.Meal)}
}

func (m *merger) add(meal models.Meal) {
	if _, ok := m.byID[meal.ID]; !ok {
		m.order = append(m.order, meal.ID)
	}
	m.byID[meal.ID] = meal
}

func (m *merger) result() []models.Meal {
	out := make([]models.Meal, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.byID[id])
	}
	return out
}

// overlay lays an enrichment payload over a known record for display.
// Non-empty enrichment fields win; fields it lacks are kept.
func overlay(base, over models.Meal) models.Meal {
	pick := func(b, o string) string {
		if o != "" {
			return o
		}
		return b
	}
	base.ID = pick(base.ID, over.ID)
	base.Name = pick(base.Name, over.Name)
	base.Category = pick(base.Category, over.Category)
	base.Region = pick(base.Region, over.Region)
	base.ImageURL = pick(base.ImageURL, over.ImageURL)
	if over.Detail != nil {
		base.Detail = over.Detail
	}
	return base
}
