package projection

import (
	"slices"
	"strings"

	"mealhub/pkg/models"
)

// Search keeps meals whose name contains q, case-insensitively. An empty or
// blank query returns a copy of meals.
func Search(meals []models.Meal, q string) []models.Meal {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return slices.Clone(meals)
	}

	out := make([]models.Meal, 0, len(meals))
	for _, m := range meals {
		if strings.Contains(strings.ToLower(m.Name), q) {
			out = append(out, m)
		}
	}
	return out
}

// List is the list view: search, then sort.
func List(meals []models.Meal, q string, spec SortSpec) []models.Meal {
	return Sort(Search(meals, q), spec)
}

// Adjacency locates a meal in iteration order.
type Adjacency struct {
	Index  int    `json:"index"` // -1 when the id is not in the collection
	PrevID string `json:"prev_id,omitempty"`
	NextID string `json:"next_id,omitempty"`
}

func (a Adjacency) HasPrev() bool { return a.PrevID != "" }
func (a Adjacency) HasNext() bool { return a.NextID != "" }

// Adjacent returns the neighbours of id in meals.
func Adjacent(meals []models.Meal, id string) Adjacency {
	i := slices.IndexFunc(meals, func(m models.Meal) bool { return m.ID == id })
	adj := Adjacency{Index: i}
	if i < 0 {
		return adj
	}
	if i > 0 {
		adj.PrevID = meals[i-1].ID
	}
	if i < len(meals)-1 {
		adj.NextID = meals[i+1].ID
	}
	return adj
}

// Ingredients returns the non-empty ingredient slots, trimmed, in order.
func Ingredients(d *models.MealDetail) []models.Ingredient {
	if d == nil {
		return nil
	}
	out := make([]models.Ingredient, 0, models.MaxIngredients)
	for _, ing := range d.Ingredients {
		if ing.IsEmpty() {
			continue
		}
		out = append(out, models.Ingredient{
			Name:    strings.TrimSpace(ing.Name),
			Measure: strings.TrimSpace(ing.Measure),
		})
	}
	return out
}

// Group is one category bucket of the gallery.
type Group struct {
	Category string        `json:"category"`
	Meals    []models.Meal `json:"meals"`
}

// GroupByCategory buckets meals by category, buckets in first-seen order and
// meals in input order. Duplicates are kept.
func GroupByCategory(meals []models.Meal) []Group {
	var groups []Group
	index := make(map[string]int)
	for _, m := range meals {
		i, ok := index[m.Category]
		if !ok {
			i = len(groups)
			index[m.Category] = i
			groups = append(groups, Group{Category: m.Category})
		}
		groups[i].Meals = append(groups[i].Meals, m)
	}
	return groups
}
