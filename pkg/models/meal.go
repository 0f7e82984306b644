package models

import "strings"

// MaxIngredients is the number of numbered ingredient/measure slots a
// MealDB lookup payload carries (strIngredient1..20, strMeasure1..20).
const MaxIngredients = 20

// Meal is the normalized, internal form of a catalog item.
//
// List and filter endpoints only return the basic fields; Detail stays nil
// until a lookup-by-id fetch has happened for the record.
type Meal struct {
	ID       string      `json:"id"`                  // idMeal
	Name     string      `json:"name"`                // strMeal
	Category string      `json:"category,omitempty"`  // strCategory
	Region   string      `json:"region,omitempty"`    // strArea
	ImageURL string      `json:"image_url,omitempty"` // strMealThumb
	Detail   *MealDetail `json:"detail,omitempty"`
}

// HasDetail reports whether the extended fields have been fetched.
func (m Meal) HasDetail() bool {
	return m.Detail != nil
}

// MealDetail holds the fields only a lookup returns.
type MealDetail struct {
	Instructions   string                     `json:"instructions,omitempty"`
	DrinkAlternate string                     `json:"drink_alternate,omitempty"`
	Tags           string                     `json:"tags,omitempty"`
	YouTubeURL     string                     `json:"youtube_url,omitempty"`
	SourceURL      string                     `json:"source_url,omitempty"`
	Ingredients    [MaxIngredients]Ingredient `json:"ingredients"`
}

// Ingredient is one numbered ingredient/measure pair. Slots may be empty.
type Ingredient struct {
	Name    string `json:"name"`
	Measure string `json:"measure,omitempty"`
}

func (i Ingredient) IsEmpty() bool {
	return strings.TrimSpace(i.Name) == ""
}
