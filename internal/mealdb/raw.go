package mealdb

import (
	"encoding/json"
	"strconv"

	"mealhub/pkg/models"
)

// rawMeal is one element of a "meals" array. MealDB sends every field as a
// string or null, with numbered strIngredientN/strMeasureN keys, so it is
// decoded loosely and mapped field by field.
type rawMeal map[string]any

func (r rawMeal) str(key string) string {
	switch v := r[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

func (r rawMeal) toMeal() models.Meal {
	return models.Meal{
		ID:       r.str("idMeal"),
		Name:     r.str("strMeal"),
		Category: r.str("strCategory"),
		Region:   r.str("strArea"),
		ImageURL: r.str("strMealThumb"),
	}
}

func (r rawMeal) toDetail() *models.MealDetail {
	d := &models.MealDetail{
		Instructions:   r.str("strInstructions"),
		DrinkAlternate: r.str("strDrinkAlternate"),
		Tags:           r.str("strTags"),
		YouTubeURL:     r.str("strYoutube"),
		SourceURL:      r.str("strSource"),
	}
	for i := 0; i < models.MaxIngredients; i++ {
		n := strconv.Itoa(i + 1)
		d.Ingredients[i] = models.Ingredient{
			Name:    r.str("strIngredient" + n),
			Measure: r.str("strMeasure" + n),
		}
	}
	return d
}

// FromMeal renders m back into the MealDB wire shape. The mirror server uses
// it to answer with the same payloads the real API sends.
func FromMeal(m models.Meal) map[string]any {
	out := map[string]any{
		"idMeal":       m.ID,
		"strMeal":      m.Name,
		"strMealThumb": nullable(m.ImageURL),
	}
	if m.Detail == nil {
		return out
	}

	out["strCategory"] = nullable(m.Category)
	out["strArea"] = nullable(m.Region)
	out["strInstructions"] = nullable(m.Detail.Instructions)
	out["strDrinkAlternate"] = nullable(m.Detail.DrinkAlternate)
	out["strTags"] = nullable(m.Detail.Tags)
	out["strYoutube"] = nullable(m.Detail.YouTubeURL)
	out["strSource"] = nullable(m.Detail.SourceURL)
	for i, ing := range m.Detail.Ingredients {
		n := strconv.Itoa(i + 1)
		out["strIngredient"+n] = ing.Name
		out["strMeasure"+n] = ing.Measure
	}
	return out
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
