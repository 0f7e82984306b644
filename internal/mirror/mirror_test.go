package mirror

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mealhub/pkg/models"
)

func dataset() *Dataset {
	return &Dataset{
		Categories: []string{"Beef", "Dessert"},
		Meals: []models.Meal{
			{ID: "52874", Name: "Beef and Mustard Pie", Category: "Beef", ImageURL: "https://img/pie.jpg",
				Detail: &models.MealDetail{Instructions: "Bake."}},
			{ID: "52893", Name: "Apple & Blackberry Crumble", Category: "Dessert"},
		},
	}
}

func get(t *testing.T, h http.Handler, target string) map[string]any {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHandler_ServesMealDBShapes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := Handler(dataset())

	list := get(t, h, "/api/json/v1/1/list.php?c=list")
	assert.Equal(t, []any{
		map[string]any{"strCategory": "Beef"},
		map[string]any{"strCategory": "Dessert"},
	}, list["meals"])

	filter := get(t, h, "/api/json/v1/1/filter.php?c=beef")
	meals := filter["meals"].([]any)
	require.Len(t, meals, 1)
	first := meals[0].(map[string]any)
	assert.Equal(t, "52874", first["idMeal"])
	assert.Equal(t, "https://img/pie.jpg", first["strMealThumb"])
	_, hasInstructions := first["strInstructions"]
	assert.False(t, hasInstructions)

	lookup := get(t, h, "/lookup.php?i=52893")
	full := lookup["meals"].([]any)[0].(map[string]any)
	assert.Equal(t, "Dessert", full["strCategory"])
	assert.Contains(t, full, "strIngredient20")
}

func TestHandler_EmptyResults(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := Handler(dataset())

	assert.Nil(t, get(t, h, "/filter.php?c=Sushi")["meals"])
	assert.Nil(t, get(t, h, "/lookup.php?i=1")["meals"])

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/search.php?s=x", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDataset_SaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "mirror.json")
	require.NoError(t, dataset().Save(path))

	ds, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, dataset().Categories, ds.Categories)
	require.Len(t, ds.Meals, 2)
	require.NotNil(t, ds.Meals[0].Detail)
	assert.Equal(t, "Bake.", ds.Meals[0].Detail.Instructions)
}

func TestLoad_RejectsInvalidDatasets(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"meals": [`), 0o600))
	_, err := Load(bad)
	require.Error(t, err)

	noID := filepath.Join(dir, "noid.json")
	require.NoError(t, os.WriteFile(noID, []byte(`{"meals": [{"name": "x"}]}`), 0o600))
	_, err = Load(noID)
	require.Error(t, err)

	_, err = Load(filepath.Join(dir, "missing.json"))
	require.Error(t, err)
}
