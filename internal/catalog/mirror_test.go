package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mealhub/internal/mealdb"
	"mealhub/internal/mirror"
	"mealhub/internal/store"
	"mealhub/pkg/models"
)

func mirrorClient(t *testing.T, ds *mirror.Dataset) *mealdb.Client {
	t.Helper()
	gin.SetMode(gin.TestMode)

	srv := httptest.NewServer(mirror.Handler(ds))
	t.Cleanup(srv.Close)

	c, err := mealdb.NewClient(srv.URL+"/api/json/v1/1/",
		mealdb.WithHTTPClient(&http.Client{
			Timeout:   mealdb.RequestTimeout,
			Transport: &http.Transport{DisableKeepAlives: true},
		}),
	)
	require.NoError(t, err)
	return c
}

func TestEngine_AgainstMirror(t *testing.T) {
	detail := &models.MealDetail{Instructions: "Sear the beef."}
	detail.Ingredients[0] = models.Ingredient{Name: "Beef", Measure: "1kg"}

	ds := &mirror.Dataset{
		Categories: []string{"Beef", "Chicken"},
		Meals: []models.Meal{
			{ID: "1", Name: " A ", Category: "Beef", Region: "British", Detail: detail},
			{ID: "1", Name: " A ", Category: "Chicken"},
			{ID: "2", Name: "B", Category: "Chicken"},
		},
	}
	c := mirrorClient(t, ds)
	cache := store.New()

	snap, err := NewEngine(c, cache, nil).EnsureCatalog(context.Background(), NewToken())
	require.NoError(t, err)
	require.Len(t, snap.Meals, 2)
	assert.Equal(t, "A", snap.Meals[0].Name)
	assert.Equal(t, "B", snap.Meals[1].Name)
	// filter payloads carry no category; it comes from the category fetched
	assert.Equal(t, "Chicken", snap.Meals[0].Category)

	d, err := NewDetails(c, cache, 0, nil)
	require.NoError(t, err)
	res, err := d.Get(context.Background(), NewToken(), "1")
	require.NoError(t, err)
	assert.True(t, res.Enriched)
	assert.Equal(t, "British", res.Meal.Region)
	require.Len(t, res.Ingredients, 1)
	assert.Equal(t, "Beef", res.Ingredients[0].Name)
	assert.Equal(t, "2", res.Adjacency.NextID)

	g := NewGallery(c, cache, nil)
	gres, err := g.Refresh(context.Background(), NewToken(), nil)
	require.NoError(t, err)
	assert.Len(t, gres.Snapshot.Meals, 3)
}
