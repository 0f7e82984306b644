package mirror

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"mealhub/internal/mealdb"
	"mealhub/pkg/models"
)

// Dataset is an offline copy of the parts of MealDB the catalog reads.
//
// A meal listed under several categories appears once per category; lookups
// answer with the first entry for an id.
type Dataset struct {
	Categories []string      `json:"categories"`
	Meals      []models.Meal `json:"meals"`
}

// Load reads a dataset written by Save and validates it.
func Load(path string) (*Dataset, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	var ds Dataset
	if err := json.Unmarshal(b, &ds); err != nil {
		return nil, fmt.Errorf("dataset %s invalid JSON: %w", path, err)
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return &ds, nil
}

// Save writes the dataset as indented JSON, creating parent directories.
func (ds *Dataset) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	b, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal dataset: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write dataset: %w", err)
	}
	return nil
}

func (ds *Dataset) Validate() error {
	for i, m := range ds.Meals {
		if strings.TrimSpace(m.ID) == "" {
			return fmt.Errorf("dataset meal %d has no id", i)
		}
	}
	return nil
}

func (ds *Dataset) byCategory(category string) []models.Meal {
	var out []models.Meal
	for _, m := range ds.Meals {
		if strings.EqualFold(m.Category, category) {
			out = append(out, m)
		}
	}
	return out
}

func (ds *Dataset) lookup(id string) (models.Meal, bool) {
	for _, m := range ds.Meals {
		if m.ID == id {
			return m, true
		}
	}
	return models.Meal{}, false
}

// Handler serves list.php, filter.php and lookup.php in MealDB's wire format
// under any path prefix.
func Handler(ds *Dataset) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())

	r.NoRoute(func(c *gin.Context) {
		switch endpoint(c.Request.URL.Path) {
		case "list.php":
			listCategories(c, ds)
		case "filter.php":
			filterByCategory(c, ds)
		case "lookup.php":
			lookupByID(c, ds)
		default:
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		}
	})
	return r
}

func endpoint(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}

func listCategories(c *gin.Context, ds *Dataset) {
	if c.Query("c") != "list" {
		c.JSON(http.StatusOK, gin.H{"meals": nil})
		return
	}
	items := make([]gin.H, 0, len(ds.Categories))
	for _, cat := range ds.Categories {
		items = append(items, gin.H{"strCategory": cat})
	}
	c.JSON(http.StatusOK, gin.H{"meals": items})
}

func filterByCategory(c *gin.Context, ds *Dataset) {
	meals := ds.byCategory(c.Query("c"))
	if len(meals) == 0 {
		c.JSON(http.StatusOK, gin.H{"meals": nil})
		return
	}
	items := make([]map[string]any, 0, len(meals))
	for _, m := range meals {
		basic := models.Meal{ID: m.ID, Name: m.Name, ImageURL: m.ImageURL}
		items = append(items, mealdb.FromMeal(basic))
	}
	c.JSON(http.StatusOK, gin.H{"meals": items})
}

func lookupByID(c *gin.Context, ds *Dataset) {
	m, ok := ds.lookup(c.Query("i"))
	if !ok {
		c.JSON(http.StatusOK, gin.H{"meals": nil})
		return
	}
	if m.Detail == nil {
		m.Detail = &models.MealDetail{}
	}
	c.JSON(http.StatusOK, gin.H{"meals": []map[string]any{mealdb.FromMeal(m)}})
}
