package meals

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mealhub/internal/catalog"
	"mealhub/internal/mealdb"
	"mealhub/internal/projection"
	"mealhub/pkg/models"
)

// statusClientClosed is reported when the caller left before its fetch
// finished and the result was discarded.
const statusClientClosed = 499

type Handler struct {
	Engine  *catalog.Engine
	Gallery *catalog.Gallery
	Details *catalog.Details
	logger  *zap.Logger
}

func NewHandler(engine *catalog.Engine, gallery *catalog.Gallery, details *catalog.Details, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Engine: engine, Gallery: gallery, Details: details, logger: logger}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/meals", h.list)
	rg.GET("/meals/:id", h.getByID)
	rg.GET("/gallery", h.gallery)
	rg.GET("/categories", h.categories)
}

func (h *Handler) list(c *gin.Context) {
	spec, err := projection.ParseSortSpec(c.Query("sort"), c.Query("order"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	snap, err := h.Engine.EnsureCatalog(c.Request.Context(), catalog.TokenFor(c.Request.Context()))
	if err != nil {
		h.fail(c, err)
		return
	}

	q := strings.TrimSpace(c.Query("q"))
	items := projection.List(snap.Meals, q, spec)
	c.JSON(http.StatusOK, gin.H{
		"generation": snap.Generation,
		"source":     snap.Source,
		"query":      q,
		"sort":       spec,
		"total":      len(snap.Meals),
		"count":      len(items),
		"items":      nonNil(items),
	})
}

func (h *Handler) getByID(c *gin.Context) {
	id := c.Param("id")
	res, err := h.Details.Get(c.Request.Context(), catalog.TokenFor(c.Request.Context()), id)

	switch {
	case errors.Is(err, catalog.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"status": "not_found", "id": strings.TrimSpace(id)})
		return
	case err != nil && mealdb.IsRequestError(err) && res.InCache:
		// the cached record is still worth showing next to the error
		body := detailBody(res)
		body["error"] = err.Error()
		body["retryable"] = true
		c.JSON(http.StatusOK, body)
		return
	case err != nil:
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, detailBody(res))
}

func detailBody(res catalog.DetailResult) gin.H {
	body := gin.H{
		"meal":        res.Meal,
		"ingredients": nonNilIngredients(res.Ingredients),
		"in_cache":    res.InCache,
		"enriched":    res.Enriched,
		"prev":        nil,
		"next":        nil,
	}
	if res.Adjacency.HasPrev() {
		body["prev"] = res.Adjacency.PrevID
	}
	if res.Adjacency.HasNext() {
		body["next"] = res.Adjacency.NextID
	}
	return body
}

func (h *Handler) gallery(c *gin.Context) {
	res, err := h.Gallery.Refresh(c.Request.Context(), catalog.TokenFor(c.Request.Context()), selectedCategories(c))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"generation": res.Snapshot.Generation,
		"categories": res.Categories,
		"filters":    res.Filters,
		"active":     nonNilStrings(res.Active),
		"refetched":  res.Refetched,
		"count":      len(res.Snapshot.Meals),
		"groups":     projection.GroupByCategory(res.Snapshot.Meals),
		"items":      nonNil(res.Snapshot.Meals),
	})
}

func (h *Handler) categories(c *gin.Context) {
	cats, err := h.Gallery.Categories(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": cats})
}

// fail maps catalog errors to responses.
func (h *Handler) fail(c *gin.Context, err error) {
	var re *mealdb.RequestError
	switch {
	case errors.As(err, &re):
		c.JSON(http.StatusBadGateway, gin.H{
			"error":     err.Error(),
			"op":        re.Op,
			"retryable": true,
		})
	case errors.Is(err, catalog.ErrCancelled):
		c.JSON(statusClientClosed, gin.H{"error": err.Error()})
	case errors.Is(err, catalog.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"status": "not_found"})
	default:
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// selectedCategories accepts category=A&category=B or categories=A,B.
func selectedCategories(c *gin.Context) []string {
	selected := c.QueryArray("category")
	for _, s := range c.QueryArray("categories") {
		selected = append(selected, strings.Split(s, ",")...)
	}

	out := make([]string, 0, len(selected))
	for _, s := range selected {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func nonNil(meals []models.Meal) []models.Meal {
	if meals == nil {
		return []models.Meal{}
	}
	return meals
}

func nonNilIngredients(in []models.Ingredient) []models.Ingredient {
	if in == nil {
		return []models.Ingredient{}
	}
	return in
}

func nonNilStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
