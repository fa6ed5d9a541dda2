package handlers

import (
	"strconv"

	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/internal/search"
	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/internal/services"
	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/pkg/response"
	"github.com/gin-gonic/gin"
)

type SearchHandler struct {
	index           search.ProjectIndex
	carouselService *services.CarouselService
}

func NewSearchHandler(index search.ProjectIndex, carousel *services.CarouselService) *SearchHandler {
	return &SearchHandler{index: index, carouselService: carousel}
}

func queryInt(c *gin.Context, name string, def int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return def
	}
	return v
}

var sortKeys = map[string]string{
	"relevance": search.SortRelevance,
	"trending":  search.SortRecentDownloads,
	"downloads": search.SortDownloads,
	"followers": search.SortFollowers,
	"newest":    search.SortNewest,
}

// Search queries the project index
// GET /api/search?q=...&sort=...&limit=...&offset=...
func (h *SearchHandler) Search(c *gin.Context) {
	sort, ok := sortKeys[c.DefaultQuery("sort", "relevance")]
	if !ok {
		response.BadRequest(c, "invalid sort key")
		return
	}

	limit := queryInt(c, "limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}

	docs, total, err := h.index.Search(search.Query{
		Text:   c.Query("q"),
		Sort:   sort,
		Limit:  int64(limit),
		Offset: int64(queryInt(c, "offset", 0)),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{
		"hits":  docs,
		"total": total,
	})
}

// Random returns a random slice of the listed catalog
// GET /api/projects/random?count=...
func (h *SearchHandler) Random(c *gin.Context) {
	projects, err := h.carouselService.Random(queryInt(c, "count", 0))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, projects)
}

// HomePageCarousel returns the cached home-page mix
// GET /api/projects/home-page-carousel?count=...
func (h *SearchHandler) HomePageCarousel(c *gin.Context) {
	projects, err := h.carouselService.HomePage(c.Request.Context(), queryInt(c, "count", 0))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, projects)
}
