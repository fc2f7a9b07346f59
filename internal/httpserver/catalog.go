package httpserver

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"jewelry-storefront/internal/service/catalog"
)

func (h *handlers) listCategories(c *gin.Context) {
	cats, err := h.deps.Catalog.Categories(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": toCategoryResponses(cats)})
}

// listProducts serves one page of the product grid. Query: category
// (repeatable or comma separated), min, max, q, sort, cursor.
func (h *handlers) listProducts(c *gin.Context) {
	filters, err := parseFilters(c)
	if err != nil {
		h.writeError(c, err)
		return
	}
	page, err := h.deps.Catalog.List(c.Request.Context(), filters, c.Query("cursor"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"products":   toProductResponses(page.Products),
		"nextCursor": page.NextCursor,
		"hasMore":    page.HasMore,
		"fallback":   page.Fallback,
	})
}

func parseFilters(c *gin.Context) (catalog.Filters, error) {
	var f catalog.Filters
	for _, raw := range c.QueryArray("category") {
		for _, slug := range strings.Split(raw, ",") {
			if slug = strings.TrimSpace(slug); slug != "" {
				f.Categories = append(f.Categories, slug)
			}
		}
	}

	details := map[string]string{}
	if v := strings.TrimSpace(c.Query("min")); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil || d.IsNegative() {
			details["min"] = "must be a non-negative number"
		} else {
			f.MinPrice = d
		}
	}
	if v := strings.TrimSpace(c.Query("max")); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil || d.IsNegative() {
			details["max"] = "must be a non-negative number"
		} else {
			f.MaxPrice = d
		}
	}
	if len(details) > 0 {
		return f, badRequest("invalid price range", details)
	}

	sortBy, err := catalog.ParseSort(c.Query("sort"))
	if err != nil {
		return f, err
	}
	f.SortBy = sortBy
	f.Search = strings.TrimSpace(c.Query("q"))
	return f, nil
}

func (h *handlers) featuredProducts(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			h.writeError(c, badRequest("invalid limit", map[string]string{"limit": "must be a positive integer"}))
			return
		}
		limit = n
	}
	products, err := h.deps.Catalog.Featured(c.Request.Context(), limit)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": toProductResponses(products)})
}

func (h *handlers) productBySlug(c *gin.Context) {
	p, err := h.deps.Catalog.BySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": toProductResponse(*p)})
}
