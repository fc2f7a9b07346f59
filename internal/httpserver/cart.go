package httpserver

import (
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"jewelry-storefront/internal/apperr"
	"jewelry-storefront/internal/domain"
)

var quantityTooLarge = "must be at most " + strconv.Itoa(domain.MaxLineQuantity)

type addItemRequest struct {
	ProductID       string            `json:"productId"`
	Quantity        int               `json:"quantity"`
	SelectedOptions map[string]string `json:"selectedOptions"`
}

type updateItemRequest struct {
	ProductID       string            `json:"productId"`
	Quantity        *int              `json:"quantity"`
	SelectedOptions map[string]string `json:"selectedOptions"`
}

type removeItemRequest struct {
	ProductID       string            `json:"productId"`
	SelectedOptions map[string]string `json:"selectedOptions"`
}

func (h *handlers) respondCart(c *gin.Context, status int, cart domain.Cart) {
	c.JSON(status, gin.H{
		"cart":    toCartResponse(cart, h.deps.Pricing),
		"notices": h.deps.Notices.Drain(sessionID(c)),
	})
}

func (h *handlers) getCart(c *gin.Context) {
	store := h.deps.Carts.Open(c.Request.Context(), sessionID(c))
	h.respondCart(c, http.StatusOK, store.Snapshot())
}

// addCartItem snapshots title, price and image from the catalog so a later
// price change never alters a cart line.
func (h *handlers) addCartItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, badRequest("invalid request body", map[string]string{"body": err.Error()}))
		return
	}
	req.ProductID = strings.TrimSpace(req.ProductID)
	if req.ProductID == "" {
		h.writeError(c, badRequest("productId is required", map[string]string{"productId": "is required"}))
		return
	}
	if req.Quantity > domain.MaxLineQuantity {
		h.writeError(c, badRequest("invalid request body", map[string]string{"quantity": quantityTooLarge}))
		return
	}

	ctx := c.Request.Context()
	product, err := h.deps.Catalog.ByID(ctx, req.ProductID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if !product.Active {
		h.writeError(c, apperr.New(apperr.CodeNotFound, "product not found"))
		return
	}
	options, err := checkOptions(*product, req.SelectedOptions)
	if err != nil {
		h.writeError(c, err)
		return
	}

	store := h.deps.Carts.Open(ctx, sessionID(c))
	cart := store.AddItem(domain.LineItem{
		ProductID:       product.ID,
		Title:           product.Title,
		UnitPrice:       product.Price,
		Image:           product.PrimaryImage(),
		SelectedOptions: options,
	}, req.Quantity)
	h.respondCart(c, http.StatusOK, cart)
}

// checkOptions requires every required option and rejects values the
// product does not offer.
func checkOptions(p domain.Product, selected map[string]string) (map[string]string, error) {
	details := map[string]string{}
	out := make(map[string]string, len(selected))
	for name, value := range selected {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		idx := slices.IndexFunc(p.Options, func(o domain.ProductOption) bool { return o.Name == name })
		if idx < 0 {
			details[name] = "is not an option of this product"
			continue
		}
		if !slices.Contains(p.Options[idx].Values, value) {
			details[name] = "must be one of " + strings.Join(p.Options[idx].Values, ", ")
			continue
		}
		out[name] = value
	}
	for _, o := range p.Options {
		if _, ok := out[o.Name]; !ok && o.Required {
			if _, flagged := details[o.Name]; !flagged {
				details[o.Name] = "is required"
			}
		}
	}
	if len(details) > 0 {
		return nil, badRequest("invalid product options", details)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

func (h *handlers) updateCartItem(c *gin.Context) {
	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, badRequest("invalid request body", map[string]string{"body": err.Error()}))
		return
	}
	details := map[string]string{}
	if strings.TrimSpace(req.ProductID) == "" {
		details["productId"] = "is required"
	}
	switch {
	case req.Quantity == nil:
		details["quantity"] = "is required"
	case *req.Quantity > domain.MaxLineQuantity:
		details["quantity"] = quantityTooLarge
	}
	if len(details) > 0 {
		h.writeError(c, badRequest("invalid request body", details))
		return
	}

	store := h.deps.Carts.Open(c.Request.Context(), sessionID(c))
	cart := store.UpdateQuantity(strings.TrimSpace(req.ProductID), *req.Quantity, normalizeOptions(req.SelectedOptions))
	h.respondCart(c, http.StatusOK, cart)
}

func (h *handlers) removeCartItem(c *gin.Context) {
	var req removeItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, badRequest("invalid request body", map[string]string{"body": err.Error()}))
		return
	}
	if strings.TrimSpace(req.ProductID) == "" {
		h.writeError(c, badRequest("productId is required", map[string]string{"productId": "is required"}))
		return
	}
	store := h.deps.Carts.Open(c.Request.Context(), sessionID(c))
	cart := store.RemoveItem(strings.TrimSpace(req.ProductID), normalizeOptions(req.SelectedOptions))
	h.respondCart(c, http.StatusOK, cart)
}

func (h *handlers) clearCart(c *gin.Context) {
	store := h.deps.Carts.Open(c.Request.Context(), sessionID(c))
	h.respondCart(c, http.StatusOK, store.Clear())
}

// normalizeOptions makes an empty selection equal to no selection, matching
// how lines are stored.
func normalizeOptions(opts map[string]string) map[string]string {
	if len(opts) == 0 {
		return nil
	}
	return opts
}
