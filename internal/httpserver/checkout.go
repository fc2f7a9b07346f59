package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"jewelry-storefront/internal/service/checkout"
)

func (h *handlers) submitOrder(c *gin.Context) {
	var form checkout.Form
	if err := c.ShouldBindJSON(&form); err != nil {
		h.writeError(c, badRequest("invalid request body", map[string]string{"body": err.Error()}))
		return
	}
	if err := checkout.ValidateForm(&form); err != nil {
		h.writeError(c, err)
		return
	}

	id := sessionID(c)
	order, err := h.deps.Checkout.SubmitOrder(c.Request.Context(), id, form)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"orderId": order.ID,
		"order":   toOrderResponse(*order),
		"notices": h.deps.Notices.Drain(id),
	})
}

func (h *handlers) getOrder(c *gin.Context) {
	order, err := h.deps.Checkout.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": toOrderResponse(*order)})
}

func (h *handlers) orderHistory(c *gin.Context) {
	orders, err := h.deps.Checkout.OrderHistory(c.Request.Context(), sessionID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResponse(o))
	}
	c.JSON(http.StatusOK, gin.H{"orders": out})
}
