package httpserver

import (
	"time"

	"github.com/shopspring/decimal"

	"jewelry-storefront/internal/domain"
	"jewelry-storefront/internal/pricing"
)

type moneyResponse struct {
	Amount    string `json:"amount"`
	Formatted string `json:"formatted"`
}

func money(d decimal.Decimal) moneyResponse {
	return moneyResponse{Amount: d.StringFixed(2), Formatted: pricing.Format(d)}
}

type productResponse struct {
	ID          string                 `json:"id"`
	Title       string                 `json:"title"`
	Slug        string                 `json:"slug"`
	Description string                 `json:"description,omitempty"`
	Price       moneyResponse          `json:"price"`
	Images      []string               `json:"images"`
	Categories  []string               `json:"categories"`
	Options     []domain.ProductOption `json:"options"`
	InStock     bool                   `json:"inStock"`
	Stock       int                    `json:"stock"`
	Featured    bool                   `json:"featured"`
	CreatedAt   time.Time              `json:"createdAt"`
}

func toProductResponse(p domain.Product) productResponse {
	images := p.Images
	if images == nil {
		images = []string{}
	}
	categories := p.Categories
	if categories == nil {
		categories = []string{}
	}
	options := p.Options
	if options == nil {
		options = []domain.ProductOption{}
	}
	return productResponse{
		ID:          p.ID,
		Title:       p.Title,
		Slug:        p.Slug,
		Description: p.Description,
		Price:       money(p.Price),
		Images:      images,
		Categories:  categories,
		Options:     options,
		InStock:     p.Stock > 0,
		Stock:       p.Stock,
		Featured:    p.Featured,
		CreatedAt:   p.CreatedAt,
	}
}

func toProductResponses(products []domain.Product) []productResponse {
	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResponse(p))
	}
	return out
}

type categoryResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Image string `json:"image,omitempty"`
	Order int    `json:"order"`
}

func toCategoryResponses(cats []domain.Category) []categoryResponse {
	out := make([]categoryResponse, 0, len(cats))
	for _, c := range cats {
		out = append(out, categoryResponse{ID: c.ID, Name: c.Name, Slug: c.Slug, Image: c.Image, Order: c.Order})
	}
	return out
}

type lineItemResponse struct {
	ProductID       string            `json:"productId"`
	Title           string            `json:"title"`
	Price           moneyResponse     `json:"price"`
	Image           string            `json:"image"`
	Quantity        int               `json:"quantity"`
	SelectedOptions map[string]string `json:"selectedOptions"`
	LineTotal       moneyResponse     `json:"lineTotal"`
}

type totalsResponse struct {
	Subtotal   moneyResponse `json:"subtotal"`
	Shipping   moneyResponse `json:"shipping"`
	Discount   moneyResponse `json:"discount"`
	GrandTotal moneyResponse `json:"grandTotal"`
}

type cartResponse struct {
	Items                 []lineItemResponse `json:"items"`
	Totals                totalsResponse     `json:"totals"`
	ItemCount             int                `json:"itemCount"`
	FreeShippingRemaining *moneyResponse     `json:"freeShippingRemaining,omitempty"`
}

func toLineItemResponses(items []domain.LineItem) []lineItemResponse {
	out := make([]lineItemResponse, 0, len(items))
	for _, li := range items {
		opts := li.SelectedOptions
		if opts == nil {
			opts = map[string]string{}
		}
		out = append(out, lineItemResponse{
			ProductID:       li.ProductID,
			Title:           li.Title,
			Price:           money(li.UnitPrice),
			Image:           li.Image,
			Quantity:        li.Quantity,
			SelectedOptions: opts,
			LineTotal:       money(li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))),
		})
	}
	return out
}

func toTotalsResponse(t domain.Totals) totalsResponse {
	return totalsResponse{
		Subtotal:   money(t.Subtotal),
		Shipping:   money(t.Shipping),
		Discount:   money(t.Discount),
		GrandTotal: money(t.GrandTotal),
	}
}

// toCartResponse renders the cart. The free-shipping hint is set while a
// non-empty cart is below the threshold.
func toCartResponse(c domain.Cart, calc pricing.Calculator) cartResponse {
	resp := cartResponse{
		Items:     toLineItemResponses(c.Items),
		Totals:    toTotalsResponse(c.Totals),
		ItemCount: c.ItemCount(),
	}
	if len(c.Items) > 0 && c.Totals.Subtotal.LessThan(calc.FreeShippingThreshold) {
		remaining := money(calc.FreeShippingThreshold.Sub(c.Totals.Subtotal))
		resp.FreeShippingRemaining = &remaining
	}
	return resp
}

type orderResponse struct {
	ID              string                 `json:"id"`
	Items           []lineItemResponse     `json:"items"`
	Totals          totalsResponse         `json:"totals"`
	Customer        domain.OrderCustomer   `json:"customer"`
	ShippingAddress domain.ShippingAddress `json:"shippingAddress"`
	Status          domain.OrderStatus     `json:"status"`
	Notes           string                 `json:"notes"`
	CreatedAt       time.Time              `json:"createdAt"`
	UpdatedAt       time.Time              `json:"updatedAt"`
}

func toOrderResponse(o domain.Order) orderResponse {
	return orderResponse{
		ID:              o.ID,
		Items:           toLineItemResponses(o.Items),
		Totals:          toTotalsResponse(o.Totals),
		Customer:        o.Customer,
		ShippingAddress: o.ShippingAddress,
		Status:          o.Status,
		Notes:           o.Notes,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}
