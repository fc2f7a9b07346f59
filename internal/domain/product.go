package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductOption is a choice a shopper makes before adding to cart, e.g. "Ring Size".
type ProductOption struct {
	Name     string   `json:"name"`
	Values   []string `json:"values"`
	Required bool     `json:"required"`
}

type Product struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Slug        string          `json:"slug"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Images      []string        `json:"images"`
	Categories  []string        `json:"categories"`
	Options     []ProductOption `json:"options,omitempty"`
	Stock       int             `json:"stock"`
	Featured    bool            `json:"featured"`
	Active      bool            `json:"active"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// PrimaryImage returns the first image reference or "".
func (p Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}
