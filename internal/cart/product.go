package cart

import (
	"github.com/shopspring/decimal"

	"github.com/javajoker/storefront/internal/models"
)

// Op names a cart transition.
type Op string

const (
	OpAdd      Op = "add"
	OpIncrease Op = "increase"
	OpDecrease Op = "decrease"
	OpRemove   Op = "remove"
	OpReset    Op = "reset"
)

// ParseStep maps a stepper action name to its operation.
func ParseStep(action string) (Op, bool) {
	switch Op(action) {
	case OpIncrease, OpDecrease:
		return Op(action), true
	}
	return "", false
}

// Product is a catalog entry with the selection state of one cart layered on top.
type Product struct {
	Key      string              `json:"key"`
	Name     string              `json:"name"`
	Price    decimal.Decimal     `json:"price"`
	Category string              `json:"category"`
	Image    models.ProductImage `json:"image"`
	Selected bool                `json:"selected"`
	Quantity int                 `json:"quantity"`
	Subtotal decimal.Decimal     `json:"subtotal"`
}

// Unselected builds the product for a catalog record with nothing in the cart.
func Unselected(key string, r models.ProductRecord) Product {
	p := Product{
		Key:      key,
		Name:     r.Name,
		Price:    r.Price,
		Category: r.Category,
		Image:    r.Image,
	}
	p.setQuantity(0)
	return p
}

// setQuantity is the only writer of the mutable fields, so selected and
// subtotal can never disagree with quantity.
func (p *Product) setQuantity(q int) {
	if q < 0 {
		q = 0
	}
	p.Quantity = q
	p.Selected = q > 0
	p.Subtotal = p.Price.Mul(decimal.NewFromInt(int64(q)))
}
