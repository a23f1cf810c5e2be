// internal/models/product.go
package models

import "github.com/shopspring/decimal"

// ProductImage holds the responsive image variants of a catalog entry.
type ProductImage struct {
	Thumbnail string `json:"thumbnail"`
	Mobile    string `json:"mobile"`
	Tablet    string `json:"tablet"`
	Desktop   string `json:"desktop"`
}

// ProductRecord is one entry of the catalog JSON array. The name is unique
// within a catalog and the product key is derived from it.
type ProductRecord struct {
	Name     string          `json:"name" validate:"required,max=255"`
	// Price is in whole cents; finer prices are rejected when a catalog loads.
	Price    decimal.Decimal `json:"price" validate:"gte=0"`
	Category string          `json:"category" validate:"required,max=100"`
	Image    ProductImage    `json:"image"`
}
