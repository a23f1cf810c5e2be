// internal/models/order.go
package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Order struct {
	BaseModel
	SessionID       uuid.UUID       `json:"session_id" gorm:"type:uuid;not null;index"`
	OrderNumber     string          `json:"order_number" gorm:"size:32;not null;uniqueIndex"`
	Status          OrderStatus     `json:"status" gorm:"type:varchar(20);default:'confirmed';index"`
	Currency        string          `json:"currency" gorm:"size:3;not null"`
	Total           decimal.Decimal `json:"total" gorm:"type:decimal(10,2);not null"`
	ItemCount       int             `json:"item_count" gorm:"not null"`
	PaymentIntentID string          `json:"payment_intent_id,omitempty" gorm:"size:255"`
	PaymentDetails  JSONB           `json:"payment_details,omitempty" gorm:"type:text"`

	// Relationships
	Lines []OrderLine `json:"lines" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// OrderLine freezes one cart entry at checkout time. Position keeps the
// cart's newest-first order.
type OrderLine struct {
	BaseModel
	OrderID    uuid.UUID       `json:"order_id" gorm:"type:uuid;not null;index"`
	Position   int             `json:"position" gorm:"not null"`
	ProductKey string          `json:"product_key" gorm:"size:255;not null"`
	Name       string          `json:"name" gorm:"size:255;not null"`
	Category   string          `json:"category" gorm:"size:100"`
	Thumbnail  string          `json:"thumbnail,omitempty" gorm:"size:512"`
	UnitPrice  decimal.Decimal `json:"unit_price" gorm:"type:decimal(10,2);not null"`
	Quantity   int             `json:"quantity" gorm:"not null"`
	Subtotal   decimal.Decimal `json:"subtotal" gorm:"type:decimal(10,2);not null"`
}
