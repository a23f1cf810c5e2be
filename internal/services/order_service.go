// internal/services/order_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/storefront/internal/cart"
	"github.com/javajoker/storefront/internal/database"
	"github.com/javajoker/storefront/internal/models"
	"github.com/javajoker/storefront/internal/utils"
)

var (
	ErrEmptyCart     = errors.New("cart is empty")
	ErrOrderNotFound = errors.New("order not found")
	ErrPayment       = errors.New("payment could not be started")
)

type OrderService struct {
	db       *gorm.DB
	carts    *CartService
	payments PaymentProvider
	currency string
	now      func() time.Time
}

// Confirmation is what the shopper sees after checkout.
type Confirmation struct {
	Order        *models.Order `json:"order"`
	ClientSecret string        `json:"client_secret,omitempty"`
}

func NewOrderService(db *gorm.DB, carts *CartService, payments PaymentProvider, currency string) *OrderService {
	return &OrderService{
		db:       db,
		carts:    carts,
		payments: payments,
		currency: currency,
		now:      time.Now,
	}
}

// Checkout turns the session's cart into an order and starts a new, empty
// cart. The cart is left untouched when any step fails.
func (s *OrderService) Checkout(ctx context.Context, sessionID uuid.UUID) (*Confirmation, error) {
	var confirmation *Confirmation

	err := s.carts.WithSession(sessionID, func(m *cart.Manager) error {
		snap := m.Snapshot()
		if snap.Count == 0 {
			return ErrEmptyCart
		}

		order, err := s.buildOrder(sessionID, snap)
		if err != nil {
			return err
		}

		intent, err := s.payments.CreateIntent(ctx, order)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrPayment, err)
		}
		if intent != nil {
			order.Status = models.OrderStatusPendingPayment
			order.PaymentIntentID = intent.ID
			order.PaymentDetails = models.JSONB{"provider": intent.Provider, "status": intent.Status}
		}

		err = database.WithTransaction(s.db.WithContext(ctx), func(tx *gorm.DB) error {
			return tx.Create(order).Error
		})
		if err != nil {
			if intent != nil {
				logrus.WithFields(logrus.Fields{
					"order_number":      order.OrderNumber,
					"payment_intent_id": intent.ID,
				}).Warn("Order not saved, payment intent left dangling")
			}
			return fmt.Errorf("failed to save order: %w", err)
		}

		m.Reset()

		confirmation = &Confirmation{Order: order}
		if intent != nil {
			confirmation.ClientSecret = intent.ClientSecret
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"session_id":   sessionID,
		"order_number": confirmation.Order.OrderNumber,
		"status":       confirmation.Order.Status,
		"total":        confirmation.Order.Total.StringFixed(2),
	}).Info("Order placed")
	return confirmation, nil
}

func (s *OrderService) buildOrder(sessionID uuid.UUID, snap cart.Snapshot) (*models.Order, error) {
	number, err := utils.GenerateOrderNumber(s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to generate order number: %w", err)
	}

	order := &models.Order{
		SessionID:   sessionID,
		OrderNumber: number,
		Status:      models.OrderStatusConfirmed,
		Currency:    s.currency,
		ItemCount:   snap.Count,
		Lines:       make([]models.OrderLine, 0, len(snap.Cart)),
	}

	total := decimal.Zero
	for i, p := range snap.Cart {
		order.Lines = append(order.Lines, models.OrderLine{
			Position:   i,
			ProductKey: p.Key,
			Name:       p.Name,
			Category:   p.Category,
			Thumbnail:  p.Image.Thumbnail,
			UnitPrice:  p.Price,
			Quantity:   p.Quantity,
			Subtotal:   p.Subtotal,
		})
		total = total.Add(p.Subtotal)
	}
	order.Total = total

	return order, nil
}

// GetOrder returns an order placed by the given session.
func (s *OrderService) GetOrder(ctx context.Context, sessionID, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("id = ? AND session_id = ?", orderID, sessionID).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &order, nil
}

// ListOrders pages through the session's order history.
func (s *OrderService) ListOrders(ctx context.Context, sessionID uuid.UUID, params utils.PaginationParams) ([]models.Order, int64, error) {
	query := s.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("session_id = ?", sessionID).
		Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("database error: %w", err)
	}

	var orders []models.Order
	query = utils.ApplySort(query, params, []string{"created_at", "total", "item_count"})
	query = utils.ApplyPagination(query, params)
	err := query.
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Find(&orders).Error
	if err != nil {
		return nil, 0, fmt.Errorf("database error: %w", err)
	}

	return orders, total, nil
}
