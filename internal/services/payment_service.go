// internal/services/payment_service.go
package services

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"

	"github.com/javajoker/storefront/internal/config"
	"github.com/javajoker/storefront/internal/models"
)

type PaymentIntent struct {
	Provider     string `json:"provider"`
	ID           string `json:"id"`
	ClientSecret string `json:"-"`
	Status       string `json:"status"`
}

// PaymentProvider starts payment for a placed order. A nil intent with a nil
// error means the order needs no online payment.
type PaymentProvider interface {
	CreateIntent(ctx context.Context, order *models.Order) (*PaymentIntent, error)
}

func NewPaymentProvider(cfg config.PaymentConfig) PaymentProvider {
	if cfg.StripeSecretKey == "" {
		return NoPayment{}
	}
	return NewStripeProvider(cfg.StripeSecretKey)
}

// NoPayment confirms orders straight away (pay at the counter).
type NoPayment struct{}

func (NoPayment) CreateIntent(ctx context.Context, order *models.Order) (*PaymentIntent, error) {
	return nil, nil
}

type StripeProvider struct{}

func NewStripeProvider(secretKey string) *StripeProvider {
	// Initialize Stripe
	stripe.Key = secretKey
	return &StripeProvider{}
}

func (p *StripeProvider) CreateIntent(ctx context.Context, order *models.Order) (*PaymentIntent, error) {
	amountInCents := order.Total.Round(2).Shift(2).IntPart()

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountInCents),
		Currency: stripe.String(order.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.AddMetadata("order_number", order.OrderNumber)
	params.AddMetadata("session_id", order.SessionID.String())

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	return &PaymentIntent{
		Provider:     "stripe",
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
	}, nil
}
