// Package payments turns a client-side card token into money.
package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/client"
)

// Charge is what the gateway confirmed. Amount may differ from the amount
// requested and is the figure recorded on the order.
type Charge struct {
	ID       string
	Amount   int64
	Currency string
}

// Charger captures a payment.
type Charger interface {
	Charge(ctx context.Context, amount int64, currency, token string) (*Charge, error)
}

// StripeCharger creates Stripe charges from card tokens.
type StripeCharger struct {
	api *client.API
}

// NewStripeCharger builds a charger for secretKey. backends may be nil to use
// Stripe's default endpoints.
func NewStripeCharger(secretKey string, backends *stripe.Backends) *StripeCharger {
	return &StripeCharger{api: client.New(secretKey, backends)}
}

func (c *StripeCharger) Charge(ctx context.Context, amount int64, currency, token string) (*Charge, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("charge amount must be positive, got %d", amount)
	}
	if token == "" {
		return nil, errors.New("missing payment token")
	}

	params := &stripe.ChargeParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(currency),
	}
	params.Context = ctx
	if err := params.SetSource(token); err != nil {
		return nil, fmt.Errorf("payment source: %w", err)
	}

	ch, err := c.api.Charges.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe charge: %w", err)
	}

	return &Charge{ID: ch.ID, Amount: ch.Amount, Currency: string(ch.Currency)}, nil
}
