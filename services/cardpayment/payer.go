package cardpayment

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/checkout/session"

	"github.com/MarcGrol/picoteo/lib/myerrors"
)

//go:generate mockgen -source=payer.go -package cardpayment -destination payer_mock.go Payer
type Payer interface {
	CreateCheckoutSession(c context.Context, params stripe.CheckoutSessionParams) (stripe.CheckoutSession, error)
}

// NewPayer talks to Stripe. Without an api-key card payment is not available.
func NewPayer(apiKey string) Payer {
	if apiKey == "" {
		return &unconfiguredPayer{}
	}
	stripe.Key = apiKey
	return &stripePayer{}
}

type stripePayer struct{}

func (p *stripePayer) CreateCheckoutSession(c context.Context, params stripe.CheckoutSessionParams) (stripe.CheckoutSession, error) {
	params.Context = c
	session, err := session.New(&params)
	if err != nil {
		return stripe.CheckoutSession{}, myerrors.NewUnavailableError(fmt.Errorf("error creating stripe session: %s", err))
	}

	return *session, nil
}

type unconfiguredPayer struct{}

func (p *unconfiguredPayer) CreateCheckoutSession(c context.Context, params stripe.CheckoutSessionParams) (stripe.CheckoutSession, error) {
	return stripe.CheckoutSession{}, myerrors.NewNotImplementedError(fmt.Errorf("card payment is not configured"))
}
