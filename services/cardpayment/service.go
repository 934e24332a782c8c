package cardpayment

import (
	"context"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v74"

	"github.com/MarcGrol/picoteo/lib/myerrors"
	"github.com/MarcGrol/picoteo/lib/mylog"
	"github.com/MarcGrol/picoteo/lib/mypublisher"
	"github.com/MarcGrol/picoteo/lib/mystore"
	"github.com/MarcGrol/picoteo/lib/mytime"
	"github.com/MarcGrol/picoteo/services/cardpayment/paymentevents"
	"github.com/MarcGrol/picoteo/services/order"
	"github.com/MarcGrol/picoteo/services/receipt"
)

//go:generate mockgen -source=service.go -package cardpayment -destination orderreader_mock.go OrderReader
type OrderReader interface {
	GetOrderDetails(c context.Context, orderUID string) (order.OrderDetails, error)
}

type service struct {
	currency     string
	paymentStore mystore.Store[Payment]
	orders       OrderReader
	payer        Payer
	publisher    mypublisher.Publisher
	nower        mytime.Nower
	logger       mylog.Logger
}

// Use dependency injection to isolate the infrastructure and easy testing
func newService(currency string, store mystore.Store[Payment], orders OrderReader, payer Payer, nower mytime.Nower, logger mylog.Logger, pub mypublisher.Publisher) *service {
	return &service{
		currency:     strings.ToLower(currency),
		paymentStore: store,
		orders:       orders,
		payer:        payer,
		publisher:    pub,
		nower:        nower,
		logger:       logger,
	}
}

// startPayment creates a Stripe checkout session for an order of type stripe and returns the url to pay at
func (s *service) startPayment(c context.Context, orderUID string, baseURL string) (Payment, error) {
	s.logger.Log(c, orderUID, mylog.SeverityInfo, "Start card payment for order %s", orderUID)

	details, err := s.orders.GetOrderDetails(c, orderUID)
	if err != nil {
		return Payment{}, err
	}
	if details.OrderType != receipt.OrderTypeStripe {
		return Payment{}, myerrors.NewInvalidInputError(fmt.Errorf("order %s is of type %s, not %s", orderUID, details.OrderType, receipt.OrderTypeStripe))
	}

	params := s.sessionParams(c, details, baseURL)
	if len(params.LineItems) == 0 {
		return Payment{}, myerrors.NewInvalidInputError(fmt.Errorf("order %s has no payable products", orderUID))
	}

	now := s.nower.Now()

	session, err := s.payer.CreateCheckoutSession(c, params)
	if err != nil {
		return Payment{}, err
	}

	payment := Payment{
		OrderUID:      orderUID,
		SessionID:     session.ID,
		SessionURL:    session.URL,
		AmountInCents: session.AmountTotal,
		Currency:      s.currency,
		Status:        StatusStarted,
		CreatedAt:     now,
	}

	err = s.paymentStore.RunInTransaction(c, func(c context.Context) error {
		// must be idempotent
		err := s.paymentStore.Put(c, orderUID, payment)
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error storing payment: %s", err))
		}

		err = s.publisher.Publish(c, paymentevents.TopicName, paymentevents.PaymentStarted{
			OrderUID:      orderUID,
			SessionID:     session.ID,
			AmountInCents: session.AmountTotal,
			Currency:      s.currency,
		})
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error publishing event: %s", err))
		}

		return nil
	})
	if err != nil {
		return Payment{}, err
	}

	return payment, nil
}

func (s *service) sessionParams(c context.Context, details order.OrderDetails, baseURL string) stripe.CheckoutSessionParams {
	lineItems := []*stripe.CheckoutSessionLineItemParams{}
	for _, item := range details.BasketProducts {
		if item.Product == nil {
			s.logger.Log(c, details.UID, mylog.SeverityWarn, "Product %s of order %s no longer exists: not charged", item.ProductUID, details.UID)
			continue
		}
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(s.currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name:        stripe.String(item.Product.Name),
					Description: stripe.String(fmt.Sprintf("per %s", item.Product.Unit)),
				},
				UnitAmount: stripe.Int64(toCents(item.Product.BasePricePerUnit)),
			},
			Quantity: stripe.Int64(int64(item.Count)),
		})
	}

	params := stripe.CheckoutSessionParams{
		SuccessURL:        stripe.String(fmt.Sprintf("%s/api/order/%s/pay/status/%s", baseURL, details.UID, StatusSuccess)),
		CancelURL:         stripe.String(fmt.Sprintf("%s/api/order/%s/pay/status/%s", baseURL, details.UID, StatusCancelled)),
		ClientReferenceID: stripe.String(details.UID),
		LineItems:         lineItems,
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		Currency:          stripe.String(s.currency),
	}
	if details.User != nil && details.User.Email != "" {
		params.CustomerEmail = stripe.String(details.User.Email)
	}
	params.AddMetadata("orderUID", details.UID)

	return params
}

// finalizePayment records where the shopper was sent back to; the order itself is not changed
func (s *service) finalizePayment(c context.Context, orderUID string, status Status) (Payment, error) {
	s.logger.Log(c, orderUID, mylog.SeverityInfo, "Card payment of order %s returned with status %s", orderUID, status)

	if !status.isFinal() {
		return Payment{}, myerrors.NewInvalidInputError(fmt.Errorf("invalid payment status '%s'", status))
	}

	now := s.nower.Now()

	var payment Payment
	err := s.paymentStore.RunInTransaction(c, func(c context.Context) error {
		// must be idempotent
		existing, found, err := s.paymentStore.Get(c, orderUID)
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error fetching payment of order %s: %s", orderUID, err))
		}
		if !found {
			return myerrors.NewNotFoundError(fmt.Errorf("payment of order %s not found", orderUID))
		}
		if existing.Status == status {
			payment = existing
			return nil
		}

		existing.Status = status
		existing.LastModified = &now

		err = s.paymentStore.Put(c, orderUID, existing)
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		err = s.publisher.Publish(c, paymentevents.TopicName, paymentevents.PaymentCompleted{
			OrderUID: orderUID,
			Status:   string(status),
		})
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error publishing event: %s", err))
		}

		payment = existing
		return nil
	})
	if err != nil {
		return Payment{}, err
	}

	return payment, nil
}
