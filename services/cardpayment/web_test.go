package cardpayment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stripe/stripe-go/v74"
	"go.uber.org/mock/gomock"

	"github.com/MarcGrol/picoteo/lib/myerrors"
	"github.com/MarcGrol/picoteo/lib/mypublisher"
	"github.com/MarcGrol/picoteo/lib/mystore"
	"github.com/MarcGrol/picoteo/lib/mytime"
	"github.com/MarcGrol/picoteo/services/basket"
	"github.com/MarcGrol/picoteo/services/cardpayment/paymentevents"
	"github.com/MarcGrol/picoteo/services/catalog"
	"github.com/MarcGrol/picoteo/services/order"
	"github.com/MarcGrol/picoteo/services/receipt"
)

var (
	tomatoes = catalog.Product{UID: "p1", ShopUID: "s1", Name: "Tomatoes", BasePricePerUnit: 2.99, Unit: "lb"}

	stripeOrder = order.OrderDetails{
		Order: order.Order{
			UID:       "o1",
			UserUID:   "u1",
			ShopUID:   "s1",
			OrderType: receipt.OrderTypeStripe,
			Products:  []basket.LineItem{{ProductUID: "p1", Count: 3}, {ProductUID: "gone", Count: 1}},
		},
		User: &catalog.User{UID: "u1", Email: "eva@example.com"},
		BasketProducts: []basket.ResolvedLineItem{
			{ProductUID: "p1", Count: 3, Product: &tomatoes},
			{ProductUID: "gone", Count: 1},
		},
	}

	sessionResp = stripe.CheckoutSession{
		ID:          "cs_456",
		AmountTotal: int64(897),
		Currency:    "eur",
		URL:         "https://checkout.stripe.com/pay/cs_456",
	}
)

func TestStartPayment(t *testing.T) {

	t.Run("Session for stripe order", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, store, orders, payer, nower, publisher := setup(ctrl)

		// given
		orders.EXPECT().GetOrderDetails(gomock.Any(), "o1").Return(stripeOrder, nil)
		nower.EXPECT().Now().Return(mytime.ExampleTime)
		payer.EXPECT().CreateCheckoutSession(gomock.Any(), gomock.Any()).DoAndReturn(
			func(c context.Context, params stripe.CheckoutSessionParams) (stripe.CheckoutSession, error) {
				assert.Len(t, params.LineItems, 1)
				assert.Equal(t, int64(299), *params.LineItems[0].PriceData.UnitAmount)
				assert.Equal(t, int64(3), *params.LineItems[0].Quantity)
				assert.Equal(t, "Tomatoes", *params.LineItems[0].PriceData.ProductData.Name)
				assert.Equal(t, "eur", *params.Currency)
				assert.Equal(t, "o1", *params.ClientReferenceID)
				assert.Equal(t, "eva@example.com", *params.CustomerEmail)
				assert.Equal(t, "o1", params.Metadata["orderUID"])
				return sessionResp, nil
			})
		publisher.EXPECT().Publish(gomock.Any(), paymentevents.TopicName, paymentevents.PaymentStarted{
			OrderUID:      "o1",
			SessionID:     "cs_456",
			AmountInCents: 897,
			Currency:      "eur",
		}).Return(nil)

		// when
		request, _ := http.NewRequest(http.MethodPost, "/api/order/o1/pay", nil)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 200, response.Code)
		resp := paymentResponse{}
		err := json.Unmarshal(response.Body.Bytes(), &resp)
		assert.NoError(t, err)
		assert.Equal(t, "https://checkout.stripe.com/pay/cs_456", resp.SessionURL)

		payment, found, _ := store.Get(ctx, "o1")
		assert.True(t, found)
		assert.Equal(t, StatusStarted, payment.Status)
		assert.Equal(t, "cs_456", payment.SessionID)
		assert.Equal(t, mytime.ExampleTime, payment.CreatedAt)
	})

	t.Run("Pickup order cannot be paid by card", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		_, router, _, orders, _, _, _ := setup(ctrl)

		// given
		pickupOrder := stripeOrder
		pickupOrder.OrderType = receipt.OrderTypePickup
		orders.EXPECT().GetOrderDetails(gomock.Any(), "o1").Return(pickupOrder, nil)

		// when
		request, _ := http.NewRequest(http.MethodPost, "/api/order/o1/pay", nil)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 400, response.Code)
	})

	t.Run("Unknown order", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		_, router, _, orders, _, _, _ := setup(ctrl)

		// given
		orders.EXPECT().GetOrderDetails(gomock.Any(), "o1").Return(order.OrderDetails{}, myerrors.NewNotFoundError(fmt.Errorf("not found")))

		// when
		request, _ := http.NewRequest(http.MethodPost, "/api/order/o1/pay", nil)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 404, response.Code)
	})

	t.Run("Stripe not configured", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, _, store, orders, _, nower, publisher := setup(ctrl)
		router := mux.NewRouter()
		NewWebService("EUR", store, orders, NewPayer(""), nower, publisher).RegisterEndpoints(ctx, router)

		// given
		orders.EXPECT().GetOrderDetails(gomock.Any(), "o1").Return(stripeOrder, nil)
		nower.EXPECT().Now().Return(mytime.ExampleTime)

		// when
		request, _ := http.NewRequest(http.MethodPost, "/api/order/o1/pay", nil)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 501, response.Code)
		_, found, _ := store.Get(ctx, "o1")
		assert.False(t, found)
	})
}

func TestPaymentCompleted(t *testing.T) {

	t.Run("Success is recorded once", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, store, _, _, nower, publisher := setup(ctrl)

		// given
		_ = store.Put(ctx, "o1", Payment{OrderUID: "o1", SessionID: "cs_456", Status: StatusStarted})
		nower.EXPECT().Now().Return(mytime.ExampleTime).Times(2)
		publisher.EXPECT().Publish(gomock.Any(), paymentevents.TopicName, paymentevents.PaymentCompleted{OrderUID: "o1", Status: "success"}).Return(nil)

		// when
		for i := 0; i < 2; i++ {
			request, _ := http.NewRequest(http.MethodGet, "/api/order/o1/pay/status/success", nil)
			response := httptest.NewRecorder()
			router.ServeHTTP(response, request)
			assert.Equal(t, 200, response.Code)
		}

		// then
		payment, _, _ := store.Get(ctx, "o1")
		assert.Equal(t, StatusSuccess, payment.Status)
		assert.Equal(t, mytime.ExampleTime, *payment.LastModified)
	})

	t.Run("Invalid status", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		_, router, _, _, _, _, _ := setup(ctrl)

		// when
		request, _ := http.NewRequest(http.MethodGet, "/api/order/o1/pay/status/whatever", nil)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 400, response.Code)
	})

	t.Run("Unknown payment", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		_, router, _, _, _, nower, _ := setup(ctrl)

		// given
		nower.EXPECT().Now().Return(mytime.ExampleTime)

		// when
		request, _ := http.NewRequest(http.MethodGet, "/api/order/o1/pay/status/cancel", nil)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 404, response.Code)
	})
}

func setup(ctrl *gomock.Controller) (context.Context, *mux.Router, mystore.Store[Payment], *MockOrderReader, *MockPayer, *mytime.MockNower, *mypublisher.MockPublisher) {
	c := context.TODO()
	store, _, _ := mystore.NewInMemoryStore[Payment](c)
	orders := NewMockOrderReader(ctrl)
	payer := NewMockPayer(ctrl)
	nower := mytime.NewMockNower(ctrl)
	publisher := mypublisher.NewMockPublisher(ctrl)

	sut := NewWebService("EUR", store, orders, payer, nower, publisher)
	router := mux.NewRouter()
	sut.RegisterEndpoints(c, router)

	return c, router, store, orders, payer, nower, publisher
}
