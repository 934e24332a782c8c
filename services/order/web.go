package order

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/MarcGrol/picoteo/lib/mycontext"
	"github.com/MarcGrol/picoteo/lib/myhttp"
	"github.com/MarcGrol/picoteo/lib/mylog"
	"github.com/MarcGrol/picoteo/lib/mypublisher"
	"github.com/MarcGrol/picoteo/lib/mystore"
	"github.com/MarcGrol/picoteo/lib/mytime"
	"github.com/MarcGrol/picoteo/lib/myuuid"
	"github.com/MarcGrol/picoteo/services/basket"
	"github.com/MarcGrol/picoteo/services/catalog"
	"github.com/MarcGrol/picoteo/services/order/orderapi"
	"github.com/MarcGrol/picoteo/services/order/orderevents"
	"github.com/MarcGrol/picoteo/services/receipt"
)

type webService struct {
	logger  mylog.Logger
	service *service
}

// Use dependency injection to isolate the infrastructure and easy testing
func NewWebService(store mystore.Store[Order], baskets BasketKeeper, resolver *catalog.Resolver, formatter receipt.Formatter,
	dispatcher receipt.Dispatcher, nower mytime.Nower, uuider myuuid.UUIDer, pub mypublisher.Publisher) *webService {
	logger := mylog.New("order")
	return &webService{
		logger:  logger,
		service: newService(store, baskets, resolver, formatter, dispatcher, nower, uuider, logger, pub),
	}
}

// GetOrderDetails returns the order with its line items resolved against the current catalog
func (s *webService) GetOrderDetails(c context.Context, orderUID string) (OrderDetails, error) {
	return s.service.getOrder(c, orderUID)
}

func (s *webService) Subscribe(c context.Context) error {
	err := s.service.publisher.CreateTopic(c, orderevents.TopicName)
	if err != nil {
		return fmt.Errorf("error creating topic %s: %s", orderevents.TopicName, err)
	}
	return nil
}

func (s *webService) RegisterEndpoints(c context.Context, router *mux.Router) {
	router.HandleFunc("/api/order", s.createOrderPage()).Methods("POST")
	router.HandleFunc("/api/order/pickup", s.createPickupOrderPage()).Methods("POST")
	router.HandleFunc("/api/basket/{basketUID}/checkout", s.checkoutBasketPage()).Methods("POST")
	router.HandleFunc("/api/order/{orderUID}", s.getOrderPage()).Methods("GET")
	router.HandleFunc("/api/user/{userUID}/order", s.getUserOrdersPage()).Methods("GET")
	router.HandleFunc("/api/order/{orderUID}/receipt", s.receiptPreviewPage()).Methods("GET")
	router.HandleFunc("/api/order/{orderUID}/receipt", s.sendReceiptPage()).Methods("POST")
}

type createOrderRequest struct {
	UserUID         string  `form:"userUid"`
	BasketUID       string  `form:"basketUid"`
	ShopUID         string  `form:"shopUid"`
	TotalPriceToPay float64 `form:"totalPriceToPay"`
	OrderType       string  `form:"orderType"`
}

func (s *webService) createOrderPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		req := createOrderRequest{}
		err := myhttp.DecodeForm(r, &req)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		order, err := s.service.createOrder(c, createOrderCommand{
			UserUID:         req.UserUID,
			BasketUID:       req.BasketUID,
			ShopUID:         req.ShopUID,
			TotalPriceToPay: req.TotalPriceToPay,
			OrderType:       receipt.OrderType(req.OrderType),
		})
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		errorWriter.Write(c, w, http.StatusCreated, order)
	}
}

func (s *webService) createPickupOrderPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		req, err := orderapi.NewFromRequest(r)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		lineItems := make([]basket.LineItem, 0, len(req.Products))
		for _, p := range req.Products {
			lineItems = append(lineItems, basket.LineItem{ProductUID: p.ProductUID, Count: p.Count})
		}

		order, err := s.service.createPickupOrder(c, createPickupOrderCommand{
			UserUID:         req.UserUID,
			ShopUID:         req.ShopUID,
			LineItems:       lineItems,
			TotalPriceToPay: req.TotalPriceToPay,
			OrderType:       receipt.OrderType(req.OrderType),
		})
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		errorWriter.Write(c, w, http.StatusCreated, order)
	}
}

type checkoutBasketRequest struct {
	UserUID   string `form:"userUid"`
	OrderType string `form:"orderType"`
}

func (s *webService) checkoutBasketPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		req := checkoutBasketRequest{}
		err := myhttp.DecodeForm(r, &req)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		orders, err := s.service.checkoutBasket(c, req.UserUID, mux.Vars(r)["basketUID"], receipt.OrderType(req.OrderType))
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		errorWriter.Write(c, w, http.StatusCreated, orders)
	}
}

func (s *webService) getOrderPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		details, err := s.service.getOrder(c, mux.Vars(r)["orderUID"])
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, details)
	}
}

func (s *webService) getUserOrdersPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		orders, err := s.service.getUserOrders(c, mux.Vars(r)["userUID"])
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, orders)
	}
}

func (s *webService) receiptPreviewPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		preview, err := s.service.receiptPreview(c, mux.Vars(r)["orderUID"])
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, preview)
	}
}

func (s *webService) sendReceiptPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		preview, err := s.service.sendReceipt(c, mux.Vars(r)["orderUID"])
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, preview)
	}
}
