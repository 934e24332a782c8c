package basket

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
	"github.com/MarcGrol/picoteo/services/basket/basketevents"
	"github.com/MarcGrol/picoteo/services/catalog"
)

type webService struct {
	logger  mylog.Logger
	service *service
}

// Use dependency injection to isolate the infrastructure and easy testing
func NewWebService(store mystore.Store[Basket], resolver *catalog.Resolver, nower mytime.Nower, pub mypublisher.Publisher) *webService {
	logger := mylog.New("basket")
	return &webService{
		logger:  logger,
		service: newService(store, resolver, nower, logger, pub),
	}
}

// GetBasketByUID reads a basket as it is now; a missing basket is not an error
func (s *webService) GetBasketByUID(c context.Context, basketUID string) (Basket, bool, error) {
	return s.service.getBasketByUID(c, basketUID)
}

// RemoveOrderedItems takes the ordered line items out of the basket and starts a new generation; it joins a transaction carried by c
func (s *webService) RemoveOrderedItems(c context.Context, basketUID string, ordered []LineItem) (Basket, error) {
	return s.service.removeOrderedItems(c, basketUID, ordered)
}

func (s *webService) Subscribe(c context.Context) error {
	err := s.service.publisher.CreateTopic(c, basketevents.TopicName)
	if err != nil {
		return fmt.Errorf("error creating topic %s: %s", basketevents.TopicName, err)
	}
	return nil
}

func (s *webService) RegisterEndpoints(c context.Context, router *mux.Router) {
	router.HandleFunc("/api/user/{userUID}/basket", s.addToBasketPage()).Methods("POST")
	router.HandleFunc("/api/user/{userUID}/basket", s.getBasketPage()).Methods("GET")
	router.HandleFunc("/api/user/{userUID}/basket", s.clearBasketPage()).Methods("DELETE")
	router.HandleFunc("/api/user/{userUID}/basket/{productUID}", s.updateBasketItemPage()).Methods("PUT")
	router.HandleFunc("/api/user/{userUID}/basket/{productUID}", s.removeFromBasketPage()).Methods("DELETE")
	router.HandleFunc("/api/basket/{basketUID}/clear", s.clearBasketAfterOrderPage()).Methods("POST")
}

type addToBasketRequest struct {
	ProductUID string `form:"productUid"`
	Count      int    `form:"count"`
}

func (s *webService) addToBasketPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		req := addToBasketRequest{}
		err := myhttp.DecodeForm(r, &req)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		basket, err := s.service.addToBasket(c, mux.Vars(r)["userUID"], req.ProductUID, req.Count)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, basket)
	}
}

func (s *webService) getBasketPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		details, err := s.service.getBasket(c, mux.Vars(r)["userUID"])
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		// no basket yet is rendered as null
		errorWriter.Write(c, w, http.StatusOK, details)
	}
}

type updateBasketItemRequest struct {
	Count int `form:"count"`
}

func (s *webService) updateBasketItemPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		req := updateBasketItemRequest{}
		err := myhttp.DecodeForm(r, &req)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		basket, err := s.service.updateBasketItem(c, mux.Vars(r)["userUID"], mux.Vars(r)["productUID"], req.Count)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, basket)
	}
}

func (s *webService) removeFromBasketPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		basket, err := s.service.removeFromBasket(c, mux.Vars(r)["userUID"], mux.Vars(r)["productUID"])
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, basket)
	}
}

func (s *webService) clearBasketPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		basket, err := s.service.clearBasket(c, mux.Vars(r)["userUID"])
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, basket)
	}
}

func (s *webService) clearBasketAfterOrderPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		basket, err := s.service.clearBasketAfterOrder(c, mux.Vars(r)["basketUID"])
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, basket)
	}
}
