package cardpayment

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
	"github.com/MarcGrol/picoteo/services/cardpayment/paymentevents"
)

type webService struct {
	logger  mylog.Logger
	service *service
}

// Use dependency injection to isolate the infrastructure and easy testing
func NewWebService(currency string, store mystore.Store[Payment], orders OrderReader, payer Payer, nower mytime.Nower, pub mypublisher.Publisher) *webService {
	logger := mylog.New("cardpayment")
	return &webService{
		logger:  logger,
		service: newService(currency, store, orders, payer, nower, logger, pub),
	}
}

func (s *webService) Subscribe(c context.Context) error {
	err := s.service.publisher.CreateTopic(c, paymentevents.TopicName)
	if err != nil {
		return fmt.Errorf("error creating topic %s: %s", paymentevents.TopicName, err)
	}
	return nil
}

func (s *webService) RegisterEndpoints(c context.Context, router *mux.Router) {
	router.HandleFunc("/api/order/{orderUID}/pay", s.startPaymentPage()).Methods("POST")
	router.HandleFunc("/api/order/{orderUID}/pay/status/{status}", s.paymentCompletedPage()).Methods("GET")
}

type paymentResponse struct {
	OrderUID   string
	SessionURL string
}

func (s *webService) startPaymentPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		payment, err := s.service.startPayment(c, mux.Vars(r)["orderUID"], myhttp.HostnameWithScheme(r))
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, paymentResponse{
			OrderUID:   payment.OrderUID,
			SessionURL: payment.SessionURL,
		})
	}
}

func (s *webService) paymentCompletedPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		payment, err := s.service.finalizePayment(c, mux.Vars(r)["orderUID"], Status(mux.Vars(r)["status"]))
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, payment)
	}
}
