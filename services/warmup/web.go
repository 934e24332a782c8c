package warmup

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/MarcGrol/picoteo/lib/mycontext"
	"github.com/MarcGrol/picoteo/lib/myerrors"
	"github.com/MarcGrol/picoteo/lib/myhttp"
	"github.com/MarcGrol/picoteo/lib/mylog"
	"github.com/MarcGrol/picoteo/services/catalog"
)

const probeUID = "warmup"

type webService struct {
	logger   mylog.Logger
	resolver *catalog.Resolver
}

// Use dependency injection to isolate the infrastructure and ease testing
func NewService(resolver *catalog.Resolver) *webService {
	logger := mylog.New("warmup")
	return &webService{
		logger:   logger,
		resolver: resolver,
	}
}

func (s webService) RegisterEndpoints(c context.Context, router *mux.Router) {
	router.HandleFunc("/_ah/warmup", s.warmupPage()).Methods("GET")
}

// warmupPage opens the store connection before the first real request arrives
func (s *webService) warmupPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		_, _, err := s.resolver.GetShop(c, probeUID)
		if err != nil {
			errorWriter.WriteError(c, w, 1, myerrors.NewUnavailableError(err))
			return
		}

		errorWriter.Write(c, w, http.StatusOK, myhttp.SuccessResponse{
			Message: "Successfully processed warmup request",
		})
	}
}
