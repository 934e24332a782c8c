package catalog

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/MarcGrol/picoteo/lib/mycontext"
	"github.com/MarcGrol/picoteo/lib/myhttp"
	"github.com/MarcGrol/picoteo/lib/mylog"
	"github.com/MarcGrol/picoteo/lib/mypublisher"
	"github.com/MarcGrol/picoteo/lib/mytime"
	"github.com/MarcGrol/picoteo/lib/myuuid"
	"github.com/MarcGrol/picoteo/services/catalog/catalogevents"
)

type webService struct {
	logger  mylog.Logger
	service *service
}

// Use dependency injection to isolate the infrastructure and easy testing
func NewWebService(stores Stores, nower mytime.Nower, uuider myuuid.UUIDer, pub mypublisher.Publisher) *webService {
	logger := mylog.New("catalog")
	return &webService{
		logger:  logger,
		service: newService(stores, nower, uuider, logger, pub),
	}
}

// Resolver gives other services read access to the current catalog records
func (s *webService) Resolver() *Resolver {
	return s.service.resolver
}

func (s *webService) Subscribe(c context.Context) error {
	err := s.service.publisher.CreateTopic(c, catalogevents.TopicName)
	if err != nil {
		return fmt.Errorf("error creating topic %s: %s", catalogevents.TopicName, err)
	}
	return nil
}

func (s *webService) RegisterEndpoints(c context.Context, router *mux.Router) {
	router.HandleFunc("/api/user", s.createUserPage()).Methods("POST")
	router.HandleFunc("/api/user/{userUID}", s.getUserPage()).Methods("GET")
	router.HandleFunc("/api/user/{userUID}/role", s.updateUserRolePage()).Methods("PUT")
	router.HandleFunc("/api/user/{userUID}/profile", s.updateUserProfilePage()).Methods("PUT")
	router.HandleFunc("/api/user/{userUID}/shop", s.getMyShopsPage()).Methods("GET")

	router.HandleFunc("/api/shop", s.getShopsPage()).Methods("GET")
	router.HandleFunc("/api/shop", s.createShopPage()).Methods("POST")
	router.HandleFunc("/api/shop/{shopUID}", s.getShopPage()).Methods("GET")
	router.HandleFunc("/api/shop/{shopUID}/product", s.getProductsPage()).Methods("GET")
	router.HandleFunc("/api/shop/{shopUID}/product", s.createProductPage()).Methods("POST")

	router.HandleFunc("/api/owner/{username}", s.getOwnerPage()).Methods("GET")
}

type profileRequest struct {
	Name    *string `form:"name"`
	Email   *string `form:"email"`
	Phone   *string `form:"phone"`
	Address *string `form:"address"`
}

func (r profileRequest) toUpdate() ProfileUpdate {
	return ProfileUpdate{
		Name:    r.Name,
		Email:   r.Email,
		Phone:   r.Phone,
		Address: r.Address,
	}
}

type createUserRequest struct {
	Role    string  `form:"role"`
	Name    *string `form:"name"`
	Email   *string `form:"email"`
	Phone   *string `form:"phone"`
	Address *string `form:"address"`
}

func (s *webService) createUserPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		req := createUserRequest{Role: string(RoleCustomer)}
		err := myhttp.DecodeForm(r, &req)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		user, err := s.service.createUser(c, Role(req.Role), ProfileUpdate{
			Name:    req.Name,
			Email:   req.Email,
			Phone:   req.Phone,
			Address: req.Address,
		})
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		errorWriter.Write(c, w, http.StatusCreated, user)
	}
}

func (s *webService) getUserPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		user, err := s.service.getUser(c, mux.Vars(r)["userUID"])
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, user)
	}
}

type updateRoleRequest struct {
	Role string `form:"role"`
}

func (s *webService) updateUserRolePage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		req := updateRoleRequest{}
		err := myhttp.DecodeForm(r, &req)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		user, err := s.service.updateUserRole(c, mux.Vars(r)["userUID"], Role(req.Role))
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, user)
	}
}

func (s *webService) updateUserProfilePage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		req := profileRequest{}
		err := myhttp.DecodeForm(r, &req)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		user, err := s.service.updateUserProfile(c, mux.Vars(r)["userUID"], req.toUpdate())
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, user)
	}
}

func (s *webService) getMyShopsPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		shops, err := s.service.getMyShops(c, mux.Vars(r)["userUID"])
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, shops)
	}
}

func (s *webService) getShopsPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		shops, err := s.service.getShops(c)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, shops)
	}
}

type createShopRequest struct {
	UserUID     string `form:"userUid"`
	Username    string `form:"username"`
	Name        string `form:"name"`
	Description string `form:"description"`
	Address     string `form:"address"`
}

func (s *webService) createShopPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		req := createShopRequest{}
		err := myhttp.DecodeForm(r, &req)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		shop, err := s.service.createShop(c, createShopCommand(req))
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		errorWriter.Write(c, w, http.StatusCreated, shop)
	}
}

func (s *webService) getShopPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		shop, err := s.service.getShop(c, mux.Vars(r)["shopUID"])
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, shop)
	}
}

func (s *webService) getProductsPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		products, err := s.service.getProductsByShop(c, mux.Vars(r)["shopUID"])
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, products)
	}
}

type createProductRequest struct {
	UserUID          string  `form:"userUid"`
	Name             string  `form:"name"`
	BasePricePerUnit float64 `form:"basePricePerUnit"`
	Unit             string  `form:"unit"`
	InStock          bool    `form:"inStock"`
}

func (s *webService) createProductPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		req := createProductRequest{InStock: true}
		err := myhttp.DecodeForm(r, &req)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		product, err := s.service.createProduct(c, createProductCommand{
			UserUID:          req.UserUID,
			ShopUID:          mux.Vars(r)["shopUID"],
			Name:             req.Name,
			BasePricePerUnit: req.BasePricePerUnit,
			Unit:             req.Unit,
			InStock:          req.InStock,
		})
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		errorWriter.Write(c, w, http.StatusCreated, product)
	}
}

func (s *webService) getOwnerPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		details, err := s.service.getOwnerByUsername(c, mux.Vars(r)["username"])
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, details)
	}
}
