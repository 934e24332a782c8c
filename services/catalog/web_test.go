package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/MarcGrol/picoteo/lib/mypublisher"
	"github.com/MarcGrol/picoteo/lib/mystore"
	"github.com/MarcGrol/picoteo/lib/mytime"
	"github.com/MarcGrol/picoteo/lib/myuuid"
	"github.com/MarcGrol/picoteo/services/catalog/catalogevents"
)

var (
	customer  = User{UID: "u1", Name: "Eva", Phone: "+34600000001", Role: RoleCustomer, CreatedAt: mytime.ExampleTime}
	ownerUser = User{UID: "u2", Name: "Pien", Email: "pien@picoteo.es", Phone: "+34600000002", Role: RoleOwner, CreatedAt: mytime.ExampleTime}
)

func TestUsers(t *testing.T) {

	t.Run("Create user defaults to customer", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, stores, nower, uuider, publisher := setup(ctrl)

		// given
		nower.EXPECT().Now().Return(mytime.ExampleTime)
		uuider.EXPECT().Create().Return("u3")
		publisher.EXPECT().Publish(gomock.Any(), catalogevents.TopicName, catalogevents.UserCreated{UserUID: "u3", Role: "customer"}).Return(nil)

		// when
		response := send(router, http.MethodPost, "/api/user", url.Values{"name": {"Marc"}})

		// then
		assert.Equal(t, 201, response.Code)
		user, found, _ := stores.Users.Get(ctx, "u3")
		assert.True(t, found)
		assert.Equal(t, RoleCustomer, user.Role)
		assert.Equal(t, "Marc", user.Name)
	})

	t.Run("Create user with invalid role", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		_, router, _, _, _, _ := setup(ctrl)

		// when
		response := send(router, http.MethodPost, "/api/user", url.Values{"role": {"admin"}})

		// then
		assert.Equal(t, 400, response.Code)
	})

	t.Run("Get user not found", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		_, router, _, _, _, _ := setup(ctrl)

		// when
		response := send(router, http.MethodGet, "/api/user/unknown", nil)

		// then
		assert.Equal(t, 404, response.Code)
	})

	t.Run("Customer becomes owner", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, stores, _, _, _ := setup(ctrl)

		// given
		_ = stores.Users.Put(ctx, customer.UID, customer)

		// when
		response := send(router, http.MethodPut, "/api/user/u1/role", url.Values{"role": {"owner"}})

		// then
		assert.Equal(t, 200, response.Code)
		user, _, _ := stores.Users.Get(ctx, customer.UID)
		assert.Equal(t, RoleOwner, user.Role)
	})

	t.Run("Profile update only changes supplied fields", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, stores, _, _, _ := setup(ctrl)

		// given
		_ = stores.Users.Put(ctx, customer.UID, customer)

		// when
		response := send(router, http.MethodPut, "/api/user/u1/profile", url.Values{"address": {"Calle Mayor 1"}, "name": {"Eva Maria"}})

		// then
		assert.Equal(t, 200, response.Code)
		user, _, _ := stores.Users.Get(ctx, customer.UID)
		assert.Equal(t, "Eva Maria", user.Name)
		assert.Equal(t, "Calle Mayor 1", user.Address)
		assert.Equal(t, customer.Phone, user.Phone)
	})
}

func TestShops(t *testing.T) {

	t.Run("Owner creates shop", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, stores, nower, uuider, publisher := setup(ctrl)

		// given
		_ = stores.Users.Put(ctx, ownerUser.UID, ownerUser)
		nower.EXPECT().Now().Return(mytime.ExampleTime)
		uuider.EXPECT().Create().Return("s1")
		publisher.EXPECT().Publish(gomock.Any(), catalogevents.TopicName, catalogevents.ShopCreated{
			ShopUID:  "s1",
			OwnerUID: ownerUIDOf(ownerUser.UID),
			UserUID:  ownerUser.UID,
			Name:     "Fruteria Pien",
		}).Return(nil)

		// when
		response := send(router, http.MethodPost, "/api/shop", url.Values{
			"userUid":     {ownerUser.UID},
			"username":    {"pien"},
			"name":        {"Fruteria Pien"},
			"description": {"Fresh fruit"},
			"address":     {"Mercado Central"},
		})

		// then
		assert.Equal(t, 201, response.Code)
		shop, found, _ := stores.Shops.Get(ctx, "s1")
		assert.True(t, found)
		assert.Equal(t, "Fruteria Pien", shop.Name)

		owner, found, _ := stores.Owners.Get(ctx, shop.OwnerUID)
		assert.True(t, found)
		assert.Equal(t, ownerUser.UID, owner.UserUID)
		assert.Equal(t, "pien", owner.Username)
		assert.Equal(t, ownerUser.Email, owner.Email)
	})

	t.Run("Second shop reuses owner", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, stores, nower, uuider, publisher := setup(ctrl)

		// given
		_ = stores.Users.Put(ctx, ownerUser.UID, ownerUser)
		nower.EXPECT().Now().Return(mytime.ExampleTime).Times(2)
		uuider.EXPECT().Create().Return("s1")
		uuider.EXPECT().Create().Return("s2")
		publisher.EXPECT().Publish(gomock.Any(), catalogevents.TopicName, gomock.Any()).Return(nil).Times(2)

		// when
		send(router, http.MethodPost, "/api/shop", url.Values{"userUid": {ownerUser.UID}, "name": {"One"}})
		response := send(router, http.MethodPost, "/api/shop", url.Values{"userUid": {ownerUser.UID}, "name": {"Two"}})

		// then
		assert.Equal(t, 201, response.Code)
		owners, _ := stores.Owners.List(ctx)
		assert.Len(t, owners, 1)

		response = send(router, http.MethodGet, "/api/user/u2/shop", nil)
		assert.Equal(t, 200, response.Code)
		shops := []Shop{}
		_ = json.Unmarshal(response.Body.Bytes(), &shops)
		assert.Len(t, shops, 2)
	})

	t.Run("Shop joins owner linked to the user before", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, stores, nower, uuider, publisher := setup(ctrl)

		// given
		_ = stores.Users.Put(ctx, ownerUser.UID, ownerUser)
		_ = stores.Owners.Put(ctx, "o1", Owner{UID: "o1", UserUID: ownerUser.UID, Username: "pien", Name: "Pien"})
		nower.EXPECT().Now().Return(mytime.ExampleTime)
		uuider.EXPECT().Create().Return("s1")
		publisher.EXPECT().Publish(gomock.Any(), catalogevents.TopicName, catalogevents.ShopCreated{
			ShopUID:  "s1",
			OwnerUID: "o1",
			UserUID:  ownerUser.UID,
			Name:     "Fruteria Pien",
		}).Return(nil)

		// when
		response := send(router, http.MethodPost, "/api/shop", url.Values{
			"userUid":  {ownerUser.UID},
			"username": {"pien"},
			"name":     {"Fruteria Pien"},
		})

		// then
		assert.Equal(t, 201, response.Code)
		shop, _, _ := stores.Shops.Get(ctx, "s1")
		assert.Equal(t, "o1", shop.OwnerUID)
		owners, _ := stores.Owners.List(ctx)
		assert.Len(t, owners, 1)

		response = send(router, http.MethodGet, "/api/user/"+ownerUser.UID+"/shop", nil)
		assert.Equal(t, 200, response.Code)
		shops := []Shop{}
		_ = json.Unmarshal(response.Body.Bytes(), &shops)
		assert.Len(t, shops, 1)
	})

	t.Run("Customer cannot create shop", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, stores, _, _, _ := setup(ctrl)

		// given
		_ = stores.Users.Put(ctx, customer.UID, customer)

		// when
		response := send(router, http.MethodPost, "/api/shop", url.Values{"userUid": {customer.UID}, "name": {"Not mine"}})

		// then
		assert.Equal(t, 403, response.Code)
		shops, _ := stores.Shops.List(ctx)
		assert.Empty(t, shops)
		owners, _ := stores.Owners.List(ctx)
		assert.Empty(t, owners)
	})

	t.Run("Unknown user cannot create shop", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, stores, _, _, _ := setup(ctrl)

		// when
		response := send(router, http.MethodPost, "/api/shop", url.Values{"userUid": {"ghost"}, "name": {"Ghost shop"}})

		// then
		assert.Equal(t, 403, response.Code)
		shops, _ := stores.Shops.List(ctx)
		assert.Empty(t, shops)
	})

	t.Run("Get shop not found", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		_, router, _, _, _, _ := setup(ctrl)

		// when
		response := send(router, http.MethodGet, "/api/shop/unknown", nil)

		// then
		assert.Equal(t, 404, response.Code)
	})

	t.Run("List shops oldest first", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, stores, _, _, _ := setup(ctrl)

		// given
		_ = stores.Shops.Put(ctx, "s2", Shop{UID: "s2", CreatedAt: mytime.ExampleTime.Add(time.Hour)})
		_ = stores.Shops.Put(ctx, "s1", Shop{UID: "s1", CreatedAt: mytime.ExampleTime})

		// when
		response := send(router, http.MethodGet, "/api/shop", nil)

		// then
		assert.Equal(t, 200, response.Code)
		shops := []Shop{}
		_ = json.Unmarshal(response.Body.Bytes(), &shops)
		assert.Equal(t, "s1", shops[0].UID)
		assert.Equal(t, "s2", shops[1].UID)
	})

	t.Run("Get owner by username", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, stores, _, _, _ := setup(ctrl)

		// given
		_ = stores.Owners.Put(ctx, "o1", Owner{UID: "o1", Username: "pien"})
		_ = stores.Shops.Put(ctx, "s1", Shop{UID: "s1", OwnerUID: "o1"})
		_ = stores.Shops.Put(ctx, "s2", Shop{UID: "s2", OwnerUID: "o2"})

		// when
		response := send(router, http.MethodGet, "/api/owner/pien", nil)

		// then
		assert.Equal(t, 200, response.Code)
		details := OwnerDetails{}
		_ = json.Unmarshal(response.Body.Bytes(), &details)
		assert.Equal(t, "o1", details.Owner.UID)
		assert.Len(t, details.Shops, 1)

		response = send(router, http.MethodGet, "/api/owner/eva", nil)
		assert.Equal(t, 404, response.Code)
	})
}

func TestProducts(t *testing.T) {

	t.Run("Owner adds product", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, stores, nower, uuider, publisher := setup(ctrl)

		// given
		givenShopOfOwner(ctx, stores)
		nower.EXPECT().Now().Return(mytime.ExampleTime)
		uuider.EXPECT().Create().Return("p1")
		publisher.EXPECT().Publish(gomock.Any(), catalogevents.TopicName, catalogevents.ProductCreated{
			ProductUID:       "p1",
			ShopUID:          "s1",
			Name:             "Tomatoes",
			BasePricePerUnit: 2.99,
			Unit:             "lb",
		}).Return(nil)

		// when
		response := send(router, http.MethodPost, "/api/shop/s1/product", url.Values{
			"userUid":          {ownerUser.UID},
			"name":             {"Tomatoes"},
			"basePricePerUnit": {"2.99"},
			"unit":             {"lb"},
		})

		// then
		assert.Equal(t, 201, response.Code)
		product, found, _ := stores.Products.Get(ctx, "p1")
		assert.True(t, found)
		assert.Equal(t, 2.99, product.BasePricePerUnit)
		assert.True(t, product.InStock)
	})

	t.Run("Other user cannot add product", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, stores, _, _, _ := setup(ctrl)

		// given
		givenShopOfOwner(ctx, stores)

		// when
		response := send(router, http.MethodPost, "/api/shop/s1/product", url.Values{
			"userUid": {customer.UID},
			"name":    {"Tomatoes"},
		})

		// then
		assert.Equal(t, 403, response.Code)
		products, _ := stores.Products.List(ctx)
		assert.Empty(t, products)
	})

	t.Run("Products are scoped to shop", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, stores, _, _, _ := setup(ctrl)

		// given
		_ = stores.Products.Put(ctx, "p1", Product{UID: "p1", ShopUID: "s1", CreatedAt: mytime.ExampleTime})
		_ = stores.Products.Put(ctx, "p2", Product{UID: "p2", ShopUID: "s2", CreatedAt: mytime.ExampleTime})
		_ = stores.Products.Put(ctx, "p3", Product{UID: "p3", ShopUID: "s1", CreatedAt: mytime.ExampleTime.Add(time.Minute)})

		// when
		response := send(router, http.MethodGet, "/api/shop/s1/product", nil)

		// then
		assert.Equal(t, 200, response.Code)
		products := []Product{}
		_ = json.Unmarshal(response.Body.Bytes(), &products)
		assert.Len(t, products, 2)
		assert.Equal(t, "p1", products[0].UID)
		assert.Equal(t, "p3", products[1].UID)
	})
}

func givenShopOfOwner(ctx context.Context, stores Stores) {
	_ = stores.Users.Put(ctx, ownerUser.UID, ownerUser)
	_ = stores.Users.Put(ctx, customer.UID, customer)
	_ = stores.Owners.Put(ctx, "o1", Owner{UID: "o1", UserUID: ownerUser.UID, Username: "pien"})
	_ = stores.Shops.Put(ctx, "s1", Shop{UID: "s1", OwnerUID: "o1", Name: "Fruteria Pien"})
}

func send(router *mux.Router, method string, path string, form url.Values) *httptest.ResponseRecorder {
	request, _ := http.NewRequest(method, path, strings.NewReader(form.Encode()))
	if form != nil {
		request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	response := httptest.NewRecorder()
	router.ServeHTTP(response, request)
	return response
}

func setup(ctrl *gomock.Controller) (context.Context, *mux.Router, Stores, *mytime.MockNower, *myuuid.MockUUIDer, *mypublisher.MockPublisher) {
	c := context.TODO()
	stores := inMemoryStores(c)
	nower := mytime.NewMockNower(ctrl)
	uuider := myuuid.NewMockUUIDer(ctrl)
	publisher := mypublisher.NewMockPublisher(ctrl)

	sut := NewWebService(stores, nower, uuider, publisher)
	router := mux.NewRouter()
	sut.RegisterEndpoints(c, router)

	return c, router, stores, nower, uuider, publisher
}

func inMemoryStores(c context.Context) Stores {
	users, _, _ := mystore.NewInMemoryStore[User](c)
	owners, _, _ := mystore.NewInMemoryStore[Owner](c)
	shops, _, _ := mystore.NewInMemoryStore[Shop](c)
	products, _, _ := mystore.NewInMemoryStore[Product](c)
	return Stores{Users: users, Owners: owners, Shops: shops, Products: products}
}
