package warmup

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"

	"github.com/MarcGrol/picoteo/lib/mystore"
	"github.com/MarcGrol/picoteo/services/catalog"
)

func TestWarmup(t *testing.T) {
	// setup
	c := context.TODO()
	users, _, _ := mystore.NewInMemoryStore[catalog.User](c)
	owners, _, _ := mystore.NewInMemoryStore[catalog.Owner](c)
	shops, _, _ := mystore.NewInMemoryStore[catalog.Shop](c)
	products, _, _ := mystore.NewInMemoryStore[catalog.Product](c)
	router := mux.NewRouter()
	NewService(catalog.NewResolver(users, owners, shops, products)).RegisterEndpoints(c, router)

	// when
	request, _ := http.NewRequest(http.MethodGet, "/_ah/warmup", nil)
	response := httptest.NewRecorder()
	router.ServeHTTP(response, request)

	// then
	assert.Equal(t, 200, response.Code)
	assert.Contains(t, response.Body.String(), "Successfully processed warmup request")
}
