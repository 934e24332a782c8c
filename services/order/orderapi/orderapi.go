package orderapi

import (
	"fmt"
	"net/http"
	"net/url"

	formcodec "github.com/go-playground/form/v4"

	"github.com/MarcGrol/picoteo/lib/myerrors"
)

// PickupOrder is the form a single-shop page posts to place an order without a basket
type PickupOrder struct {
	UserUID         string     `form:"userUid"`
	ShopUID         string     `form:"shopUid"`
	OrderType       string     `form:"orderType"`
	TotalPriceToPay float64    `form:"totalPriceToPay"`
	Products        []LineItem `form:"products"`
}

type LineItem struct {
	ProductUID string `form:"productUid"`
	Count      int    `form:"count"`
}

func NewFromRequest(r *http.Request) (PickupOrder, error) {
	err := r.ParseForm()
	if err != nil {
		return PickupOrder{}, myerrors.NewInvalidInputError(err)
	}
	return NewFromValues(r.Form)
}

func NewFromValues(values url.Values) (PickupOrder, error) {
	order := PickupOrder{}
	err := formcodec.NewDecoder().Decode(&order, values)
	if err != nil {
		return order, myerrors.NewInvalidInputError(fmt.Errorf("error decoding form: %s", err))
	}

	return order, nil
}

func (o PickupOrder) ToForm() (url.Values, error) {
	values, err := formcodec.NewEncoder().Encode(o)
	if err != nil {
		return nil, fmt.Errorf("error encoding form: %s", err)
	}

	return values, nil
}
