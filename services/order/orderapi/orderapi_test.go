package orderapi

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

var pickupOrder = PickupOrder{
	UserUID:         "u1",
	ShopUID:         "s1",
	OrderType:       "pickup",
	TotalPriceToPay: 10.47,
	Products: []LineItem{
		{ProductUID: "p1", Count: 3},
		{ProductUID: "p2", Count: 1},
	},
}

func TestEncodeDecodeSame(t *testing.T) {
	//  encode followed by decode must end up same

	values, err := pickupOrder.ToForm()
	assert.NoError(t, err)
	again, err := NewFromValues(values)
	assert.NoError(t, err)

	assert.Equal(t, pickupOrder, again)
}

func TestDecode(t *testing.T) {
	form := url.Values{
		"userUid":               []string{"u1"},
		"shopUid":               []string{"s1"},
		"orderType":             []string{"pickup"},
		"totalPriceToPay":       []string{"10.47"},
		"products[0].productUid": []string{"p1"},
		"products[0].count":      []string{"3"},
		"products[1].productUid": []string{"p2"},
		"products[1].count":      []string{"1"},
	}

	again, err := NewFromValues(form)
	assert.NoError(t, err)
	assert.Equal(t, pickupOrder, again)
}

func TestDecodeInvalidCount(t *testing.T) {
	_, err := NewFromValues(url.Values{"products[0].count": []string{"many"}})
	assert.Error(t, err)
}
