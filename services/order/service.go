package order

import (
	"context"

	"github.com/MarcGrol/picoteo/lib/mylog"
	"github.com/MarcGrol/picoteo/lib/mypublisher"
	"github.com/MarcGrol/picoteo/lib/mystore"
	"github.com/MarcGrol/picoteo/lib/mytime"
	"github.com/MarcGrol/picoteo/lib/myuuid"
	"github.com/MarcGrol/picoteo/services/basket"
	"github.com/MarcGrol/picoteo/services/catalog"
	"github.com/MarcGrol/picoteo/services/receipt"
)

// BasketKeeper is the part of the basket service orders depend on
//
//go:generate mockgen -source=service.go -package order -destination basketkeeper_mock.go BasketKeeper
type BasketKeeper interface {
	GetBasketByUID(c context.Context, basketUID string) (basket.Basket, bool, error)
	RemoveOrderedItems(c context.Context, basketUID string, ordered []basket.LineItem) (basket.Basket, error)
}

type service struct {
	orderStore mystore.Store[Order]
	baskets    BasketKeeper
	resolver   *catalog.Resolver
	formatter  receipt.Formatter
	dispatcher receipt.Dispatcher
	publisher  mypublisher.Publisher
	nower      mytime.Nower
	uuider     myuuid.UUIDer
	logger     mylog.Logger
}

// Use dependency injection to isolate the infrastructure and easy testing
func newService(store mystore.Store[Order], baskets BasketKeeper, resolver *catalog.Resolver, formatter receipt.Formatter,
	dispatcher receipt.Dispatcher, nower mytime.Nower, uuider myuuid.UUIDer, logger mylog.Logger, pub mypublisher.Publisher) *service {
	return &service{
		orderStore: store,
		baskets:    baskets,
		resolver:   resolver,
		formatter:  formatter,
		dispatcher: dispatcher,
		publisher:  pub,
		nower:      nower,
		uuider:     uuider,
		logger:     logger,
	}
}
