package basket

import (
	"github.com/MarcGrol/picoteo/lib/mylog"
	"github.com/MarcGrol/picoteo/lib/mypublisher"
	"github.com/MarcGrol/picoteo/lib/mystore"
	"github.com/MarcGrol/picoteo/lib/mytime"
	"github.com/MarcGrol/picoteo/services/catalog"
)

type service struct {
	basketStore mystore.Store[Basket]
	resolver    *catalog.Resolver
	publisher   mypublisher.Publisher
	nower       mytime.Nower
	logger      mylog.Logger
}

// Use dependency injection to isolate the infrastructure and easy testing
func newService(store mystore.Store[Basket], resolver *catalog.Resolver, nower mytime.Nower, logger mylog.Logger, pub mypublisher.Publisher) *service {
	return &service{
		basketStore: store,
		resolver:    resolver,
		publisher:   pub,
		nower:       nower,
		logger:      logger,
	}
}
