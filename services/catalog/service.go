package catalog

import (
	"context"

	"github.com/MarcGrol/picoteo/lib/mylog"
	"github.com/MarcGrol/picoteo/lib/mypublisher"
	"github.com/MarcGrol/picoteo/lib/mystore"
	"github.com/MarcGrol/picoteo/lib/mytime"
	"github.com/MarcGrol/picoteo/lib/myuuid"
)

type Stores struct {
	Users    mystore.Store[User]
	Owners   mystore.Store[Owner]
	Shops    mystore.Store[Shop]
	Products mystore.Store[Product]
}

type service struct {
	userStore    mystore.Store[User]
	ownerStore   mystore.Store[Owner]
	shopStore    mystore.Store[Shop]
	productStore mystore.Store[Product]
	resolver     *Resolver
	publisher    mypublisher.Publisher
	nower        mytime.Nower
	uuider       myuuid.UUIDer
	logger       mylog.Logger
}

// Use dependency injection to isolate the infrastructure and easy testing
func newService(stores Stores, nower mytime.Nower, uuider myuuid.UUIDer, logger mylog.Logger, pub mypublisher.Publisher) *service {
	return &service{
		userStore:    stores.Users,
		ownerStore:   stores.Owners,
		shopStore:    stores.Shops,
		productStore: stores.Products,
		resolver:     NewResolver(stores.Users, stores.Owners, stores.Shops, stores.Products),
		publisher:    pub,
		nower:        nower,
		uuider:       uuider,
		logger:       logger,
	}
}

func NewStores(c context.Context) (Stores, func(), error) {
	users, usersCleanup, err := mystore.New[User](c)
	if err != nil {
		return Stores{}, nil, err
	}
	owners, ownersCleanup, err := mystore.New[Owner](c)
	if err != nil {
		usersCleanup()
		return Stores{}, nil, err
	}
	shops, shopsCleanup, err := mystore.New[Shop](c)
	if err != nil {
		usersCleanup()
		ownersCleanup()
		return Stores{}, nil, err
	}
	products, productsCleanup, err := mystore.New[Product](c)
	if err != nil {
		usersCleanup()
		ownersCleanup()
		shopsCleanup()
		return Stores{}, nil, err
	}

	return Stores{
			Users:    users,
			Owners:   owners,
			Shops:    shops,
			Products: products,
		}, func() {
			productsCleanup()
			shopsCleanup()
			ownersCleanup()
			usersCleanup()
		}, nil
}
