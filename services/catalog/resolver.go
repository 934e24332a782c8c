package catalog

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/MarcGrol/picoteo/lib/mystore"
)

const maxParallelResolves = 8

// Resolver reads the current version of catalog records by uid. A missing record is reported
// as not found, never as an error. Batches are resolved in parallel without a common snapshot.
type Resolver struct {
	userStore    mystore.Store[User]
	ownerStore   mystore.Store[Owner]
	shopStore    mystore.Store[Shop]
	productStore mystore.Store[Product]
}

func NewResolver(userStore mystore.Store[User], ownerStore mystore.Store[Owner], shopStore mystore.Store[Shop], productStore mystore.Store[Product]) *Resolver {
	return &Resolver{
		userStore:    userStore,
		ownerStore:   ownerStore,
		shopStore:    shopStore,
		productStore: productStore,
	}
}

func (r *Resolver) GetUser(c context.Context, uid string) (User, bool, error) {
	if uid == "" {
		return User{}, false, nil
	}
	return r.userStore.Get(c, uid)
}

func (r *Resolver) GetOwner(c context.Context, uid string) (Owner, bool, error) {
	if uid == "" {
		return Owner{}, false, nil
	}
	return r.ownerStore.Get(c, uid)
}

func (r *Resolver) GetShop(c context.Context, uid string) (Shop, bool, error) {
	if uid == "" {
		return Shop{}, false, nil
	}
	return r.shopStore.Get(c, uid)
}

func (r *Resolver) GetProduct(c context.Context, uid string) (Product, bool, error) {
	if uid == "" {
		return Product{}, false, nil
	}
	return r.productStore.Get(c, uid)
}

// ResolveProducts returns the products that still exist, keyed by uid.
func (r *Resolver) ResolveProducts(c context.Context, uids []string) (map[string]Product, error) {
	mutex := sync.Mutex{}
	products := map[string]Product{}

	g, ctx := errgroup.WithContext(c)
	g.SetLimit(maxParallelResolves)
	for _, uid := range distinct(uids) {
		uid := uid
		g.Go(func() error {
			product, found, err := r.GetProduct(ctx, uid)
			if err != nil {
				return err
			}
			if found {
				mutex.Lock()
				products[uid] = product
				mutex.Unlock()
			}
			return nil
		})
	}
	err := g.Wait()
	if err != nil {
		return nil, err
	}

	return products, nil
}

func distinct(uids []string) []string {
	seen := map[string]bool{}
	result := []string{}
	for _, uid := range uids {
		if !seen[uid] {
			seen[uid] = true
			result = append(result, uid)
		}
	}
	return result
}
