package basket

import (
	"context"
	"fmt"

	"github.com/MarcGrol/picoteo/lib/myerrors"
	"github.com/MarcGrol/picoteo/lib/mylog"
	"github.com/MarcGrol/picoteo/lib/myuuid"
	"github.com/MarcGrol/picoteo/services/basket/basketevents"
)

// basketUIDOf keys the single basket of a user, so find-or-create needs no query
func basketUIDOf(userUID string) string {
	return myuuid.Derive("basket/" + userUID)
}

func (s *service) addToBasket(c context.Context, userUID string, productUID string, count int) (Basket, error) {
	if userUID == "" {
		return Basket{}, myerrors.NewInvalidInputError(fmt.Errorf("missing user"))
	}
	if productUID == "" {
		return Basket{}, myerrors.NewInvalidInputError(fmt.Errorf("missing product"))
	}
	if count <= 0 {
		return Basket{}, myerrors.NewInvalidInputError(fmt.Errorf("count must be positive, got %d", count))
	}

	basketUID := basketUIDOf(userUID)
	s.logger.Log(c, basketUID, mylog.SeverityInfo, "Add %d x %s to basket of user %s", count, productUID, userUID)

	now := s.nower.Now()

	var basket Basket
	err := s.basketStore.RunInTransaction(c, func(c context.Context) error {
		existing, found, err := s.basketStore.Get(c, basketUID)
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		if found {
			basket = existing.merge(productUID, count)
			basket.LastModified = &now
		} else {
			basket = Basket{
				UID:        basketUID,
				UserUID:    userUID,
				Products:   []LineItem{{ProductUID: productUID, Count: count}},
				FinalPrice: 0,
				CreatedAt:  now,
			}
		}

		err = s.basketStore.Put(c, basketUID, basket)
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		if !found {
			err = s.publisher.Publish(c, basketevents.TopicName, basketevents.BasketCreated{
				BasketUID: basketUID,
				UserUID:   userUID,
			})
			if err != nil {
				return myerrors.NewInternalError(err)
			}
		}

		return nil
	})
	if err != nil {
		return Basket{}, err
	}

	return basket, nil
}

func (s *service) getBasket(c context.Context, userUID string) (*BasketDetails, error) {
	basketUID := basketUIDOf(userUID)
	s.logger.Log(c, basketUID, mylog.SeverityInfo, "Fetch basket of user %s", userUID)

	basket, found, err := s.basketStore.Get(c, basketUID)
	if err != nil {
		return nil, myerrors.NewInternalError(err)
	}
	if !found {
		return nil, nil
	}

	products, err := s.resolver.ResolveProducts(c, ProductUIDs(basket.Products))
	if err != nil {
		return nil, myerrors.NewInternalError(err)
	}

	details := BasketDetails{
		UID:          basket.UID,
		UserUID:      basket.UserUID,
		FinalPrice:   basket.FinalPrice,
		Generation:   basket.Generation,
		CreatedAt:    basket.CreatedAt,
		LastModified: basket.LastModified,
		Products:     Resolve(basket.Products, products),
	}
	for _, item := range details.Products {
		if item.Product == nil {
			s.logger.Log(c, basketUID, mylog.SeverityWarn, "Basket %s refers to missing product %s", basketUID, item.ProductUID)
		}
	}

	return &details, nil
}

func (s *service) getBasketByUID(c context.Context, basketUID string) (Basket, bool, error) {
	basket, found, err := s.basketStore.Get(c, basketUID)
	if err != nil {
		return Basket{}, false, myerrors.NewInternalError(err)
	}
	return basket, found, nil
}

func (s *service) updateBasketItem(c context.Context, userUID string, productUID string, count int) (Basket, error) {
	if count <= 0 {
		return Basket{}, myerrors.NewInvalidInputError(fmt.Errorf("count must be positive, got %d", count))
	}

	basketUID := basketUIDOf(userUID)
	s.logger.Log(c, basketUID, mylog.SeverityInfo, "Set count of %s to %d in basket of user %s", productUID, count, userUID)

	return s.modifyBasket(c, basketUID, func(c context.Context, basket Basket) (Basket, error) {
		modified, found := basket.withCount(productUID, count)
		if !found {
			return Basket{}, myerrors.NewNotFoundError(fmt.Errorf("product %s not in basket %s", productUID, basketUID))
		}
		return modified, nil
	})
}

func (s *service) removeFromBasket(c context.Context, userUID string, productUID string) (Basket, error) {
	basketUID := basketUIDOf(userUID)
	s.logger.Log(c, basketUID, mylog.SeverityInfo, "Remove %s from basket of user %s", productUID, userUID)

	return s.modifyBasket(c, basketUID, func(c context.Context, basket Basket) (Basket, error) {
		return basket.without(productUID), nil
	})
}

func (s *service) clearBasket(c context.Context, userUID string) (Basket, error) {
	return s.clearBasketAfterOrder(c, basketUIDOf(userUID))
}

func (s *service) clearBasketAfterOrder(c context.Context, basketUID string) (Basket, error) {
	s.logger.Log(c, basketUID, mylog.SeverityInfo, "Clear basket %s", basketUID)

	return s.modifyBasket(c, basketUID, func(c context.Context, basket Basket) (Basket, error) {
		cleared := basket.cleared()

		err := s.publisher.Publish(c, basketevents.TopicName, basketevents.BasketCleared{
			BasketUID:  basketUID,
			Generation: basket.Generation,
		})
		if err != nil {
			return Basket{}, myerrors.NewInternalError(err)
		}

		return cleared, nil
	})
}

func (s *service) removeOrderedItems(c context.Context, basketUID string, ordered []LineItem) (Basket, error) {
	s.logger.Log(c, basketUID, mylog.SeverityInfo, "Remove %d ordered line items from basket %s", len(ordered), basketUID)

	return s.modifyBasket(c, basketUID, func(c context.Context, basket Basket) (Basket, error) {
		settled := basket.settled(ordered)
		if len(settled.Products) > 0 {
			s.logger.Log(c, basketUID, mylog.SeverityWarn, "Basket %s changed during checkout: %d line items stay behind", basketUID, len(settled.Products))
		}

		err := s.publisher.Publish(c, basketevents.TopicName, basketevents.BasketCleared{
			BasketUID:  basketUID,
			Generation: basket.Generation,
		})
		if err != nil {
			return Basket{}, myerrors.NewInternalError(err)
		}

		return settled, nil
	})
}

func (s *service) modifyBasket(c context.Context, basketUID string, modify func(c context.Context, basket Basket) (Basket, error)) (Basket, error) {
	now := s.nower.Now()

	var basket Basket
	err := s.basketStore.RunInTransaction(c, func(c context.Context) error {
		existing, found, err := s.basketStore.Get(c, basketUID)
		if err != nil {
			return myerrors.NewInternalError(err)
		}
		if !found {
			return myerrors.NewNotFoundError(fmt.Errorf("basket with uid %s not found", basketUID))
		}

		basket, err = modify(c, existing)
		if err != nil {
			return err
		}
		basket.LastModified = &now

		err = s.basketStore.Put(c, basketUID, basket)
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		return nil
	})
	if err != nil {
		return Basket{}, err
	}

	return basket, nil
}
