package order

import (
	"context"
	"fmt"
	"math"

	"github.com/MarcGrol/picoteo/lib/myerrors"
	"github.com/MarcGrol/picoteo/lib/mylog"
	"github.com/MarcGrol/picoteo/lib/mystore"
	"github.com/MarcGrol/picoteo/lib/myuuid"
	"github.com/MarcGrol/picoteo/services/basket"
	"github.com/MarcGrol/picoteo/services/catalog"
	"github.com/MarcGrol/picoteo/services/order/orderevents"
	"github.com/MarcGrol/picoteo/services/receipt"
)

type createOrderCommand struct {
	UserUID         string
	BasketUID       string
	ShopUID         string
	TotalPriceToPay float64
	OrderType       receipt.OrderType
}

func (s *service) createOrder(c context.Context, cmd createOrderCommand) (Order, error) {
	if cmd.UserUID == "" || cmd.BasketUID == "" || cmd.ShopUID == "" {
		return Order{}, myerrors.NewInvalidInputError(fmt.Errorf("user, basket and shop are required"))
	}
	orderType, err := orderTypeOrDefault(cmd.OrderType)
	if err != nil {
		return Order{}, err
	}

	s.logger.Log(c, cmd.BasketUID, mylog.SeverityInfo, "Create order for shop %s from basket %s of user %s", cmd.ShopUID, cmd.BasketUID, cmd.UserUID)

	b, err := s.basketOfUser(c, cmd.UserUID, cmd.BasketUID)
	if err != nil {
		return Order{}, err
	}

	err = s.assertShopExists(c, cmd.ShopUID)
	if err != nil {
		return Order{}, err
	}

	products, err := s.resolver.ResolveProducts(c, basket.ProductUIDs(b.Products))
	if err != nil {
		return Order{}, myerrors.NewInternalError(err)
	}

	items := []basket.ResolvedLineItem{}
	for _, item := range basket.Resolve(b.Products, products) {
		if item.Product != nil && item.Product.ShopUID == cmd.ShopUID {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return Order{}, myerrors.NewInvalidInputError(fmt.Errorf("basket %s has no products of shop %s", cmd.BasketUID, cmd.ShopUID))
	}

	order := Order{
		UID:             s.uuider.Create(),
		UserUID:         cmd.UserUID,
		ShopUID:         cmd.ShopUID,
		BasketUID:       cmd.BasketUID,
		Products:        lineItemsOf(items),
		Status:          StatusProceeding,
		OrderType:       orderType,
		TotalPriceToPay: cmd.TotalPriceToPay,
		ComputedTotal:   computeTotal(items),
		CreatedAt:       s.nower.Now(),
	}
	s.warnOnTotalMismatch(c, order)

	err = s.orderStore.RunInTransaction(c, func(c context.Context) error {
		return s.storeOrder(c, order)
	})
	if err != nil {
		return Order{}, err
	}

	return order, nil
}

type createPickupOrderCommand struct {
	UserUID         string
	ShopUID         string
	LineItems       []basket.LineItem
	TotalPriceToPay float64
	OrderType       receipt.OrderType
}

func (s *service) createPickupOrder(c context.Context, cmd createPickupOrderCommand) (Order, error) {
	if cmd.UserUID == "" || cmd.ShopUID == "" {
		return Order{}, myerrors.NewInvalidInputError(fmt.Errorf("user and shop are required"))
	}
	if len(cmd.LineItems) == 0 {
		return Order{}, myerrors.NewInvalidInputError(fmt.Errorf("order has no line items"))
	}
	for _, item := range cmd.LineItems {
		if item.ProductUID == "" {
			return Order{}, myerrors.NewInvalidInputError(fmt.Errorf("line item without product"))
		}
		if item.Count <= 0 {
			return Order{}, myerrors.NewInvalidInputError(fmt.Errorf("count of product %s must be positive, got %d", item.ProductUID, item.Count))
		}
	}
	orderType, err := orderTypeOrDefault(cmd.OrderType)
	if err != nil {
		return Order{}, err
	}

	s.logger.Log(c, cmd.ShopUID, mylog.SeverityInfo, "Create %s order for shop %s of user %s", orderType, cmd.ShopUID, cmd.UserUID)

	err = s.assertShopExists(c, cmd.ShopUID)
	if err != nil {
		return Order{}, err
	}

	lineItems := normalize(cmd.LineItems)
	products, err := s.resolver.ResolveProducts(c, basket.ProductUIDs(lineItems))
	if err != nil {
		return Order{}, myerrors.NewInternalError(err)
	}

	items := basket.Resolve(lineItems, products)
	for _, item := range items {
		if item.Product == nil {
			return Order{}, myerrors.NewNotFoundError(fmt.Errorf("product with uid %s not found", item.ProductUID))
		}
		if item.Product.ShopUID != cmd.ShopUID {
			return Order{}, myerrors.NewInvalidInputError(fmt.Errorf("product %s does not belong to shop %s", item.ProductUID, cmd.ShopUID))
		}
	}

	order := Order{
		UID:             s.uuider.Create(),
		UserUID:         cmd.UserUID,
		ShopUID:         cmd.ShopUID,
		Products:        lineItems,
		Status:          StatusProceeding,
		OrderType:       orderType,
		TotalPriceToPay: cmd.TotalPriceToPay,
		ComputedTotal:   computeTotal(items),
		CreatedAt:       s.nower.Now(),
	}
	s.warnOnTotalMismatch(c, order)

	err = s.orderStore.RunInTransaction(c, func(c context.Context) error {
		return s.storeOrder(c, order)
	})
	if err != nil {
		return Order{}, err
	}

	return order, nil
}

// checkoutOrderUID is stable for a basket generation, so a retried checkout finds the
// orders a previous attempt already wrote
func checkoutOrderUID(basketUID string, generation int, shopUID string) string {
	return myuuid.Derive(fmt.Sprintf("order/%s/%d/%s", basketUID, generation, shopUID))
}

type shopGroup struct {
	shopUID string
	items   []basket.ResolvedLineItem
}

// groupByShop keeps the shops in order of first appearance; lines of vanished products are returned apart
func groupByShop(items []basket.ResolvedLineItem) ([]shopGroup, []basket.ResolvedLineItem) {
	groups := []shopGroup{}
	dangling := []basket.ResolvedLineItem{}
	positions := map[string]int{}
	for _, item := range items {
		if item.Product == nil {
			dangling = append(dangling, item)
			continue
		}
		pos, found := positions[item.Product.ShopUID]
		if !found {
			pos = len(groups)
			positions[item.Product.ShopUID] = pos
			groups = append(groups, shopGroup{shopUID: item.Product.ShopUID})
		}
		groups[pos].items = append(groups[pos].items, item)
	}
	return groups, dangling
}

func (s *service) checkoutBasket(c context.Context, userUID string, basketUID string, orderType receipt.OrderType) ([]Order, error) {
	if userUID == "" || basketUID == "" {
		return nil, myerrors.NewInvalidInputError(fmt.Errorf("user and basket are required"))
	}
	orderType, err := orderTypeOrDefault(orderType)
	if err != nil {
		return nil, err
	}

	s.logger.Log(c, basketUID, mylog.SeverityInfo, "Checkout basket %s of user %s", basketUID, userUID)

	var orders []Order
	err = s.orderStore.RunInTransaction(c, func(c context.Context) error {
		// The line items read here are exactly the ones taken out of the basket afterwards
		b, err := s.basketOfUser(c, userUID, basketUID)
		if err != nil {
			return err
		}
		if len(b.Products) == 0 {
			return myerrors.NewInvalidInputError(fmt.Errorf("basket %s is empty", basketUID))
		}

		products, err := s.resolver.ResolveProducts(c, basket.ProductUIDs(b.Products))
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		groups, dangling := groupByShop(basket.Resolve(b.Products, products))
		for _, item := range dangling {
			s.logger.Log(c, basketUID, mylog.SeverityWarn, "Basket %s refers to missing product %s: not ordered", basketUID, item.ProductUID)
		}
		if len(groups) == 0 {
			return myerrors.NewInvalidInputError(fmt.Errorf("none of the products in basket %s exist anymore", basketUID))
		}

		now := s.nower.Now()

		orders = make([]Order, 0, len(groups))
		for _, group := range groups {
			orderUID := checkoutOrderUID(basketUID, b.Generation, group.shopUID)

			existing, found, err := s.orderStore.Get(c, orderUID)
			if err != nil {
				return myerrors.NewInternalError(err)
			}
			if found {
				s.logger.Log(c, basketUID, mylog.SeverityInfo, "Order %s for shop %s already exists", orderUID, group.shopUID)
				orders = append(orders, existing)
				continue
			}

			total := computeTotal(group.items)
			order := Order{
				UID:             orderUID,
				UserUID:         userUID,
				ShopUID:         group.shopUID,
				BasketUID:       basketUID,
				Products:        lineItemsOf(group.items),
				Status:          StatusProceeding,
				OrderType:       orderType,
				TotalPriceToPay: total,
				ComputedTotal:   total,
				CreatedAt:       now,
			}
			err = s.storeOrder(c, order)
			if err != nil {
				return err
			}
			orders = append(orders, order)
		}

		_, err = s.baskets.RemoveOrderedItems(c, basketUID, b.Products)
		return err
	})
	if err != nil {
		return nil, err
	}

	return orders, nil
}

func (s *service) getOrder(c context.Context, orderUID string) (OrderDetails, error) {
	s.logger.Log(c, orderUID, mylog.SeverityInfo, "Fetch order %s", orderUID)

	order, found, err := s.orderStore.Get(c, orderUID)
	if err != nil {
		return OrderDetails{}, myerrors.NewInternalError(err)
	}
	if !found {
		return OrderDetails{}, myerrors.NewNotFoundError(fmt.Errorf("order with uid %s not found", orderUID))
	}

	return s.resolveOrder(c, order), nil
}

func (s *service) getUserOrders(c context.Context, userUID string) ([]OrderDetails, error) {
	s.logger.Log(c, userUID, mylog.SeverityInfo, "Fetch orders of user %s", userUID)

	orders, err := s.orderStore.Query(c, []mystore.Filter{{Field: "UserUID", Compare: "=", Value: userUID}}, "-CreatedAt")
	if err != nil {
		return nil, myerrors.NewInternalError(err)
	}

	result := make([]OrderDetails, 0, len(orders))
	for _, order := range orders {
		result = append(result, s.resolveOrder(c, order))
	}

	return result, nil
}

// resolveOrder never fails: whatever cannot be read is logged and left nil
func (s *service) resolveOrder(c context.Context, order Order) OrderDetails {
	details := OrderDetails{
		Order:          order,
		BasketProducts: []basket.ResolvedLineItem{},
	}

	user, found, err := s.resolver.GetUser(c, order.UserUID)
	if err != nil {
		s.logger.Log(c, order.UID, mylog.SeverityWarn, "Error fetching user %s of order %s: %s", order.UserUID, order.UID, err)
	} else if found {
		details.User = &user
	}

	shop, found, err := s.resolver.GetShop(c, order.ShopUID)
	if err != nil {
		s.logger.Log(c, order.UID, mylog.SeverityWarn, "Error fetching shop %s of order %s: %s", order.ShopUID, order.UID, err)
	} else if found {
		details.Shop = &shop
	}

	var items []basket.LineItem
	switch source := order.Source().(type) {
	case Snapshot:
		items = source.Items
	case LegacyBasketRef:
		items = s.legacyLineItems(c, order.UID, source.BasketUID)
	}

	products, err := s.resolver.ResolveProducts(c, basket.ProductUIDs(items))
	if err != nil {
		s.logger.Log(c, order.UID, mylog.SeverityWarn, "Error resolving products of order %s: %s", order.UID, err)
		products = map[string]catalog.Product{}
	}

	details.BasketProducts = basket.Resolve(items, products)
	for _, item := range details.BasketProducts {
		if item.Product == nil {
			s.logger.Log(c, order.UID, mylog.SeverityWarn, "Order %s refers to missing product %s", order.UID, item.ProductUID)
		}
	}

	return details
}

// legacyLineItems reads the referenced basket as it is now, which may differ from what was ordered
func (s *service) legacyLineItems(c context.Context, orderUID string, basketUID string) []basket.LineItem {
	if basketUID == "" {
		s.logger.Log(c, orderUID, mylog.SeverityWarn, "Order %s has neither line items nor basket", orderUID)
		return nil
	}

	b, found, err := s.baskets.GetBasketByUID(c, basketUID)
	if err != nil {
		s.logger.Log(c, orderUID, mylog.SeverityWarn, "Error fetching basket %s of order %s: %s", basketUID, orderUID, err)
		return nil
	}
	if !found {
		s.logger.Log(c, orderUID, mylog.SeverityWarn, "Basket %s of order %s not found", basketUID, orderUID)
		return nil
	}

	return b.Products
}

func (s *service) receiptPreview(c context.Context, orderUID string) (ReceiptPreview, error) {
	details, err := s.getOrder(c, orderUID)
	if err != nil {
		return ReceiptPreview{}, err
	}
	if details.Shop == nil {
		return ReceiptPreview{}, myerrors.NewNotFoundError(fmt.Errorf("shop %s of order %s not found", details.ShopUID, orderUID))
	}

	owner, found, err := s.resolver.GetOwner(c, details.Shop.OwnerUID)
	if err != nil {
		return ReceiptPreview{}, myerrors.NewInternalError(err)
	}
	if !found {
		return ReceiptPreview{}, myerrors.NewNotFoundError(fmt.Errorf("owner %s of shop %s not found", details.Shop.OwnerUID, details.Shop.UID))
	}

	customer := receipt.Contact{}
	if details.User != nil {
		customer = receipt.Contact{Name: details.User.Name, Phone: details.User.Phone}
	}

	r := receipt.Receipt{
		Lines:     receiptLines(details.BasketProducts),
		Owner:     receipt.Contact{Name: owner.Name, Phone: owner.ContactPhone()},
		Customer:  customer,
		OrderType: details.OrderType,
	}
	text := s.formatter.Format(r, s.nower.Now())

	return ReceiptPreview{
		OrderUID:        orderUID,
		Destination:     owner.ContactPhone(),
		Text:            text,
		WhatsappURL:     receipt.WhatsappURL(owner.ContactPhone(), text),
		Total:           r.Total(),
		TotalPriceToPay: details.TotalPriceToPay,
	}, nil
}

// sendReceipt leaves the order as it is, also when delivery fails
func (s *service) sendReceipt(c context.Context, orderUID string) (ReceiptPreview, error) {
	preview, err := s.receiptPreview(c, orderUID)
	if err != nil {
		return ReceiptPreview{}, err
	}
	if preview.Destination == "" {
		return ReceiptPreview{}, myerrors.NewInvalidInputError(fmt.Errorf("owner of order %s has no phone number", orderUID))
	}

	s.logger.Log(c, orderUID, mylog.SeverityInfo, "Send receipt of order %s to %s", orderUID, preview.Destination)

	err = s.dispatcher.Dispatch(c, preview.Destination, preview.Text)
	if err != nil {
		s.logger.Log(c, orderUID, mylog.SeverityWarn, "Error sending receipt of order %s: %s", orderUID, err)
		return ReceiptPreview{}, err
	}

	err = s.publisher.Publish(c, orderevents.TopicName, orderevents.ReceiptSent{
		OrderUID:    orderUID,
		Destination: preview.Destination,
		SentAt:      s.nower.Now(),
	})
	if err != nil {
		return ReceiptPreview{}, myerrors.NewInternalError(err)
	}

	return preview, nil
}

func (s *service) basketOfUser(c context.Context, userUID string, basketUID string) (basket.Basket, error) {
	b, found, err := s.baskets.GetBasketByUID(c, basketUID)
	if err != nil {
		return basket.Basket{}, err
	}
	if !found {
		return basket.Basket{}, myerrors.NewNotFoundError(fmt.Errorf("basket with uid %s not found", basketUID))
	}
	if b.UserUID != userUID {
		return basket.Basket{}, myerrors.NewAuthorizationError(fmt.Errorf("basket %s does not belong to user %s", basketUID, userUID))
	}
	return b, nil
}

func (s *service) assertShopExists(c context.Context, shopUID string) error {
	_, found, err := s.resolver.GetShop(c, shopUID)
	if err != nil {
		return myerrors.NewInternalError(err)
	}
	if !found {
		return myerrors.NewNotFoundError(fmt.Errorf("shop with uid %s not found", shopUID))
	}
	return nil
}

func (s *service) storeOrder(c context.Context, order Order) error {
	err := s.orderStore.Put(c, order.UID, order)
	if err != nil {
		return myerrors.NewInternalError(err)
	}

	err = s.publisher.Publish(c, orderevents.TopicName, orderevents.OrderCreated{
		OrderUID:        order.UID,
		UserUID:         order.UserUID,
		ShopUID:         order.ShopUID,
		BasketUID:       order.BasketUID,
		OrderType:       string(order.OrderType),
		ItemCount:       len(order.Products),
		TotalPriceToPay: order.TotalPriceToPay,
		ComputedTotal:   order.ComputedTotal,
	})
	if err != nil {
		return myerrors.NewInternalError(err)
	}

	return nil
}

// the client computes the total; a difference is flagged, not rejected
func (s *service) warnOnTotalMismatch(c context.Context, order Order) {
	if math.Abs(order.TotalPriceToPay-order.ComputedTotal) >= 0.005 {
		s.logger.Log(c, order.UID, mylog.SeverityWarn, "Order %s: supplied total %.2f differs from computed total %.2f",
			order.UID, order.TotalPriceToPay, order.ComputedTotal)
	}
}

func orderTypeOrDefault(orderType receipt.OrderType) (receipt.OrderType, error) {
	if orderType == "" {
		return receipt.OrderTypePickup, nil
	}
	if !orderType.IsValid() {
		return "", myerrors.NewInvalidInputError(fmt.Errorf("invalid order type '%s'", orderType))
	}
	return orderType, nil
}

func lineItemsOf(items []basket.ResolvedLineItem) []basket.LineItem {
	result := make([]basket.LineItem, 0, len(items))
	for _, item := range items {
		result = append(result, basket.LineItem{ProductUID: item.ProductUID, Count: item.Count})
	}
	return result
}
