package order

import (
	"time"

	"github.com/MarcGrol/picoteo/services/basket"
	"github.com/MarcGrol/picoteo/services/catalog"
	"github.com/MarcGrol/picoteo/services/receipt"
)

type Status string

const (
	StatusProceeding Status = "proceeding"
	// StatusComplete exists in stored records but no operation moves an order into it
	StatusComplete Status = "complete"
)

// Order is scoped to exactly one shop and one user.
//
// Orders written before line items were inlined only carry a BasketUID and read their
// items from that basket as it is now. Newer orders carry Products and may carry a
// BasketUID as provenance.
type Order struct {
	UID             string
	UserUID         string
	ShopUID         string
	BasketUID       string
	Products        []basket.LineItem
	Status          Status
	OrderType       receipt.OrderType
	TotalPriceToPay float64 // as supplied by the client
	ComputedTotal   float64 // from product prices at order time
	CreatedAt       time.Time
}

// LineItemSource tells where the items of an order live: Snapshot or LegacyBasketRef
type LineItemSource interface {
	isLineItemSource()
}

type Snapshot struct {
	Items []basket.LineItem
}

func (Snapshot) isLineItemSource() {}

type LegacyBasketRef struct {
	BasketUID string
}

func (LegacyBasketRef) isLineItemSource() {}

func (o Order) Source() LineItemSource {
	if len(o.Products) > 0 {
		return Snapshot{Items: o.Products}
	}
	return LegacyBasketRef{BasketUID: o.BasketUID}
}

// OrderDetails is an order with its references resolved. User, Shop and the Product of
// a line are nil when the referenced record no longer exists.
type OrderDetails struct {
	Order
	User           *catalog.User
	Shop           *catalog.Shop
	BasketProducts []basket.ResolvedLineItem
}

type ReceiptPreview struct {
	OrderUID        string
	Destination     string
	Text            string
	WhatsappURL     string
	Total           float64
	TotalPriceToPay float64
}

func receiptLines(items []basket.ResolvedLineItem) []receipt.Line {
	lines := make([]receipt.Line, 0, len(items))
	for _, item := range items {
		if item.Product == nil {
			lines = append(lines, receipt.Line{
				Name:     "Unavailable product " + item.ProductUID,
				Quantity: item.Count,
			})
			continue
		}
		lines = append(lines, receipt.Line{
			Name:             item.Product.Name,
			BasePricePerUnit: item.Product.BasePricePerUnit,
			Unit:             item.Product.Unit,
			Quantity:         item.Count,
		})
	}
	return lines
}

func computeTotal(items []basket.ResolvedLineItem) float64 {
	return receipt.Receipt{Lines: receiptLines(items)}.Total()
}

// normalize collapses repeated products into one line, keeping the first position
func normalize(items []basket.LineItem) []basket.LineItem {
	result := make([]basket.LineItem, 0, len(items))
	positions := map[string]int{}
	for _, item := range items {
		if pos, found := positions[item.ProductUID]; found {
			result[pos].Count += item.Count
			continue
		}
		positions[item.ProductUID] = len(result)
		result = append(result, item)
	}
	return result
}
