package basket

import (
	"time"

	"github.com/MarcGrol/picoteo/services/catalog"
)

type LineItem struct {
	ProductUID string
	Count      int
}

// Basket holds at most one line item per product, in the order the products were first added.
type Basket struct {
	UID          string
	UserUID      string
	Products     []LineItem
	FinalPrice   float64 // informational only, never kept in sync with the line items
	Generation   int     // incremented on every clear
	CreatedAt    time.Time
	LastModified *time.Time
}

// merge adds count to the line item of the product, or appends a new line item
func (b Basket) merge(productUID string, count int) Basket {
	products := make([]LineItem, 0, len(b.Products)+1)
	merged := false
	for _, item := range b.Products {
		if item.ProductUID == productUID {
			item.Count += count
			merged = true
		}
		products = append(products, item)
	}
	if !merged {
		products = append(products, LineItem{ProductUID: productUID, Count: count})
	}
	b.Products = products
	return b
}

func (b Basket) withCount(productUID string, count int) (Basket, bool) {
	products := make([]LineItem, 0, len(b.Products))
	found := false
	for _, item := range b.Products {
		if item.ProductUID == productUID {
			item.Count = count
			found = true
		}
		products = append(products, item)
	}
	b.Products = products
	return b, found
}

func (b Basket) without(productUID string) Basket {
	products := make([]LineItem, 0, len(b.Products))
	for _, item := range b.Products {
		if item.ProductUID != productUID {
			products = append(products, item)
		}
	}
	b.Products = products
	return b
}

// settled subtracts the ordered line items; whatever was added since they were read stays behind
func (b Basket) settled(ordered []LineItem) Basket {
	remove := map[string]int{}
	for _, item := range ordered {
		remove[item.ProductUID] += item.Count
	}
	products := make([]LineItem, 0, len(b.Products))
	for _, item := range b.Products {
		item.Count -= remove[item.ProductUID]
		if item.Count > 0 {
			products = append(products, item)
		}
	}
	b.Products = products
	b.FinalPrice = 0
	b.Generation++
	return b
}

func (b Basket) cleared() Basket {
	b.Products = []LineItem{}
	b.FinalPrice = 0
	b.Generation++
	return b
}

// ResolvedLineItem carries the current product, or nil when the product no longer exists
type ResolvedLineItem struct {
	ProductUID string
	Count      int
	Product    *catalog.Product
}

func Resolve(items []LineItem, products map[string]catalog.Product) []ResolvedLineItem {
	result := make([]ResolvedLineItem, 0, len(items))
	for _, item := range items {
		resolved := ResolvedLineItem{
			ProductUID: item.ProductUID,
			Count:      item.Count,
		}
		if product, found := products[item.ProductUID]; found {
			resolved.Product = &product
		}
		result = append(result, resolved)
	}
	return result
}

func ProductUIDs(items []LineItem) []string {
	uids := make([]string, 0, len(items))
	for _, item := range items {
		uids = append(uids, item.ProductUID)
	}
	return uids
}

type BasketDetails struct {
	UID          string
	UserUID      string
	FinalPrice   float64
	Generation   int
	CreatedAt    time.Time
	LastModified *time.Time
	Products     []ResolvedLineItem
}
