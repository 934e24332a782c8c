package basket

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MarcGrol/picoteo/services/catalog"
)

func TestMerge(t *testing.T) {

	t.Run("Repeated adds accumulate", func(t *testing.T) {
		basket := Basket{}.merge("A", 1).merge("A", 2).merge("B", 5)

		assert.Equal(t, []LineItem{{ProductUID: "A", Count: 3}, {ProductUID: "B", Count: 5}}, basket.Products)
	})

	t.Run("Merge keeps position", func(t *testing.T) {
		basket := Basket{}.merge("A", 1).merge("B", 1).merge("C", 1).merge("A", 1)

		assert.Equal(t, []string{"A", "B", "C"}, ProductUIDs(basket.Products))
		assert.Equal(t, 2, basket.Products[0].Count)
	})

	t.Run("At most one line item per product", func(t *testing.T) {
		basket := Basket{}
		for i := 0; i < 10; i++ {
			basket = basket.merge("A", 1)
		}

		assert.Len(t, basket.Products, 1)
		assert.Equal(t, 10, basket.Products[0].Count)
	})

	t.Run("Merge does not alter the original", func(t *testing.T) {
		original := Basket{Products: []LineItem{{ProductUID: "A", Count: 1}}}
		_ = original.merge("A", 4)

		assert.Equal(t, 1, original.Products[0].Count)
	})

	t.Run("Clear empties and bumps generation", func(t *testing.T) {
		basket := Basket{FinalPrice: 12.5, Generation: 2}.merge("A", 1).cleared()

		assert.Empty(t, basket.Products)
		assert.Equal(t, 0.0, basket.FinalPrice)
		assert.Equal(t, 3, basket.Generation)
	})

	t.Run("Settle removes exactly what was ordered", func(t *testing.T) {
		ordered := []LineItem{{ProductUID: "A", Count: 1}, {ProductUID: "B", Count: 2}}
		basket := Basket{FinalPrice: 4, Generation: 1}.merge("A", 3).merge("B", 2).merge("C", 5).settled(ordered)

		assert.Equal(t, []LineItem{{ProductUID: "A", Count: 2}, {ProductUID: "C", Count: 5}}, basket.Products)
		assert.Equal(t, 0.0, basket.FinalPrice)
		assert.Equal(t, 2, basket.Generation)
	})

	t.Run("Settle of an unchanged basket empties it", func(t *testing.T) {
		basket := Basket{}.merge("A", 1).merge("B", 2)
		settled := basket.settled(basket.Products)

		assert.Empty(t, settled.Products)
		assert.Equal(t, 1, settled.Generation)
	})

	t.Run("Set count of absent product", func(t *testing.T) {
		_, found := Basket{}.merge("A", 1).withCount("B", 3)

		assert.False(t, found)
	})

	t.Run("Remove", func(t *testing.T) {
		basket := Basket{}.merge("A", 1).merge("B", 1).without("A")

		assert.Equal(t, []string{"B"}, ProductUIDs(basket.Products))
	})
}

func TestResolve(t *testing.T) {
	items := []LineItem{{ProductUID: "A", Count: 1}, {ProductUID: "gone", Count: 2}}
	products := map[string]catalog.Product{"A": {UID: "A", Name: "Apples"}}

	resolved := Resolve(items, products)

	assert.Len(t, resolved, 2)
	assert.Equal(t, "Apples", resolved[0].Product.Name)
	assert.Nil(t, resolved[1].Product)
	assert.Equal(t, 2, resolved[1].Count)
}
