package receipt

import "math"

type OrderType string

const (
	OrderTypePickup OrderType = "pickup"
	OrderTypeStripe OrderType = "stripe"
)

func (t OrderType) IsValid() bool {
	return t == OrderTypePickup || t == OrderTypeStripe
}

type Line struct {
	Name             string
	BasePricePerUnit float64
	Unit             string
	Quantity         int
}

func (l Line) Subtotal() float64 {
	return round2(l.BasePricePerUnit * float64(l.Quantity))
}

type Contact struct {
	Name  string
	Phone string
}

type Receipt struct {
	Lines     []Line
	Owner     Contact
	Customer  Contact
	OrderType OrderType
}

// Total is the sum of the rounded subtotals. A total supplied by the client is not consulted.
func (r Receipt) Total() float64 {
	total := 0.0
	for _, l := range r.Lines {
		total += l.Subtotal()
	}
	return round2(total)
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
