package orderevents

import "time"

const (
	TopicName        = "order"
	orderCreatedName = TopicName + ".created"
	receiptSentName  = TopicName + ".receipt.sent"
)

type OrderCreated struct {
	OrderUID        string
	UserUID         string
	ShopUID         string
	BasketUID       string
	OrderType       string
	ItemCount       int
	TotalPriceToPay float64
	ComputedTotal   float64
}

func (e OrderCreated) GetEventTypeName() string {
	return orderCreatedName
}

func (e OrderCreated) GetAggregateName() string {
	return e.OrderUID
}

type ReceiptSent struct {
	OrderUID    string
	Destination string
	SentAt      time.Time
}

func (e ReceiptSent) GetEventTypeName() string {
	return receiptSentName
}

func (e ReceiptSent) GetAggregateName() string {
	return e.OrderUID
}
