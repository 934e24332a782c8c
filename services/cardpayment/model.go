package cardpayment

import (
	"math"
	"time"
)

type Status string

const (
	StatusStarted   Status = "started"
	StatusSuccess   Status = "success"
	StatusCancelled Status = "cancel"
)

func (s Status) isFinal() bool {
	return s == StatusSuccess || s == StatusCancelled
}

// Payment tracks the card payment session of a single order
type Payment struct {
	OrderUID      string
	SessionID     string
	SessionURL    string
	AmountInCents int64
	Currency      string
	Status        Status
	CreatedAt     time.Time
	LastModified  *time.Time
}

func toCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
