package paymentevents

const (
	TopicName            = "payment"
	paymentStartedName   = TopicName + ".started"
	paymentCompletedName = TopicName + ".completed"
)

type PaymentStarted struct {
	OrderUID      string
	SessionID     string
	AmountInCents int64
	Currency      string
}

func (e PaymentStarted) GetEventTypeName() string {
	return paymentStartedName
}

func (e PaymentStarted) GetAggregateName() string {
	return e.OrderUID
}

type PaymentCompleted struct {
	OrderUID string
	Status   string
}

func (e PaymentCompleted) GetEventTypeName() string {
	return paymentCompletedName
}

func (e PaymentCompleted) GetAggregateName() string {
	return e.OrderUID
}
