package basketevents

const (
	TopicName         = "basket"
	basketCreatedName = TopicName + ".created"
	basketClearedName = TopicName + ".cleared"
)

type BasketCreated struct {
	BasketUID string
	UserUID   string
}

func (e BasketCreated) GetEventTypeName() string {
	return basketCreatedName
}

func (e BasketCreated) GetAggregateName() string {
	return e.BasketUID
}

// BasketCleared carries the generation that was cleared, so every clear is a distinct event
type BasketCleared struct {
	BasketUID  string
	Generation int
}

func (e BasketCleared) GetEventTypeName() string {
	return basketClearedName
}

func (e BasketCleared) GetAggregateName() string {
	return e.BasketUID
}
