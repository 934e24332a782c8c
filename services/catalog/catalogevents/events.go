package catalogevents

const (
	TopicName          = "shop"
	shopCreatedName    = TopicName + ".created"
	productCreatedName = TopicName + ".product.created"
	userCreatedName    = "user.created"
)

type UserCreated struct {
	UserUID string
	Role    string
}

func (e UserCreated) GetEventTypeName() string {
	return userCreatedName
}

func (e UserCreated) GetAggregateName() string {
	return e.UserUID
}

type ShopCreated struct {
	ShopUID  string
	OwnerUID string
	UserUID  string
	Name     string
}

func (e ShopCreated) GetEventTypeName() string {
	return shopCreatedName
}

func (e ShopCreated) GetAggregateName() string {
	return e.ShopUID
}

type ProductCreated struct {
	ProductUID       string
	ShopUID          string
	Name             string
	BasePricePerUnit float64
	Unit             string
}

func (e ProductCreated) GetEventTypeName() string {
	return productCreatedName
}

func (e ProductCreated) GetAggregateName() string {
	return e.ShopUID
}
