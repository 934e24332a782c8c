package myuuid

import "github.com/google/uuid"

//go:generate mockgen -source=uuid.go -package myuuid -destination uuider_mock.go UUIDer
type UUIDer interface {
	Create() string
}

type RealUUIDer struct{}

func (u RealUUIDer) Create() string {
	return uuid.New().String()
}

// Derive returns a stable name-based uuid, so repeated requests for the same name map onto the same entity
func Derive(name string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}
