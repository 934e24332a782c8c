package catalog

import (
	"time"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleOwner    Role = "owner"
)

func (r Role) IsValid() bool {
	return r == RoleCustomer || r == RoleOwner
}

// User is identified by an opaque uid held by the client; there is no credential.
type User struct {
	UID       string
	Name      string
	Email     string
	Phone     string
	Address   string
	Role      Role
	CreatedAt time.Time
}

// Owner may exist without a linked user.
type Owner struct {
	UID           string
	UserUID       string
	Username      string
	Name          string
	Email         string
	Phone         string
	WhatsappPhone string
	CreatedAt     time.Time
}

// ContactPhone is the number receipts are sent to.
func (o Owner) ContactPhone() string {
	if o.WhatsappPhone != "" {
		return o.WhatsappPhone
	}
	return o.Phone
}

type Shop struct {
	UID         string
	OwnerUID    string
	Name        string
	Description string
	Address     string
	CreatedAt   time.Time
}

type Product struct {
	UID              string
	ShopUID          string
	Name             string
	BasePricePerUnit float64
	Unit             string
	InStock          bool
	CreatedAt        time.Time
}

type OwnerDetails struct {
	Owner Owner
	Shops []Shop
}

type ProfileUpdate struct {
	Name    *string
	Email   *string
	Phone   *string
	Address *string
}

func (u ProfileUpdate) apply(user User) User {
	if u.Name != nil {
		user.Name = *u.Name
	}
	if u.Email != nil {
		user.Email = *u.Email
	}
	if u.Phone != nil {
		user.Phone = *u.Phone
	}
	if u.Address != nil {
		user.Address = *u.Address
	}
	return user
}
