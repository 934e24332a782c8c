package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/MarcGrol/picoteo/lib/myerrors"
	"github.com/MarcGrol/picoteo/lib/mylog"
	"github.com/MarcGrol/picoteo/lib/mystore"
	"github.com/MarcGrol/picoteo/lib/myuuid"
	"github.com/MarcGrol/picoteo/services/catalog/catalogevents"
)

func (s *service) createUser(c context.Context, role Role, profile ProfileUpdate) (User, error) {
	if !role.IsValid() {
		return User{}, myerrors.NewInvalidInputError(fmt.Errorf("invalid role '%s'", role))
	}

	user := profile.apply(User{
		UID:       s.uuider.Create(),
		Role:      role,
		CreatedAt: s.nower.Now(),
	})

	s.logger.Log(c, user.UID, mylog.SeverityInfo, "Creating user %s with role %s", user.UID, role)

	err := s.userStore.RunInTransaction(c, func(c context.Context) error {
		err := s.userStore.Put(c, user.UID, user)
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		err = s.publisher.Publish(c, catalogevents.TopicName, catalogevents.UserCreated{
			UserUID: user.UID,
			Role:    string(user.Role),
		})
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		return nil
	})
	if err != nil {
		return User{}, err
	}

	return user, nil
}

func (s *service) getUser(c context.Context, userUID string) (User, error) {
	s.logger.Log(c, userUID, mylog.SeverityInfo, "Fetch user %s", userUID)

	user, found, err := s.resolver.GetUser(c, userUID)
	if err != nil {
		return User{}, myerrors.NewInternalError(err)
	}
	if !found {
		return User{}, myerrors.NewNotFoundError(fmt.Errorf("user with uid %s not found", userUID))
	}

	return user, nil
}

func (s *service) updateUserRole(c context.Context, userUID string, role Role) (User, error) {
	if !role.IsValid() {
		return User{}, myerrors.NewInvalidInputError(fmt.Errorf("invalid role '%s'", role))
	}

	s.logger.Log(c, userUID, mylog.SeverityInfo, "Change role of user %s into %s", userUID, role)

	return s.modifyUser(c, userUID, func(user User) User {
		user.Role = role
		return user
	})
}

func (s *service) updateUserProfile(c context.Context, userUID string, update ProfileUpdate) (User, error) {
	s.logger.Log(c, userUID, mylog.SeverityInfo, "Update profile of user %s", userUID)

	return s.modifyUser(c, userUID, update.apply)
}

func (s *service) modifyUser(c context.Context, userUID string, modify func(user User) User) (User, error) {
	var user User
	err := s.userStore.RunInTransaction(c, func(c context.Context) error {
		existing, found, err := s.userStore.Get(c, userUID)
		if err != nil {
			return myerrors.NewInternalError(err)
		}
		if !found {
			return myerrors.NewNotFoundError(fmt.Errorf("user with uid %s not found", userUID))
		}

		user = modify(existing)

		err = s.userStore.Put(c, userUID, user)
		if err != nil {
			return myerrors.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return User{}, err
	}

	return user, nil
}

type createShopCommand struct {
	UserUID     string
	Username    string
	Name        string
	Description string
	Address     string
}

// ownerUIDOf maps a user onto its owner record, so find-or-create is a keyed lookup
func ownerUIDOf(userUID string) string {
	return myuuid.Derive("owner/" + userUID)
}

func (s *service) createShop(c context.Context, cmd createShopCommand) (Shop, error) {
	s.logger.Log(c, cmd.UserUID, mylog.SeverityInfo, "User %s creates shop '%s'", cmd.UserUID, cmd.Name)

	if strings.TrimSpace(cmd.Name) == "" {
		return Shop{}, myerrors.NewInvalidInputError(fmt.Errorf("missing shop name"))
	}

	user, found, err := s.resolver.GetUser(c, cmd.UserUID)
	if err != nil {
		return Shop{}, myerrors.NewInternalError(err)
	}
	if !found || user.Role != RoleOwner {
		return Shop{}, myerrors.NewAuthorizationError(fmt.Errorf("only business owners can create shops"))
	}

	ownerUID, err := s.ownerUIDOfUser(c, user.UID)
	if err != nil {
		return Shop{}, err
	}
	if cmd.Username != "" {
		err = s.assertUsernameAvailable(c, cmd.Username, ownerUID)
		if err != nil {
			return Shop{}, err
		}
	}

	now := s.nower.Now()
	shop := Shop{
		UID:         s.uuider.Create(),
		OwnerUID:    ownerUID,
		Name:        cmd.Name,
		Description: cmd.Description,
		Address:     cmd.Address,
		CreatedAt:   now,
	}

	err = s.shopStore.RunInTransaction(c, func(c context.Context) error {
		return s.ownerStore.RunInTransaction(c, func(c context.Context) error {
			owner, found, err := s.ownerStore.Get(c, ownerUID)
			if err != nil {
				return myerrors.NewInternalError(err)
			}
			if !found {
				owner = Owner{
					UID:       ownerUID,
					UserUID:   user.UID,
					Username:  cmd.Username,
					Name:      user.Name,
					Email:     user.Email,
					Phone:     user.Phone,
					CreatedAt: now,
				}
				if owner.Username == "" {
					owner.Username = user.UID
				}
				s.logger.Log(c, user.UID, mylog.SeverityInfo, "Created owner %s for user %s", owner.UID, user.UID)

				err = s.ownerStore.Put(c, owner.UID, owner)
				if err != nil {
					return myerrors.NewInternalError(err)
				}
			}

			err = s.shopStore.Put(c, shop.UID, shop)
			if err != nil {
				return myerrors.NewInternalError(err)
			}

			err = s.publisher.Publish(c, catalogevents.TopicName, catalogevents.ShopCreated{
				ShopUID:  shop.UID,
				OwnerUID: owner.UID,
				UserUID:  user.UID,
				Name:     shop.Name,
			})
			if err != nil {
				return myerrors.NewInternalError(err)
			}

			return nil
		})
	})
	if err != nil {
		return Shop{}, err
	}

	return shop, nil
}

// ownerUIDOfUser prefers an owner already linked to the user, which may predate the derived key
func (s *service) ownerUIDOfUser(c context.Context, userUID string) (string, error) {
	owners, err := s.ownerStore.Query(c, []mystore.Filter{{Field: "UserUID", Compare: "=", Value: userUID}}, "CreatedAt")
	if err != nil {
		return "", myerrors.NewInternalError(err)
	}
	if len(owners) == 0 {
		return ownerUIDOf(userUID), nil
	}
	if len(owners) > 1 {
		s.logger.Log(c, userUID, mylog.SeverityWarn, "User %s is linked to %d owners: using %s", userUID, len(owners), owners[0].UID)
	}
	return owners[0].UID, nil
}

func (s *service) assertUsernameAvailable(c context.Context, username string, ownerUID string) error {
	owners, err := s.ownerStore.Query(c, []mystore.Filter{{Field: "Username", Compare: "=", Value: username}}, "")
	if err != nil {
		return myerrors.NewInternalError(err)
	}
	for _, o := range owners {
		if o.UID != ownerUID {
			return myerrors.NewInvalidInputError(fmt.Errorf("username %s already taken", username))
		}
	}
	return nil
}

func (s *service) getShops(c context.Context) ([]Shop, error) {
	s.logger.Log(c, "", mylog.SeverityInfo, "Fetch all shops")

	shops, err := s.shopStore.Query(c, nil, "CreatedAt")
	if err != nil {
		return nil, myerrors.NewInternalError(err)
	}

	return shops, nil
}

func (s *service) getShop(c context.Context, shopUID string) (Shop, error) {
	s.logger.Log(c, shopUID, mylog.SeverityInfo, "Fetch shop %s", shopUID)

	shop, found, err := s.resolver.GetShop(c, shopUID)
	if err != nil {
		return Shop{}, myerrors.NewInternalError(err)
	}
	if !found {
		return Shop{}, myerrors.NewNotFoundError(fmt.Errorf("shop with uid %s not found", shopUID))
	}

	return shop, nil
}

func (s *service) getMyShops(c context.Context, userUID string) ([]Shop, error) {
	s.logger.Log(c, userUID, mylog.SeverityInfo, "Fetch shops of user %s", userUID)

	ownerUID, err := s.ownerUIDOfUser(c, userUID)
	if err != nil {
		return nil, err
	}

	return s.getShopsByOwner(c, ownerUID)
}

func (s *service) getShopsByOwner(c context.Context, ownerUID string) ([]Shop, error) {
	shops, err := s.shopStore.Query(c, []mystore.Filter{{Field: "OwnerUID", Compare: "=", Value: ownerUID}}, "CreatedAt")
	if err != nil {
		return nil, myerrors.NewInternalError(err)
	}
	return shops, nil
}

func (s *service) getOwnerByUsername(c context.Context, username string) (OwnerDetails, error) {
	s.logger.Log(c, username, mylog.SeverityInfo, "Fetch owner with username %s", username)

	owners, err := s.ownerStore.Query(c, []mystore.Filter{{Field: "Username", Compare: "=", Value: username}}, "")
	if err != nil {
		return OwnerDetails{}, myerrors.NewInternalError(err)
	}
	if len(owners) == 0 {
		return OwnerDetails{}, myerrors.NewNotFoundError(fmt.Errorf("owner with username %s not found", username))
	}

	shops, err := s.getShopsByOwner(c, owners[0].UID)
	if err != nil {
		return OwnerDetails{}, err
	}

	return OwnerDetails{
		Owner: owners[0],
		Shops: shops,
	}, nil
}

type createProductCommand struct {
	UserUID          string
	ShopUID          string
	Name             string
	BasePricePerUnit float64
	Unit             string
	InStock          bool
}

func (s *service) createProduct(c context.Context, cmd createProductCommand) (Product, error) {
	s.logger.Log(c, cmd.ShopUID, mylog.SeverityInfo, "User %s adds product '%s' to shop %s", cmd.UserUID, cmd.Name, cmd.ShopUID)

	if strings.TrimSpace(cmd.Name) == "" {
		return Product{}, myerrors.NewInvalidInputError(fmt.Errorf("missing product name"))
	}
	if cmd.BasePricePerUnit < 0 {
		return Product{}, myerrors.NewInvalidInputError(fmt.Errorf("negative price %.2f", cmd.BasePricePerUnit))
	}

	shop, err := s.getShop(c, cmd.ShopUID)
	if err != nil {
		return Product{}, err
	}

	owner, found, err := s.resolver.GetOwner(c, shop.OwnerUID)
	if err != nil {
		return Product{}, myerrors.NewInternalError(err)
	}
	if !found || owner.UserUID == "" || owner.UserUID != cmd.UserUID {
		return Product{}, myerrors.NewAuthorizationError(fmt.Errorf("only the owner of shop %s can add products", shop.UID))
	}

	product := Product{
		UID:              s.uuider.Create(),
		ShopUID:          shop.UID,
		Name:             cmd.Name,
		BasePricePerUnit: cmd.BasePricePerUnit,
		Unit:             cmd.Unit,
		InStock:          cmd.InStock,
		CreatedAt:        s.nower.Now(),
	}

	err = s.productStore.RunInTransaction(c, func(c context.Context) error {
		err := s.productStore.Put(c, product.UID, product)
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		err = s.publisher.Publish(c, catalogevents.TopicName, catalogevents.ProductCreated{
			ProductUID:       product.UID,
			ShopUID:          product.ShopUID,
			Name:             product.Name,
			BasePricePerUnit: product.BasePricePerUnit,
			Unit:             product.Unit,
		})
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		return nil
	})
	if err != nil {
		return Product{}, err
	}

	return product, nil
}

func (s *service) getProductsByShop(c context.Context, shopUID string) ([]Product, error) {
	s.logger.Log(c, shopUID, mylog.SeverityInfo, "Fetch products of shop %s", shopUID)

	products, err := s.productStore.Query(c, []mystore.Filter{{Field: "ShopUID", Compare: "=", Value: shopUID}}, "CreatedAt")
	if err != nil {
		return nil, myerrors.NewInternalError(err)
	}

	return products, nil
}
