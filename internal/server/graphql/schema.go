// Package graphql exposes the shop over a single GraphQL endpoint built with
// graphql-go. Resolvers read the caller from auth.SessionFromContext and
// forward to the services.
package graphql

import (
	"context"

	"github.com/dmitrijs2005/gophshop/internal/logging"
	"github.com/dmitrijs2005/gophshop/internal/server/auth"
	"github.com/dmitrijs2005/gophshop/internal/server/models"
	"github.com/dmitrijs2005/gophshop/internal/server/services"
	"github.com/graphql-go/graphql"
)

type Users interface {
	Signup(ctx context.Context, name, email, password string) (*services.AuthResult, error)
	Signin(ctx context.Context, email, password string) (*services.AuthResult, error)
	Signout(ctx context.Context) *services.SuccessMessage
	Me(ctx context.Context, userID string) (*models.User, error)
	RequestReset(ctx context.Context, email string) (*services.SuccessMessage, error)
	ResetPassword(ctx context.Context, token, password, confirmPassword string) (*services.AuthResult, error)
	UpdatePermissions(ctx context.Context, callerID, targetID string, perms []auth.Permission) (*models.User, error)
}

type Items interface {
	CreateItem(ctx context.Context, userID string, in services.ItemInput) (*models.Item, error)
	UpdateItem(ctx context.Context, userID, itemID string, upd services.ItemUpdate) (*models.Item, error)
	DeleteItem(ctx context.Context, userID, itemID string) (*models.Item, error)
}

type Carts interface {
	AddToCart(ctx context.Context, userID, itemID string) (*models.CartItem, error)
	RemoveFromCart(ctx context.Context, userID, cartItemID string) (*models.CartItem, error)
	Cart(ctx context.Context, userID string) ([]*models.CartItem, error)
}

type Checkout interface {
	Checkout(ctx context.Context, userID, token string) (*models.Order, error)
}

type Orders interface {
	Orders(ctx context.Context, userID string) ([]*models.Order, error)
	Order(ctx context.Context, userID, orderID string) (*models.Order, error)
}

// Resolver holds the services behind the schema.
type Resolver struct {
	Users    Users
	Items    Items
	Carts    Carts
	Checkout Checkout
	Orders   Orders
	Logger   logging.Logger
}

var permissionEnum = func() *graphql.Enum {
	values := graphql.EnumValueConfigMap{}
	for _, p := range auth.AllPermissions {
		values[string(p)] = &graphql.EnumValueConfig{Value: p}
	}
	return graphql.NewEnum(graphql.EnumConfig{Name: "Permission", Values: values})
}()

var userType = graphql.NewObject(graphql.ObjectConfig{
	Name: "User",
	Fields: graphql.Fields{
		"id":          &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"name":        &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"email":       &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"permissions": &graphql.Field{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(permissionEnum)))},
	},
})

var itemType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Item",
	Fields: graphql.Fields{
		"id":          &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"title":       &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"description": &graphql.Field{Type: graphql.String},
		"image":       &graphql.Field{Type: graphql.String},
		"largeImage":  &graphql.Field{Type: graphql.String},
		"price":       &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"userId":      &graphql.Field{Type: graphql.ID},
	},
})

var cartItemType = graphql.NewObject(graphql.ObjectConfig{
	Name: "CartItem",
	Fields: graphql.Fields{
		"id":       &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"quantity": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"item":     &graphql.Field{Type: itemType},
		"userId":   &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
	},
})

var orderItemType = graphql.NewObject(graphql.ObjectConfig{
	Name: "OrderItem",
	Fields: graphql.Fields{
		"id":          &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"title":       &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"description": &graphql.Field{Type: graphql.String},
		"image":       &graphql.Field{Type: graphql.String},
		"largeImage":  &graphql.Field{Type: graphql.String},
		"price":       &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"quantity":    &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
	},
})

var orderType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Order",
	Fields: graphql.Fields{
		"id":        &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"total":     &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"charge":    &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"items":     &graphql.Field{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(orderItemType)))},
		"userId":    &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"createdAt": &graphql.Field{Type: graphql.DateTime},
	},
})

var successMessageType = graphql.NewObject(graphql.ObjectConfig{
	Name: "SuccessMessage",
	Fields: graphql.Fields{
		"message": &graphql.Field{Type: graphql.String},
	},
})

func nonNull(t graphql.Input) *graphql.ArgumentConfig {
	return &graphql.ArgumentConfig{Type: graphql.NewNonNull(t)}
}

func optional(t graphql.Input) *graphql.ArgumentConfig {
	return &graphql.ArgumentConfig{Type: t}
}

// NewSchema builds the schema with r's resolvers.
func NewSchema(r *Resolver) (graphql.Schema, error) {
	if r.Logger == nil {
		r.Logger = logging.Nop()
	}

	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"me": &graphql.Field{Type: userType, Resolve: r.wrap(r.me)},
			"cart": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(cartItemType))),
				Resolve: r.wrap(r.cart),
			},
			"orders": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(orderType))),
				Resolve: r.wrap(r.orders),
			},
			"order": &graphql.Field{
				Type:    orderType,
				Args:    graphql.FieldConfigArgument{"id": nonNull(graphql.ID)},
				Resolve: r.wrap(r.order),
			},
		},
	})

	mutation := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"signup": &graphql.Field{
				Type: graphql.NewNonNull(userType),
				Args: graphql.FieldConfigArgument{
					"name":     nonNull(graphql.String),
					"email":    nonNull(graphql.String),
					"password": nonNull(graphql.String),
				},
				Resolve: r.wrap(r.signup),
			},
			"signin": &graphql.Field{
				Type: graphql.NewNonNull(userType),
				Args: graphql.FieldConfigArgument{
					"email":    nonNull(graphql.String),
					"password": nonNull(graphql.String),
				},
				Resolve: r.wrap(r.signin),
			},
			"signout": &graphql.Field{Type: successMessageType, Resolve: r.wrap(r.signout)},
			"requestReset": &graphql.Field{
				Type:    successMessageType,
				Args:    graphql.FieldConfigArgument{"email": nonNull(graphql.String)},
				Resolve: r.wrap(r.requestReset),
			},
			"resetPassword": &graphql.Field{
				Type: graphql.NewNonNull(userType),
				Args: graphql.FieldConfigArgument{
					"resetToken":      nonNull(graphql.String),
					"password":        nonNull(graphql.String),
					"confirmPassword": nonNull(graphql.String),
				},
				Resolve: r.wrap(r.resetPassword),
			},
			"updatePermissions": &graphql.Field{
				Type: userType,
				Args: graphql.FieldConfigArgument{
					"userId":      nonNull(graphql.ID),
					"permissions": nonNull(graphql.NewList(graphql.NewNonNull(permissionEnum))),
				},
				Resolve: r.wrap(r.updatePermissions),
			},
			"createItem": &graphql.Field{
				Type: graphql.NewNonNull(itemType),
				Args: graphql.FieldConfigArgument{
					"title":       nonNull(graphql.String),
					"description": optional(graphql.String),
					"image":       optional(graphql.String),
					"largeImage":  optional(graphql.String),
					"price":       nonNull(graphql.Int),
				},
				Resolve: r.wrap(r.createItem),
			},
			"updateItem": &graphql.Field{
				Type: itemType,
				Args: graphql.FieldConfigArgument{
					"id":          nonNull(graphql.ID),
					"title":       optional(graphql.String),
					"description": optional(graphql.String),
					"image":       optional(graphql.String),
					"largeImage":  optional(graphql.String),
					"price":       optional(graphql.Int),
				},
				Resolve: r.wrap(r.updateItem),
			},
			"deleteItem": &graphql.Field{
				Type:    itemType,
				Args:    graphql.FieldConfigArgument{"id": nonNull(graphql.ID)},
				Resolve: r.wrap(r.deleteItem),
			},
			"addToCart": &graphql.Field{
				Type:    cartItemType,
				Args:    graphql.FieldConfigArgument{"id": nonNull(graphql.ID)},
				Resolve: r.wrap(r.addToCart),
			},
			"removeFromCart": &graphql.Field{
				Type:    cartItemType,
				Args:    graphql.FieldConfigArgument{"id": nonNull(graphql.ID)},
				Resolve: r.wrap(r.removeFromCart),
			},
			"createOrder": &graphql.Field{
				Type:    graphql.NewNonNull(orderType),
				Args:    graphql.FieldConfigArgument{"token": nonNull(graphql.String)},
				Resolve: r.wrap(r.createOrder),
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    query,
		Mutation: mutation,
	})
}
