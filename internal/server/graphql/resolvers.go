package graphql

import (
	"fmt"

	"github.com/dmitrijs2005/gophshop/internal/common"
	"github.com/dmitrijs2005/gophshop/internal/server/auth"
	"github.com/dmitrijs2005/gophshop/internal/server/models"
	"github.com/dmitrijs2005/gophshop/internal/server/services"
	"github.com/graphql-go/graphql"
)

// wrap turns service errors into client errors and logs the ones that are
// not the client's fault.
func (r *Resolver) wrap(fn graphql.FieldResolveFn) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (any, error) {
		out, err := fn(p)
		if err == nil {
			return out, nil
		}

		gerr, expected := toError(err)
		if !expected {
			r.Logger.Error(p.Context, "resolver failed", "field", p.Info.FieldName, "code", gerr.Code, "error", err)
		}
		return nil, gerr
	}
}

func caller(p graphql.ResolveParams) string {
	return auth.SessionFromContext(p.Context).UserID
}

func stringArg(p graphql.ResolveParams, name string) string {
	s, _ := p.Args[name].(string)
	return s
}

func optionalString(p graphql.ResolveParams, name string) *string {
	if s, ok := p.Args[name].(string); ok {
		return &s
	}
	return nil
}

func optionalInt(p graphql.ResolveParams, name string) *int64 {
	if n, ok := p.Args[name].(int); ok {
		v := int64(n)
		return &v
	}
	return nil
}

// --- queries ---

func (r *Resolver) me(p graphql.ResolveParams) (any, error) {
	user, err := r.Users.Me(p.Context, caller(p))
	if err != nil || user == nil {
		return nil, err
	}
	return user, nil
}

// cart and orders are non-null lists, so an empty result must not be nil.

func (r *Resolver) cart(p graphql.ResolveParams) (any, error) {
	items, err := r.Carts.Cart(p.Context, caller(p))
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*models.CartItem{}
	}
	return items, nil
}

func (r *Resolver) orders(p graphql.ResolveParams) (any, error) {
	orders, err := r.Orders.Orders(p.Context, caller(p))
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []*models.Order{}
	}
	return orders, nil
}

func (r *Resolver) order(p graphql.ResolveParams) (any, error) {
	return r.Orders.Order(p.Context, caller(p), stringArg(p, "id"))
}

// --- account ---

func (r *Resolver) signup(p graphql.ResolveParams) (any, error) {
	res, err := r.Users.Signup(p.Context, stringArg(p, "name"), stringArg(p, "email"), stringArg(p, "password"))
	if err != nil {
		return nil, err
	}
	cookieJarFrom(p.Context).SetSession(res.Token)
	return res.User, nil
}

func (r *Resolver) signin(p graphql.ResolveParams) (any, error) {
	res, err := r.Users.Signin(p.Context, stringArg(p, "email"), stringArg(p, "password"))
	if err != nil {
		return nil, err
	}
	cookieJarFrom(p.Context).SetSession(res.Token)
	return res.User, nil
}

func (r *Resolver) signout(p graphql.ResolveParams) (any, error) {
	cookieJarFrom(p.Context).ClearSession()
	return r.Users.Signout(p.Context), nil
}

func (r *Resolver) requestReset(p graphql.ResolveParams) (any, error) {
	return r.Users.RequestReset(p.Context, stringArg(p, "email"))
}

func (r *Resolver) resetPassword(p graphql.ResolveParams) (any, error) {
	res, err := r.Users.ResetPassword(p.Context, stringArg(p, "resetToken"), stringArg(p, "password"), stringArg(p, "confirmPassword"))
	if err != nil {
		return nil, err
	}
	cookieJarFrom(p.Context).SetSession(res.Token)
	return res.User, nil
}

func (r *Resolver) updatePermissions(p graphql.ResolveParams) (any, error) {
	raw, _ := p.Args["permissions"].([]any)
	perms := make([]auth.Permission, 0, len(raw))
	for _, v := range raw {
		perm, ok := v.(auth.Permission)
		if !ok {
			return nil, fmt.Errorf("%w: unknown permission %v", common.ErrValidation, v)
		}
		perms = append(perms, perm)
	}
	return r.Users.UpdatePermissions(p.Context, caller(p), stringArg(p, "userId"), perms)
}

// --- catalog ---

func (r *Resolver) createItem(p graphql.ResolveParams) (any, error) {
	price, _ := p.Args["price"].(int)
	return r.Items.CreateItem(p.Context, caller(p), services.ItemInput{
		Title:       stringArg(p, "title"),
		Description: stringArg(p, "description"),
		Image:       stringArg(p, "image"),
		LargeImage:  stringArg(p, "largeImage"),
		Price:       int64(price),
	})
}

func (r *Resolver) updateItem(p graphql.ResolveParams) (any, error) {
	return r.Items.UpdateItem(p.Context, caller(p), stringArg(p, "id"), services.ItemUpdate{
		Title:       optionalString(p, "title"),
		Description: optionalString(p, "description"),
		Image:       optionalString(p, "image"),
		LargeImage:  optionalString(p, "largeImage"),
		Price:       optionalInt(p, "price"),
	})
}

func (r *Resolver) deleteItem(p graphql.ResolveParams) (any, error) {
	return r.Items.DeleteItem(p.Context, caller(p), stringArg(p, "id"))
}

// --- cart and checkout ---

func (r *Resolver) addToCart(p graphql.ResolveParams) (any, error) {
	return r.Carts.AddToCart(p.Context, caller(p), stringArg(p, "id"))
}

func (r *Resolver) removeFromCart(p graphql.ResolveParams) (any, error) {
	return r.Carts.RemoveFromCart(p.Context, caller(p), stringArg(p, "id"))
}

func (r *Resolver) createOrder(p graphql.ResolveParams) (any, error) {
	return r.Checkout.Checkout(p.Context, caller(p), stringArg(p, "token"))
}
