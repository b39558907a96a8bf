package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/gophshop/internal/dbx"
	"github.com/dmitrijs2005/gophshop/internal/server/repositories/cartitems"
	"github.com/dmitrijs2005/gophshop/internal/server/repositories/items"
	"github.com/dmitrijs2005/gophshop/internal/server/repositories/orders"
	"github.com/dmitrijs2005/gophshop/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Items(db dbx.DBTX) items.Repository
	CartItems(db dbx.DBTX) cartitems.Repository
	Orders(db dbx.DBTX) orders.Repository
}
