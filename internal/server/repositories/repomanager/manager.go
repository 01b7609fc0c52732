// Package repomanager vends the Postgres repositories, bound either to the
// pool or to a transaction, and owns schema migrations.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/restaurant/internal/dbx"
	"github.com/dmitrijs2005/restaurant/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/restaurant/internal/server/repositories/customers"
	"github.com/dmitrijs2005/restaurant/internal/server/repositories/orders"
	"github.com/dmitrijs2005/restaurant/internal/server/repositories/recipes"
	"github.com/dmitrijs2005/restaurant/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/restaurant/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Accounts(db dbx.DBTX) accounts.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Users(db dbx.DBTX) users.Repository
	Customers(db dbx.DBTX) customers.Repository
	Recipes(db dbx.DBTX) recipes.Repository
	Orders(db dbx.DBTX) orders.Repository
}
