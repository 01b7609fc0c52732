package services

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/restaurant/internal/dbx"
	"github.com/dmitrijs2005/restaurant/internal/server/changefeed"
	"github.com/dmitrijs2005/restaurant/internal/server/models"
	"github.com/dmitrijs2005/restaurant/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/restaurant/internal/server/repositories/customers"
	"github.com/dmitrijs2005/restaurant/internal/server/repositories/orders"
	"github.com/dmitrijs2005/restaurant/internal/server/repositories/recipes"
	"github.com/dmitrijs2005/restaurant/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/restaurant/internal/server/repositories/users"
	"github.com/stretchr/testify/require"
)

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

type signInState struct {
	attempts int
	until    *time.Time
}

type fakeAccounts struct {
	created   []*models.Account
	createErr error

	getOut *models.Account
	getErr error

	states   []signInState
	stateErr error
}

func (f *fakeAccounts) Create(_ context.Context, acc *models.Account) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, acc)
	return nil
}

func (f *fakeAccounts) GetByEmail(context.Context, string) (*models.Account, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	cp := *f.getOut
	return &cp, nil
}

func (f *fakeAccounts) GetByID(ctx context.Context, id string) (*models.Account, error) {
	return f.GetByEmail(ctx, id)
}

func (f *fakeAccounts) SetSignInState(_ context.Context, _ string, attempts int, until *time.Time) error {
	f.states = append(f.states, signInState{attempts: attempts, until: until})
	return f.stateErr
}

type fakeRefreshTokens struct {
	findOut *models.RefreshToken
	findErr error

	deleted []string
	delErr  error

	createdFor []string
	createErr  error
}

func (f *fakeRefreshTokens) Create(_ context.Context, accountID string, _ string, _ time.Duration) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.createdFor = append(f.createdFor, accountID)
	return nil
}

func (f *fakeRefreshTokens) Find(context.Context, string) (*models.RefreshToken, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.findOut, nil
}

func (f *fakeRefreshTokens) Delete(_ context.Context, token string) error {
	f.deleted = append(f.deleted, token)
	return f.delErr
}

type fakeUsers struct {
	upserted  []models.User
	upsertErr error
	listOut   []models.User
}

func (f *fakeUsers) Upsert(_ context.Context, u *models.User) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserted = append(f.upserted, *u)
	return nil
}

func (f *fakeUsers) List(context.Context) ([]models.User, error) { return f.listOut, nil }

type fakeCustomers struct {
	created  []models.Customer
	upserted []models.Customer
	writeErr error
	listOut  []models.Customer
	listErr  error
}

func (f *fakeCustomers) Create(_ context.Context, c *models.Customer) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.created = append(f.created, *c)
	return nil
}

func (f *fakeCustomers) Upsert(_ context.Context, c *models.Customer) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.upserted = append(f.upserted, *c)
	return nil
}

func (f *fakeCustomers) List(context.Context) ([]models.Customer, error) {
	return f.listOut, f.listErr
}

type fakeRecipes struct {
	created  []models.Recipe
	upserted []models.Recipe
	listOut  []models.Recipe
}

func (f *fakeRecipes) Create(_ context.Context, r *models.Recipe) error {
	f.created = append(f.created, *r)
	return nil
}

func (f *fakeRecipes) Upsert(_ context.Context, r *models.Recipe) error {
	f.upserted = append(f.upserted, *r)
	return nil
}

func (f *fakeRecipes) List(context.Context) ([]models.Recipe, error) { return f.listOut, nil }

type fakeOrders struct {
	listOut []models.Order
}

func (f *fakeOrders) List(context.Context) ([]models.Order, error) { return f.listOut, nil }

type fakeRepoManager struct {
	accounts  *fakeAccounts
	tokens    *fakeRefreshTokens
	users     *fakeUsers
	customers *fakeCustomers
	recipes   *fakeRecipes
	orders    *fakeOrders
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		accounts:  &fakeAccounts{},
		tokens:    &fakeRefreshTokens{},
		users:     &fakeUsers{},
		customers: &fakeCustomers{},
		recipes:   &fakeRecipes{},
		orders:    &fakeOrders{},
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error    { return nil }
func (m *fakeRepoManager) Accounts(dbx.DBTX) accounts.Repository           { return m.accounts }
func (m *fakeRepoManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository { return m.tokens }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository                 { return m.users }
func (m *fakeRepoManager) Customers(dbx.DBTX) customers.Repository         { return m.customers }
func (m *fakeRepoManager) Recipes(dbx.DBTX) recipes.Repository             { return m.recipes }
func (m *fakeRepoManager) Orders(dbx.DBTX) orders.Repository               { return m.orders }

type fakeFeed struct {
	*changefeed.Memory

	mu         sync.Mutex
	published  []string
	publishErr error
}

func (f *fakeFeed) Publish(_ context.Context, collection string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, collection)
	if f.publishErr != nil {
		return f.publishErr
	}
	return f.Memory.Publish(context.Background(), collection)
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{Memory: changefeed.NewMemory()}
}

func (f *fakeFeed) Published() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.published...)
}
