package screens

import (
	"context"
	"slices"

	"github.com/dmitrijs2005/restaurant/internal/client/models"
	"github.com/dmitrijs2005/restaurant/internal/logging"
	"golang.org/x/sync/errgroup"
)

// RecentOrdersLimit is how many orders the dashboard shows.
const RecentOrdersLimit = 5

// Lister fetches a whole collection once.
type Lister[T any] interface {
	List(ctx context.Context) ([]T, error)
}

type Counts struct {
	Customers int
	Recipes   int
	Orders    int
	Users     int
}

type Summary struct {
	Counts       Counts
	RecentOrders []models.Order
}

// Dashboard is the signed-in home screen.
type Dashboard struct {
	customers Lister[models.Customer]
	recipes   Lister[models.Recipe]
	orders    Lister[models.Order]
	users     Lister[models.User]
	logger    logging.Logger
}

func NewDashboard(customers Lister[models.Customer], recipes Lister[models.Recipe], orders Lister[models.Order], users Lister[models.User], l logging.Logger) *Dashboard {
	return &Dashboard{
		customers: customers,
		recipes:   recipes,
		orders:    orders,
		users:     users,
		logger:    l.With("screen", "dashboard"),
	}
}

// Load fetches every collection concurrently. A failed fetch is logged and
// leaves its count at zero.
func (d *Dashboard) Load(ctx context.Context) Summary {
	var (
		s Summary
		g errgroup.Group
	)
	g.Go(func() error {
		s.Counts.Customers = count(ctx, d, "customers", d.customers)
		return nil
	})
	g.Go(func() error {
		s.Counts.Recipes = count(ctx, d, "recipes", d.recipes)
		return nil
	})
	g.Go(func() error {
		s.Counts.Users = count(ctx, d, "users", d.users)
		return nil
	})
	g.Go(func() error {
		orders, err := d.orders.List(ctx)
		if err != nil {
			d.logger.Error(ctx, "failed to load orders", "error", err)
			return nil
		}
		s.Counts.Orders = len(orders)
		s.RecentOrders = recentOrders(orders, RecentOrdersLimit)
		return nil
	})
	_ = g.Wait()
	return s
}

func count[T any](ctx context.Context, d *Dashboard, name string, l Lister[T]) int {
	items, err := l.List(ctx)
	if err != nil {
		d.logger.Error(ctx, "failed to load "+name, "error", err)
		return 0
	}
	return len(items)
}

// recentOrders returns up to n orders, newest first.
func recentOrders(orders []models.Order, n int) []models.Order {
	sorted := slices.Clone(orders)
	slices.SortStableFunc(sorted, func(a, b models.Order) int {
		return b.OrderDate.Compare(a.OrderDate)
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
