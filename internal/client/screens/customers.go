package screens

import (
	"context"

	"github.com/dmitrijs2005/restaurant/internal/client/dataconnect"
	"github.com/dmitrijs2005/restaurant/internal/client/livequery"
	"github.com/dmitrijs2005/restaurant/internal/client/models"
	"github.com/dmitrijs2005/restaurant/internal/client/reconcile"
	"github.com/dmitrijs2005/restaurant/internal/logging"
)

type Customers struct {
	*CRUD[models.Customer]
	query *livequery.Query[models.Customer]
}

// NewCustomers starts the customers live query and the screen's list.
func NewCustomers(ctx context.Context, dc *dataconnect.Client, l logging.Logger) *Customers {
	l = l.With("screen", "customers")
	q := dc.AllCustomers(ctx)
	list := reconcile.New[models.Customer]("customers", q, l)
	return &Customers{CRUD: NewCRUD[models.Customer](list, dc.Customers(), models.Validate, l), query: q}
}

func (s *Customers) Dispose() {
	s.CRUD.Dispose()
	if s.query != nil {
		s.query.Stop()
	}
}
