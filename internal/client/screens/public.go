package screens

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/restaurant/internal/client/dataconnect"
	"github.com/dmitrijs2005/restaurant/internal/client/livequery"
	"github.com/dmitrijs2005/restaurant/internal/client/models"
	"github.com/dmitrijs2005/restaurant/internal/client/reconcile"
	"github.com/dmitrijs2005/restaurant/internal/logging"
)

// PublicRecipes is the read-only recipe list shown without signing in. It
// follows the recipes live query; every delivered list starts with all
// recipes collapsed.
type PublicRecipes struct {
	List  *reconcile.Reconciler[models.Recipe]
	query *livequery.Query[models.Recipe]

	mu       sync.Mutex
	expanded map[string]bool
}

// NewPublicRecipes starts the recipes live query for the public list.
func NewPublicRecipes(ctx context.Context, dc *dataconnect.Client, l logging.Logger) *PublicRecipes {
	q := dc.AllRecipes(ctx)
	p := newPublicRecipes(q, l)
	p.query = q
	return p
}

func newPublicRecipes(src livequery.Source[models.Recipe], l logging.Logger) *PublicRecipes {
	p := &PublicRecipes{expanded: map[string]bool{}}
	p.List = reconcile.New[models.Recipe]("public_recipes", src, l.With("screen", "public_recipes"))
	p.List.OnChange(p.collapseOnLoad)
	return p
}

// collapseOnLoad resets the expanded state after a list delivery. Loading
// and error states leave it alone.
func (p *PublicRecipes) collapseOnLoad() {
	if p.List.IsLoading() || p.List.Err() != nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.expanded = map[string]bool{}
}

// Toggle flips the expanded state of a recipe and returns the new state.
func (p *PublicRecipes) Toggle(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.expanded[id] = !p.expanded[id]
	return p.expanded[id]
}

func (p *PublicRecipes) Expanded(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.expanded[id]
}

func (p *PublicRecipes) Dispose() {
	p.List.Dispose()
	if p.query != nil {
		p.query.Stop()
	}
}
