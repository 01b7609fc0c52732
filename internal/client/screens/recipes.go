package screens

import (
	"context"
	"slices"

	"github.com/dmitrijs2005/restaurant/internal/client/dataconnect"
	"github.com/dmitrijs2005/restaurant/internal/client/livequery"
	"github.com/dmitrijs2005/restaurant/internal/client/models"
	"github.com/dmitrijs2005/restaurant/internal/client/reconcile"
	"github.com/dmitrijs2005/restaurant/internal/logging"
)

type Recipes struct {
	*CRUD[models.Recipe]
	query *livequery.Query[models.Recipe]
}

// NewRecipes starts the recipes live query and the screen's list.
func NewRecipes(ctx context.Context, dc *dataconnect.Client, l logging.Logger) *Recipes {
	l = l.With("screen", "recipes")
	q := dc.AllRecipes(ctx)
	list := reconcile.New[models.Recipe]("recipes", q, l)
	return &Recipes{CRUD: NewCRUD[models.Recipe](list, dc.Recipes(), models.Validate, l), query: q}
}

func (s *Recipes) Dispose() {
	s.CRUD.Dispose()
	if s.query != nil {
		s.query.Stop()
	}
}

// AddIngredient appends an ingredient line to the draft.
func (s *Recipes) AddIngredient(text string) error {
	return s.Form.Edit(func(r *models.Recipe) {
		r.Ingredients = append(r.Ingredients, text)
	})
}

func (s *Recipes) RemoveIngredient(i int) error {
	return s.removeLine(i, func(r *models.Recipe) *[]string { return &r.Ingredients })
}

// AddStep appends a step line to the draft.
func (s *Recipes) AddStep(text string) error {
	return s.Form.Edit(func(r *models.Recipe) {
		r.Steps = append(r.Steps, text)
	})
}

func (s *Recipes) RemoveStep(i int) error {
	return s.removeLine(i, func(r *models.Recipe) *[]string { return &r.Steps })
}

func (s *Recipes) removeLine(i int, lines func(*models.Recipe) *[]string) error {
	return s.Form.Edit(func(r *models.Recipe) {
		l := lines(r)
		if i < 0 || i >= len(*l) {
			return
		}
		*l = slices.Delete(slices.Clone(*l), i, i+1)
	})
}
