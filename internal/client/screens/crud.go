package screens

import (
	"context"
	"slices"

	"github.com/dmitrijs2005/restaurant/internal/client/reconcile"
	"github.com/dmitrijs2005/restaurant/internal/logging"
)

// Store writes records of one collection. dataconnect.Collection
// implements it.
type Store[T any] interface {
	Create(ctx context.Context, rec T) (string, error)
	Upsert(ctx context.Context, rec T) (string, error)
}

// Record is what a CRUD screen lists and edits.
type Record[T any] interface {
	reconcile.Entity[T]
	Normalize() T
}

// CRUD is a list screen with one add/edit form.
type CRUD[T Record[T]] struct {
	List *reconcile.Reconciler[T]
	Form *Form[T]

	store    Store[T]
	validate func(any) error
	logger   logging.Logger
}

func NewCRUD[T Record[T]](list *reconcile.Reconciler[T], store Store[T], validate func(any) error, l logging.Logger) *CRUD[T] {
	return &CRUD[T]{
		List:     list,
		Form:     &Form[T]{},
		store:    store,
		validate: validate,
		logger:   l,
	}
}

func (c *CRUD[T]) ShowAdd() error { return c.Form.StartAdd() }

// Edit opens the form on the listed record with the given key.
func (c *CRUD[T]) Edit(id string) error {
	items := c.List.Items()
	i := slices.IndexFunc(items, func(it T) bool { return it.Key() == id })
	if i < 0 {
		return ErrNotInList
	}
	return c.Form.StartEdit(id, items[i])
}

func (c *CRUD[T]) Cancel() error { return c.Form.Cancel() }

// Delete removes the record from this screen's list. Nothing is deleted on
// the server.
func (c *CRUD[T]) Delete(id string) {
	c.List.Remove(id)
}

// Submit validates the draft, writes it and patches the list. On any error
// the form stays open with its draft.
func (c *CRUD[T]) Submit(ctx context.Context) error {
	draft, id, editing, err := c.Form.begin()
	if err != nil {
		return err
	}

	rec := draft.Normalize()
	if err := c.validate(rec); err != nil {
		c.Form.fail()
		return err
	}
	if editing && id == "" {
		c.logger.Error(ctx, "submit in edit mode without a current id")
		c.Form.fail()
		return ErrMissingID
	}

	var outcome reconcile.Outcome[T]
	if editing {
		newID, err := c.store.Upsert(ctx, rec.WithKey(id))
		if err != nil {
			c.logger.Error(ctx, "update failed", "id", id, "error", err)
			c.Form.fail()
			return err
		}
		outcome = reconcile.Outcome[T]{Kind: reconcile.Updated, ID: newID, PreviousID: id, Fields: rec}
	} else {
		newID, err := c.store.Create(ctx, rec.WithKey(""))
		if err != nil {
			c.logger.Error(ctx, "create failed", "error", err)
			c.Form.fail()
			return err
		}
		outcome = reconcile.Outcome[T]{Kind: reconcile.Created, ID: newID, Fields: rec}
	}

	c.List.Apply(outcome)
	c.Form.succeed()
	return nil
}

// Dispose releases the list subscription.
func (c *CRUD[T]) Dispose() { c.List.Dispose() }
