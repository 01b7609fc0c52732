package screens

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/restaurant/internal/client/livequery"
	"github.com/dmitrijs2005/restaurant/internal/client/models"
	"github.com/dmitrijs2005/restaurant/internal/client/reconcile"
	"github.com/dmitrijs2005/restaurant/internal/common"
	"github.com/dmitrijs2005/restaurant/internal/logging"
	"github.com/dmitrijs2005/restaurant/internal/stream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type source[T any] struct {
	subject *stream.Subject[livequery.State[T]]
}

func (s source[T]) Subscribe() *stream.Subscription[livequery.State[T]] {
	return s.subject.Subscribe()
}

type fakeStore[T any] struct {
	CreateIn  []T
	CreateOut string
	CreateErr error
	UpsertIn  []T
	UpsertOut string
	UpsertErr error
}

func (f *fakeStore[T]) Create(_ context.Context, rec T) (string, error) {
	f.CreateIn = append(f.CreateIn, rec)
	return f.CreateOut, f.CreateErr
}

func (f *fakeStore[T]) Upsert(_ context.Context, rec T) (string, error) {
	f.UpsertIn = append(f.UpsertIn, rec)
	return f.UpsertOut, f.UpsertErr
}

func strp(s string) *string { return &s }

func newCustomerScreen(t *testing.T, store *fakeStore[models.Customer], items ...models.Customer) *CRUD[models.Customer] {
	t.Helper()
	src := source[models.Customer]{subject: stream.NewSubject[livequery.State[models.Customer]]()}
	list := reconcile.New[models.Customer]("customers", src, logging.Discard())
	list.Observe(livequery.State[models.Customer]{Data: items})
	c := NewCRUD[models.Customer](list, store, models.Validate, logging.Discard())
	t.Cleanup(c.Dispose)
	return c
}

func TestCRUD_SubmitCreate(t *testing.T) {
	store := &fakeStore[models.Customer]{CreateOut: "2"}
	c := newCustomerScreen(t, store, models.Customer{ID: "1", FirstName: "Ann", LastName: "Lee"})

	require.NoError(t, c.ShowAdd())
	require.NoError(t, c.Form.Edit(func(cu *models.Customer) {
		cu.FirstName = " Bob "
		cu.LastName = "Ray"
		cu.Email = strp("")
		cu.Phone = strp(" 555 ")
	}))
	require.NoError(t, c.Submit(context.Background()))

	want := models.Customer{FirstName: "Bob", LastName: "Ray", Phone: strp("555")}
	require.Len(t, store.CreateIn, 1)
	assert.Equal(t, want, store.CreateIn[0])

	items := c.List.Items()
	require.Len(t, items, 2)
	assert.Equal(t, want.WithKey("2"), items[0])
	assert.Equal(t, "1", items[1].ID)
	assert.Equal(t, Idle, c.Form.Mode())
}

func TestCRUD_SubmitUpdate(t *testing.T) {
	store := &fakeStore[models.Customer]{UpsertOut: "1"}
	c := newCustomerScreen(t, store,
		models.Customer{ID: "1", FirstName: "Ann", LastName: "Lee"},
		models.Customer{ID: "2", FirstName: "Bob", LastName: "Ray"},
	)

	require.NoError(t, c.Edit("1"))
	assert.True(t, c.Form.EditMode())
	require.NoError(t, c.Form.Edit(func(cu *models.Customer) { cu.FirstName = "Anna" }))
	require.NoError(t, c.Submit(context.Background()))

	require.Len(t, store.UpsertIn, 1)
	assert.Equal(t, "1", store.UpsertIn[0].ID)
	items := c.List.Items()
	assert.Equal(t, "Anna", items[0].FirstName)
	assert.Equal(t, "Bob", items[1].FirstName)
	assert.False(t, c.Form.Visible())
}

func TestCRUD_SubmitErrorKeepsDraft(t *testing.T) {
	boom := errors.New("backend down")
	store := &fakeStore[models.Customer]{UpsertErr: boom}
	c := newCustomerScreen(t, store, models.Customer{ID: "1", FirstName: "Ann", LastName: "Lee"})

	require.NoError(t, c.Edit("1"))
	require.NoError(t, c.Form.Edit(func(cu *models.Customer) { cu.LastName = "Li" }))

	err := c.Submit(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, Editing, c.Form.Mode())
	assert.Equal(t, "Li", c.Form.Draft().LastName)
	assert.Equal(t, "Lee", c.List.Items()[0].LastName)

	store.UpsertErr = nil
	store.UpsertOut = "1"
	require.NoError(t, c.Submit(context.Background()))
	assert.Equal(t, "Li", c.List.Items()[0].LastName)
}

func TestCRUD_ValidationFailure(t *testing.T) {
	store := &fakeStore[models.Customer]{}
	c := newCustomerScreen(t, store)

	require.NoError(t, c.ShowAdd())
	require.NoError(t, c.Form.Edit(func(cu *models.Customer) {
		cu.FirstName = "Ann"
		cu.Email = strp("not-an-email")
	}))

	err := c.Submit(context.Background())
	assert.ErrorIs(t, err, common.ErrorValidation)
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 2)
	assert.Empty(t, store.CreateIn)
	assert.Equal(t, Adding, c.Form.Mode())
}

func TestCRUD_EditModeWithoutIDIsIgnored(t *testing.T) {
	store := &fakeStore[models.Customer]{}
	c := newCustomerScreen(t, store)

	require.NoError(t, c.Form.StartEdit("", models.Customer{FirstName: "Ann", LastName: "Lee"}))
	assert.ErrorIs(t, c.Submit(context.Background()), ErrMissingID)
	assert.Empty(t, store.UpsertIn)
	assert.Equal(t, Editing, c.Form.Mode())
}

func TestCRUD_SubmitWithoutForm(t *testing.T) {
	c := newCustomerScreen(t, &fakeStore[models.Customer]{})
	assert.ErrorIs(t, c.Submit(context.Background()), ErrFormClosed)
}

func TestCRUD_EditUnknownRecord(t *testing.T) {
	c := newCustomerScreen(t, &fakeStore[models.Customer]{})
	assert.ErrorIs(t, c.Edit("nope"), ErrNotInList)
	assert.False(t, c.Form.Visible())
}

func TestCRUD_DeleteIsLocalOnly(t *testing.T) {
	store := &fakeStore[models.Customer]{}
	c := newCustomerScreen(t, store,
		models.Customer{ID: "1", FirstName: "Ann", LastName: "Lee"},
		models.Customer{ID: "2", FirstName: "Bob", LastName: "Ray"},
	)

	c.Delete("1")

	require.Len(t, c.List.Items(), 1)
	assert.Equal(t, "2", c.List.Items()[0].ID)
	assert.Empty(t, store.CreateIn)
	assert.Empty(t, store.UpsertIn)
}

func TestRecipes_LineEditing(t *testing.T) {
	src := source[models.Recipe]{subject: stream.NewSubject[livequery.State[models.Recipe]]()}
	list := reconcile.New[models.Recipe]("recipes", src, logging.Discard())
	defer list.Dispose()
	store := &fakeStore[models.Recipe]{CreateOut: "r1"}
	s := &Recipes{CRUD: NewCRUD[models.Recipe](list, store, models.Validate, logging.Discard())}

	assert.ErrorIs(t, s.AddIngredient("salt"), ErrFormClosed)

	require.NoError(t, s.ShowAdd())
	require.NoError(t, s.Form.Edit(func(r *models.Recipe) { r.Name = "Soup" }))
	require.NoError(t, s.AddIngredient("water"))
	require.NoError(t, s.AddIngredient("salt"))
	require.NoError(t, s.AddIngredient("pepper"))
	require.NoError(t, s.RemoveIngredient(1))
	require.NoError(t, s.RemoveIngredient(5))
	require.NoError(t, s.AddStep("boil"))
	require.NoError(t, s.AddStep(" "))

	err := s.Submit(context.Background())
	assert.ErrorIs(t, err, common.ErrorValidation)

	require.NoError(t, s.RemoveStep(1))
	require.NoError(t, s.Submit(context.Background()))

	require.Len(t, store.CreateIn, 1)
	assert.Equal(t, []string{"water", "pepper"}, store.CreateIn[0].Ingredients)
	assert.Equal(t, []string{"boil"}, store.CreateIn[0].Steps)
	assert.Equal(t, "r1", s.List.Items()[0].ID)
}
