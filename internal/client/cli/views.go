package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/restaurant/internal/client/dataconnect"
	"github.com/dmitrijs2005/restaurant/internal/client/models"
	"github.com/dmitrijs2005/restaurant/internal/client/router"
	"github.com/dmitrijs2005/restaurant/internal/client/screens"
	"github.com/dmitrijs2005/restaurant/internal/logging"
	"github.com/dustin/go-humanize"
)

// view is one open screen.
type view interface {
	render(w io.Writer)
	dispose()
}

// editor is a screen with an add/edit form.
type editor interface {
	view
	// open starts an add form for an empty id, an edit form otherwise.
	open(id string) error
	fill(p prompter) error
	submit(ctx context.Context) error
	cancel() error
	remove(id string)
}

type expander interface {
	toggle(id string) bool
}

type refresher interface {
	refresh(ctx context.Context) error
}

// prompter reads form input. Empty answers keep def.
type prompter interface {
	text(prompt, def string) (string, error)
	lines(prompt string) ([]string, error)
}

// live is a screen backed by a live query. fn runs after every change of
// its list.
type live interface {
	onChange(fn func())
}

type viewOpener func(ctx context.Context, r router.Route) view

// newViewFactory opens screens by route. Live screens are redrawn through
// redraw whenever their list changes.
func newViewFactory(dc *dataconnect.Client, l logging.Logger, redraw func(r router.Route, v view)) viewOpener {
	return withRedraw(func(ctx context.Context, r router.Route) view {
		return openScreen(ctx, dc, l, r)
	}, redraw)
}

func withRedraw(open viewOpener, redraw func(r router.Route, v view)) viewOpener {
	return func(ctx context.Context, r router.Route) view {
		v := open(ctx, r)
		if lv, ok := v.(live); ok {
			lv.onChange(func() { redraw(r, v) })
		}
		return v
	}
}

func openScreen(ctx context.Context, dc *dataconnect.Client, l logging.Logger, r router.Route) view {
	switch r.Path {
	case router.PathCustomers:
		return &customersView{s: screens.NewCustomers(ctx, dc, l)}
	case router.PathRecipes:
		return &recipesView{s: screens.NewRecipes(ctx, dc, l)}
	case router.PathDashboard:
		v := &dashboardView{d: screens.NewDashboard(dc.Customers(), dc.Recipes(), dc.Orders(), dc.Users(), l)}
		_ = v.refresh(ctx)
		return v
	case router.PathPublicRecipes:
		return &publicView{p: screens.NewPublicRecipes(ctx, dc, l)}
	case router.PathRegister:
		return textView("Create an account with 'register', or 'login' if you have one.")
	}
	return textView("Sign in with 'login' or create an account with 'register'. Public recipes: 'go /recipes'.")
}

type textView string

func (t textView) render(w io.Writer) { fmt.Fprintln(w, string(t)) }
func (textView) dispose()             {}

// listStatus prints the loading or error line of a live list. It reports
// whether the list itself should still be printed.
func listStatus(w io.Writer, loading bool, err error, what string) bool {
	if err != nil {
		fmt.Fprintf(w, "Could not load %s: %v\n", what, err)
	}
	if loading {
		fmt.Fprintln(w, "Loading...")
		return false
	}
	return true
}

func formStatus[T any](w io.Writer, f *screens.Form[T]) {
	switch {
	case !f.Visible():
	case f.EditMode():
		fmt.Fprintf(w, "Editing %s (%s)\n", f.CurrentID(), f.Mode())
	default:
		fmt.Fprintf(w, "Adding (%s)\n", f.Mode())
	}
}

type customersView struct {
	s *screens.Customers
}

func (v *customersView) render(w io.Writer) {
	if listStatus(w, v.s.List.IsLoading(), v.s.List.Err(), "customers") {
		renderCustomers(w, v.s.List.Items())
	}
	formStatus(w, v.s.Form)
}

func renderCustomers(w io.Writer, items []models.Customer) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No customers")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tPHONE")
	for _, c := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.ID, c.FullName(), dash(c.Email), dash(c.Phone))
	}
	_ = tw.Flush()
}

func dash(s *string) string {
	return withDefault(models.StringOrEmpty(s), "-")
}

func (v *customersView) open(id string) error {
	if id == "" {
		return v.s.ShowAdd()
	}
	return v.s.Edit(id)
}

// clearValue erases an optional field when typed as its answer.
const clearValue = "-"

func (v *customersView) fill(p prompter) error {
	d := v.s.Form.Draft()
	first, err := p.text("First name", d.FirstName)
	if err != nil {
		return err
	}
	last, err := p.text("Last name", d.LastName)
	if err != nil {
		return err
	}
	email, err := p.text("Email ('-' to clear)", models.StringOrEmpty(d.Email))
	if err != nil {
		return err
	}
	phone, err := p.text("Phone ('-' to clear)", models.StringOrEmpty(d.Phone))
	if err != nil {
		return err
	}
	return v.s.Form.Edit(func(c *models.Customer) {
		c.FirstName = first
		c.LastName = last
		c.Email = optionalAnswer(email)
		c.Phone = optionalAnswer(phone)
	})
}

func optionalAnswer(s string) *string {
	if s == "" || s == clearValue {
		return nil
	}
	return &s
}

func (v *customersView) submit(ctx context.Context) error { return v.s.Submit(ctx) }
func (v *customersView) cancel() error                    { return v.s.Cancel() }
func (v *customersView) remove(id string)                 { v.s.Delete(id) }
func (v *customersView) dispose()                         { v.s.Dispose() }
func (v *customersView) onChange(fn func())               { v.s.List.OnChange(fn) }

type recipesView struct {
	s *screens.Recipes
}

func (v *recipesView) render(w io.Writer) {
	if listStatus(w, v.s.List.IsLoading(), v.s.List.Err(), "recipes") {
		renderRecipes(w, v.s.List.Items())
	}
	formStatus(w, v.s.Form)
}

func renderRecipes(w io.Writer, items []models.Recipe) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No recipes")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tINGREDIENTS\tSTEPS")
	for _, r := range items {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", r.ID, r.Name, len(r.Ingredients), len(r.Steps))
	}
	_ = tw.Flush()
}

func (v *recipesView) open(id string) error {
	if id == "" {
		return v.s.ShowAdd()
	}
	return v.s.Edit(id)
}

func (v *recipesView) fill(p prompter) error {
	d := v.s.Form.Draft()
	name, err := p.text("Name", d.Name)
	if err != nil {
		return err
	}
	if err := v.s.Form.Edit(func(r *models.Recipe) { r.Name = name }); err != nil {
		return err
	}
	if err := v.editLines(p, "ingredient", d.Ingredients, v.s.RemoveIngredient, v.s.AddIngredient); err != nil {
		return err
	}
	return v.editLines(p, "step", d.Steps, v.s.RemoveStep, v.s.AddStep)
}

// editLines lets the user drop existing lines by number and append new
// ones.
func (v *recipesView) editLines(p prompter, what string, current []string, remove func(int) error, add func(string) error) error {
	if len(current) > 0 {
		var b strings.Builder
		for i, l := range current {
			fmt.Fprintf(&b, "%d. %s\n", i+1, l)
		}
		answer, err := p.text(b.String()+"Numbers of "+what+"s to remove (space separated)", "")
		if err != nil {
			return err
		}
		for _, i := range lineNumbers(answer, len(current)) {
			if err := remove(i); err != nil {
				return err
			}
		}
	}
	added, err := p.lines("New " + what + "s, one per line")
	if err != nil {
		return err
	}
	for _, l := range added {
		if err := add(l); err != nil {
			return err
		}
	}
	return nil
}

// lineNumbers parses 1-based numbers into distinct 0-based indexes in
// descending order, dropping anything outside [1, n].
func lineNumbers(s string, n int) []int {
	seen := make([]bool, n)
	for _, f := range strings.Fields(s) {
		var i int
		if _, err := fmt.Sscanf(f, "%d", &i); err != nil || i < 1 || i > n {
			continue
		}
		seen[i-1] = true
	}
	out := []int{}
	for i := n - 1; i >= 0; i-- {
		if seen[i] {
			out = append(out, i)
		}
	}
	return out
}

func (v *recipesView) submit(ctx context.Context) error { return v.s.Submit(ctx) }
func (v *recipesView) cancel() error                    { return v.s.Cancel() }
func (v *recipesView) remove(id string)                 { v.s.Delete(id) }
func (v *recipesView) dispose()                         { v.s.Dispose() }
func (v *recipesView) onChange(fn func())               { v.s.List.OnChange(fn) }

type dashboardView struct {
	d       *screens.Dashboard
	summary screens.Summary
}

func (v *dashboardView) refresh(ctx context.Context) error {
	v.summary = v.d.Load(ctx)
	return nil
}

func (v *dashboardView) render(w io.Writer) {
	renderSummary(w, v.summary)
}

func renderSummary(w io.Writer, s screens.Summary) {
	fmt.Fprintf(w, "Customers: %d  Recipes: %d  Orders: %d  Users: %d\n",
		s.Counts.Customers, s.Counts.Recipes, s.Counts.Orders, s.Counts.Users)
	if len(s.RecentOrders) == 0 {
		fmt.Fprintln(w, "No recent orders")
		return
	}
	fmt.Fprintln(w, "Recent orders:")
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCUSTOMER\tSTATUS\tDATE")
	for _, o := range s.RecentOrders {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", o.ID, o.CustomerName(), o.Status, humanize.Time(o.OrderDate))
	}
	_ = tw.Flush()
}

func (v *dashboardView) dispose() {}

type publicView struct {
	p *screens.PublicRecipes
}

func (v *publicView) toggle(id string) bool { return v.p.Toggle(id) }
func (v *publicView) onChange(fn func())    { v.p.List.OnChange(fn) }

func (v *publicView) render(w io.Writer) {
	if listStatus(w, v.p.List.IsLoading(), v.p.List.Err(), "recipes") {
		renderPublic(w, v.p.List.Items(), v.p.Expanded)
	}
}

func renderPublic(w io.Writer, recipes []models.Recipe, expanded func(id string) bool) {
	if len(recipes) == 0 {
		fmt.Fprintln(w, "No recipes")
		return
	}
	for _, r := range recipes {
		if !expanded(r.ID) {
			fmt.Fprintf(w, "+ [%s] %s\n", r.ID, r.Name)
			continue
		}
		fmt.Fprintf(w, "- [%s] %s\n", r.ID, r.Name)
		fmt.Fprintln(w, "  Ingredients:")
		for _, i := range r.Ingredients {
			fmt.Fprintf(w, "    * %s\n", i)
		}
		fmt.Fprintln(w, "  Steps:")
		for n, s := range r.Steps {
			fmt.Fprintf(w, "    %d. %s\n", n+1, s)
		}
	}
}

func (v *publicView) dispose() { v.p.Dispose() }
