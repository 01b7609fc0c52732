package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/dmitrijs2005/restaurant/internal/client/client"
	"github.com/dmitrijs2005/restaurant/internal/client/config"
	"github.com/dmitrijs2005/restaurant/internal/client/dataconnect"
	"github.com/dmitrijs2005/restaurant/internal/client/identity"
	"github.com/dmitrijs2005/restaurant/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/restaurant/internal/client/router"
	"github.com/dmitrijs2005/restaurant/internal/client/session"
	"github.com/dmitrijs2005/restaurant/internal/logging"
	"github.com/dmitrijs2005/restaurant/internal/stream"

	_ "modernc.org/sqlite"
)

// sessionService is the part of session.Monitor the console drives.
type sessionService interface {
	Login(ctx context.Context, email, password string) (*identity.Identity, error)
	Register(ctx context.Context, email, password, username string) (*identity.Identity, error)
	Logout(ctx context.Context) error
	IsAuthenticated() bool
	Current() session.Session
	Subscribe() *stream.Subscription[session.Session]
}

type navigator interface {
	Navigate(ctx context.Context, path string) router.Route
}

type App struct {
	config *config.Config
	logger logging.Logger
	reader *bufio.Reader
	out    io.Writer

	sessions sessionService
	nav      navigator
	openView viewOpener
	start    func(ctx context.Context) error
	closers  []func()

	route router.Route
	view  view

	// renderMu keeps a screen redrawn by its live query from interleaving
	// with one drawn by a command.
	renderMu sync.Mutex
}

// NewApp opens the state database, dials the server and assembles the
// session services. Call Close when done.
func NewApp(ctx context.Context, c *config.Config, l logging.Logger) (*App, error) {
	db, err := client.InitDatabase(ctx, c.StateDBPath)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	gc, err := client.NewGRPCClient(c.ServerEndpointAddr)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	idc := identity.NewClient(gc, metadata.NewSQLiteRepository(db), l)
	dc := dataconnect.New(gc, l)
	monitor := session.NewMonitor(idc, dc, l)

	a := &App{
		config:   c,
		logger:   l.With("module", "cli"),
		reader:   bufio.NewReader(os.Stdin),
		out:      os.Stdout,
		sessions: monitor,
		nav:      router.NewGuard(monitor, l),
	}
	a.openView = newViewFactory(dc, l, a.redraw)
	a.start = func(ctx context.Context) error {
		monitor.Start(ctx)
		return idc.Restore(ctx)
	}
	a.closers = []func(){
		monitor.Close,
		idc.Close,
		func() { _ = gc.Close() },
		func() { _ = db.Close() },
	}
	return a, nil
}

// Run restores the previous session, if any, and runs the REPL until the
// user exits or input ends.
func (a *App) Run(ctx context.Context) error {
	if err := a.start(ctx); err != nil {
		a.logger.Warn(ctx, "session restore failed", "error", err)
	}

	printlnFn("Welcome to the restaurant console (type 'help' for commands)")
	_ = a.Navigate(ctx, router.PathDashboard)
	runREPL(ctx, a, a.status, a.reader)
	return nil
}

// Close releases the current screen and every client resource.
func (a *App) Close() {
	a.leave()
	for _, c := range a.closers {
		c()
	}
}

func (a *App) status() string {
	name := a.sessions.Current().Username
	if name == "" {
		return a.route.Path
	}
	return name + " " + a.route.Path
}

func (a *App) isLoggedIn() bool {
	return a.sessions.IsAuthenticated()
}

// awaitSession blocks until the session stream reports want: the signed-in
// user with want's UID, or the signed-out state when want is nil. A replayed
// session of a different user does not count. It fails when the stream ends
// first.
func (a *App) awaitSession(ctx context.Context, want *identity.Identity) error {
	sub := a.sessions.Subscribe()
	defer sub.Close()
	for {
		select {
		case ev, ok := <-sub.C():
			if !ok {
				return stream.ErrCompleted
			}
			if ev.Err != nil {
				return ev.Err
			}
			if sessionOf(ev.Value, want) {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func sessionOf(s session.Session, want *identity.Identity) bool {
	if want == nil {
		return !s.Authenticated()
	}
	return s.Authenticated() && s.Identity.UID == want.UID
}

// Navigate leaves the current screen and opens the one path resolves to.
// Protected screens redirect to the login screen when signed out.
func (a *App) Navigate(ctx context.Context, path string) error {
	r := a.nav.Navigate(ctx, path)
	if want := router.Resolve(path); want.Protected && r.Path != want.Path {
		printlnFn("Please sign in to open " + want.Title)
	}
	a.leave()
	a.route = r
	a.view = a.openView(ctx, r)
	return a.Show(ctx)
}

func (a *App) leave() {
	if a.view != nil {
		a.view.dispose()
		a.view = nil
	}
}

// Show renders the current screen.
func (a *App) Show(ctx context.Context) error {
	if a.view == nil {
		return nil
	}
	a.redraw(a.route, a.view)
	return nil
}

// redraw renders v under r's title. Live screens call it from their query
// goroutine whenever their list changes.
func (a *App) redraw(r router.Route, v view) {
	a.renderMu.Lock()
	defer a.renderMu.Unlock()
	printlnFn("== " + r.Title + " ==")
	v.render(a.out)
}

var errNotAvailable = errors.New("not available on this screen")

func (a *App) editor() (editor, error) {
	e, ok := a.view.(editor)
	if !ok {
		printlnFn("Not available on this screen")
		return nil, errNotAvailable
	}
	return e, nil
}

func (a *App) Add(ctx context.Context) error {
	e, err := a.editor()
	if err != nil {
		return err
	}
	if err := e.open(""); err != nil {
		return a.report(err)
	}
	return a.fillAndSubmit(ctx, e)
}

func (a *App) Edit(ctx context.Context, id string) error {
	e, err := a.editor()
	if err != nil {
		return err
	}
	if id == "" {
		printlnFn("Usage: edit <id>")
		return nil
	}
	if err := e.open(id); err != nil {
		return a.report(err)
	}
	return a.fillAndSubmit(ctx, e)
}

func (a *App) fillAndSubmit(ctx context.Context, e editor) error {
	if err := e.fill(a); err != nil {
		return a.report(err)
	}
	return a.Submit(ctx)
}

// Fix prompts for the open form's fields again and submits it.
func (a *App) Fix(ctx context.Context) error {
	e, err := a.editor()
	if err != nil {
		return err
	}
	return a.fillAndSubmit(ctx, e)
}

// Submit retries the open form.
func (a *App) Submit(ctx context.Context) error {
	e, err := a.editor()
	if err != nil {
		return err
	}
	if err := e.submit(ctx); err != nil {
		a.report(err)
		printlnFn("Change the form with 'fix', retry with 'submit' or discard it with 'cancel'")
		return err
	}
	printlnFn("Saved")
	return a.Show(ctx)
}

func (a *App) Cancel(ctx context.Context) error {
	e, err := a.editor()
	if err != nil {
		return err
	}
	return a.report(e.cancel())
}

func (a *App) Delete(ctx context.Context, id string) error {
	e, err := a.editor()
	if err != nil {
		return err
	}
	if id == "" {
		printlnFn("Usage: delete <id>")
		return nil
	}
	e.remove(id)
	return a.Show(ctx)
}

func (a *App) Expand(ctx context.Context, id string) error {
	x, ok := a.view.(expander)
	if !ok {
		printlnFn("Not available on this screen")
		return errNotAvailable
	}
	if id == "" {
		printlnFn("Usage: expand <id>")
		return nil
	}
	x.toggle(id)
	return a.Show(ctx)
}

func (a *App) Refresh(ctx context.Context) error {
	if r, ok := a.view.(refresher); ok {
		if err := r.refresh(ctx); err != nil {
			return a.report(err)
		}
	}
	return a.Show(ctx)
}
