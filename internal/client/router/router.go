// Package router maps console paths to screens and guards the signed-in
// area.
package router

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/restaurant/internal/client/session"
	"github.com/dmitrijs2005/restaurant/internal/logging"
	"github.com/dmitrijs2005/restaurant/internal/stream"
)

const (
	PathLogin         = "/login"
	PathRegister      = "/register"
	PathDashboard     = "/dashboard"
	PathCustomers     = "/dashboard/customers"
	PathRecipes       = "/dashboard/recipes"
	PathPublicRecipes = "/recipes"
)

// Route is a navigable screen.
type Route struct {
	Path      string
	Title     string
	Protected bool
}

var routes = []Route{
	{Path: PathLogin, Title: "Login"},
	{Path: PathRegister, Title: "Register"},
	{Path: PathDashboard, Title: "Dashboard", Protected: true},
	{Path: PathCustomers, Title: "Customers", Protected: true},
	{Path: PathRecipes, Title: "Recipes", Protected: true},
	{Path: PathPublicRecipes, Title: "Recipes"},
}

// Routes returns every known route.
func Routes() []Route {
	return append([]Route(nil), routes...)
}

// Resolve returns the route for path. The empty path and unknown paths
// resolve to the login route.
func Resolve(path string) Route {
	path = strings.TrimSpace(path)
	if path != "/" {
		path = strings.TrimRight(path, "/")
	}
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	for _, r := range routes {
		if r.Path == path {
			return r
		}
	}
	return routes[0]
}

// SessionSource is the session stream. session.Monitor implements it.
type SessionSource interface {
	Subscribe() *stream.Subscription[session.Session]
}

// Guard admits navigation into protected routes.
type Guard struct {
	sessions SessionSource
	logger   logging.Logger
}

func NewGuard(s SessionSource, l logging.Logger) *Guard {
	return &Guard{sessions: s, logger: l.With("module", "router")}
}

// CanActivate waits for the first session on the stream and allows entry
// only when it is signed in. A stream error denies entry.
func (g *Guard) CanActivate(ctx context.Context) bool {
	s, err := stream.First(ctx, g.sessions.Subscribe())
	if err != nil {
		g.logger.Warn(ctx, "session unavailable, denying access", "error", err)
		return false
	}
	return s.Authenticated()
}

// Navigate resolves path and applies the guard. It returns the route to show.
func (g *Guard) Navigate(ctx context.Context, path string) Route {
	r := Resolve(path)
	if r.Protected && !g.CanActivate(ctx) {
		g.logger.Debug(ctx, "redirecting to login", "from", r.Path)
		return Resolve(PathLogin)
	}
	return r
}
