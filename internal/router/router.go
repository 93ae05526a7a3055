// Package router decides whether a navigation may proceed given the session state.
//
// The guard is a pure function of the target route's [Meta] and whether the session is
// authenticated. Each navigation is evaluated on its own; nothing is remembered between calls.
package router

import (
	"errors"
	"fmt"
	"strings"
)

// ErrRouteNotFound is returned by [Router.Navigate] for an unknown path.
var ErrRouteNotFound = errors.New("route not found")

// Meta carries the access flags of a route.
type Meta struct {
	RequiresAuth  bool
	RequiresGuest bool
}

// Route is one entry of the route table.
type Route struct {
	Name string
	Path string
	Meta Meta
}

// Decision is the outcome of [Guard].
type Decision int

const (
	Proceed Decision = iota
	RedirectLogin
	RedirectHome
)

func (d Decision) String() string {
	switch d {
	case Proceed:
		return "proceed"
	case RedirectLogin:
		return "redirect-login"
	case RedirectHome:
		return "redirect-home"
	default:
		return fmt.Sprintf("decision(%d)", int(d))
	}
}

// Route paths.
const (
	PathHome      = "/"
	PathFavorites = "/favorites"
	PathLogin     = "/login"
	PathRegister  = "/register"
)

// Routes is the client route table.
var Routes = []Route{
	{Name: "home", Path: PathHome, Meta: Meta{RequiresAuth: true}},
	{Name: "favorites", Path: PathFavorites, Meta: Meta{RequiresAuth: true}},
	{Name: "login", Path: PathLogin, Meta: Meta{RequiresGuest: true}},
	{Name: "register", Path: PathRegister, Meta: Meta{RequiresGuest: true}},
}

// Guard applies the access rules. Authentication is checked before guest-only access.
func Guard(meta Meta, isAuthenticated bool) Decision {
	switch {
	case meta.RequiresAuth && !isAuthenticated:
		return RedirectLogin
	case meta.RequiresGuest && isAuthenticated:
		return RedirectHome
	default:
		return Proceed
	}
}

// Authenticator reports the session state the guard consults.
type Authenticator interface {
	IsAuthenticated() bool
}

// Router resolves paths against a route table.
type Router struct {
	routes map[string]Route
}

// New builds a [Router] over routes. No routes means the default table.
func New(routes ...Route) *Router {
	if len(routes) == 0 {
		routes = Routes
	}
	r := &Router{routes: make(map[string]Route, len(routes))}
	for _, route := range routes {
		r.routes[normalize(route.Path)] = route
	}
	return r
}

// Lookup returns the route registered at path.
func (r *Router) Lookup(path string) (Route, bool) {
	route, ok := r.routes[normalize(path)]
	return route, ok
}

// Navigate resolves path and returns the route the navigation ends on with the guard's decision.
//
// When the decision is a redirect, the returned route is the redirect target.
func (r *Router) Navigate(path string, authn Authenticator) (Route, Decision, error) {
	target, ok := r.Lookup(path)
	if !ok {
		return Route{}, Proceed, fmt.Errorf("%w: %s", ErrRouteNotFound, path)
	}

	decision := Guard(target.Meta, authn.IsAuthenticated())
	switch decision {
	case RedirectLogin:
		target, ok = r.Lookup(PathLogin)
	case RedirectHome:
		target, ok = r.Lookup(PathHome)
	}
	if !ok {
		return Route{}, decision, fmt.Errorf("%w: redirect target for %s", ErrRouteNotFound, path)
	}
	return target, decision, nil
}

// AuthFunc adapts a function to [Authenticator].
type AuthFunc func() bool

func (f AuthFunc) IsAuthenticated() bool { return f() }

func normalize(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return PathHome
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	return path
}
