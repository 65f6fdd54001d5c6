// Package navigation maps portal paths to surfaces and applies the
// identity redirect rules.
package navigation

import "strings"

// Surface identifies a navigable view.
type Surface string

const (
	Home      Surface = "home"
	Login     Surface = "login"
	Dashboard Surface = "dashboard"
	Schedule  Surface = "schedule"
	AcadsMap  Surface = "acads-map"
	CampusMap Surface = "campus-map"
	Admin     Surface = "admin"
)

// Route is one entry of the route table.
type Route struct {
	Path            string
	Surface         Surface
	RequireIdentity bool
}

// Routes is the route table in menu order.
var Routes = []Route{
	{Path: "/", Surface: Home},
	{Path: "/login", Surface: Login},
	{Path: "/dashboard", Surface: Dashboard, RequireIdentity: true},
	{Path: "/schedule", Surface: Schedule},
	{Path: "/acads-map", Surface: AcadsMap},
	{Path: "/campus-map", Surface: CampusMap},
	{Path: "/admin", Surface: Admin},
}

// Result is where a navigation request ends up.
type Result struct {
	Path       string
	Surface    Surface
	Redirected bool
}

// Resolve returns the surface for path. Unknown paths fall back to home and
// identity-gated surfaces redirect to the login page.
func Resolve(path string, hasIdentity bool) Result {
	clean := normalize(path)
	for _, route := range Routes {
		if route.Path != clean {
			continue
		}
		if route.RequireIdentity && !hasIdentity {
			return Result{Path: "/login", Surface: Login, Redirected: true}
		}
		return Result{Path: route.Path, Surface: route.Surface, Redirected: clean != path}
	}
	return Result{Path: "/", Surface: Home, Redirected: true}
}

// PathOf returns the canonical path for s.
func PathOf(s Surface) (string, bool) {
	for _, route := range Routes {
		if route.Surface == s {
			return route.Path, true
		}
	}
	return "", false
}

func normalize(path string) string {
	path = strings.TrimSpace(path)
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			path = "/"
		}
	}
	return path
}
