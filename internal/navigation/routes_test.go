package navigation

import "testing"

func TestResolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		path        string
		hasIdentity bool
		want        Result
	}{
		{name: "home", path: "/", want: Result{Path: "/", Surface: Home}},
		{name: "public schedule", path: "/schedule", want: Result{Path: "/schedule", Surface: Schedule}},
		{name: "dashboard with identity", path: "/dashboard", hasIdentity: true, want: Result{Path: "/dashboard", Surface: Dashboard}},
		{name: "dashboard without identity", path: "/dashboard", want: Result{Path: "/login", Surface: Login, Redirected: true}},
		{name: "admin is not identity gated", path: "/admin", want: Result{Path: "/admin", Surface: Admin}},
		{name: "trailing slash", path: "/campus-map/", want: Result{Path: "/campus-map", Surface: CampusMap, Redirected: true}},
		{name: "query string", path: "/acads-map?loc=F", want: Result{Path: "/acads-map", Surface: AcadsMap, Redirected: true}},
		{name: "unknown path", path: "/nowhere", want: Result{Path: "/", Surface: Home, Redirected: true}},
		{name: "empty path", path: "", want: Result{Path: "/", Surface: Home, Redirected: true}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Resolve(tt.path, tt.hasIdentity); got != tt.want {
				t.Fatalf("Resolve(%q, %v) = %+v, want %+v", tt.path, tt.hasIdentity, got, tt.want)
			}
		})
	}
}

func TestPathOf(t *testing.T) {
	t.Parallel()

	for _, route := range Routes {
		got, ok := PathOf(route.Surface)
		if !ok || got != route.Path {
			t.Fatalf("PathOf(%s) = %q, %v", route.Surface, got, ok)
		}
	}
	if _, ok := PathOf("missing"); ok {
		t.Fatalf("expected unknown surface to be reported")
	}
}
