// Package routes is the console's navigation table: which pages exist and
// which permission each one requires.
package routes

import "slices"

// Route keys.
const (
	Dashboard     = "dashboard"
	Sales         = "sales"
	Users         = "users"
	Roles         = "roles"
	Stores        = "stores"
	Operations    = "operations"
	EventOrigins  = "event-origins"
	Notifications = "notifications"
	Products      = "products"
)

// Permission names checked against the session.
const (
	PermViewDashboard      = "VIEW_DASHBOARD"
	PermViewSales          = "VIEW_SALES"
	PermManageUsers        = "MANAGE_USERS"
	PermManageRoles        = "MANAGE_ROLES"
	PermManageStores       = "MANAGE_STORES"
	PermManageOperations   = "MANAGE_OPERATIONS"
	PermManageEventOrigins = "MANAGE_EVENT_ORIGINS"
	PermManageNotifiers    = "MANAGE_NOTIFICATIONS"
	PermViewProducts       = "VIEW_PRODUCTS"
)

// Route is one navigable page. An empty Permission admits any
// authenticated user.
type Route struct {
	Key        string
	Title      string
	Permission string
}

// Allowed reports whether a user with hasPerm may open r.
func (r Route) Allowed(hasPerm func(string) bool) bool {
	return r.Permission == "" || (hasPerm != nil && hasPerm(r.Permission))
}

// Table is an ordered, immutable set of routes.
type Table struct {
	routes []Route
}

// New builds a table. Later routes with a duplicate key are dropped.
func New(routes ...Route) Table {
	t := Table{}
	for _, r := range routes {
		if _, ok := t.Lookup(r.Key); ok {
			continue
		}
		t.routes = append(t.routes, r)
	}
	return t
}

// Default is the console's table, in tab order.
func Default() Table {
	return New(
		Route{Key: Dashboard, Title: "Dashboard", Permission: PermViewDashboard},
		Route{Key: Sales, Title: "Sales", Permission: PermViewSales},
		Route{Key: Users, Title: "Users", Permission: PermManageUsers},
		Route{Key: Roles, Title: "Roles", Permission: PermManageRoles},
		Route{Key: Stores, Title: "Stores", Permission: PermManageStores},
		Route{Key: Operations, Title: "Operations", Permission: PermManageOperations},
		Route{Key: EventOrigins, Title: "Event origins", Permission: PermManageEventOrigins},
		Route{Key: Notifications, Title: "Notifications", Permission: PermManageNotifiers},
		Route{Key: Products, Title: "Products", Permission: PermViewProducts},
	)
}

// All returns every route in order.
func (t Table) All() []Route {
	return slices.Clone(t.routes)
}

// Visible returns the routes hasPerm admits, in order.
func (t Table) Visible(hasPerm func(string) bool) []Route {
	var out []Route
	for _, r := range t.routes {
		if r.Allowed(hasPerm) {
			out = append(out, r)
		}
	}
	return out
}

// Lookup finds a route by key.
func (t Table) Lookup(key string) (Route, bool) {
	i := slices.IndexFunc(t.routes, func(r Route) bool { return r.Key == key })
	if i < 0 {
		return Route{}, false
	}
	return t.routes[i], true
}
