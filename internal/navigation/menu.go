// Package navigation maps roles to menus and tracks the current location and pending redirect.
package navigation

import (
	"slices"

	"github.com/Mavton23/rentix/internal/domain"
)

// Route paths.
const (
	PathDashboard     = "/"
	PathTenants       = "/tenants"
	PathProperties    = "/properties"
	PathPayments      = "/payments"
	PathNotifications = "/notifications"
	PathUsers         = "/admin/users"
	PathLogin         = domain.LoginPath
	PathRegister      = "/register"
	PathResetPassword = "/reset-password"
)

// Route is one entry of the route table.
type Route struct {
	Path      string
	Title     string
	Protected bool
	// Roles lists who may open the route; empty means every authenticated role.
	Roles []domain.Role
	// InMenu marks routes shown in the navigation menu.
	InMenu bool
}

// Allows reports whether role may open the route.
func (r Route) Allows(role domain.Role) bool {
	if !r.Protected {
		return true
	}
	if !role.Valid() {
		return false
	}
	return len(r.Roles) == 0 || slices.Contains(r.Roles, role)
}

var routes = []Route{
	{Path: PathDashboard, Title: "Dashboard", Protected: true, InMenu: true},
	{Path: PathTenants, Title: "Inquilinos", Protected: true, InMenu: true,
		Roles: []domain.Role{domain.RoleAdmin, domain.RoleManager}},
	{Path: PathProperties, Title: "Imóveis", Protected: true, InMenu: true},
	{Path: PathPayments, Title: "Pagamentos", Protected: true, InMenu: true},
	{Path: PathNotifications, Title: "Notificações", Protected: true, InMenu: true},
	{Path: PathUsers, Title: "Usuários", Protected: true, InMenu: true,
		Roles: []domain.Role{domain.RoleAdmin}},
	{Path: PathLogin, Title: "Entrar"},
	{Path: PathRegister, Title: "Criar conta"},
	{Path: PathResetPassword, Title: "Recuperar senha"},
}

// Routes returns a copy of the route table.
func Routes() []Route {
	out := make([]Route, len(routes))
	copy(out, routes)
	return out
}

// Lookup finds the route for path.
func Lookup(path string) (Route, bool) {
	for _, r := range routes {
		if r.Path == path {
			return r, true
		}
	}
	return Route{}, false
}

// MenuItem is one entry of a role's navigation menu.
type MenuItem struct {
	Path  string
	Title string
}

// For returns the menu for role. Every role has a defined menu; an invalid role gets none.
func For(role domain.Role) []MenuItem {
	if !role.Valid() {
		return []MenuItem{}
	}
	items := make([]MenuItem, 0, len(routes))
	for _, r := range routes {
		if r.InMenu && r.Allows(role) {
			items = append(items, MenuItem{Path: r.Path, Title: r.Title})
		}
	}
	return items
}
