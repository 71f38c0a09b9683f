// Package guard decides whether a route may render for the current session.
package guard

import (
	"github.com/Mavton23/rentix/internal/domain"
	"github.com/Mavton23/rentix/internal/navigation"
)

// Outcome is the kind of decision.
type Outcome int

const (
	// Pending means the session has not been inspected yet; render nothing.
	Pending Outcome = iota
	// Render means the route may be shown.
	Render
	// Redirect means the visitor must go to Decision.Redirect.To first.
	Redirect
	// Forbidden means the user is authenticated but the role may not open the route.
	Forbidden
)

func (o Outcome) String() string {
	switch o {
	case Pending:
		return "pending"
	case Render:
		return "render"
	case Redirect:
		return "redirect"
	case Forbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// Decision is the result of Check.
type Decision struct {
	Outcome  Outcome
	Redirect domain.Redirect
	Route    navigation.Route
	User     *domain.User
}

// SessionView is the read side of the session manager.
type SessionView interface {
	Snapshot() domain.Snapshot
}

// Guard gates protected routes.
type Guard struct {
	session SessionView
}

// New creates a guard over session.
func New(session SessionView) *Guard {
	return &Guard{session: session}
}

// Check evaluates path against the current session. Unknown paths are treated as
// protected routes open to every role.
func (g *Guard) Check(path string) Decision {
	route, ok := navigation.Lookup(path)
	if !ok {
		route = navigation.Route{Path: path, Protected: true}
	}
	if !route.Protected {
		return Decision{Outcome: Render, Route: route}
	}

	snap := g.session.Snapshot()
	switch snap.State {
	case domain.StateUnknown:
		return Decision{Outcome: Pending, Route: route}
	case domain.StateAuthenticated:
		if !snap.Authenticated() {
			return Decision{Outcome: Redirect, Route: route, Redirect: domain.LoginRedirect(path)}
		}
		if !route.Allows(snap.User.Role) {
			return Decision{Outcome: Forbidden, Route: route, User: snap.User}
		}
		return Decision{Outcome: Render, Route: route, User: snap.User}
	default:
		return Decision{Outcome: Redirect, Route: route, Redirect: domain.LoginRedirect(path)}
	}
}
