package domain

import "time"

// Storage keys of the persisted session.
const (
	KeyToken = "token"
	KeyUser  = "user"
)

// LoginPath is the route every unauthenticated visitor is sent to.
const LoginPath = "/login"

// AuthState is the state of the session machine.
type AuthState int

const (
	// StateUnknown holds until the first storage inspection has run.
	StateUnknown AuthState = iota
	// StateAuthenticated means a token and user are present.
	StateAuthenticated
	// StateUnauthenticated means no valid session exists.
	StateUnauthenticated
)

// String returns the string representation of the auth state.
func (s AuthState) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "invalid"
	}
}

// Snapshot is a consistent, copied view of the session at one instant.
type Snapshot struct {
	State AuthState
	User  *User
	Token string
}

// Authenticated reports whether the snapshot holds a live session.
func (s Snapshot) Authenticated() bool {
	return s.State == StateAuthenticated && s.User != nil && s.Token != ""
}

// SessionInvalidated is published by the API client when the backend answers 401
// to a request made with a session.
type SessionInvalidated struct {
	Method     string
	Path       string
	StatusCode int
	RequestID  string
	At         time.Time
}

// Redirect asks the routing layer to move to To, remembering the origin route.
type Redirect struct {
	To   string
	From string
}

// LoginRedirect builds the redirect used for unauthenticated access to from.
func LoginRedirect(from string) Redirect {
	if from == LoginPath {
		from = ""
	}
	return Redirect{To: LoginPath, From: from}
}

// AuthGrant is the {token, user} pair issued by login and registration.
type AuthGrant struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
