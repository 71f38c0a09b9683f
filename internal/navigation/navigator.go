package navigation

import (
	"log/slog"
	"sync"

	"github.com/Mavton23/rentix/internal/domain"
)

// Navigator holds the current location and at most one pending redirect.
// It is safe for concurrent use.
type Navigator struct {
	mu      sync.Mutex
	current string
	pending *domain.Redirect
	logger  *slog.Logger
}

// NewNavigator starts at path.
func NewNavigator(path string, logger *slog.Logger) *Navigator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Navigator{current: path, logger: logger}
}

// Current returns the active location.
func (n *Navigator) Current() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// Navigate moves to path. Arriving at a pending redirect's target settles it.
func (n *Navigator) Navigate(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.current = path
	if n.pending != nil && n.pending.To == path {
		n.pending = nil
	}
}

// Redirect records r unless an equal-target redirect is already pending or the
// location already is the target.
func (n *Navigator) Redirect(r domain.Redirect) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current == r.To {
		return false
	}
	if n.pending != nil && n.pending.To == r.To {
		return false
	}
	n.pending = &r
	return true
}

// Pending returns the redirect waiting to be followed.
func (n *Navigator) Pending() (domain.Redirect, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.pending == nil {
		return domain.Redirect{}, false
	}
	return *n.pending, true
}

// Follow applies the pending redirect and returns it.
func (n *Navigator) Follow() (domain.Redirect, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.pending == nil {
		return domain.Redirect{}, false
	}
	r := *n.pending
	n.pending = nil
	n.current = r.To
	return r, true
}

// HandleInvalidation redirects to the login page, remembering where the user was.
func (n *Navigator) HandleInvalidation(ev domain.SessionInvalidated) {
	from := n.Current()
	if n.Redirect(domain.LoginRedirect(from)) {
		n.logger.Info("redirecting to login", "from", from, "trigger", ev.Path)
	}
}

// Bind subscribes the navigator to invalidation events.
func (n *Navigator) Bind(pub domain.InvalidationPublisher) func() {
	return pub.OnSessionInvalidated(n.HandleInvalidation)
}
