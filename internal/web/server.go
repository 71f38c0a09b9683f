// Package web serves the browser console on top of the shared session.
package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"golang.org/x/time/rate"

	"github.com/Mavton23/rentix/internal/backend"
	"github.com/Mavton23/rentix/internal/domain"
	"github.com/Mavton23/rentix/internal/guard"
	"github.com/Mavton23/rentix/internal/navigation"
	"github.com/Mavton23/rentix/internal/session"
)

// Deps are the collaborators the console renders from.
type Deps struct {
	Session   *session.Manager
	API       *backend.API
	Navigator *navigation.Navigator
	Logger    *slog.Logger
}

// Options tune the HTTP surface.
type Options struct {
	// RateLimit is requests per second per client IP; zero disables limiting.
	RateLimit   float64
	RateBurst   int
	Tracing     bool
	ServiceName string
}

// Server is the console's echo instance.
type Server struct {
	echo    *echo.Echo
	session *session.Manager
	api     *backend.API
	nav     *navigation.Navigator
	guard   *guard.Guard
	logger  *slog.Logger

	unsubscribe func()
}

// New builds the server. The rate limiter's cleanup stops when ctx is done.
func New(ctx context.Context, deps Deps, opts Options) (*Server, error) {
	if deps.Session == nil || deps.API == nil {
		return nil, errors.New("web: session and API are required")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Navigator == nil {
		deps.Navigator = navigation.NewNavigator(navigation.PathDashboard, deps.Logger)
	}
	r, err := newRenderer()
	if err != nil {
		return nil, fmt.Errorf("loading templates: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = r

	s := &Server{
		echo:    e,
		session: deps.Session,
		api:     deps.API,
		nav:     deps.Navigator,
		guard:   guard.New(deps.Session),
		logger:  deps.Logger,
	}

	if opts.Tracing {
		e.Use(otelecho.Middleware(opts.ServiceName))
	}
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogError:    true,
		LogMethod:   true,
		LogLatency:  true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			ctx := c.Request().Context()
			if v.Error == nil {
				s.logger.InfoContext(ctx, "request completed",
					"method", v.Method,
					"uri", v.URI,
					"status", v.Status,
					"latency_ms", v.Latency.Milliseconds())
			} else {
				s.logger.ErrorContext(ctx, "request failed",
					"method", v.Method,
					"uri", v.URI,
					"status", v.Status,
					"latency_ms", v.Latency.Milliseconds(),
					"error", v.Error.Error())
			}
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(SecurityHeaders())
	e.Use(middleware.CSRFWithConfig(middleware.CSRFConfig{
		Skipper: func(c echo.Context) bool {
			p := c.Request().URL.Path
			return p == "/health" || p == "/metrics"
		},
		TokenLookup:    "form:" + csrfField,
		ContextKey:     csrfKey,
		CookieName:     csrfCookie,
		CookiePath:     "/",
		CookieHTTPOnly: true,
		CookieSameSite: http.SameSiteStrictMode,
		ErrorHandler:   s.csrfRejected,
	}))
	if opts.RateLimit > 0 {
		e.Use(NewRateLimiter(ctx, rate.Limit(opts.RateLimit), opts.RateBurst).Middleware())
	}

	s.routes()
	s.unsubscribe = deps.Session.Subscribe(s.sessionChanged)
	return s, nil
}

// sessionChanged logs transitions of the shared session, including logins and logouts made
// by another process and picked up on reload.
func (s *Server) sessionChanged(snap domain.Snapshot) {
	if snap.User != nil {
		s.logger.Info("console session changed",
			"state", snap.State.String(),
			"user_id", snap.User.ID,
			"role", snap.User.Role)
		return
	}
	s.logger.Info("console session changed", "state", snap.State.String())
}

func (s *Server) routes() {
	e := s.echo
	e.GET("/health", s.health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	e.GET(navigation.PathLogin, s.loginPage)
	e.POST(navigation.PathLogin, s.login)
	e.POST("/logout", s.logout)

	p := e.Group("", s.requireSession)
	p.GET(navigation.PathDashboard, s.dashboard)
	p.GET(navigation.PathTenants, s.tenants)
	p.GET(navigation.PathProperties, s.properties)
	p.GET(navigation.PathPayments, s.payments)
	p.GET(navigation.PathNotifications, s.notifications)
	p.POST(navigation.PathNotifications+"/:id/read", s.markRead)
	p.GET(navigation.PathUsers, s.users)
}

// Handler exposes the server for tests and custom listeners.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on addr until Shutdown. A clean shutdown returns nil.
func (s *Server) Start(addr string) error {
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	s.unsubscribe()
	return s.echo.Shutdown(ctx)
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"session": s.session.State().String(),
	})
}
