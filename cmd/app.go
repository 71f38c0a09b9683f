package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/Mavton23/rentix/internal/apiclient"
	"github.com/Mavton23/rentix/internal/backend"
	"github.com/Mavton23/rentix/internal/domain"
	"github.com/Mavton23/rentix/internal/guard"
	"github.com/Mavton23/rentix/internal/navigation"
	"github.com/Mavton23/rentix/internal/output"
	"github.com/Mavton23/rentix/internal/session"
	"github.com/Mavton23/rentix/internal/store"
	"github.com/Mavton23/rentix/internal/telemetry"
	"github.com/Mavton23/rentix/internal/validation"
)

// app is the wired client stack shared by every backend command.
type app struct {
	store   domain.KeyValueStore
	client  *apiclient.Client
	api     *backend.API
	session *session.Manager
	nav     *navigation.Navigator
	guard   *guard.Guard
	closers []func() error
}

// openApp wires storage, transport and the session, then restores any persisted session.
func openApp(ctx context.Context) (*app, error) {
	if err := cfg.RequireAPI(); err != nil {
		return nil, err
	}

	a := &app{}
	shutdown, err := telemetry.InitProvider(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: version,
		Environment:    cfg.Telemetry.Environment,
		Endpoint:       cfg.Telemetry.Endpoint,
		SampleRatio:    cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing telemetry: %w", err)
	}
	a.closers = append(a.closers, func() error { return shutdown(context.WithoutCancel(ctx)) })

	kv, closeStore, err := store.Open(ctx, store.Options{
		Driver:        cfg.Storage.Driver,
		Path:          cfg.Storage.Path,
		RedisAddr:     cfg.Storage.Redis.Addr,
		RedisPassword: cfg.Storage.Redis.Password,
		RedisDB:       cfg.Storage.Redis.DB,
		RedisPrefix:   cfg.Storage.Redis.Prefix,
	})
	if err != nil {
		_ = a.Close()
		return nil, &output.CLIError{
			Summary:    "cannot open session storage",
			Detail:     err.Error(),
			Suggestion: "Check storage.driver and storage.path in .rentix.yaml",
			ExitCode:   output.ExitConfigError,
			Err:        err,
		}
	}
	a.store = kv
	a.closers = append(a.closers, closeStore)

	a.client, err = apiclient.New(apiclient.Config{
		BaseURL:   cfg.API.URL,
		Timeout:   cfg.API.Timeout,
		UserAgent: cfg.API.UserAgent + "/" + version,
		RateLimit: cfg.API.RateLimit,
		RateBurst: cfg.API.RateBurst,
	},
		apiclient.WithTokenSource(store.TokenReader{Store: kv}),
		apiclient.WithLogger(logger),
	)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	a.api = backend.New(a.client)
	a.session = session.NewManager(a.api.Auth, kv, a.client,
		session.WithLogger(logger),
		session.WithValidator(validation.New()),
	)
	a.closers = append(a.closers, unbind(a.session.Bind(a.client)))
	a.nav = navigation.NewNavigator(navigation.PathDashboard, logger)
	a.closers = append(a.closers, unbind(a.nav.Bind(a.client)))
	a.guard = guard.New(a.session)

	if err := a.session.Init(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func unbind(cancel func()) func() error {
	return func() error {
		cancel()
		return nil
	}
}

// enter runs the route guard for the screen a command mirrors.
func (a *app) enter(path string) (*domain.User, error) {
	d := a.guard.Check(path)
	switch d.Outcome {
	case guard.Render:
		a.nav.Navigate(path)
		return d.User, nil
	case guard.Forbidden:
		return nil, &output.CLIError{
			Summary:  fmt.Sprintf("role %q may not open %s", d.User.Role.Label(), d.Route.Title),
			ExitCode: output.ExitAuthRequired,
			Err:      domain.ErrInvalidRole,
		}
	default:
		return nil, loginRequired(d.Redirect, domain.ErrNotAuthenticated)
	}
}

// check converts a forced logout into a login prompt that returns to the active screen.
func (a *app) check(err error) error {
	if err == nil {
		return nil
	}
	var authErr *domain.AuthError
	if errors.As(err, &authErr) && authErr.Forced {
		if r, ok := a.nav.Follow(); ok {
			e := loginRequired(r, err)
			e.Summary = "session expired"
			return e
		}
	}
	return err
}

func loginRequired(r domain.Redirect, cause error) *output.CLIError {
	suggestion := "Run 'rentixctl login'"
	if r.From != "" {
		suggestion = fmt.Sprintf("Run 'rentixctl login --from %s'", r.From)
	}
	return &output.CLIError{
		Summary:    "not logged in",
		Suggestion: suggestion,
		ExitCode:   output.ExitAuthRequired,
		Err:        cause,
	}
}

// withApp opens the app for the duration of fn.
func withApp(ctx context.Context, fn func(a *app) error) (err error) {
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil && err == nil {
			logger.Warn("closing resources", "error", cerr)
		}
	}()
	return a.check(fn(a))
}

// routeCommands maps console routes to the command that shows the same data.
var routeCommands = map[string]string{
	navigation.PathDashboard:     "rentixctl dashboard",
	navigation.PathTenants:       "rentixctl tenants list",
	navigation.PathProperties:    "rentixctl properties list",
	navigation.PathPayments:      "rentixctl payments list",
	navigation.PathNotifications: "rentixctl notifications list",
	navigation.PathUsers:         "rentixctl users list",
}
