package web

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Mavton23/rentix/internal/backend"
	"github.com/Mavton23/rentix/internal/domain"
	"github.com/Mavton23/rentix/internal/guard"
	"github.com/Mavton23/rentix/internal/loader"
	"github.com/Mavton23/rentix/internal/navigation"
)

const (
	userKey         = "user"
	csrfKey         = "csrf"
	csrfField       = "_csrf"
	csrfCookie      = "_csrf"
	paymentPageSize = 10
)

// requireSession gates protected pages through the route guard.
func (s *Server) requireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		d := s.guard.Check(req.URL.Path)
		switch d.Outcome {
		case guard.Render:
			if req.Method == http.MethodGet {
				s.nav.Navigate(req.URL.Path)
			}
			c.Set(userKey, d.User)
			return next(c)
		case guard.Redirect:
			return c.Redirect(http.StatusSeeOther, loginURL(d.Redirect))
		case guard.Forbidden:
			v := s.view(c, "Acesso negado", d.Route.Path)
			v.User = d.User
			v.Menu = navigation.For(d.User.Role)
			v.Data = "Seu perfil não tem acesso a esta página."
			return c.Render(http.StatusForbidden, "status", v)
		default:
			c.Response().Header().Set("Retry-After", "1")
			return c.NoContent(http.StatusServiceUnavailable)
		}
	}
}

func (s *Server) view(c echo.Context, title, active string) view {
	v := view{Title: title, Active: active}
	if tok, ok := c.Get(csrfKey).(string); ok {
		v.CSRF = tok
	}
	if u, ok := c.Get(userKey).(*domain.User); ok && u != nil {
		v.User = u
		v.Menu = navigation.For(u.Role)
	}
	return v
}

// loginURL renders r as a login link carrying the origin route.
func loginURL(r domain.Redirect) string {
	if r.From == "" {
		return r.To
	}
	return r.To + "?from=" + url.QueryEscape(r.From)
}

// safeFrom keeps only local, non-login destinations.
func safeFrom(from string) string {
	if !strings.HasPrefix(from, "/") || strings.HasPrefix(from, "//") || strings.HasPrefix(from, "/\\") {
		return navigation.PathDashboard
	}
	if u, err := url.Parse(from); err != nil || u.Path == navigation.PathLogin {
		return navigation.PathDashboard
	}
	return from
}

// fail renders a load error. A forced logout sends the visitor to login instead, returning
// to the page this request was rendering. The shared navigator may already point at another
// visitor's page, so its recorded redirect is consumed but not used.
func (s *Server) fail(c echo.Context, v view, err error) error {
	var authErr *domain.AuthError
	if errors.As(err, &authErr) && authErr.Forced {
		_, _ = s.nav.Follow()
		from := c.Request().URL.Path
		if c.Request().Method != http.MethodGet {
			from = v.Active
		}
		return c.Redirect(http.StatusSeeOther, loginURL(domain.LoginRedirect(from)))
	}
	s.logger.ErrorContext(c.Request().Context(), "page load failed", "path", c.Request().URL.Path, "error", err)
	v.Error = err.Error()
	v.Data = "Não foi possível carregar os dados."
	return c.Render(http.StatusBadGateway, "status", v)
}

type loginForm struct {
	From   string
	Email  string
	Fields map[string]string
}

func (s *Server) loginPage(c echo.Context) error {
	from := c.QueryParam("from")
	if s.session.Snapshot().Authenticated() {
		return c.Redirect(http.StatusSeeOther, safeFrom(from))
	}
	s.nav.Navigate(navigation.PathLogin)

	v := s.view(c, "Entrar", navigation.PathLogin)
	if from != "" {
		v.Notice = "Faça login para continuar."
	}
	v.Data = loginForm{From: from}
	return c.Render(http.StatusOK, "login", v)
}

func (s *Server) login(c echo.Context) error {
	creds := domain.Credentials{
		Email:    c.FormValue("email"),
		Password: c.FormValue("password"),
	}
	from := c.FormValue("from")

	if _, err := s.session.Login(c.Request().Context(), creds); err != nil {
		form := loginForm{From: from, Email: creds.Email, Fields: map[string]string{}}
		v := s.view(c, "Entrar", navigation.PathLogin)
		v.Error = err.Error()

		status := http.StatusBadGateway
		var valErr *domain.ValidationError
		var authErr *domain.AuthError
		switch {
		case errors.As(err, &valErr):
			status = http.StatusUnprocessableEntity
			for _, f := range valErr.Fields {
				form.Fields[f.Field] = f.Message
			}
		case errors.As(err, &authErr):
			status = http.StatusUnauthorized
			for _, f := range authErr.Fields {
				form.Fields[f.Field] = f.Message
			}
		}
		v.Data = form
		return c.Render(status, "login", v)
	}

	dest := safeFrom(from)
	s.nav.Navigate(dest)
	return c.Redirect(http.StatusSeeOther, dest)
}

// csrfRejected answers a POST whose form token is missing or stale.
func (s *Server) csrfRejected(err error, c echo.Context) error {
	s.logger.WarnContext(c.Request().Context(), "csrf check failed",
		"method", c.Request().Method,
		"path", c.Request().URL.Path,
		"error", err)
	v := s.view(c, "Requisição recusada", "")
	v.Data = "O formulário expirou. Recarregue a página e tente novamente."
	return c.Render(http.StatusForbidden, "status", v)
}

func (s *Server) logout(c echo.Context) error {
	s.session.Logout(c.Request().Context())
	s.nav.Navigate(navigation.PathLogin)
	return c.Redirect(http.StatusSeeOther, navigation.PathLogin)
}

type dashboardData struct {
	Summary *domain.DashboardSummary
	Chart   []backend.ChartPoint
	Unread  int
}

func (s *Server) dashboard(c echo.Context) error {
	ctx := c.Request().Context()
	v := s.view(c, "Dashboard", navigation.PathDashboard)

	var summary domain.DashboardSummary
	var notes []domain.Notification
	results := loader.Settle(ctx, 0,
		loader.Into(&summary, s.api.Dashboard.Summary),
		loader.Into(&notes, s.api.Notifications.List),
	)
	if results.Failed() == len(results) {
		return s.fail(c, v, results.Err())
	}
	if err := results.Err(); err != nil {
		var authErr *domain.AuthError
		if errors.As(err, &authErr) && authErr.Forced {
			return s.fail(c, v, err)
		}
		v.Error = "Alguns dados não puderam ser carregados."
	}

	data := dashboardData{Unread: backend.Unread(notes)}
	if results[0] == nil {
		data.Summary = &summary
		data.Chart = backend.RevenueChart(summary.Revenue)
	}
	v.Data = data
	return c.Render(http.StatusOK, "dashboard", v)
}

type tenantsData struct {
	Query   string
	Tenants []domain.Tenant
}

func (s *Server) tenants(c echo.Context) error {
	v := s.view(c, "Inquilinos", navigation.PathTenants)
	q := strings.TrimSpace(c.QueryParam("q"))
	tenants, err := s.api.Tenants.List(c.Request().Context(), q)
	if err != nil {
		return s.fail(c, v, err)
	}
	v.Data = tenantsData{Query: q, Tenants: tenants}
	return c.Render(http.StatusOK, "tenants", v)
}

func (s *Server) properties(c echo.Context) error {
	v := s.view(c, "Imóveis", navigation.PathProperties)
	props, err := s.api.Properties.List(c.Request().Context(), domain.PropertyStatus(c.QueryParam("status")))
	if err != nil {
		return s.fail(c, v, err)
	}
	v.Data = props
	return c.Render(http.StatusOK, "properties", v)
}

type paymentsData struct {
	Status string
	Page   backend.Page[domain.Payment]
	Next   int
}

func (s *Server) payments(c echo.Context) error {
	v := s.view(c, "Pagamentos", navigation.PathPayments)
	all, err := s.api.Payments.List(c.Request().Context())
	if err != nil {
		return s.fail(c, v, err)
	}

	status := c.QueryParam("status")
	filtered := backend.FilterPayments(all, backend.PaymentFilter{
		Status: domain.PaymentStatus(status),
		Query:  c.QueryParam("q"),
	})
	number, _ := strconv.Atoi(c.QueryParam("page"))
	page := backend.Paginate(filtered, number, paymentPageSize)

	v.Data = paymentsData{Status: status, Page: page, Next: page.Number + 1}
	return c.Render(http.StatusOK, "payments", v)
}

func (s *Server) notifications(c echo.Context) error {
	v := s.view(c, "Notificações", navigation.PathNotifications)
	notes, err := s.api.Notifications.List(c.Request().Context())
	if err != nil {
		return s.fail(c, v, err)
	}
	v.Data = notes
	return c.Render(http.StatusOK, "notifications", v)
}

func (s *Server) markRead(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid notification id")
	}
	if err := s.api.Notifications.MarkRead(c.Request().Context(), id); err != nil {
		return s.fail(c, s.view(c, "Notificações", navigation.PathNotifications), err)
	}
	return c.Redirect(http.StatusSeeOther, navigation.PathNotifications)
}

func (s *Server) users(c echo.Context) error {
	v := s.view(c, "Usuários", navigation.PathUsers)
	users, err := s.api.Users.List(c.Request().Context())
	if err != nil {
		return s.fail(c, v, err)
	}
	v.Data = users
	return c.Render(http.StatusOK, "users", v)
}
