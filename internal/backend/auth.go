package backend

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Mavton23/rentix/internal/apiclient"
	"github.com/Mavton23/rentix/internal/domain"
)

// AuthAPI wraps the /auth endpoints. Every call is an auth flow: a rejection is an
// *domain.AuthError and never invalidates the current session.
type AuthAPI struct {
	gw Gateway
}

// Login exchanges credentials for a token and user.
func (a *AuthAPI) Login(ctx context.Context, creds domain.Credentials) (domain.AuthGrant, error) {
	var grant domain.AuthGrant
	if err := a.gw.DoJSON(ctx, http.MethodPost, "/auth/login", creds, &grant, apiclient.AuthFlow()); err != nil {
		return domain.AuthGrant{}, domain.AsAuthFailure(err)
	}
	if grant.Token == "" {
		return domain.AuthGrant{}, &domain.ServerError{StatusCode: http.StatusOK, Message: "login response without token"}
	}
	return grant, nil
}

// Register creates an account. The grant the server may return is discarded by callers
// that log in afterwards.
func (a *AuthAPI) Register(ctx context.Context, reg domain.Registration) (domain.AuthGrant, error) {
	var grant domain.AuthGrant
	if err := a.gw.DoJSON(ctx, http.MethodPost, "/auth/register", reg, &grant, apiclient.AuthFlow()); err != nil {
		return domain.AuthGrant{}, domain.AsAuthFailure(err)
	}
	return grant, nil
}

// ResetPassword asks the server to e-mail a reset link.
func (a *AuthAPI) ResetPassword(ctx context.Context, email string) error {
	body := map[string]string{"email": email}
	if _, err := a.gw.Do(ctx, http.MethodPost, "/auth/reset-password", body, apiclient.AuthFlow()); err != nil {
		return domain.AsAuthFailure(err)
	}
	return nil
}

// UpdatePassword sets a new password using a reset token.
func (a *AuthAPI) UpdatePassword(ctx context.Context, upd domain.PasswordUpdate) error {
	var out struct {
		Success *bool  `json:"success"`
		Message string `json:"message"`
	}
	if err := a.gw.DoJSON(ctx, http.MethodPost, "/auth/update-password", upd, &out, apiclient.AuthFlow()); err != nil {
		return domain.AsAuthFailure(err)
	}
	if out.Success != nil && !*out.Success {
		msg := out.Message
		if msg == "" {
			msg = "password update rejected"
		}
		return &domain.AuthError{StatusCode: http.StatusOK, Message: msg}
	}
	return nil
}

// UsersAPI lists accounts (admin only on the server side).
type UsersAPI struct {
	gw Gateway
}

// List returns every account.
func (u *UsersAPI) List(ctx context.Context) ([]domain.User, error) {
	users, err := getList[domain.User](ctx, u.gw, "/users")
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}
