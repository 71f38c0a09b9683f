// Package session owns the authentication lifecycle: the persisted {token, user} pair,
// the bearer installed on the API client and the Unknown/Authenticated/Unauthenticated machine.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Mavton23/rentix/internal/domain"
	"github.com/Mavton23/rentix/internal/validation"
)

// invalidationTimeout bounds the storage cleanup run from a 401 event.
const invalidationTimeout = 5 * time.Second

// Authenticator performs the backend auth flows.
type Authenticator interface {
	Login(ctx context.Context, creds domain.Credentials) (domain.AuthGrant, error)
	Register(ctx context.Context, reg domain.Registration) (domain.AuthGrant, error)
	ResetPassword(ctx context.Context, email string) error
	UpdatePassword(ctx context.Context, upd domain.PasswordUpdate) error
}

// BearerInstaller sets or removes the default Authorization header of the API client.
type BearerInstaller interface {
	SetBearer(token string)
	ClearBearer()
}

// Option customizes a Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithValidator replaces the input validator.
func WithValidator(v *validation.Validator) Option {
	return func(m *Manager) { m.validator = v }
}

// Manager is the sole writer of the persisted session. It is safe for concurrent use.
type Manager struct {
	auth      Authenticator
	store     domain.KeyValueStore
	bearer    BearerInstaller
	validator *validation.Validator
	logger    *slog.Logger

	// writeMu serializes every mutation of storage + state.
	writeMu sync.Mutex

	mu    sync.RWMutex
	state domain.AuthState
	user  *domain.User
	token string

	subMu  sync.Mutex
	nextID int
	subs   map[int]func(domain.Snapshot)
}

// NewManager creates a manager in the Unknown state. Call Init before routing.
func NewManager(auth Authenticator, store domain.KeyValueStore, bearer BearerInstaller, opts ...Option) *Manager {
	m := &Manager{
		auth:      auth,
		store:     store,
		bearer:    bearer,
		validator: validation.New(),
		logger:    slog.Default(),
		subs:      make(map[int]func(domain.Snapshot)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Init inspects storage once. A token with a well-formed user restores the session;
// anything partial or unparsable is cleared and the session becomes Unauthenticated.
// Subscribers see the resulting transition.
func (m *Manager) Init(ctx context.Context) error {
	m.writeMu.Lock()
	snap, changed, err := m.restore(ctx)
	m.writeMu.Unlock()

	m.notify(snap, changed)
	return err
}

// restore must run under writeMu.
func (m *Manager) restore(ctx context.Context) (domain.Snapshot, bool, error) {
	user, token, err := m.readStored(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrMalformedSession) {
			snap, changed := m.setState(domain.StateUnauthenticated, nil, "")
			return snap, changed, fmt.Errorf("reading persisted session: %w", err)
		}
		m.logger.WarnContext(ctx, "discarding malformed session", "error", err)
		if delErr := m.store.Delete(ctx, domain.KeyToken, domain.KeyUser); delErr != nil {
			m.logger.ErrorContext(ctx, "failed to clear malformed session", "error", delErr)
		}
		m.bearer.ClearBearer()
		snap, changed := m.setState(domain.StateUnauthenticated, nil, "")
		return snap, changed, nil
	}

	if user == nil {
		m.bearer.ClearBearer()
		snap, changed := m.setState(domain.StateUnauthenticated, nil, "")
		return snap, changed, nil
	}

	m.bearer.SetBearer(token)
	snap, changed := m.setState(domain.StateAuthenticated, user, token)
	m.logger.DebugContext(ctx, "session restored", "user_id", user.ID, "role", user.Role)
	return snap, changed, nil
}

// readStored returns (nil, "", nil) when nothing is stored and ErrMalformedSession when
// only one entry exists or the user does not parse.
func (m *Manager) readStored(ctx context.Context) (*domain.User, string, error) {
	token, hasToken, err := m.store.Get(ctx, domain.KeyToken)
	if err != nil {
		return nil, "", err
	}
	raw, hasUser, err := m.store.Get(ctx, domain.KeyUser)
	if err != nil {
		return nil, "", err
	}

	hasToken = hasToken && token != ""
	switch {
	case !hasToken && !hasUser:
		return nil, "", nil
	case !hasToken:
		return nil, "", fmt.Errorf("%w: user without token", domain.ErrMalformedSession)
	case !hasUser:
		return nil, "", fmt.Errorf("%w: token without user", domain.ErrMalformedSession)
	}

	user, err := decodeUser(raw)
	if err != nil {
		return nil, "", err
	}
	return &user, token, nil
}

func decodeUser(raw string) (domain.User, error) {
	var u domain.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return domain.User{}, fmt.Errorf("%w: %v", domain.ErrMalformedSession, err)
	}
	if u.ID == 0 && strings.TrimSpace(u.Email) == "" {
		return domain.User{}, fmt.Errorf("%w: user has no identity", domain.ErrMalformedSession)
	}
	return u, nil
}

// State returns the current machine state.
func (m *Manager) State() domain.AuthState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Snapshot returns a copy of the session.
func (m *Manager) Snapshot() domain.Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked()
}

func (m *Manager) snapshotLocked() domain.Snapshot {
	s := domain.Snapshot{State: m.state, Token: m.token}
	if m.user != nil {
		u := *m.user
		s.User = &u
	}
	return s
}

// CurrentUser returns the authenticated user.
func (m *Manager) CurrentUser() (domain.User, bool) {
	s := m.Snapshot()
	if !s.Authenticated() {
		return domain.User{}, false
	}
	return *s.User, true
}

// Token returns the session token.
func (m *Manager) Token() (string, bool) {
	s := m.Snapshot()
	return s.Token, s.Authenticated()
}

// Login authenticates with email and password. On failure the session is untouched.
func (m *Manager) Login(ctx context.Context, creds domain.Credentials) (domain.User, error) {
	creds.Email = strings.TrimSpace(creds.Email)
	if err := m.validator.Struct(creds); err != nil {
		return domain.User{}, err
	}

	grant, err := m.auth.Login(ctx, creds)
	if err != nil {
		m.logger.InfoContext(ctx, "login rejected", "email", creds.Email, "error", err)
		return domain.User{}, err
	}
	return m.establish(ctx, grant)
}

// LoginWithToken starts a session from an already issued token and user.
func (m *Manager) LoginWithToken(ctx context.Context, token string, user domain.User) (domain.User, error) {
	if strings.TrimSpace(token) == "" {
		return domain.User{}, &domain.ValidationError{Fields: []domain.FieldError{{Field: "token", Message: "campo obrigatório"}}}
	}
	return m.establish(ctx, domain.AuthGrant{Token: token, User: user})
}

// Register creates the account, then logs in with the same email and password.
func (m *Manager) Register(ctx context.Context, reg domain.Registration) (domain.User, error) {
	reg.Email = strings.TrimSpace(reg.Email)
	reg.Username = strings.TrimSpace(reg.Username)
	if err := m.validator.Struct(reg); err != nil {
		return domain.User{}, err
	}
	if phone, ok := validation.NormalizePhone(reg.Phone); ok {
		reg.Phone = phone
	}

	if _, err := m.auth.Register(ctx, reg); err != nil {
		m.logger.InfoContext(ctx, "registration rejected", "email", reg.Email, "error", err)
		return domain.User{}, err
	}
	return m.Login(ctx, domain.Credentials{Email: reg.Email, Password: reg.Password})
}

func (m *Manager) establish(ctx context.Context, grant domain.AuthGrant) (domain.User, error) {
	raw, err := json.Marshal(grant.User)
	if err != nil {
		return domain.User{}, fmt.Errorf("encoding user: %w", err)
	}

	m.writeMu.Lock()
	if err := m.store.SetAll(ctx, map[string]string{
		domain.KeyToken: grant.Token,
		domain.KeyUser:  string(raw),
	}); err != nil {
		m.writeMu.Unlock()
		return domain.User{}, fmt.Errorf("persisting session: %w", err)
	}
	m.bearer.SetBearer(grant.Token)
	user := grant.User
	snap, changed := m.setState(domain.StateAuthenticated, &user, grant.Token)
	m.writeMu.Unlock()

	m.logger.InfoContext(ctx, "user logged in", "user_id", user.ID, "role", user.Role)
	m.notify(snap, changed)
	return user, nil
}

// Logout ends the session locally. It never fails; storage errors are logged.
func (m *Manager) Logout(ctx context.Context) {
	m.writeMu.Lock()
	snap, changed := m.clear(ctx)
	m.writeMu.Unlock()

	if changed {
		m.logger.InfoContext(ctx, "user logged out")
	}
	m.notify(snap, changed)
}

// HandleInvalidation reacts to a server 401 with a forced logout. Repeated events are no-ops
// once the session is gone.
func (m *Manager) HandleInvalidation(ev domain.SessionInvalidated) {
	ctx, cancel := context.WithTimeout(context.Background(), invalidationTimeout)
	defer cancel()

	m.writeMu.Lock()
	snap, changed := m.clear(ctx)
	m.writeMu.Unlock()

	if changed {
		m.logger.WarnContext(ctx, "session invalidated by server",
			"method", ev.Method,
			"path", ev.Path,
			"request_id", ev.RequestID)
	}
	m.notify(snap, changed)
}

// Bind subscribes the manager to invalidation events. The returned func unsubscribes.
func (m *Manager) Bind(pub domain.InvalidationPublisher) func() {
	return pub.OnSessionInvalidated(m.HandleInvalidation)
}

// clear must run under writeMu.
func (m *Manager) clear(ctx context.Context) (domain.Snapshot, bool) {
	if err := m.store.Delete(ctx, domain.KeyToken, domain.KeyUser); err != nil {
		m.logger.ErrorContext(ctx, "failed to clear persisted session", "error", err)
	}
	m.bearer.ClearBearer()
	return m.setState(domain.StateUnauthenticated, nil, "")
}

// ResetPassword requests a password reset e-mail.
func (m *Manager) ResetPassword(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if err := m.validator.Var(email, "required,email"); err != nil {
		return &domain.ValidationError{Fields: []domain.FieldError{{Field: "email", Message: "e-mail inválido"}}}
	}
	return m.auth.ResetPassword(ctx, email)
}

// UpdatePassword sets a new password with a reset token.
func (m *Manager) UpdatePassword(ctx context.Context, token, newPassword string) error {
	upd := domain.PasswordUpdate{Token: strings.TrimSpace(token), NewPassword: newPassword}
	if err := m.validator.Struct(upd); err != nil {
		return err
	}
	return m.auth.UpdatePassword(ctx, upd)
}

// ValidatePatch checks profile input before it is sent to the server.
func (m *Manager) ValidatePatch(patch domain.UserPatch) error {
	return m.validator.Struct(patch)
}

// UpdateUser merges patch into the persisted user. The token is left untouched. The patch
// is stored as given; callers sending it to the server validate it first with ValidatePatch.
func (m *Manager) UpdateUser(ctx context.Context, patch domain.UserPatch) (domain.User, error) {
	m.writeMu.Lock()
	current := m.Snapshot()
	if !current.Authenticated() {
		m.writeMu.Unlock()
		return domain.User{}, domain.ErrNotAuthenticated
	}

	updated := patch.Apply(*current.User)
	raw, err := json.Marshal(updated)
	if err != nil {
		m.writeMu.Unlock()
		return domain.User{}, fmt.Errorf("encoding user: %w", err)
	}
	if err := m.store.SetAll(ctx, map[string]string{domain.KeyUser: string(raw)}); err != nil {
		m.writeMu.Unlock()
		return domain.User{}, fmt.Errorf("persisting user: %w", err)
	}
	snap, changed := m.setState(domain.StateAuthenticated, &updated, current.Token)
	m.writeMu.Unlock()

	m.notify(snap, changed)
	return updated, nil
}

// UpdateAvatar replaces the avatar URL of the current user.
func (m *Manager) UpdateAvatar(ctx context.Context, url string) (domain.User, error) {
	return m.UpdateUser(ctx, domain.UserPatch{AvatarURL: &url})
}

// TokenExpiry reads the exp claim when the token is a JWT. The signature is not verified;
// the value is for display only.
func (m *Manager) TokenExpiry() (time.Time, bool) {
	token, ok := m.Token()
	if !ok {
		return time.Time{}, false
	}
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// Subscribe registers fn to receive a snapshot after every state change.
func (m *Manager) Subscribe(fn func(domain.Snapshot)) func() {
	m.subMu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	m.subMu.Unlock()

	return func() {
		m.subMu.Lock()
		delete(m.subs, id)
		m.subMu.Unlock()
	}
}

// setState stores the new state and reports whether anything observable changed.
func (m *Manager) setState(state domain.AuthState, user *domain.User, token string) (domain.Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	changed := m.state != state || m.token != token || !sameUser(m.user, user)
	if m.state != state {
		transitions.WithLabelValues(state.String()).Inc()
	}
	m.state, m.user, m.token = state, user, token
	return m.snapshotLocked(), changed
}

func (m *Manager) notify(snap domain.Snapshot, changed bool) {
	if !changed {
		return
	}
	m.subMu.Lock()
	fns := make([]func(domain.Snapshot), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.subMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

func sameUser(a, b *domain.User) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
