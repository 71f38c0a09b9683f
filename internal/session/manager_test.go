package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mavton23/rentix/internal/apiclient"
	"github.com/Mavton23/rentix/internal/backend"
	"github.com/Mavton23/rentix/internal/domain"
	"github.com/Mavton23/rentix/internal/store"
)

type fakeAuth struct {
	login          func(domain.Credentials) (domain.AuthGrant, error)
	register       func(domain.Registration) (domain.AuthGrant, error)
	resetPassword  func(string) error
	updatePassword func(domain.PasswordUpdate) error
}

func (f *fakeAuth) Login(_ context.Context, c domain.Credentials) (domain.AuthGrant, error) {
	return f.login(c)
}

func (f *fakeAuth) Register(_ context.Context, r domain.Registration) (domain.AuthGrant, error) {
	return f.register(r)
}

func (f *fakeAuth) ResetPassword(_ context.Context, email string) error {
	return f.resetPassword(email)
}

func (f *fakeAuth) UpdatePassword(_ context.Context, u domain.PasswordUpdate) error {
	return f.updatePassword(u)
}

type fakeBearer struct {
	mu    sync.Mutex
	token string
}

func (b *fakeBearer) SetBearer(t string) {
	b.mu.Lock()
	b.token = t
	b.mu.Unlock()
}

func (b *fakeBearer) ClearBearer() { b.SetBearer("") }

func (b *fakeBearer) get() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.token
}

var userA = domain.User{ID: 1, Name: "A", Email: "a@b.com", Role: domain.RoleManager}

func grantingAuth() *fakeAuth {
	return &fakeAuth{
		login: func(c domain.Credentials) (domain.AuthGrant, error) {
			if c.Password != "secret1" {
				return domain.AuthGrant{}, &domain.AuthError{StatusCode: 401, Message: "Credenciais inválidas"}
			}
			return domain.AuthGrant{Token: "T1", User: userA}, nil
		},
	}
}

func newManager(t *testing.T, auth Authenticator) (*Manager, *store.MemoryStore, *fakeBearer) {
	t.Helper()
	s := store.NewMemoryStore()
	b := &fakeBearer{}
	return NewManager(auth, s, b), s, b
}

func stored(t *testing.T, s domain.KeyValueStore, key string) (string, bool) {
	t.Helper()
	v, ok, err := s.Get(context.Background(), key)
	require.NoError(t, err)
	return v, ok
}

func TestManager_StartsUnknown(t *testing.T) {
	m, _, _ := newManager(t, grantingAuth())
	assert.Equal(t, domain.StateUnknown, m.State())
}

func TestManager_Init(t *testing.T) {
	userJSON, _ := json.Marshal(userA)

	tests := []struct {
		name      string
		entries   map[string]string
		wantState domain.AuthState
		wantKeys  int
	}{
		{"empty storage", nil, domain.StateUnauthenticated, 0},
		{"full session", map[string]string{domain.KeyToken: "T1", domain.KeyUser: string(userJSON)}, domain.StateAuthenticated, 2},
		{"token without user", map[string]string{domain.KeyToken: "T1"}, domain.StateUnauthenticated, 0},
		{"user without token", map[string]string{domain.KeyUser: string(userJSON)}, domain.StateUnauthenticated, 0},
		{"unparsable user", map[string]string{domain.KeyToken: "T1", domain.KeyUser: "{oops"}, domain.StateUnauthenticated, 0},
		{"null user", map[string]string{domain.KeyToken: "T1", domain.KeyUser: "null"}, domain.StateUnauthenticated, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, s, b := newManager(t, grantingAuth())
			if tt.entries != nil {
				require.NoError(t, s.SetAll(context.Background(), tt.entries))
			}

			require.NoError(t, m.Init(context.Background()))

			assert.Equal(t, tt.wantState, m.State())
			assert.Equal(t, tt.wantKeys, s.Len())
			if tt.wantState == domain.StateAuthenticated {
				assert.Equal(t, "T1", b.get())
				u, ok := m.CurrentUser()
				require.True(t, ok)
				assert.Equal(t, userA, u)
			} else {
				assert.Empty(t, b.get())
			}
		})
	}
}

func writeRaw(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o600)
}

func TestManager_InitCorruptFileStore(t *testing.T) {
	fs, err := store.NewFileStore(t.TempDir() + "/session.json")
	require.NoError(t, err)
	require.NoError(t, writeRaw(fs.Path(), "not json at all"))

	m := NewManager(grantingAuth(), fs, &fakeBearer{})
	require.NoError(t, m.Init(context.Background()))

	assert.Equal(t, domain.StateUnauthenticated, m.State())
	_, ok := stored(t, fs, domain.KeyToken)
	assert.False(t, ok)
}

func TestManager_LoginLogout(t *testing.T) {
	m, s, b := newManager(t, grantingAuth())
	require.NoError(t, m.Init(context.Background()))

	var states []domain.AuthState
	m.Subscribe(func(snap domain.Snapshot) { states = append(states, snap.State) })

	u, err := m.Login(context.Background(), domain.Credentials{Email: "a@b.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, userA, u)
	assert.Equal(t, domain.StateAuthenticated, m.State())
	assert.Equal(t, "T1", b.get())
	tok, _ := stored(t, s, domain.KeyToken)
	assert.Equal(t, "T1", tok)

	m.Logout(context.Background())

	assert.Equal(t, domain.StateUnauthenticated, m.State())
	assert.Zero(t, s.Len())
	assert.Empty(t, b.get())
	assert.Equal(t, []domain.AuthState{domain.StateAuthenticated, domain.StateUnauthenticated}, states)

	m.Logout(context.Background())
	assert.Len(t, states, 2, "second logout must not notify")
}

func TestManager_LoginRejected(t *testing.T) {
	m, s, b := newManager(t, grantingAuth())
	require.NoError(t, m.Init(context.Background()))

	_, err := m.Login(context.Background(), domain.Credentials{Email: "a@b.com", Password: "wrong99"})

	var authErr *domain.AuthError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, "Credenciais inválidas", authErr.Message)
	assert.Equal(t, domain.StateUnauthenticated, m.State())
	assert.Zero(t, s.Len())
	assert.Empty(t, b.get())
}

func TestManager_LoginValidatesInput(t *testing.T) {
	called := false
	auth := &fakeAuth{login: func(domain.Credentials) (domain.AuthGrant, error) {
		called = true
		return domain.AuthGrant{}, nil
	}}
	m, _, _ := newManager(t, auth)

	_, err := m.Login(context.Background(), domain.Credentials{Email: "bad", Password: ""})

	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.False(t, called)
}

func TestManager_LoginWithToken(t *testing.T) {
	m, s, b := newManager(t, grantingAuth())

	_, err := m.LoginWithToken(context.Background(), "", userA)
	assert.Error(t, err)

	u, err := m.LoginWithToken(context.Background(), "T7", userA)
	require.NoError(t, err)
	assert.Equal(t, userA, u)
	assert.Equal(t, "T7", b.get())
	assert.Equal(t, 2, s.Len())
}

func TestManager_RegisterThenLogin(t *testing.T) {
	var registered domain.Registration
	var loggedIn domain.Credentials
	auth := &fakeAuth{
		register: func(r domain.Registration) (domain.AuthGrant, error) {
			registered = r
			return domain.AuthGrant{Token: "ignored", User: domain.User{ID: 99}}, nil
		},
		login: func(c domain.Credentials) (domain.AuthGrant, error) {
			loggedIn = c
			return domain.AuthGrant{Token: "T1", User: userA}, nil
		},
	}
	m, _, b := newManager(t, auth)

	u, err := m.Register(context.Background(), domain.Registration{
		Username: "ana",
		Email:    " a@b.com ",
		Phone:    "(11) 91234-5678",
		Password: "secret1",
		ConfPass: "secret1",
	})
	require.NoError(t, err)

	assert.Equal(t, "+5511912345678", registered.Phone)
	assert.Equal(t, domain.Credentials{Email: "a@b.com", Password: "secret1"}, loggedIn)
	assert.Equal(t, userA, u)
	assert.Equal(t, "T1", b.get(), "the login grant wins over the registration response")
}

func TestManager_RegisterRejected(t *testing.T) {
	auth := &fakeAuth{
		register: func(domain.Registration) (domain.AuthGrant, error) {
			return domain.AuthGrant{}, &domain.AuthError{StatusCode: 409, Message: "E-mail já cadastrado"}
		},
		login: func(domain.Credentials) (domain.AuthGrant, error) {
			t.Fatal("login must not run after a failed registration")
			return domain.AuthGrant{}, nil
		},
	}
	m, _, _ := newManager(t, auth)

	_, err := m.Register(context.Background(), domain.Registration{
		Username: "ana", Email: "a@b.com", Phone: "11912345678", Password: "secret1", ConfPass: "secret1",
	})
	assert.EqualError(t, err, "E-mail já cadastrado")
}

func TestManager_UpdateAvatarRoundTrip(t *testing.T) {
	m, s, _ := newManager(t, grantingAuth())
	_, err := m.Login(context.Background(), domain.Credentials{Email: "a@b.com", Password: "secret1"})
	require.NoError(t, err)
	tokenBefore, _ := stored(t, s, domain.KeyToken)

	_, err = m.UpdateAvatar(context.Background(), "https://cdn.example.com/x.png")
	require.NoError(t, err)

	raw, ok := stored(t, s, domain.KeyUser)
	require.True(t, ok)
	var persisted domain.User
	require.NoError(t, json.Unmarshal([]byte(raw), &persisted))

	want := userA
	want.AvatarURL = "https://cdn.example.com/x.png"
	assert.Equal(t, want, persisted)

	tokenAfter, _ := stored(t, s, domain.KeyToken)
	assert.Equal(t, tokenBefore, tokenAfter)
	assert.Equal(t, domain.StateAuthenticated, m.State())
}

func TestManager_UpdateUserStoresAvatarAsGiven(t *testing.T) {
	for _, avatar := range []string{"x", "/uploads/1.png"} {
		t.Run(avatar, func(t *testing.T) {
			m, s, _ := newManager(t, grantingAuth())
			_, err := m.Login(context.Background(), domain.Credentials{Email: "a@b.com", Password: "secret1"})
			require.NoError(t, err)
			tokenBefore, _ := stored(t, s, domain.KeyToken)

			got, err := m.UpdateUser(context.Background(), domain.UserPatch{AvatarURL: &avatar})
			require.NoError(t, err)

			raw, ok := stored(t, s, domain.KeyUser)
			require.True(t, ok)
			var persisted domain.User
			require.NoError(t, json.Unmarshal([]byte(raw), &persisted))

			want := userA
			want.AvatarURL = avatar
			assert.Equal(t, want, persisted)
			assert.Equal(t, want, got)

			tokenAfter, _ := stored(t, s, domain.KeyToken)
			assert.Equal(t, tokenBefore, tokenAfter)
		})
	}
}

func TestManager_ValidatePatch(t *testing.T) {
	m, _, _ := newManager(t, grantingAuth())

	short, email, avatar := "A", "nope", "x"
	err := m.ValidatePatch(domain.UserPatch{Name: &short, Email: &email})
	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Len(t, ve.Fields, 2)

	name := "Bia Souza"
	assert.NoError(t, m.ValidatePatch(domain.UserPatch{Name: &name, AvatarURL: &avatar}))
}

func TestManager_InitNotifiesSubscribers(t *testing.T) {
	userJSON, _ := json.Marshal(userA)
	m, s, _ := newManager(t, grantingAuth())
	require.NoError(t, s.SetAll(context.Background(), map[string]string{
		domain.KeyToken: "T1",
		domain.KeyUser:  string(userJSON),
	}))

	var states []domain.AuthState
	m.Subscribe(func(snap domain.Snapshot) { states = append(states, snap.State) })

	require.NoError(t, m.Init(context.Background()))
	require.NoError(t, m.Init(context.Background()))
	assert.Equal(t, []domain.AuthState{domain.StateAuthenticated}, states, "an unchanged reload is silent")

	// Another process logged out.
	require.NoError(t, s.Delete(context.Background(), domain.KeyToken, domain.KeyUser))
	require.NoError(t, m.Init(context.Background()))
	assert.Equal(t, []domain.AuthState{domain.StateAuthenticated, domain.StateUnauthenticated}, states)
}

func TestManager_UpdateUserRequiresSession(t *testing.T) {
	m, _, _ := newManager(t, grantingAuth())
	require.NoError(t, m.Init(context.Background()))

	name := "Bia"
	_, err := m.UpdateUser(context.Background(), domain.UserPatch{Name: &name})
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
}

func TestManager_PasswordFlows(t *testing.T) {
	var gotEmail string
	var gotUpd domain.PasswordUpdate
	auth := &fakeAuth{
		resetPassword:  func(e string) error { gotEmail = e; return nil },
		updatePassword: func(u domain.PasswordUpdate) error { gotUpd = u; return nil },
	}
	m, _, _ := newManager(t, auth)

	require.NoError(t, m.ResetPassword(context.Background(), " x@y.com "))
	assert.Equal(t, "x@y.com", gotEmail)

	var ve *domain.ValidationError
	assert.True(t, errors.As(m.ResetPassword(context.Background(), "nope"), &ve))

	require.NoError(t, m.UpdatePassword(context.Background(), "reset-tok", "secret1"))
	assert.Equal(t, domain.PasswordUpdate{Token: "reset-tok", NewPassword: "secret1"}, gotUpd)

	assert.Error(t, m.UpdatePassword(context.Background(), "", "secret1"))
}

func TestManager_HandleInvalidationIdempotent(t *testing.T) {
	m, s, b := newManager(t, grantingAuth())
	_, err := m.Login(context.Background(), domain.Credentials{Email: "a@b.com", Password: "secret1"})
	require.NoError(t, err)

	var notified atomic.Int32
	m.Subscribe(func(domain.Snapshot) { notified.Add(1) })

	ev := domain.SessionInvalidated{Method: "GET", Path: "/tenants", StatusCode: 401}
	m.HandleInvalidation(ev)
	m.HandleInvalidation(ev)
	m.HandleInvalidation(ev)

	assert.Equal(t, domain.StateUnauthenticated, m.State())
	assert.Zero(t, s.Len())
	assert.Empty(t, b.get())
	assert.Equal(t, int32(1), notified.Load())
}

func TestManager_TokenExpiry(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("unknown-to-the-client"))
	require.NoError(t, err)

	m, _, _ := newManager(t, grantingAuth())
	_, ok := m.TokenExpiry()
	assert.False(t, ok)

	_, err = m.LoginWithToken(context.Background(), signed, userA)
	require.NoError(t, err)
	got, ok := m.TokenExpiry()
	require.True(t, ok)
	assert.True(t, exp.Equal(got))

	_, err = m.LoginWithToken(context.Background(), "opaque", userA)
	require.NoError(t, err)
	_, ok = m.TokenExpiry()
	assert.False(t, ok)
}

func TestManager_ConcurrentReads(t *testing.T) {
	m, _, _ := newManager(t, grantingAuth())
	require.NoError(t, m.Init(context.Background()))

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i%2 == 0 {
				_, _ = m.Login(context.Background(), domain.Credentials{Email: "a@b.com", Password: "secret1"})
				return
			}
			_ = m.Snapshot()
			m.Logout(context.Background())
		}()
	}
	wg.Wait()

	snap := m.Snapshot()
	assert.Contains(t, []domain.AuthState{domain.StateAuthenticated, domain.StateUnauthenticated}, snap.State)
	if snap.State == domain.StateAuthenticated {
		assert.Equal(t, "T1", snap.Token)
	}
}

// The scenarios below run the manager against a real API client and a stub backend.

type stubBackend struct {
	mu          sync.Mutex
	authHeaders []string
	expireAll   atomic.Bool
}

func (sb *stubBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var c domain.Credentials
		_ = json.NewDecoder(r.Body).Decode(&c)
		w.Header().Set("Content-Type", "application/json")
		if c.Password != "secret1" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"Credenciais inválidas"}`))
			return
		}
		_, _ = w.Write([]byte(`{"token":"T1","user":{"id":1,"name":"A","role":"manager"}}`))
	})
	mux.HandleFunc("GET /tenants", func(w http.ResponseWriter, r *http.Request) {
		sb.mu.Lock()
		sb.authHeaders = append(sb.authHeaders, r.Header.Get("Authorization"))
		sb.mu.Unlock()
		if sb.expireAll.Load() {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	})
	return mux
}

func newIntegration(t *testing.T) (*Manager, *backend.API, *store.MemoryStore, *stubBackend) {
	t.Helper()
	sb := &stubBackend{}
	srv := httptest.NewServer(sb.handler())
	t.Cleanup(srv.Close)

	s := store.NewMemoryStore()
	client, err := apiclient.New(apiclient.Config{BaseURL: srv.URL, Timeout: 5 * time.Second},
		apiclient.WithTokenSource(store.TokenReader{Store: s}))
	require.NoError(t, err)

	api := backend.New(client)
	m := NewManager(api.Auth, s, client)
	t.Cleanup(m.Bind(client))
	require.NoError(t, m.Init(context.Background()))
	return m, api, s, sb
}

func TestIntegration_LoginInstallsBearer(t *testing.T) {
	m, api, s, sb := newIntegration(t)

	_, err := m.Login(context.Background(), domain.Credentials{Email: "a@b.com", Password: "secret1"})
	require.NoError(t, err)
	tok, _ := stored(t, s, domain.KeyToken)
	assert.Equal(t, "T1", tok)

	_, err = api.Tenants.List(context.Background(), "")
	require.NoError(t, err)

	require.Len(t, sb.authHeaders, 1)
	assert.Equal(t, "Bearer T1", sb.authHeaders[0])
}

func TestIntegration_InvalidCredentials(t *testing.T) {
	m, _, s, _ := newIntegration(t)

	_, err := m.Login(context.Background(), domain.Credentials{Email: "a@b.com", Password: "wrong99"})

	var authErr *domain.AuthError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, "Credenciais inválidas", authErr.Message)
	assert.Equal(t, domain.StateUnauthenticated, m.State())
	assert.Zero(t, s.Len())
}

func TestIntegration_MidSessionInvalidation(t *testing.T) {
	m, api, s, sb := newIntegration(t)
	_, err := m.Login(context.Background(), domain.Credentials{Email: "a@b.com", Password: "secret1"})
	require.NoError(t, err)

	sb.expireAll.Store(true)
	for range 3 {
		_, err = api.Tenants.List(context.Background(), "")
		var authErr *domain.AuthError
		require.True(t, errors.As(err, &authErr))
	}

	assert.Equal(t, domain.StateUnauthenticated, m.State())
	assert.Zero(t, s.Len())

	sb.mu.Lock()
	defer sb.mu.Unlock()
	assert.Equal(t, "Bearer T1", sb.authHeaders[0])
	assert.Empty(t, sb.authHeaders[1], "no bearer after the session was invalidated")
}
