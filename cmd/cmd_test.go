package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/Mavton23/rentix/internal/domain"
)

type backendStub struct {
	token   string
	expired atomic.Bool
	avatar  atomic.Value
	patches atomic.Int32
}

func (b *backendStub) authorized(w http.ResponseWriter, r *http.Request) bool {
	if b.expired.Load() || r.Header.Get("Authorization") != "Bearer "+b.token {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"token expirado"}`))
		return false
	}
	return true
}

func (b *backendStub) handler() http.Handler {
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
		role := "manager"
		if strings.HasPrefix(c.Email, "sup") {
			role = "supervisor"
		}
		_, _ = fmt.Fprintf(w, `{"token":%q,"user":{"id":1,"name":"Ana","email":%q,"role":%q,"status":"ativo"}}`, b.token, c.Email, role)
	})
	mux.HandleFunc("POST /auth/register", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{}`))
	})
	mux.HandleFunc("GET /tenants", func(w http.ResponseWriter, r *http.Request) {
		if b.authorized(w, r) {
			_, _ = w.Write([]byte(`{"data":[{"id":7,"name":"Carlos Souza","email":"c@x.com","phone":"11912345678"}]}`))
		}
	})
	mux.HandleFunc("GET /payments", func(w http.ResponseWriter, r *http.Request) {
		if !b.authorized(w, r) {
			return
		}
		items := make([]string, 0, 12)
		for i := 1; i <= 12; i++ {
			status := "pendente"
			if i%3 == 0 {
				status = "pago"
			}
			items = append(items, fmt.Sprintf(`{"id":%d,"tenantId":%d,"tenantName":"T%d","amount":"150.5","dueDate":"2025-01-%02dT00:00:00Z","status":%q}`, i, i%2+1, i, i, status))
		}
		_, _ = w.Write([]byte("[" + strings.Join(items, ",") + "]"))
	})
	mux.HandleFunc("GET /dashboard/summary", func(w http.ResponseWriter, r *http.Request) {
		if b.authorized(w, r) {
			_, _ = w.Write([]byte(`{"totalProperties":4,"occupiedProperties":3,"totalTenants":3,"pendingPayments":2,"revenue":[{"month":"2025-02","amount":"500"},{"month":"2025-01","amount":"1000"}]}`))
		}
	})
	mux.HandleFunc("GET /notifications", func(w http.ResponseWriter, r *http.Request) {
		if b.authorized(w, r) {
			_, _ = w.Write([]byte(`[{"id":3,"title":"Aluguel","read":false},{"id":4,"title":"Contrato","read":true}]`))
		}
	})
	mux.HandleFunc("PATCH /users/me", func(w http.ResponseWriter, r *http.Request) {
		if !b.authorized(w, r) {
			return
		}
		b.patches.Add(1)
		var patch domain.UserPatch
		_ = json.NewDecoder(r.Body).Decode(&patch)
		user := domain.User{ID: 1, Name: "Ana", Email: "ana@x.com", Role: domain.RoleManager}
		if patch.Name != nil {
			user.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Email != nil {
			user.Email = strings.ToLower(*patch.Email)
		}
		_ = json.NewEncoder(w).Encode(user)
	})
	mux.HandleFunc("POST /users/avatar", func(w http.ResponseWriter, r *http.Request) {
		if !b.authorized(w, r) {
			return
		}
		f, hdr, err := r.FormFile("avatar")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = io.Copy(io.Discard, f)
		url := "https://cdn.rentix.test/avatars/" + hdr.Filename
		b.avatar.Store(url)
		_, _ = fmt.Fprintf(w, `{"url":%q}`, url)
	})
	return mux
}

// setupCLI points the CLI at a stub backend with a file store in a temp dir.
func setupCLI(t *testing.T) *backendStub {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	t.Setenv("NO_COLOR", "1")
	t.Setenv("API_URL", "")

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "1",
		ExpiresAt: jwt.NewNumericDate(time.Date(2031, 1, 2, 12, 0, 0, 0, time.UTC)),
	}).SignedString([]byte("test"))
	require.NoError(t, err)

	stub := &backendStub{token: token}
	srv := httptest.NewServer(stub.handler())
	t.Cleanup(srv.Close)

	t.Setenv("RENTIX_API_URL", srv.URL)
	t.Setenv("RENTIX_STORAGE_DRIVER", "file")
	t.Setenv("RENTIX_STORAGE_PATH", filepath.Join(dir, "session.json"))
	return stub
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

type result struct {
	out    string
	errOut string
	err    error
}

func execute(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	resetFlags(rootCmd)
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return result{out: out.String(), errOut: errOut.String(), err: err}
}

func login(t *testing.T, email string) {
	t.Helper()
	res := execute(t, "", "login", "--email", email, "--password", "secret1")
	require.NoError(t, res.err, res.errOut)
}
