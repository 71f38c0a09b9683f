package output

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mavton23/rentix/internal/domain"
)

func plainPrinter(opts PrinterOptions) (*Printer, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	opts.ColorMode = ColorNever
	opts.Out = &out
	opts.Err = &errOut
	return NewPrinter(opts), &out, &errOut
}

func TestParseColorMode(t *testing.T) {
	for in, want := range map[string]ColorMode{"auto": ColorAuto, "always": ColorAlways, "never": ColorNever, "": ColorAuto} {
		got, err := ParseColorMode(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseColorMode("rainbow")
	assert.Error(t, err)
}

func TestResolveColors(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	assert.True(t, ResolveColors(ColorAlways, false))
	assert.False(t, ResolveColors(ColorAuto, true))

	os.Unsetenv("NO_COLOR")
	t.Setenv("TERM", "dumb")
	assert.False(t, ResolveColors(ColorAuto, true))

	t.Setenv("TERM", "xterm-256color")
	assert.True(t, ResolveColors(ColorAuto, true))
	assert.False(t, ResolveColors(ColorNever, true))
}

func TestPrinter_Quiet(t *testing.T) {
	p, out, errOut := plainPrinter(PrinterOptions{Quiet: true})

	p.Info("hello")
	p.Success("done")
	p.Warning("careful")
	p.Error("broken")

	assert.Empty(t, out.String())
	assert.Equal(t, "[ERROR] broken\n", errOut.String(), "errors print even when quiet")
}

func TestPrinter_PlainOutput(t *testing.T) {
	p, out, _ := plainPrinter(PrinterOptions{})

	p.Success("logged in as %s", "a@b.com")
	p.Header("Pagamentos")

	assert.Contains(t, out.String(), "[OK] logged in as a@b.com")
	assert.Contains(t, out.String(), "Pagamentos\n----------")
	assert.Equal(t, "[pago]", p.StatusBadge("pago"))
}

func TestPrinter_JSON(t *testing.T) {
	p, out, _ := plainPrinter(PrinterOptions{JSON: true, Quiet: true})

	require.NoError(t, p.JSON(map[string]int{"total": 2}))
	assert.JSONEq(t, `{"total":2}`, out.String())
}

func TestTable_Render(t *testing.T) {
	p, out, _ := plainPrinter(PrinterOptions{})
	tbl := p.NewTable("ID", "Nome")
	tbl.AddRow("1", "Ana")
	tbl.AddRow("2", "Bruno")

	require.NoError(t, tbl.Render())
	assert.Equal(t, 2, tbl.Len())
	assert.Contains(t, out.String(), "Ana")
	assert.Contains(t, out.String(), "Bruno")
}

func TestPrintHints(t *testing.T) {
	p, out, _ := plainPrinter(PrinterOptions{})
	p.PrintHints("login")
	assert.Contains(t, out.String(), "rentixctl whoami")

	p, out, _ = plainPrinter(PrinterOptions{JSON: true})
	p.PrintHints("login")
	assert.Empty(t, out.String())
}

func TestFromError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		contains string
	}{
		{"missing url", fmt.Errorf("config: %w", domain.ErrMissingBaseURL), ExitConfigError, "not configured"},
		{"no session", domain.ErrNotAuthenticated, ExitAuthRequired, "not logged in"},
		{"forced logout", &domain.AuthError{StatusCode: 401, Forced: true}, ExitAuthRequired, "session expired"},
		{"bad credentials", &domain.AuthError{StatusCode: 401, Message: "Credenciais inválidas"}, ExitAuthRequired, "Credenciais inválidas"},
		{"validation", &domain.ValidationError{StatusCode: 422, Message: "dados inválidos"}, ExitUsageError, "dados inválidos"},
		{"timeout", &domain.NetworkError{Method: "GET", Path: "/", Timeout: true}, ExitTimeout, "indisponível"},
		{"offline", &domain.NetworkError{Method: "GET", Path: "/", Err: errors.New("refused")}, ExitAPIError, "indisponível"},
		{"server", fmt.Errorf("listing: %w", &domain.ServerError{StatusCode: 500}), ExitAPIError, "server error"},
		{"other", errors.New("boom"), ExitGeneral, "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromError(tt.err)
			require.NotNil(t, got)
			assert.Equal(t, tt.wantCode, got.ExitCode)
			assert.Contains(t, got.Summary, tt.contains)
			assert.True(t, errors.Is(got, tt.err) || got.Err == tt.err)
		})
	}

	assert.Nil(t, FromError(nil))
	own := &CLIError{Summary: "x", ExitCode: ExitUsageError}
	assert.Same(t, own, FromError(fmt.Errorf("wrapped: %w", own)))
}

func TestFormatError(t *testing.T) {
	p, _, errOut := plainPrinter(PrinterOptions{})
	p.FormatError(&CLIError{
		Summary:    "session expired",
		Detail:     "token revoked",
		Suggestion: "Run 'rentixctl login' to sign in again",
	})

	lines := strings.Split(strings.TrimSpace(errOut.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "[ERROR] session expired", lines[0])
	assert.Equal(t, "  Cause: token revoked", lines[1])
}
