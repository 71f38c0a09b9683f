package output

import (
	"errors"
	"fmt"

	"github.com/fatih/color"

	"github.com/Mavton23/rentix/internal/domain"
)

// Exit code constants
const (
	ExitSuccess      = 0
	ExitGeneral      = 1
	ExitUsageError   = 2
	ExitAPIError     = 3
	ExitConfigError  = 4
	ExitTimeout      = 5
	ExitAuthRequired = 6
)

// CLIError is a structured error with user-facing context
type CLIError struct {
	Summary    string
	Detail     string
	Suggestion string
	ExitCode   int
	Err        error
}

// Error implements the error interface, returning the summary
func (e *CLIError) Error() string {
	return e.Summary
}

func (e *CLIError) Unwrap() error {
	return e.Err
}

// FromError maps client errors onto CLIErrors. A *CLIError passes through unchanged.
func FromError(err error) *CLIError {
	if err == nil {
		return nil
	}

	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return cliErr
	}

	var (
		authErr *domain.AuthError
		valErr  *domain.ValidationError
		srvErr  *domain.ServerError
		netErr  *domain.NetworkError
	)
	switch {
	case errors.Is(err, domain.ErrMissingBaseURL):
		return &CLIError{
			Summary:    "API base URL not configured",
			Suggestion: "Set RENTIX_API_URL or api.url in .rentix.yaml",
			ExitCode:   ExitConfigError,
			Err:        err,
		}
	case errors.Is(err, domain.ErrNotAuthenticated):
		return &CLIError{
			Summary:    "not logged in",
			Suggestion: "Run 'rentixctl login'",
			ExitCode:   ExitAuthRequired,
			Err:        err,
		}
	case errors.As(err, &authErr):
		e := &CLIError{Summary: authErr.Error(), Detail: fieldDetail(authErr.Fields), ExitCode: ExitAuthRequired, Err: err}
		if authErr.Forced {
			e.Summary = "session expired"
			e.Detail = authErr.Message
			e.Suggestion = "Run 'rentixctl login' to sign in again"
		}
		return e
	case errors.As(err, &valErr):
		return &CLIError{
			Summary:  valErr.Error(),
			Detail:   fieldDetail(valErr.Fields),
			ExitCode: ExitUsageError,
			Err:      err,
		}
	case errors.As(err, &netErr):
		e := &CLIError{
			Summary:    "servidor indisponível",
			Detail:     netErr.Error(),
			Suggestion: "Check your connection and the configured API URL",
			ExitCode:   ExitAPIError,
			Err:        err,
		}
		if netErr.Timeout {
			e.ExitCode = ExitTimeout
			e.Suggestion = "Retry, or raise api.timeout"
		}
		return e
	case errors.As(err, &srvErr):
		return &CLIError{
			Summary:  srvErr.Error(),
			Detail:   fmt.Sprintf("status %d", srvErr.StatusCode),
			ExitCode: ExitAPIError,
			Err:      err,
		}
	default:
		return &CLIError{Summary: err.Error(), ExitCode: ExitGeneral, Err: err}
	}
}

func fieldDetail(fields []domain.FieldError) string {
	if len(fields) == 0 {
		return ""
	}
	return (&domain.ValidationError{Fields: fields}).Error()
}

// FormatError prints a structured error message to stderr
func (p *Printer) FormatError(e *CLIError) {
	if p.useColors {
		color.New(color.FgRed, color.Bold).Fprintf(p.err, "Error: %s\n", e.Summary)
		if e.Detail != "" && e.Detail != e.Summary {
			fmt.Fprintf(p.err, "  Cause: %s\n", e.Detail)
		}
		if e.Suggestion != "" {
			color.New(color.FgCyan).Fprintf(p.err, "  Suggestion: %s\n", e.Suggestion)
		}
	} else {
		fmt.Fprintf(p.err, "[ERROR] %s\n", e.Summary)
		if e.Detail != "" && e.Detail != e.Summary {
			fmt.Fprintf(p.err, "  Cause: %s\n", e.Detail)
		}
		if e.Suggestion != "" {
			fmt.Fprintf(p.err, "  Suggestion: %s\n", e.Suggestion)
		}
	}
}
