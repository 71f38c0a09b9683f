package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Mavton23/rentix/internal/domain"
	"github.com/Mavton23/rentix/internal/navigation"
	"github.com/Mavton23/rentix/internal/output"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and persist the session",
	Long: `Sign in with e-mail and password. The token and user are stored locally and
sent with every following command.

Examples:
  rentixctl login --email ana@rentix.com.br --password-stdin < pass.txt
  rentixctl login --email ana@rentix.com.br --password s3cret --from /payments`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Discard the local session",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and sign in",
	Long: `Create an account, then sign in with the same e-mail and password.

Examples:
  rentixctl register --username ana.souza --email ana@rentix.com.br \
    --phone "(11) 91234-5678" --password s3cret1 --confirm s3cret1`,
	Args: cobra.NoArgs,
	RunE: runRegister,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	Args:  cobra.NoArgs,
	RunE:  runWhoami,
}

func init() {
	rootCmd.AddCommand(loginCmd, logoutCmd, registerCmd, whoamiCmd)

	loginCmd.Flags().String("email", "", "account e-mail")
	loginCmd.Flags().String("password", "", "account password")
	loginCmd.Flags().Bool("password-stdin", false, "read the password from stdin")
	loginCmd.Flags().String("from", "", "console route to continue with after signing in")

	registerCmd.Flags().String("username", "", "username (3-30 letters, digits, . _ -)")
	registerCmd.Flags().String("email", "", "account e-mail")
	registerCmd.Flags().String("phone", "", "phone number; Brazilian numbers may omit +55")
	registerCmd.Flags().String("password", "", "password (at least 6 characters)")
	registerCmd.Flags().String("confirm", "", "password confirmation")
}

func readPassword(cmd *cobra.Command) (string, error) {
	fromStdin, _ := cmd.Flags().GetBool("password-stdin")
	password, _ := cmd.Flags().GetString("password")
	if !fromStdin {
		return password, nil
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func runLogin(cmd *cobra.Command, args []string) error {
	email, _ := cmd.Flags().GetString("email")
	from, _ := cmd.Flags().GetString("from")
	password, err := readPassword(cmd)
	if err != nil {
		return err
	}

	return withApp(cmd.Context(), func(a *app) error {
		user, err := a.session.Login(cmd.Context(), domain.Credentials{Email: email, Password: password})
		if err != nil {
			return err
		}
		if ok, err := emit(user); ok {
			return err
		}
		printer.Success("Signed in as %s (%s)", user.Name, user.Role.Label())

		if from != "" {
			route, ok := navigation.Lookup(from)
			switch {
			case !ok || !route.Protected:
			case !route.Allows(user.Role):
				printer.Warning("%s is not available to %s", route.Title, user.Role.Label())
			default:
				if next, ok := routeCommands[route.Path]; ok {
					printer.Info("Continue with: %s", next)
				}
			}
		}
		printer.PrintHints("login")
		return nil
	})
}

func runLogout(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		was, ok := a.session.CurrentUser()
		a.session.Logout(cmd.Context())
		if !ok {
			printer.Info("No active session")
			return nil
		}
		printer.Success("Signed out %s", was.Email)
		printer.PrintHints("logout")
		return nil
	})
}

func runRegister(cmd *cobra.Command, args []string) error {
	reg := domain.Registration{}
	reg.Username, _ = cmd.Flags().GetString("username")
	reg.Email, _ = cmd.Flags().GetString("email")
	reg.Phone, _ = cmd.Flags().GetString("phone")
	reg.Password, _ = cmd.Flags().GetString("password")
	reg.ConfPass, _ = cmd.Flags().GetString("confirm")

	return withApp(cmd.Context(), func(a *app) error {
		user, err := a.session.Register(cmd.Context(), reg)
		if err != nil {
			return err
		}
		if ok, err := emit(user); ok {
			return err
		}
		printer.Success("Account created; signed in as %s", user.Email)
		printer.PrintHints("register")
		return nil
	})
}

type whoami struct {
	State     string                `json:"state"`
	User      *domain.User          `json:"user,omitempty"`
	ExpiresAt *time.Time            `json:"expiresAt,omitempty"`
	Menu      []navigation.MenuItem `json:"menu"`
}

func runWhoami(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		snap := a.session.Snapshot()
		info := whoami{State: snap.State.String(), Menu: []navigation.MenuItem{}}
		if snap.Authenticated() {
			info.User = snap.User
			info.Menu = navigation.For(snap.User.Role)
			if exp, ok := a.session.TokenExpiry(); ok {
				info.ExpiresAt = &exp
			}
		}
		if ok, err := emit(info); ok {
			return err
		}
		if info.User == nil {
			return loginRequired(domain.Redirect{}, domain.ErrNotAuthenticated)
		}

		u := info.User
		printer.Header("Session")
		table := printer.NewTable("FIELD", "VALUE")
		table.AddRow("name", printer.Bold(u.Name))
		table.AddRow("email", u.Email)
		table.AddRow("role", u.Role.Label())
		if u.Status != "" {
			table.AddRow("status", printer.StatusBadge(string(u.Status)))
		}
		if info.ExpiresAt != nil {
			table.AddRow("expires", info.ExpiresAt.Local().Format(time.DateTime))
		}
		if err := table.Render(); err != nil {
			return err
		}

		titles := make([]string, len(info.Menu))
		for i, m := range info.Menu {
			titles[i] = m.Title
		}
		printer.Print("")
		printer.Info("Menu: %s", strings.Join(titles, ", "))
		printer.PrintHints("whoami")
		return nil
	})
}

// requireArg reports a usage error for a missing flag value.
func requireArg(name, value string) error {
	if strings.TrimSpace(value) != "" {
		return nil
	}
	return &output.CLIError{
		Summary:  fmt.Sprintf("--%s is required", name),
		ExitCode: output.ExitUsageError,
	}
}
