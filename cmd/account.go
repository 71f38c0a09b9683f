package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Mavton23/rentix/internal/domain"
	"github.com/Mavton23/rentix/internal/navigation"
	"github.com/Mavton23/rentix/internal/output"
)

var passwordCmd = &cobra.Command{
	Use:   "password",
	Short: "Reset or change the account password",
}

var passwordResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Request a password reset e-mail",
	Args:  cobra.NoArgs,
	RunE:  runPasswordReset,
}

var passwordUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Set a new password with the token from the reset e-mail",
	Args:  cobra.NoArgs,
	RunE:  runPasswordUpdate,
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage the signed-in user's profile",
}

var profileUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Change name or e-mail",
	Long: `Change the profile fields given as flags. Omitted fields are left untouched.

Examples:
  rentixctl profile update --name "Ana Souza"`,
	Args: cobra.NoArgs,
	RunE: runProfileUpdate,
}

var profileAvatarCmd = &cobra.Command{
	Use:   "avatar <image>",
	Short: "Upload a new avatar image",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileAvatar,
}

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Administer user accounts",
}

var usersListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List user accounts (administrators only)",
	Args:    cobra.NoArgs,
	RunE:    runUsersList,
}

func init() {
	rootCmd.AddCommand(passwordCmd, profileCmd, usersCmd)
	passwordCmd.AddCommand(passwordResetCmd, passwordUpdateCmd)
	profileCmd.AddCommand(profileUpdateCmd, profileAvatarCmd)
	usersCmd.AddCommand(usersListCmd)

	passwordResetCmd.Flags().String("email", "", "account e-mail")
	passwordUpdateCmd.Flags().String("token", "", "reset token")
	passwordUpdateCmd.Flags().String("password", "", "new password (at least 6 characters)")

	profileUpdateCmd.Flags().String("name", "", "display name")
	profileUpdateCmd.Flags().String("email", "", "e-mail")
}

func runPasswordReset(cmd *cobra.Command, args []string) error {
	email, _ := cmd.Flags().GetString("email")
	if err := requireArg("email", email); err != nil {
		return err
	}
	return withApp(cmd.Context(), func(a *app) error {
		if err := a.session.ResetPassword(cmd.Context(), email); err != nil {
			return err
		}
		printer.Success("Reset instructions sent to %s", email)
		printer.PrintHints("password reset")
		return nil
	})
}

func runPasswordUpdate(cmd *cobra.Command, args []string) error {
	token, _ := cmd.Flags().GetString("token")
	password, _ := cmd.Flags().GetString("password")
	if err := requireArg("token", token); err != nil {
		return err
	}
	return withApp(cmd.Context(), func(a *app) error {
		if err := a.session.UpdatePassword(cmd.Context(), token, password); err != nil {
			return err
		}
		printer.Success("Password updated")
		printer.PrintHints("password update")
		return nil
	})
}

func runProfileUpdate(cmd *cobra.Command, args []string) error {
	var patch domain.UserPatch
	if cmd.Flags().Changed("name") {
		v, _ := cmd.Flags().GetString("name")
		patch.Name = &v
	}
	if cmd.Flags().Changed("email") {
		v, _ := cmd.Flags().GetString("email")
		patch.Email = &v
	}
	if patch.Name == nil && patch.Email == nil {
		return &output.CLIError{
			Summary:  "nothing to update",
			Detail:   "pass --name or --email",
			ExitCode: output.ExitUsageError,
		}
	}

	return withApp(cmd.Context(), func(a *app) error {
		if _, err := a.enter(navigation.PathDashboard); err != nil {
			return err
		}
		if err := a.session.ValidatePatch(patch); err != nil {
			return err
		}
		stored, err := a.api.Profile.Update(cmd.Context(), patch)
		if err != nil {
			return err
		}
		user, err := a.session.UpdateUser(cmd.Context(), patch.Confirm(stored))
		if err != nil {
			return err
		}
		if ok, err := emit(user); ok {
			return err
		}
		printer.Success("Profile updated: %s <%s>", user.Name, user.Email)
		return nil
	})
}

func runProfileAvatar(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return &output.CLIError{Summary: "cannot read image", Detail: err.Error(), ExitCode: output.ExitUsageError, Err: err}
	}
	defer f.Close()

	return withApp(cmd.Context(), func(a *app) error {
		if _, err := a.enter(navigation.PathDashboard); err != nil {
			return err
		}
		url, err := a.api.Profile.UploadAvatar(cmd.Context(), filepath.Base(args[0]), f)
		if err != nil {
			return err
		}
		user, err := a.session.UpdateAvatar(cmd.Context(), url)
		if err != nil {
			return err
		}
		if ok, err := emit(user); ok {
			return err
		}
		printer.Success("Avatar updated: %s", user.AvatarURL)
		return nil
	})
}

func runUsersList(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		if _, err := a.enter(navigation.PathUsers); err != nil {
			return err
		}
		users, err := a.api.Users.List(cmd.Context())
		if err != nil {
			return err
		}
		if ok, err := emit(users); ok {
			return err
		}

		printer.Header("Users")
		table := printer.NewTable("ID", "NAME", "EMAIL", "ROLE", "STATUS")
		for _, u := range users {
			table.AddRow(fmt.Sprint(u.ID), u.Name, u.Email, u.Role.Label(), printer.StatusBadge(string(u.Status)))
		}
		return table.Render()
	})
}
