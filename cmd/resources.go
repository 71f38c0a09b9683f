package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Mavton23/rentix/internal/backend"
	"github.com/Mavton23/rentix/internal/domain"
	"github.com/Mavton23/rentix/internal/navigation"
	"github.com/Mavton23/rentix/internal/output"
	"github.com/Mavton23/rentix/internal/validation"
)

var tenantsCmd = &cobra.Command{
	Use:   "tenants",
	Short: "Browse and register tenants",
}

var tenantsListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List tenants",
	Long: `List tenants, optionally filtered by a search term.

Examples:
  rentixctl tenants list
  rentixctl tenants list --search souza --json`,
	Args: cobra.NoArgs,
	RunE: runTenantsList,
}

var tenantsGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one tenant",
	Args:  cobra.ExactArgs(1),
	RunE:  runTenantsGet,
}

var tenantsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Register a tenant",
	Args:  cobra.NoArgs,
	RunE:  runTenantsCreate,
}

var propertiesCmd = &cobra.Command{
	Use:   "properties",
	Short: "Browse properties",
}

var propertiesListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List properties",
	Args:    cobra.NoArgs,
	RunE:    runPropertiesList,
}

var propertiesGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one property",
	Args:  cobra.ExactArgs(1),
	RunE:  runPropertiesGet,
}

var notificationsCmd = &cobra.Command{
	Use:   "notifications",
	Short: "Read notifications",
}

var notificationsListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List notifications",
	Args:    cobra.NoArgs,
	RunE:    runNotificationsList,
}

var notificationsReadCmd = &cobra.Command{
	Use:   "read <id>",
	Short: "Mark a notification as read",
	Args:  cobra.ExactArgs(1),
	RunE:  runNotificationsRead,
}

func init() {
	rootCmd.AddCommand(tenantsCmd, propertiesCmd, notificationsCmd)
	tenantsCmd.AddCommand(tenantsListCmd, tenantsGetCmd, tenantsCreateCmd)
	propertiesCmd.AddCommand(propertiesListCmd, propertiesGetCmd)
	notificationsCmd.AddCommand(notificationsListCmd, notificationsReadCmd)

	tenantsListCmd.Flags().String("search", "", "filter by name, e-mail or document")
	tenantsCreateCmd.Flags().String("name", "", "tenant name")
	tenantsCreateCmd.Flags().String("email", "", "tenant e-mail")
	tenantsCreateCmd.Flags().String("phone", "", "tenant phone")
	tenantsCreateCmd.Flags().String("document", "", "CPF or CNPJ")
	tenantsCreateCmd.Flags().Int64("property", 0, "leased property ID")

	propertiesListCmd.Flags().String("status", "", "filter by status: disponivel, ocupado, manutencao")

	notificationsListCmd.Flags().Bool("unread", false, "only unread notifications")
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, &output.CLIError{
			Summary:  fmt.Sprintf("invalid id %q", arg),
			Detail:   "ids are positive integers",
			ExitCode: output.ExitUsageError,
		}
	}
	return id, nil
}

func runTenantsList(cmd *cobra.Command, args []string) error {
	search, _ := cmd.Flags().GetString("search")
	return withApp(cmd.Context(), func(a *app) error {
		if _, err := a.enter(navigation.PathTenants); err != nil {
			return err
		}
		tenants, err := a.api.Tenants.List(cmd.Context(), search)
		if err != nil {
			return err
		}
		if ok, err := emit(tenants); ok {
			return err
		}

		printer.Header("Tenants")
		table := printer.NewTable("ID", "NAME", "EMAIL", "PHONE", "STATUS")
		for _, t := range tenants {
			table.AddRow(fmt.Sprint(t.ID), t.Name, t.Email, validation.FormatPhone(t.Phone), t.Status)
		}
		if err := table.Render(); err != nil {
			return err
		}
		printer.Info("%d tenant(s)", len(tenants))
		printer.PrintHints("tenants list")
		return nil
	})
}

func runTenantsGet(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return withApp(cmd.Context(), func(a *app) error {
		if _, err := a.enter(navigation.PathTenants); err != nil {
			return err
		}
		t, err := a.api.Tenants.Get(cmd.Context(), id)
		if err != nil {
			return err
		}
		if ok, err := emit(t); ok {
			return err
		}
		printer.Header(t.Name)
		table := printer.NewTable("FIELD", "VALUE")
		table.AddRow("id", fmt.Sprint(t.ID))
		table.AddRow("email", t.Email)
		table.AddRow("phone", validation.FormatPhone(t.Phone))
		table.AddRow("document", t.Document)
		table.AddRow("property", fmt.Sprint(t.PropertyID))
		table.AddRow("status", t.Status)
		return table.Render()
	})
}

func runTenantsCreate(cmd *cobra.Command, args []string) error {
	var t domain.Tenant
	t.Name, _ = cmd.Flags().GetString("name")
	t.Email, _ = cmd.Flags().GetString("email")
	t.Phone, _ = cmd.Flags().GetString("phone")
	t.Document, _ = cmd.Flags().GetString("document")
	t.PropertyID, _ = cmd.Flags().GetInt64("property")
	if phone, ok := validation.NormalizePhone(t.Phone); ok {
		t.Phone = phone
	}
	if err := validation.New().Struct(t); err != nil {
		return err
	}

	return withApp(cmd.Context(), func(a *app) error {
		if _, err := a.enter(navigation.PathTenants); err != nil {
			return err
		}
		created, err := a.api.Tenants.Create(cmd.Context(), t)
		if err != nil {
			return err
		}
		if ok, err := emit(created); ok {
			return err
		}
		printer.Success("Tenant %d registered: %s", created.ID, created.Name)
		return nil
	})
}

func runPropertiesList(cmd *cobra.Command, args []string) error {
	status, _ := cmd.Flags().GetString("status")
	return withApp(cmd.Context(), func(a *app) error {
		if _, err := a.enter(navigation.PathProperties); err != nil {
			return err
		}
		props, err := a.api.Properties.List(cmd.Context(), domain.PropertyStatus(status))
		if err != nil {
			return err
		}
		if ok, err := emit(props); ok {
			return err
		}

		printer.Header("Properties")
		table := printer.NewTable("ID", "TITLE", "CITY", "RENT", "STATUS")
		for _, p := range props {
			table.AddRow(fmt.Sprint(p.ID), p.Title, p.City+"/"+p.State, backend.FormatBRL(p.RentAmount), printer.StatusBadge(string(p.Status)))
		}
		if err := table.Render(); err != nil {
			return err
		}
		printer.PrintHints("properties list")
		return nil
	})
}

func runPropertiesGet(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return withApp(cmd.Context(), func(a *app) error {
		if _, err := a.enter(navigation.PathProperties); err != nil {
			return err
		}
		p, err := a.api.Properties.Get(cmd.Context(), id)
		if err != nil {
			return err
		}
		if ok, err := emit(p); ok {
			return err
		}
		printer.Header(p.Title)
		table := printer.NewTable("FIELD", "VALUE")
		table.AddRow("id", fmt.Sprint(p.ID))
		table.AddRow("address", p.Address)
		table.AddRow("city", p.City+"/"+p.State)
		table.AddRow("rent", backend.FormatBRL(p.RentAmount))
		table.AddRow("status", printer.StatusBadge(string(p.Status)))
		return table.Render()
	})
}

func runNotificationsList(cmd *cobra.Command, args []string) error {
	unreadOnly, _ := cmd.Flags().GetBool("unread")
	return withApp(cmd.Context(), func(a *app) error {
		if _, err := a.enter(navigation.PathNotifications); err != nil {
			return err
		}
		notes, err := a.api.Notifications.List(cmd.Context())
		if err != nil {
			return err
		}
		if unreadOnly {
			kept := notes[:0]
			for _, n := range notes {
				if !n.Read {
					kept = append(kept, n)
				}
			}
			notes = kept
		}
		if ok, err := emit(notes); ok {
			return err
		}

		printer.Header("Notifications")
		table := printer.NewTable("ID", "", "TITLE", "DATE")
		for _, n := range notes {
			mark := ""
			if !n.Read {
				mark = printer.Bold("•")
			}
			table.AddRow(fmt.Sprint(n.ID), mark, n.Title, n.CreatedAt.Format("02/01/2006"))
		}
		if err := table.Render(); err != nil {
			return err
		}
		printer.Info("%d unread", backend.Unread(notes))
		printer.PrintHints("notifications list")
		return nil
	})
}

func runNotificationsRead(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return withApp(cmd.Context(), func(a *app) error {
		if _, err := a.enter(navigation.PathNotifications); err != nil {
			return err
		}
		if err := a.api.Notifications.MarkRead(cmd.Context(), id); err != nil {
			return err
		}
		printer.Success("Notification %d marked as read", id)
		return nil
	})
}
