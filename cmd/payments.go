package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Mavton23/rentix/internal/backend"
	"github.com/Mavton23/rentix/internal/domain"
	"github.com/Mavton23/rentix/internal/navigation"
	"github.com/Mavton23/rentix/internal/output"
)

const dateLayout = "2006-01-02"

var paymentsCmd = &cobra.Command{
	Use:   "payments",
	Short: "Browse rent payments",
}

var paymentsListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List payments with filters and pagination",
	Long: `List payments. Filters are applied locally and combine with AND.

Examples:
  rentixctl payments list --status atrasado
  rentixctl payments list --tenant 7 --from 2025-01-01 --to 2025-03-31
  rentixctl payments list --page 2 --size 20`,
	Args: cobra.NoArgs,
	RunE: runPaymentsList,
}

func init() {
	rootCmd.AddCommand(paymentsCmd)
	paymentsCmd.AddCommand(paymentsListCmd)

	f := paymentsListCmd.Flags()
	f.String("status", "", "pago, pendente or atrasado")
	f.Int64("tenant", 0, "tenant ID")
	f.Int64("property", 0, "property ID")
	f.String("from", "", "earliest due date (YYYY-MM-DD)")
	f.String("to", "", "latest due date (YYYY-MM-DD)")
	f.String("search", "", "match tenant name or payment method")
	f.Int("page", 1, "page number")
	f.Int("size", 10, "page size")
}

func paymentFilter(cmd *cobra.Command) (backend.PaymentFilter, error) {
	var f backend.PaymentFilter
	status, _ := cmd.Flags().GetString("status")
	switch s := domain.PaymentStatus(status); s {
	case "", domain.PaymentPaid, domain.PaymentPending, domain.PaymentLate:
		f.Status = s
	default:
		return f, &output.CLIError{
			Summary:  fmt.Sprintf("invalid status %q", status),
			Detail:   "use pago, pendente or atrasado",
			ExitCode: output.ExitUsageError,
		}
	}
	f.TenantID, _ = cmd.Flags().GetInt64("tenant")
	f.PropertyID, _ = cmd.Flags().GetInt64("property")
	f.Query, _ = cmd.Flags().GetString("search")

	for flag, dst := range map[string]*time.Time{"from": &f.DueFrom, "to": &f.DueTo} {
		raw, _ := cmd.Flags().GetString(flag)
		if raw == "" {
			continue
		}
		t, err := time.Parse(dateLayout, raw)
		if err != nil {
			return f, &output.CLIError{
				Summary:  fmt.Sprintf("invalid --%s date %q", flag, raw),
				Detail:   "use YYYY-MM-DD",
				ExitCode: output.ExitUsageError,
				Err:      err,
			}
		}
		*dst = t
	}
	if !f.DueTo.IsZero() {
		// inclusive of the whole last day
		f.DueTo = f.DueTo.Add(24*time.Hour - time.Nanosecond)
	}
	return f, nil
}

type paymentsPage struct {
	Items  []domain.Payment  `json:"items"`
	Page   int               `json:"page"`
	Size   int               `json:"size"`
	Total  int               `json:"total"`
	Pages  int               `json:"pages"`
	Totals map[string]string `json:"totals"`
}

func runPaymentsList(cmd *cobra.Command, args []string) error {
	filter, err := paymentFilter(cmd)
	if err != nil {
		return err
	}
	number, _ := cmd.Flags().GetInt("page")
	size, _ := cmd.Flags().GetInt("size")

	return withApp(cmd.Context(), func(a *app) error {
		if _, err := a.enter(navigation.PathPayments); err != nil {
			return err
		}
		all, err := a.api.Payments.List(cmd.Context())
		if err != nil {
			return err
		}
		matched := backend.FilterPayments(all, filter)
		page := backend.Paginate(matched, number, size)
		totals := backend.PaymentTotals(matched)

		out := paymentsPage{
			Items:  page.Items,
			Page:   page.Number,
			Size:   page.Size,
			Total:  page.Total,
			Pages:  page.Pages,
			Totals: make(map[string]string, len(totals)),
		}
		for status, amount := range totals {
			out.Totals[string(status)] = amount.StringFixed(2)
		}
		if ok, err := emit(out); ok {
			return err
		}

		printer.Header("Payments")
		table := printer.NewTable("ID", "TENANT", "AMOUNT", "DUE", "STATUS")
		for _, p := range page.Items {
			table.AddRow(fmt.Sprint(p.ID), p.TenantName, backend.FormatBRL(p.Amount), p.DueDate.Format("02/01/2006"), printer.StatusBadge(string(p.Status)))
		}
		if err := table.Render(); err != nil {
			return err
		}
		printer.Info("Page %d of %d (%d payments)", page.Number, page.Pages, page.Total)
		for _, s := range []domain.PaymentStatus{domain.PaymentPaid, domain.PaymentPending, domain.PaymentLate} {
			if amount, ok := totals[s]; ok {
				printer.Print("  %s %s", printer.StatusBadge(string(s)), backend.FormatBRL(amount))
			}
		}
		if page.HasNext() {
			printer.Info("Next: rentixctl payments list --page %d", page.Number+1)
		}
		printer.PrintHints("payments list")
		return nil
	})
}
