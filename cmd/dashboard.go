package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Mavton23/rentix/internal/backend"
	"github.com/Mavton23/rentix/internal/domain"
	"github.com/Mavton23/rentix/internal/loader"
	"github.com/Mavton23/rentix/internal/navigation"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show portfolio totals and the revenue chart",
	Long: `Show occupancy, tenant and payment totals, the monthly revenue chart and the
unread notification count.

Examples:
  rentixctl dashboard
  rentixctl dashboard --watch 30s   # refresh until interrupted`,
	Args: cobra.NoArgs,
	RunE: runDashboard,
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
	dashboardCmd.Flags().Duration("watch", 0, "refresh interval; 0 shows the dashboard once")
}

type dashboardView struct {
	Summary domain.DashboardSummary `json:"summary"`
	Chart   []backend.ChartPoint    `json:"chart"`
	Unread  int                     `json:"unread"`
	// Partial lists widgets that failed to load.
	Partial []string `json:"partial,omitempty"`
}

// fetchDashboard loads both widgets in parallel. Only a failed summary fails the view.
func fetchDashboard(api *backend.API) loader.FetchFunc[dashboardView] {
	return func(ctx context.Context) (dashboardView, error) {
		var v dashboardView
		var notes []domain.Notification
		results := loader.Settle(ctx, 0,
			loader.Into(&v.Summary, api.Dashboard.Summary),
			loader.Into(&notes, api.Notifications.List),
		)
		if results[0] != nil {
			return v, results.Err()
		}
		if err := results[1]; err != nil {
			var authErr *domain.AuthError
			if errors.As(err, &authErr) {
				return v, err
			}
			v.Partial = append(v.Partial, "notifications")
		}
		v.Chart = backend.RevenueChart(v.Summary.Revenue)
		v.Unread = backend.Unread(notes)
		return v, nil
	}
}

func runDashboard(cmd *cobra.Command, args []string) error {
	every, _ := cmd.Flags().GetDuration("watch")
	ctx := cmd.Context()

	return withApp(ctx, func(a *app) error {
		if _, err := a.enter(navigation.PathDashboard); err != nil {
			return err
		}
		l := loader.New(fetchDashboard(a.api))
		if every <= 0 {
			res, err := l.Load(ctx)
			if err != nil {
				return err
			}
			return renderDashboard(res.Data)
		}

		ticker := time.NewTicker(every)
		defer ticker.Stop()
		defer l.Discard()
		shown := false
		for {
			res, err := l.Load(ctx)
			switch {
			case ctx.Err() != nil:
				return nil
			case err != nil && !shown:
				return err
			case err != nil:
				var authErr *domain.AuthError
				if errors.As(err, &authErr) {
					return err
				}
				printer.Warning("refresh failed, showing previous data: %v", err)
			}
			if err := renderDashboard(res.Data); err != nil {
				return err
			}
			shown = true
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
		}
	})
}

func renderDashboard(v dashboardView) error {
	if ok, err := emit(v); ok {
		return err
	}

	s := v.Summary
	printer.Header("Dashboard")
	table := printer.NewTable("METRIC", "VALUE")
	table.AddRow("properties", fmt.Sprint(s.TotalProperties))
	table.AddRow("occupancy", fmt.Sprintf("%.0f%%", s.OccupancyRate()*100))
	table.AddRow("tenants", fmt.Sprint(s.TotalTenants))
	table.AddRow("pending payments", fmt.Sprint(s.PendingPayments))
	table.AddRow("unread notifications", fmt.Sprint(v.Unread))
	if err := table.Render(); err != nil {
		return err
	}

	if len(v.Chart) > 0 {
		printer.Header("Revenue")
		chart := printer.NewTable("MONTH", "AMOUNT", "")
		for _, p := range v.Chart {
			chart.AddRow(p.Label, backend.FormatBRL(p.Amount), bar(p.Share, 30))
		}
		if err := chart.Render(); err != nil {
			return err
		}
	}
	for _, w := range v.Partial {
		printer.Warning("%s could not be loaded", w)
	}
	printer.PrintHints("dashboard")
	return nil
}

func bar(share float64, width int) string {
	n := int(share*float64(width) + 0.5)
	out := make([]rune, n)
	for i := range out {
		out[i] = '█'
	}
	return string(out)
}
