package backend

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Mavton23/rentix/internal/domain"
)

// DashboardAPI wraps /dashboard.
type DashboardAPI struct {
	gw Gateway
}

// Summary returns the dashboard counters and revenue series.
func (d *DashboardAPI) Summary(ctx context.Context) (domain.DashboardSummary, error) {
	var s domain.DashboardSummary
	if err := d.gw.DoJSON(ctx, http.MethodGet, "/dashboard/summary", nil, &s); err != nil {
		return domain.DashboardSummary{}, fmt.Errorf("loading dashboard: %w", err)
	}
	return s, nil
}

var monthLabels = [...]string{"Jan", "Fev", "Mar", "Abr", "Mai", "Jun", "Jul", "Ago", "Set", "Out", "Nov", "Dez"}

// ChartPoint is one labelled bar of the revenue chart.
type ChartPoint struct {
	Label  string
	Amount decimal.Decimal
	// Share is Amount relative to the largest point, in [0,1].
	Share float64
}

// RevenueChart orders the series chronologically and labels each month ("Jan/25").
// Entries with an unparsable month keep their raw label and sort last.
func RevenueChart(series []domain.MonthlyRevenue) []ChartPoint {
	type entry struct {
		month time.Time
		ok    bool
		rev   domain.MonthlyRevenue
	}
	entries := make([]entry, 0, len(series))
	for _, r := range series {
		m, err := time.Parse("2006-01", r.Month)
		entries = append(entries, entry{month: m, ok: err == nil, rev: r})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].ok != entries[j].ok {
			return entries[i].ok
		}
		return entries[i].month.Before(entries[j].month)
	})

	peak := decimal.Zero
	for _, e := range entries {
		if e.rev.Amount.GreaterThan(peak) {
			peak = e.rev.Amount
		}
	}

	points := make([]ChartPoint, 0, len(entries))
	for _, e := range entries {
		label := e.rev.Month
		if e.ok {
			label = fmt.Sprintf("%s/%02d", monthLabels[e.month.Month()-1], e.month.Year()%100)
		}
		share := 0.0
		if peak.IsPositive() {
			share = e.rev.Amount.Div(peak).InexactFloat64()
		}
		points = append(points, ChartPoint{Label: label, Amount: e.rev.Amount, Share: share})
	}
	return points
}

// FormatBRL renders an amount as Brazilian currency, e.g. "R$ 1.234,50".
func FormatBRL(d decimal.Decimal) string {
	neg := d.IsNegative()
	s := d.Abs().StringFixed(2)
	intPart, frac := s[:len(s)-3], s[len(s)-2:]

	var grouped []byte
	for i := range len(intPart) {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			grouped = append(grouped, '.')
		}
		grouped = append(grouped, intPart[i])
	}
	out := "R$ " + string(grouped) + "," + frac
	if neg {
		out = "-" + out
	}
	return out
}
