package backend

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/Mavton23/rentix/internal/domain"
)

// PaymentsAPI wraps /payments.
type PaymentsAPI struct {
	gw Gateway
}

// List returns every payment visible to the current user.
func (p *PaymentsAPI) List(ctx context.Context) ([]domain.Payment, error) {
	payments, err := getList[domain.Payment](ctx, p.gw, "/payments")
	if err != nil {
		return nil, fmt.Errorf("listing payments: %w", err)
	}
	return payments, nil
}

// PaymentFilter narrows a payment list. Zero fields match everything.
type PaymentFilter struct {
	Status     domain.PaymentStatus
	TenantID   int64
	PropertyID int64
	// DueFrom and DueTo bound the due date, both inclusive.
	DueFrom time.Time
	DueTo   time.Time
	// Query matches the tenant name or method, ignoring case and accents.
	Query string
}

// Match reports whether p passes the filter.
func (f PaymentFilter) Match(p domain.Payment) bool {
	if f.Status != "" && p.Status != f.Status {
		return false
	}
	if f.TenantID != 0 && p.TenantID != f.TenantID {
		return false
	}
	if f.PropertyID != 0 && p.PropertyID != f.PropertyID {
		return false
	}
	if !f.DueFrom.IsZero() && p.DueDate.Before(f.DueFrom) {
		return false
	}
	if !f.DueTo.IsZero() && p.DueDate.After(f.DueTo) {
		return false
	}
	if q := fold(strings.TrimSpace(f.Query)); q != "" {
		if !strings.Contains(fold(p.TenantName), q) && !strings.Contains(fold(p.Method), q) {
			return false
		}
	}
	return true
}

// fold lowercases s and strips combining marks, so "João" matches "joao".
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// FilterPayments returns the payments matching f, preserving order.
func FilterPayments(payments []domain.Payment, f PaymentFilter) []domain.Payment {
	out := make([]domain.Payment, 0, len(payments))
	for _, p := range payments {
		if f.Match(p) {
			out = append(out, p)
		}
	}
	return out
}

// PaymentTotals sums amounts per status.
func PaymentTotals(payments []domain.Payment) map[domain.PaymentStatus]decimal.Decimal {
	totals := make(map[domain.PaymentStatus]decimal.Decimal)
	for _, p := range payments {
		totals[p.Status] = totals[p.Status].Add(p.Amount)
	}
	return totals
}

// Page is one slice of a client-side paginated list.
type Page[T any] struct {
	Items []T
	// Number is 1-based.
	Number int
	Size   int
	Total  int
	Pages  int
}

// HasNext reports whether a following page exists.
func (p Page[T]) HasNext() bool {
	return p.Number < p.Pages
}

// Paginate returns page number (1-based) of size items. Out-of-range pages are clamped.
func Paginate[T any](items []T, number, size int) Page[T] {
	if size <= 0 {
		size = 10
	}
	total := len(items)
	pages := (total + size - 1) / size
	if pages == 0 {
		pages = 1
	}
	if number < 1 {
		number = 1
	}
	if number > pages {
		number = pages
	}

	start := (number - 1) * size
	end := min(start+size, total)
	return Page[T]{
		Items:  items[start:end],
		Number: number,
		Size:   size,
		Total:  total,
		Pages:  pages,
	}
}
