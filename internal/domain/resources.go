package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tenant is a lessee as returned by GET /tenants.
type Tenant struct {
	ID         int64  `json:"id"`
	Name       string `json:"name" validate:"required,min=2"`
	Email      string `json:"email" validate:"required,email"`
	Phone      string `json:"phone" validate:"omitempty,phone"`
	Document   string `json:"document,omitempty"`
	PropertyID int64  `json:"propertyId,omitempty"`
	Status     string `json:"status,omitempty"`
}

// PropertyStatus is the occupancy status of a property.
type PropertyStatus string

const (
	PropertyAvailable   PropertyStatus = "disponivel"
	PropertyOccupied    PropertyStatus = "ocupado"
	PropertyMaintenance PropertyStatus = "manutencao"
)

// Property is a managed real-estate unit.
type Property struct {
	ID         int64           `json:"id"`
	Title      string          `json:"title"`
	Address    string          `json:"address"`
	City       string          `json:"city"`
	State      string          `json:"state"`
	RentAmount decimal.Decimal `json:"rentAmount"`
	Status     PropertyStatus  `json:"status"`
}

// PaymentStatus is the settlement status of a payment.
type PaymentStatus string

const (
	PaymentPaid    PaymentStatus = "pago"
	PaymentPending PaymentStatus = "pendente"
	PaymentLate    PaymentStatus = "atrasado"
)

// Payment is one rent installment.
type Payment struct {
	ID         int64           `json:"id"`
	TenantID   int64           `json:"tenantId"`
	TenantName string          `json:"tenantName,omitempty"`
	PropertyID int64           `json:"propertyId"`
	Amount     decimal.Decimal `json:"amount"`
	DueDate    time.Time       `json:"dueDate"`
	PaidAt     *time.Time      `json:"paidAt,omitempty"`
	Status     PaymentStatus   `json:"status"`
	Method     string          `json:"method,omitempty"`
}

// Notification is an in-app message for the current user.
type Notification struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

// MonthlyRevenue is one point of the dashboard revenue series.
type MonthlyRevenue struct {
	Month  string          `json:"month"` // YYYY-MM
	Amount decimal.Decimal `json:"amount"`
}

// DashboardSummary is the payload of GET /dashboard/summary.
type DashboardSummary struct {
	TotalProperties    int              `json:"totalProperties"`
	OccupiedProperties int              `json:"occupiedProperties"`
	TotalTenants       int              `json:"totalTenants"`
	PendingPayments    int              `json:"pendingPayments"`
	Revenue            []MonthlyRevenue `json:"revenue"`
}

// OccupancyRate returns occupied/total in [0,1]; zero when there are no properties.
func (d DashboardSummary) OccupancyRate() float64 {
	if d.TotalProperties == 0 {
		return 0
	}
	return float64(d.OccupiedProperties) / float64(d.TotalProperties)
}
