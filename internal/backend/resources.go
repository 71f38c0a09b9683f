package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/Mavton23/rentix/internal/apiclient"
	"github.com/Mavton23/rentix/internal/domain"
)

// TenantsAPI wraps /tenants.
type TenantsAPI struct {
	gw Gateway
}

// List returns tenants, optionally narrowed by a free-text search.
func (t *TenantsAPI) List(ctx context.Context, search string) ([]domain.Tenant, error) {
	var opts []apiclient.RequestOption
	if search != "" {
		opts = append(opts, apiclient.WithQuery(url.Values{"q": {search}}))
	}
	tenants, err := getList[domain.Tenant](ctx, t.gw, "/tenants", opts...)
	if err != nil {
		return nil, fmt.Errorf("listing tenants: %w", err)
	}
	return tenants, nil
}

// Get returns one tenant.
func (t *TenantsAPI) Get(ctx context.Context, id int64) (domain.Tenant, error) {
	var tenant domain.Tenant
	if err := t.gw.DoJSON(ctx, http.MethodGet, idPath("/tenants", id), nil, &tenant); err != nil {
		return domain.Tenant{}, fmt.Errorf("getting tenant %d: %w", id, err)
	}
	return tenant, nil
}

// Create registers a tenant and returns the stored record.
func (t *TenantsAPI) Create(ctx context.Context, tenant domain.Tenant) (domain.Tenant, error) {
	var created domain.Tenant
	if err := t.gw.DoJSON(ctx, http.MethodPost, "/tenants", tenant, &created); err != nil {
		return domain.Tenant{}, fmt.Errorf("creating tenant: %w", err)
	}
	return created, nil
}

// PropertiesAPI wraps /properties.
type PropertiesAPI struct {
	gw Gateway
}

// List returns properties, optionally filtered by status.
func (p *PropertiesAPI) List(ctx context.Context, status domain.PropertyStatus) ([]domain.Property, error) {
	var opts []apiclient.RequestOption
	if status != "" {
		opts = append(opts, apiclient.WithQuery(url.Values{"status": {string(status)}}))
	}
	props, err := getList[domain.Property](ctx, p.gw, "/properties", opts...)
	if err != nil {
		return nil, fmt.Errorf("listing properties: %w", err)
	}
	return props, nil
}

// Get returns one property.
func (p *PropertiesAPI) Get(ctx context.Context, id int64) (domain.Property, error) {
	var prop domain.Property
	if err := p.gw.DoJSON(ctx, http.MethodGet, idPath("/properties", id), nil, &prop); err != nil {
		return domain.Property{}, fmt.Errorf("getting property %d: %w", id, err)
	}
	return prop, nil
}

// NotificationsAPI wraps /notifications.
type NotificationsAPI struct {
	gw Gateway
}

// List returns the current user's notifications.
func (n *NotificationsAPI) List(ctx context.Context) ([]domain.Notification, error) {
	items, err := getList[domain.Notification](ctx, n.gw, "/notifications")
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	return items, nil
}

// MarkRead flags one notification as read.
func (n *NotificationsAPI) MarkRead(ctx context.Context, id int64) error {
	if _, err := n.gw.Do(ctx, http.MethodPatch, idPath("/notifications", id)+"/read", nil); err != nil {
		return fmt.Errorf("marking notification %d read: %w", id, err)
	}
	return nil
}

// Unread counts unread notifications.
func Unread(items []domain.Notification) int {
	n := 0
	for _, it := range items {
		if !it.Read {
			n++
		}
	}
	return n
}
