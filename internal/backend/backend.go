// Package backend provides typed wrappers over the Rentix REST endpoints.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/Mavton23/rentix/internal/apiclient"
	"github.com/Mavton23/rentix/internal/domain"
)

// Gateway is the subset of *apiclient.Client the endpoint wrappers need.
type Gateway interface {
	Do(ctx context.Context, method, path string, body any, opts ...apiclient.RequestOption) (*apiclient.Response, error)
	DoJSON(ctx context.Context, method, path string, in, out any, opts ...apiclient.RequestOption) error
}

// API groups every endpoint wrapper around one gateway.
type API struct {
	Auth          *AuthAPI
	Users         *UsersAPI
	Tenants       *TenantsAPI
	Properties    *PropertiesAPI
	Payments      *PaymentsAPI
	Notifications *NotificationsAPI
	Dashboard     *DashboardAPI
	Profile       *ProfileAPI
}

// New wires every wrapper to gw.
func New(gw Gateway) *API {
	return &API{
		Auth:          &AuthAPI{gw: gw},
		Users:         &UsersAPI{gw: gw},
		Tenants:       &TenantsAPI{gw: gw},
		Properties:    &PropertiesAPI{gw: gw},
		Payments:      &PaymentsAPI{gw: gw},
		Notifications: &NotificationsAPI{gw: gw},
		Dashboard:     &DashboardAPI{gw: gw},
		Profile:       &ProfileAPI{gw: gw},
	}
}

// getList fetches a collection. The backend answers either a bare array or {"data": [...]}.
func getList[T any](ctx context.Context, gw Gateway, path string, opts ...apiclient.RequestOption) ([]T, error) {
	resp, err := gw.Do(ctx, "GET", path, nil, opts...)
	if err != nil {
		return nil, err
	}
	body := bytes.TrimSpace(resp.Body)
	if len(body) == 0 {
		return []T{}, nil
	}

	if body[0] == '[' {
		var items []T
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, &domain.ServerError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("decoding %s: %v", path, err)}
		}
		return items, nil
	}

	var envelope struct {
		Data []T `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &domain.ServerError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("decoding %s: %v", path, err)}
	}
	if envelope.Data == nil {
		return []T{}, nil
	}
	return envelope.Data, nil
}

func idPath(prefix string, id int64) string {
	return prefix + "/" + strconv.FormatInt(id, 10)
}
