package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/smarteletron/eletron/pkg/domain"
)

// DefaultTimeout bounds every backend call.
const DefaultTimeout = 30 * time.Second

// Config configures a Client.
type Config struct {
	BusinessURL string // e.g. https://host/api/business
	LegacyURL   string // e.g. https://host/api/legacy
	Timeout     time.Duration

	// Token returns the current bearer token, or "" when logged out.
	Token func() string
	// OnUnauthorized is called when any authenticated call answers 401.
	OnUnauthorized func()
}

// Client talks to the business and legacy REST APIs.
type Client struct {
	businessURL    string
	legacyURL      string
	token          func() string
	onUnauthorized func()
	httpClient     *http.Client
}

// New creates a new API client.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		businessURL:    strings.TrimRight(cfg.BusinessURL, "/"),
		legacyURL:      strings.TrimRight(cfg.LegacyURL, "/"),
		token:          cfg.Token,
		onUnauthorized: cfg.OnUnauthorized,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Login exchanges credentials for a session token. A 401 here means bad
// credentials and does not fire OnUnauthorized.
func (c *Client) Login(ctx context.Context, username, password string) (*domain.LoginResponse, error) {
	var resp domain.LoginResponse
	req := domain.LoginRequest{Username: username, Password: password}
	if err := c.do(ctx, call{base: c.businessURL, method: http.MethodPost, path: "/auth/login", body: req, out: &resp, anonymous: true}); err != nil {
		return nil, fmt.Errorf("client.Login: %w", err)
	}
	return &resp, nil
}

// --- Users ---

// ListUsers searches users. Filters: username, name, active, role.
func (c *Client) ListUsers(ctx context.Context, req domain.PageRequest) (domain.Page[domain.User], error) {
	page, err := list[domain.User](ctx, c, c.businessURL, "/users", req)
	if err != nil {
		return page, fmt.Errorf("client.ListUsers: %w", err)
	}
	return page, nil
}

// CreateUser creates a user.
func (c *Client) CreateUser(ctx context.Context, u domain.User) error {
	if err := c.post(ctx, "/users", u, nil); err != nil {
		return fmt.Errorf("client.CreateUser: %w", err)
	}
	return nil
}

// UpdateUser replaces a user.
func (c *Client) UpdateUser(ctx context.Context, id string, u domain.User) error {
	if err := c.put(ctx, "/users/"+url.PathEscape(id), u); err != nil {
		return fmt.Errorf("client.UpdateUser: %w", err)
	}
	return nil
}

// DeleteUser deletes a user.
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	if err := c.delete(ctx, "/users/"+url.PathEscape(id)); err != nil {
		return fmt.Errorf("client.DeleteUser: %w", err)
	}
	return nil
}

// --- Roles and permissions ---

// ListRoles searches roles. Filters: name.
func (c *Client) ListRoles(ctx context.Context, req domain.PageRequest) (domain.Page[domain.Role], error) {
	page, err := list[domain.Role](ctx, c, c.businessURL, "/roles", req)
	if err != nil {
		return page, fmt.Errorf("client.ListRoles: %w", err)
	}
	return page, nil
}

// CreateRole creates a role.
func (c *Client) CreateRole(ctx context.Context, r domain.Role) error {
	if err := c.post(ctx, "/roles", r, nil); err != nil {
		return fmt.Errorf("client.CreateRole: %w", err)
	}
	return nil
}

// UpdateRole replaces a role.
func (c *Client) UpdateRole(ctx context.Context, id string, r domain.Role) error {
	if err := c.put(ctx, "/roles/"+url.PathEscape(id), r); err != nil {
		return fmt.Errorf("client.UpdateRole: %w", err)
	}
	return nil
}

// DeleteRole deletes a role.
func (c *Client) DeleteRole(ctx context.Context, id string) error {
	if err := c.delete(ctx, "/roles/"+url.PathEscape(id)); err != nil {
		return fmt.Errorf("client.DeleteRole: %w", err)
	}
	return nil
}

// ListPermissions returns the full permission catalog.
func (c *Client) ListPermissions(ctx context.Context) ([]domain.Permission, error) {
	var perms []domain.Permission
	if err := c.get(ctx, c.businessURL, "/permissions", &perms); err != nil {
		return nil, fmt.Errorf("client.ListPermissions: %w", err)
	}
	return perms, nil
}

// --- Stores ---

// ListStores searches stores. Filters: code, name, city, active.
func (c *Client) ListStores(ctx context.Context, req domain.PageRequest) (domain.Page[domain.Store], error) {
	page, err := list[domain.Store](ctx, c, c.businessURL, "/stores", req)
	if err != nil {
		return page, fmt.Errorf("client.ListStores: %w", err)
	}
	return page, nil
}

// CreateStore creates a store.
func (c *Client) CreateStore(ctx context.Context, s domain.Store) error {
	if err := c.post(ctx, "/stores", s, nil); err != nil {
		return fmt.Errorf("client.CreateStore: %w", err)
	}
	return nil
}

// UpdateStore replaces a store.
func (c *Client) UpdateStore(ctx context.Context, id string, s domain.Store) error {
	if err := c.put(ctx, "/stores/"+url.PathEscape(id), s); err != nil {
		return fmt.Errorf("client.UpdateStore: %w", err)
	}
	return nil
}

// DeleteStore deletes a store.
func (c *Client) DeleteStore(ctx context.Context, id string) error {
	if err := c.delete(ctx, "/stores/"+url.PathEscape(id)); err != nil {
		return fmt.Errorf("client.DeleteStore: %w", err)
	}
	return nil
}

// --- Operations ---

// ListOperations searches operation codes. Filters: code, description, type.
func (c *Client) ListOperations(ctx context.Context, req domain.PageRequest) (domain.Page[domain.Operation], error) {
	page, err := list[domain.Operation](ctx, c, c.businessURL, "/operations", req)
	if err != nil {
		return page, fmt.Errorf("client.ListOperations: %w", err)
	}
	return page, nil
}

// CreateOperation creates an operation code.
func (c *Client) CreateOperation(ctx context.Context, o domain.Operation) error {
	if err := c.post(ctx, "/operations", o, nil); err != nil {
		return fmt.Errorf("client.CreateOperation: %w", err)
	}
	return nil
}

// UpdateOperation replaces an operation code.
func (c *Client) UpdateOperation(ctx context.Context, id string, o domain.Operation) error {
	if err := c.put(ctx, "/operations/"+url.PathEscape(id), o); err != nil {
		return fmt.Errorf("client.UpdateOperation: %w", err)
	}
	return nil
}

// DeleteOperation deletes an operation code.
func (c *Client) DeleteOperation(ctx context.Context, id string) error {
	if err := c.delete(ctx, "/operations/"+url.PathEscape(id)); err != nil {
		return fmt.Errorf("client.DeleteOperation: %w", err)
	}
	return nil
}

// --- Event origins ---

// ListEventOrigins searches event origins. Filters: code, description.
func (c *Client) ListEventOrigins(ctx context.Context, req domain.PageRequest) (domain.Page[domain.EventOrigin], error) {
	page, err := list[domain.EventOrigin](ctx, c, c.businessURL, "/event-origins", req)
	if err != nil {
		return page, fmt.Errorf("client.ListEventOrigins: %w", err)
	}
	return page, nil
}

// CreateEventOrigin creates an event origin.
func (c *Client) CreateEventOrigin(ctx context.Context, e domain.EventOrigin) error {
	if err := c.post(ctx, "/event-origins", e, nil); err != nil {
		return fmt.Errorf("client.CreateEventOrigin: %w", err)
	}
	return nil
}

// UpdateEventOrigin replaces an event origin. Event origins referenced by
// historical events cannot be deleted, so there is no delete call.
func (c *Client) UpdateEventOrigin(ctx context.Context, id string, e domain.EventOrigin) error {
	if err := c.put(ctx, "/event-origins/"+url.PathEscape(id), e); err != nil {
		return fmt.Errorf("client.UpdateEventOrigin: %w", err)
	}
	return nil
}

// --- Email notifiers ---

// ListEmailNotifiers searches notifiers. Filters: email, origin.
func (c *Client) ListEmailNotifiers(ctx context.Context, req domain.PageRequest) (domain.Page[domain.EmailNotifier], error) {
	page, err := list[domain.EmailNotifier](ctx, c, c.businessURL, "/email-notifiers", req)
	if err != nil {
		return page, fmt.Errorf("client.ListEmailNotifiers: %w", err)
	}
	return page, nil
}

// CreateEmailNotifier creates a notifier.
func (c *Client) CreateEmailNotifier(ctx context.Context, n domain.EmailNotifier) error {
	if err := c.post(ctx, "/email-notifiers", n, nil); err != nil {
		return fmt.Errorf("client.CreateEmailNotifier: %w", err)
	}
	return nil
}

// UpdateEmailNotifier replaces a notifier.
func (c *Client) UpdateEmailNotifier(ctx context.Context, id string, n domain.EmailNotifier) error {
	if err := c.put(ctx, "/email-notifiers/"+url.PathEscape(id), n); err != nil {
		return fmt.Errorf("client.UpdateEmailNotifier: %w", err)
	}
	return nil
}

// DeleteEmailNotifier deletes a notifier.
func (c *Client) DeleteEmailNotifier(ctx context.Context, id string) error {
	if err := c.delete(ctx, "/email-notifiers/"+url.PathEscape(id)); err != nil {
		return fmt.Errorf("client.DeleteEmailNotifier: %w", err)
	}
	return nil
}

// --- Sales and dashboard ---

// ListSales searches sales. Filters: storeCode, operationCode, from, to (YYYY-MM-DD).
func (c *Client) ListSales(ctx context.Context, req domain.PageRequest) (domain.Page[domain.Sale], error) {
	page, err := list[domain.Sale](ctx, c, c.businessURL, "/sales", req)
	if err != nil {
		return page, fmt.Errorf("client.ListSales: %w", err)
	}
	return page, nil
}

// GetDashboardSummary returns the landing-page aggregates.
func (c *Client) GetDashboardSummary(ctx context.Context) (*domain.DashboardSummary, error) {
	var s domain.DashboardSummary
	if err := c.get(ctx, c.businessURL, "/dashboard/summary", &s); err != nil {
		return nil, fmt.Errorf("client.GetDashboardSummary: %w", err)
	}
	return &s, nil
}

// --- Legacy ---

// ListProducts searches the legacy product catalog. Filters: code, description, brand.
func (c *Client) ListProducts(ctx context.Context, req domain.PageRequest) (domain.Page[domain.Product], error) {
	page, err := list[domain.Product](ctx, c, c.legacyURL, "/products", req)
	if err != nil {
		return page, fmt.Errorf("client.ListProducts: %w", err)
	}
	return page, nil
}

func list[T any](ctx context.Context, c *Client, base, path string, req domain.PageRequest) (domain.Page[T], error) {
	var page domain.Page[T]
	err := c.get(ctx, base, path+"?"+req.Values().Encode(), &page)
	return page, err
}

// call describes one request.
type call struct {
	base      string
	method    string
	path      string
	body      any
	out       any
	anonymous bool // no bearer header, no OnUnauthorized
}

func (c *Client) get(ctx context.Context, base, path string, out any) error {
	return c.do(ctx, call{base: base, method: http.MethodGet, path: path, out: out})
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	return c.do(ctx, call{base: c.businessURL, method: http.MethodPost, path: path, body: body, out: out})
}

func (c *Client) put(ctx context.Context, path string, body any) error {
	return c.do(ctx, call{base: c.businessURL, method: http.MethodPut, path: path, body: body})
}

func (c *Client) delete(ctx context.Context, path string) error {
	return c.do(ctx, call{base: c.businessURL, method: http.MethodDelete, path: path})
}

func (c *Client) do(ctx context.Context, r call) error {
	var reqBody io.Reader
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, r.base+r.path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if !r.anonymous && c.token != nil {
		if tok := c.token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	if resp.StatusCode == http.StatusUnauthorized && !r.anonymous && c.onUnauthorized != nil {
		c.onUnauthorized()
	}

	if resp.StatusCode >= 400 {
		respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB max error body
		if readErr != nil {
			return &HTTPError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to read body: %v", readErr)}
		}
		var apiErr struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if json.Unmarshal(respBody, &apiErr) == nil {
			if apiErr.Message != "" {
				return &HTTPError{StatusCode: resp.StatusCode, Message: apiErr.Message}
			}
			if apiErr.Error != "" {
				return &HTTPError{StatusCode: resp.StatusCode, Message: apiErr.Error}
			}
		}
		return &HTTPError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
	}

	if r.out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(r.out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
