// Package upstream is the HTTP client for the analytics API that owns
// authentication, KPI aggregation and recommendations.
//
// The dashboard never computes KPIs itself. Every view asks this client for
// a pre-aggregated payload, forwarding the session's upstream cookies (see
// ContextWithCookies). Non-2xx responses surface as *StatusError so callers
// can tell authorization failures apart from everything else.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/roledash/internal/logging"
	"github.com/JonMunkholm/roledash/internal/roles"
)

// DefaultTimeout applies when New is given a non-positive timeout.
const DefaultTimeout = 15 * time.Second

// maxResponseSize bounds how much of a response body is read.
const maxResponseSize = 10 << 20

// maxErrorBody bounds the body excerpt kept on a StatusError.
const maxErrorBody = 512

// Client talks to the analytics API.
type Client struct {
	baseURL *url.URL
	http    *http.Client
}

// New returns a client for baseURL.
func New(baseURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse upstream url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("upstream url %q must be http or https", baseURL)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: u,
		http:    &http.Client{Timeout: timeout},
	}, nil
}

// response is a fully read upstream reply.
type response struct {
	body    []byte
	cookies []*http.Cookie
}

// do performs a request against path with optional query and JSON body.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (*response, error) {
	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s body: %w", path, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, ck := range CookiesFromContext(ctx) {
		req.AddCookie(ck)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read upstream %s: %w", path, err)
	}

	logging.FromContext(ctx).Debug("upstream call",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt := strings.TrimSpace(string(data))
		if len(excerpt) > maxErrorBody {
			excerpt = excerpt[:maxErrorBody]
		}
		return nil, &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: excerpt}
	}

	return &response{body: data, cookies: resp.Cookies()}, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	resp, err := c.do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, err
	}
	return resp.body, nil
}

// roleQuery adds entered_role when an admin is viewing as another role.
func roleQuery(q url.Values, enteredRole string) url.Values {
	if q == nil {
		q = url.Values{}
	}
	if enteredRole != "" {
		q.Set("entered_role", enteredRole)
	}
	return q
}

// DashboardData fetches the role-scoped KPI payload. enteredRole is only
// sent when an admin impersonates a role; otherwise upstream scopes by the
// session's own role.
func (c *Client) DashboardData(ctx context.Context, enteredRole string) ([]byte, error) {
	return c.get(ctx, "/dashboard-data", roleQuery(nil, enteredRole))
}

// RMData fetches one 1-based page of the relationship-manager knowledge table.
func (c *Client) RMData(ctx context.Context, pageIndex int, enteredRole string) (*RMPage, error) {
	q := roleQuery(url.Values{"pageIndex": {strconv.Itoa(pageIndex)}}, enteredRole)
	body, err := c.get(ctx, "/rm-data", q)
	if err != nil {
		return nil, err
	}
	return parseRMPage(body, pageIndex)
}

// MatchedCustomers lists customers matching a product segment and bias.
func (c *Client) MatchedCustomers(ctx context.Context, product, bias string) ([]Customer, error) {
	q := url.Values{"product_name": {product}, "bias": {bias}}
	body, err := c.get(ctx, "/segment-by-product-and-bias", q)
	if err != nil {
		return nil, err
	}
	return parseCustomers(body)
}

// Recommendations fetches product recommendations for one customer.
func (c *Client) Recommendations(ctx context.Context, customerID string) (*Recommendations, error) {
	body, err := c.get(ctx, "/recommend", url.Values{"customer_id": {customerID}})
	if err != nil {
		return nil, err
	}
	return parseRecommendations(body)
}

// TopInsights fetches the top products and top biases.
func (c *Client) TopInsights(ctx context.Context) (*roles.Insights, error) {
	body, err := c.get(ctx, "/top-insights", nil)
	if err != nil {
		return nil, err
	}
	return parseInsights(body)
}

// SankeyData fetches the segment → risk → bias → product flow rows.
func (c *Client) SankeyData(ctx context.Context) ([]SankeyRow, error) {
	body, err := c.get(ctx, "/sankey-data", nil)
	if err != nil {
		return nil, err
	}
	return parseSankey(body)
}

// Roles fetches the role → feature permissions.
func (c *Client) Roles(ctx context.Context) (roles.Permissions, error) {
	body, err := c.get(ctx, "/roles", nil)
	if err != nil {
		return nil, err
	}
	return parseRoles(body)
}

// Login authenticates against upstream and returns the user and the cookies
// that authenticate later calls.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	resp, err := c.do(ctx, http.MethodPost, "/login", nil, map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}
	user, err := parseUser(resp.body)
	if err != nil {
		return nil, err
	}
	if user.Email == "" {
		user.Email = email
	}
	return &LoginResult{User: *user, Cookies: resp.cookies}, nil
}

// AuthCheck verifies that the session cookies are still accepted.
func (c *Client) AuthCheck(ctx context.Context) error {
	_, err := c.get(ctx, "/admin/auth/check", nil)
	return err
}

// Logout ends the upstream session.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, "/admin/logout", nil, nil)
	return err
}
