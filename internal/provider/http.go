package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"prosektor-api/internal/http/client"
)

// HTTPGateway talks to the identity provider's REST auth API. The service
// key authorizes administrative endpoints and must never reach logs or
// responses.
type HTTPGateway struct {
	baseURL    string
	serviceKey string
	httpClient *http.Client
}

// NewHTTPGateway creates a gateway against the provider's auth endpoint
func NewHTTPGateway(baseURL, serviceKey string) *HTTPGateway {
	return &HTTPGateway{
		baseURL:    baseURL,
		serviceKey: serviceKey,
		httpClient: client.NewExternalHTTPClient(),
	}
}

// GetUser verifies a session token by asking the provider for the account
// it belongs to.
func (g *HTTPGateway) GetUser(ctx context.Context, accessToken string) (*User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, fmt.Errorf("build user request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("apikey", g.serviceKey)

	var user User
	if err := g.do(req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// AdminListUsers pages through all accounts via the admin API
func (g *HTTPGateway) AdminListUsers(ctx context.Context, page, perPage int) ([]User, error) {
	endpoint := g.baseURL + "/auth/v1/admin/users?" + url.Values{
		"page":     {strconv.Itoa(page)},
		"per_page": {strconv.Itoa(perPage)},
	}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build admin list request: %w", err)
	}
	g.setAdminHeaders(req)

	var result struct {
		Users []User `json:"users"`
	}
	if err := g.do(req, &result); err != nil {
		return nil, err
	}
	return result.Users, nil
}

// AdminUpdateUser patches an account's app_metadata
func (g *HTTPGateway) AdminUpdateUser(ctx context.Context, userID string, appMetadata map[string]any) error {
	body, err := json.Marshal(map[string]any{"app_metadata": appMetadata})
	if err != nil {
		return fmt.Errorf("marshal admin update body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut,
		g.baseURL+"/auth/v1/admin/users/"+url.PathEscape(userID), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build admin update request: %w", err)
	}
	g.setAdminHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	return g.do(req, nil)
}

func (g *HTTPGateway) setAdminHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+g.serviceKey)
	req.Header.Set("apikey", g.serviceKey)
}

func (g *HTTPGateway) do(req *http.Request, out any) error {
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("identity provider request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain but cap the body so a misbehaving provider cannot balloon logs
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("identity provider returned %d: %s", resp.StatusCode, string(snippet))
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode identity provider response: %w", err)
	}
	return nil
}
