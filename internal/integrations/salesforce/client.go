// Package salesforce implements CRM record creation with a single
// refresh-and-retry cycle on session expiry.
package salesforce

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/devingeorge/devbot-ai-assistant/internal/integrations"
	"github.com/devingeorge/devbot-ai-assistant/internal/records"
)

// DefaultTokenURL is the standard OAuth2 refresh-token grant endpoint.
const DefaultTokenURL = "https://login.salesforce.com/services/oauth2/token"

const apiVersion = "v58.0"

// Client issues REST calls against a per-user Salesforce instance.
type Client struct {
	httpClient   *http.Client
	tokenURL     string
	clientID     string
	clientSecret string
}

// NewClient creates a Salesforce client. tokenURL falls back to
// DefaultTokenURL when empty; a nil httpClient uses a default with a
// 30-second timeout.
func NewClient(httpClient *http.Client, tokenURL, clientID, clientSecret string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}
	return &Client{
		httpClient:   httpClient,
		tokenURL:     tokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
	}
}

// Lead is the record shape for Lead creation.
type Lead struct {
	FirstName string `json:"FirstName,omitempty"`
	LastName  string `json:"LastName"`
	Company   string `json:"Company"`
	Email     string `json:"Email,omitempty"`
}

// errSessionExpired marks a failed attempt that is eligible for the single
// refresh-and-retry cycle.
var errSessionExpired = errors.New("salesforce session expired")

// CreateLead creates a Lead, running the two-state retry policy: one
// attempt, and on session expiry exactly one token refresh followed by one
// more attempt. The refreshed token pair is passed to persist before the
// retry; a second failure is terminal.
func (c *Client) CreateLead(ctx context.Context, tokens *records.TokenPair, lead Lead, persist func(records.TokenPair) error) (string, error) {
	if tokens == nil || tokens.AccessToken == "" {
		return "", integrations.ErrNotConfigured
	}

	id, err := c.createLeadOnce(ctx, tokens, lead)
	if !errors.Is(err, errSessionExpired) {
		return id, err
	}

	refreshed, refreshErr := c.refresh(ctx, tokens)
	if refreshErr != nil {
		return "", fmt.Errorf("%w: %v", integrations.ErrAuthExpired, refreshErr)
	}
	if persist != nil {
		if persistErr := persist(*refreshed); persistErr != nil {
			return "", fmt.Errorf("persist refreshed tokens: %w", persistErr)
		}
	}

	id, err = c.createLeadOnce(ctx, refreshed, lead)
	if errors.Is(err, errSessionExpired) {
		return "", integrations.ErrAuthExpired
	}
	return id, err
}

func (c *Client) createLeadOnce(ctx context.Context, tokens *records.TokenPair, lead Lead) (string, error) {
	endpoint := strings.TrimSuffix(tokens.InstanceURL, "/") + "/services/data/" + apiVersion + "/sobjects/Lead/"
	jsonBody, err := json.Marshal(lead)
	if err != nil {
		return "", fmt.Errorf("marshal lead: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if sessionExpired(resp.StatusCode, respBody) {
		return "", errSessionExpired
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &integrations.RequestError{System: "salesforce", StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var created struct {
		ID      string `json:"id"`
		Success bool   `json:"success"`
	}
	if err := json.Unmarshal(respBody, &created); err != nil || created.ID == "" {
		return "", fmt.Errorf("parse lead response: %w", err)
	}
	return created.ID, nil
}

// sessionExpired reports whether the response indicates an expired session.
func sessionExpired(status int, body []byte) bool {
	return status == http.StatusUnauthorized || bytes.Contains(body, []byte("INVALID_SESSION_ID"))
}

// refresh runs the OAuth2 refresh-token grant and returns a token pair with
// the new access token, keeping the existing refresh token and instance URL.
func (c *Client) refresh(ctx context.Context, tokens *records.TokenPair) (*records.TokenPair, error) {
	if tokens.RefreshToken == "" {
		return nil, errors.New("no refresh token")
	}
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {tokens.RefreshToken},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute refresh: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read refresh response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("refresh failed (status %d): %s", resp.StatusCode, string(respBody))
	}

	var grant struct {
		AccessToken string `json:"access_token"`
		InstanceURL string `json:"instance_url"`
	}
	if err := json.Unmarshal(respBody, &grant); err != nil || grant.AccessToken == "" {
		return nil, fmt.Errorf("parse refresh response: %w", err)
	}

	out := *tokens
	out.AccessToken = grant.AccessToken
	if grant.InstanceURL != "" {
		out.InstanceURL = grant.InstanceURL
	}
	return &out, nil
}
