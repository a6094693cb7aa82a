// Package jira implements issue creation against the Jira REST API.
package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/devingeorge/devbot-ai-assistant/internal/integrations"
	"github.com/devingeorge/devbot-ai-assistant/internal/records"
)

// Client creates issues using team-scoped credentials passed per call.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a Jira client. A nil httpClient uses a default with a
// 30-second timeout.
func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{httpClient: httpClient}
}

// Issue is a created issue reference.
type Issue struct {
	Key       string
	BrowseURL string
}

// CreateIssue creates an issue in the credential's configured project.
// Remote 4xx/5xx responses surface as *integrations.RequestError with the
// upstream body verbatim.
func (c *Client) CreateIssue(ctx context.Context, cred *records.IntegrationCredential, summary, description string) (*Issue, error) {
	if cred == nil {
		return nil, integrations.ErrNotConfigured
	}
	base := strings.TrimSuffix(strings.TrimSpace(cred.BaseURL), "/")
	issueType := cred.IssueType
	if issueType == "" {
		issueType = "Task"
	}

	body := map[string]any{
		"fields": map[string]any{
			"project":     map[string]string{"key": cred.ProjectKey},
			"summary":     summary,
			"description": description,
			"issuetype":   map[string]string{"name": issueType},
		},
	}
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal issue: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/rest/api/2/issue", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(cred.Username, cred.APIToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &integrations.RequestError{System: "jira", StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var created struct {
		Key string `json:"key"`
	}
	if err := json.Unmarshal(respBody, &created); err != nil || created.Key == "" {
		return nil, fmt.Errorf("parse issue response: %w", err)
	}
	return &Issue{
		Key:       created.Key,
		BrowseURL: base + "/browse/" + created.Key,
	}, nil
}
