// Package letta is a minimal client for the Letta server REST API. The only
// call the action makes is a best-effort agent-name lookup for the tracking
// comment footer.
package letta

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// GetAgentName returns the agent's display name. Callers fall back to the
// raw id on any error; this lookup is cosmetic.
func (c *Client) GetAgentName(ctx context.Context, agentID string) (string, error) {
	url := fmt.Sprintf("%s/v1/agents/%s", c.baseURL, agentID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("agent lookup failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("agent lookup failed with status %d", resp.StatusCode)
	}

	var agent struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&agent); err != nil {
		return "", fmt.Errorf("failed to decode agent: %w", err)
	}
	if agent.Name == "" {
		return "", fmt.Errorf("agent %s has no name", agentID)
	}
	return agent.Name, nil
}
