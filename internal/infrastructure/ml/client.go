// Package ml talks to the external salary-prediction service. The model
// itself is a collaborator: it reads persisted job text and writes predicted
// salary bounds back onto existing rows.
package ml

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"JobRadar/internal/ports"
)

// Client triggers a prediction-and-update pass after persistence.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

var _ ports.SalaryPredictor = (*Client)(nil)

// NewClient creates a reusable HTTP client.
func NewClient(endpoint, apiKey string) *Client {
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: 60 * time.Second},
	}
}

// PredictAndUpdate asks the service to back-fill predicted_salary_min and
// predicted_salary_max on rows missing real salary bounds.
func (c *Client) PredictAndUpdate(ctx context.Context) error {
	if c.endpoint == "" {
		return fmt.Errorf("salary predictor misconfigured")
	}

	body, err := json.Marshal(map[string]any{
		"targets": []string{"salary_min", "salary_max"},
	})
	if err != nil {
		return fmt.Errorf("marshal predict payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("predictor error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	return nil
}
