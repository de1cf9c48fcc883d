package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Event is one outbound goal event. Exactly one of Identity or AccountID is
// set depending on the entity that produced it.
type Event struct {
	ActionName         string            `json:"actionName"`
	ActionDate         int64             `json:"actionDate"`
	Identity           string            `json:"identity,omitempty"`
	AccountID          string            `json:"accountId,omitempty"`
	Properties         map[string]string `json:"userProperties,omitempty"`
	IncludeInAnalytics int               `json:"includeInAnalytics"`
}

type batchPayload struct {
	APIKey string  `json:"apiKey"`
	Events []Event `json:"events"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(httpClient *http.Client, baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// Bind fixes the API key for a run so callers only deal in event batches.
func (c *Client) Bind(apiKey string) *BoundClient {
	return &BoundClient{client: c, apiKey: apiKey}
}

type BoundClient struct {
	client *Client
	apiKey string
}

func (b *BoundClient) Send(ctx context.Context, events []Event) error {
	return b.client.send(ctx, b.apiKey, events)
}

func (c *Client) send(ctx context.Context, apiKey string, events []Event) error {
	if len(events) == 0 {
		return nil
	}
	body, err := json.Marshal(batchPayload{APIKey: apiKey, Events: events})
	if err != nil {
		return fmt.Errorf("encode batch: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/events/batch", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("sink rejected batch (%d): %s", resp.StatusCode, string(data))
	}
	// Response bodies are not consumed: delivery is at-least-once with no
	// sink-side acknowledgement.
	return nil
}
