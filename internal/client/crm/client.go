package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Client talks to the CRM REST API. Every call carries the caller's access
// token; the client itself holds no credential state.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("crm API error (%d): %s", e.Status, e.Body)
}

func NewClient(httpClient *http.Client, baseURL string) *Client {
	if baseURL == "" {
		baseURL = "https://api.hubapi.com"
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

func (c *Client) post(ctx context.Context, path, accessToken string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{Status: resp.StatusCode, Body: string(data)}
	}
	return data, nil
}

// SearchObjects runs one search page for the given object type
// (contacts, companies, meetings).
func (c *Client) SearchObjects(ctx context.Context, accessToken, objectType string, req *SearchRequest) (*SearchPage, error) {
	if objectType == "" {
		return nil, fmt.Errorf("object type is required")
	}
	data, err := c.post(ctx, "/crm/v3/objects/"+objectType+"/search", accessToken, req)
	if err != nil {
		return nil, err
	}
	var page SearchPage
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, fmt.Errorf("decode search page: %w", err)
	}
	return &page, nil
}

// ContactCompanyAssociations resolves contact ids to their primary company
// id. Contacts with no association are simply absent from the result.
func (c *Client) ContactCompanyAssociations(ctx context.Context, accessToken string, contactIDs []string) (map[string]string, error) {
	if len(contactIDs) == 0 {
		return map[string]string{}, nil
	}
	req := associationBatchRequest{Inputs: make([]associationEndpoint, 0, len(contactIDs))}
	for _, id := range contactIDs {
		if id == "" {
			continue
		}
		req.Inputs = append(req.Inputs, associationEndpoint{ID: id})
	}
	data, err := c.post(ctx, "/crm/v4/associations/contacts/companies/batch/read", accessToken, req)
	if err != nil {
		return nil, err
	}
	var resp associationBatchResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decode associations: %w", err)
	}
	out := make(map[string]string, len(resp.Results))
	for _, res := range resp.Results {
		if res.From.ID == "" || len(res.To) == 0 {
			continue
		}
		out[res.From.ID] = res.To[0].ID
	}
	return out, nil
}
