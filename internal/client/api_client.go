// Package client talks to the check registry over its HTTP API.
package client

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
)

// Check is the wire form of a registered check.
type Check struct {
	ID           string     `json:"id,omitempty"`
	Name         string     `json:"name"`
	Tag          string     `json:"tag"`
	Timeout      uint32     `json:"timeout"`
	Grace        uint32     `json:"grace"`
	PingURL      *string    `json:"ping_url"`
	PingCount    uint32     `json:"ping_count"`
	LastPingDate *time.Time `json:"last_ping_date"`
	NextPingDate *time.Time `json:"next_ping_date"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type envelope struct {
	Success bool            `json:"success"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIClient returns a client for the backend at baseURL. A nil
// httpClient uses a client with a 10 second timeout.
func NewAPIClient(baseURL string, httpClient *http.Client) *APIClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	return &APIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

func (a *APIClient) CreateCheck(ctx context.Context, check *Check) (*Check, error) {
	var out struct {
		Check Check `json:"check"`
	}
	if err := a.do(ctx, http.MethodPost, "/api/v1/checks", check, &out); err != nil {
		return nil, err
	}
	return &out.Check, nil
}

func (a *APIClient) GetCheck(ctx context.Context, id string) (*Check, error) {
	var out struct {
		Check Check `json:"check"`
	}
	if err := a.do(ctx, http.MethodGet, "/api/v1/checks/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out.Check, nil
}

// ListChecks returns one page of checks. An empty tag lists every tag.
func (a *APIClient) ListChecks(ctx context.Context, tag string, limit, offset int) ([]Check, error) {
	query := url.Values{}
	if tag != "" {
		query.Set("tag", tag)
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		query.Set("offset", strconv.Itoa(offset))
	}

	path := "/api/v1/checks"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var out struct {
		Checks []Check `json:"checks"`
	}
	if err := a.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Checks, nil
}

// ReplaceCheck overwrites every field of the check with id.
func (a *APIClient) ReplaceCheck(ctx context.Context, id string, check *Check) (*Check, error) {
	var out struct {
		Check Check `json:"check"`
	}
	if err := a.do(ctx, http.MethodPut, "/api/v1/checks/"+url.PathEscape(id), check, &out); err != nil {
		return nil, err
	}
	return &out.Check, nil
}

// PatchCheck sends only the keys present in fields.
func (a *APIClient) PatchCheck(ctx context.Context, id string, fields map[string]any) (*Check, error) {
	var out struct {
		Check Check `json:"check"`
	}
	if err := a.do(ctx, http.MethodPatch, "/api/v1/checks/"+url.PathEscape(id), fields, &out); err != nil {
		return nil, err
	}
	return &out.Check, nil
}

func (a *APIClient) DeleteCheck(ctx context.Context, id string) error {
	return a.do(ctx, http.MethodDelete, "/api/v1/checks/"+url.PathEscape(id), nil, nil)
}

func (a *APIClient) TagStats(ctx context.Context) (map[string]int, error) {
	var out struct {
		Tags map[string]int `json:"tags"`
	}
	if err := a.do(ctx, http.MethodGet, "/api/v1/tags/stats", nil, &out); err != nil {
		return nil, err
	}
	return out.Tags, nil
}

func (a *APIClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBackendDown, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("%w: status %d: undecodable body: %w", ErrBackendDown, resp.StatusCode, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrCheckNotFound, env.Message)
	case resp.StatusCode == http.StatusBadRequest:
		return fmt.Errorf("%w: %s: %s", ErrBadRequest, env.Error, env.Message)
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d: %s", ErrBackendDown, resp.StatusCode, env.Message)
	case !env.Success:
		return fmt.Errorf("unexpected response %d: %s", resp.StatusCode, env.Message)
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}
	return nil
}
