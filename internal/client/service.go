package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/desertthunder/statspot/internal/shared"
)

// ServiceClient makes raw HTTP requests to the token service.
//
// The refresh cookie rides on the http.Client's jar; this type never sees or sends it explicitly.
type ServiceClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewServiceClient creates a client for the token service at baseURL.
func NewServiceClient(baseURL string, client *http.Client) *ServiceClient {
	if baseURL == "" {
		baseURL = "http://127.0.0.1:8787"
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &ServiceClient{baseURL: strings.TrimRight(baseURL, "/"), httpClient: client}
}

// BaseURL returns the service origin.
func (s *ServiceClient) BaseURL() string {
	return s.baseURL
}

// Response represents a raw service response with status and body.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Decode unmarshals the body into v.
func (r *Response) Decode(v any) error {
	return json.Unmarshal(r.Body, v)
}

// Get performs a GET request to path.
func (s *ServiceClient) Get(ctx context.Context, path string) (*Response, error) {
	return s.do(ctx, http.MethodGet, path, nil)
}

// Post performs a POST request with an optional JSON body.
func (s *ServiceClient) Post(ctx context.Context, path string, data []byte) (*Response, error) {
	return s.do(ctx, http.MethodPost, path, data)
}

func (s *ServiceClient) do(ctx context.Context, method, path string, data []byte) (*Response, error) {
	var body io.Reader
	if data != nil {
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if data != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	out := &Response{StatusCode: resp.StatusCode, Headers: resp.Header, Body: raw}
	var jsonData any
	if err := json.Unmarshal(raw, &jsonData); err == nil {
		out.IsJSON = true
		out.JSONData = jsonData
	}
	return out, nil
}

// UpstreamError is an error body produced by the token service or forwarded from the authorization server.
type UpstreamError struct {
	Status      int    `json:"-"`
	Code        string `json:"error"`
	Description string `json:"error_description"`
	Message     string `json:"message"`
}

func (e *UpstreamError) Error() string {
	switch {
	case e.Description != "":
		return fmt.Sprintf("%s: %s", e.Code, e.Description)
	case e.Code != "":
		return e.Code
	default:
		return fmt.Sprintf("status %d", e.Status)
	}
}

// Notice is the user-facing text: the description when present, else the error tag.
func (e *UpstreamError) Notice() string {
	if e.Description != "" {
		return e.Description
	}
	if e.Code != "" {
		return e.Code
	}
	return http.StatusText(e.Status)
}

// upstreamError extracts an [UpstreamError] from resp, tolerating non-JSON bodies.
func upstreamError(resp *Response) *UpstreamError {
	ue := &UpstreamError{Status: resp.StatusCode}
	if resp.IsJSON {
		_ = resp.Decode(ue)
	}
	return ue
}

// Health is the token service's configuration report.
type Health struct {
	OK        bool `json:"ok"`
	HasClient bool `json:"hasClient"`
	HasSecret bool `json:"hasSecret"`
}

// Health calls GET /api/health.
func (s *ServiceClient) Health(ctx context.Context) (*Health, error) {
	resp, err := s.Get(ctx, "/api/health")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrServiceUnavailable, err)
	}
	if !resp.OK() {
		return nil, upstreamError(resp)
	}
	var h Health
	if err := resp.Decode(&h); err != nil {
		return nil, fmt.Errorf("failed to decode health: %w", err)
	}
	return &h, nil
}
