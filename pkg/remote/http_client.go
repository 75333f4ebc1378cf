package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-emailbuilder/components/builder"
)

// SessionHeader carries the editor session id on every request.
const SessionHeader = "X-Session-ID"

// HTTPConfig configures the remote persistence client.
type HTTPConfig struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// HTTPClient persists layouts and blocks through a REST API and serves the
// block type catalog from the same host.
type HTTPClient struct {
	baseURL string
	token   string
	client  *http.Client
}

var (
	_ builder.Repository    = (*HTTPClient)(nil)
	_ builder.CatalogSource = (*HTTPClient)(nil)
)

// NewHTTPClient builds a client for the layout API at cfg.BaseURL.
func NewHTTPClient(cfg HTTPConfig) (*HTTPClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("remote: base url is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		client:  httpClient,
	}, nil
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("remote: %s %s: status %d: %s", e.Method, e.Path, e.Status, e.Body)
}

// Unwrap maps 404 to builder.ErrRecordNotFound.
func (e *StatusError) Unwrap() error {
	if e.Status == http.StatusNotFound {
		return builder.ErrRecordNotFound
	}
	return nil
}

func (c *HTTPClient) CreateLayout(ctx context.Context, sessionID string, settings builder.LayoutSettings) (builder.Layout, error) {
	var layout builder.Layout
	if err := c.do(ctx, http.MethodPost, "/layouts", sessionID, settings, &layout); err != nil {
		return builder.Layout{}, err
	}
	return layout, nil
}

func (c *HTTPClient) GetLayout(ctx context.Context, layoutID, sessionID string) (builder.LayoutDocument, error) {
	var doc builder.LayoutDocument
	if err := c.do(ctx, http.MethodGet, "/layouts/"+url.PathEscape(layoutID), sessionID, nil, &doc); err != nil {
		return builder.LayoutDocument{}, err
	}
	return doc, nil
}

func (c *HTTPClient) CreateBlock(ctx context.Context, layoutID, sessionID string, req builder.CreateBlockRequest) (builder.Block, error) {
	var block builder.Block
	if err := c.do(ctx, http.MethodPost, "/layouts/"+url.PathEscape(layoutID)+"/blocks", sessionID, req, &block); err != nil {
		return builder.Block{}, err
	}
	return block, nil
}

func (c *HTTPClient) UpdateBlock(ctx context.Context, blockID, sessionID string, patch builder.BlockPatch) (builder.Block, error) {
	var block builder.Block
	if err := c.do(ctx, http.MethodPatch, "/blocks/"+url.PathEscape(blockID), sessionID, patch, &block); err != nil {
		return builder.Block{}, err
	}
	return block, nil
}

func (c *HTTPClient) DeleteBlock(ctx context.Context, blockID, sessionID string) error {
	return c.do(ctx, http.MethodDelete, "/blocks/"+url.PathEscape(blockID), sessionID, nil, nil)
}

func (c *HTTPClient) UpdateLayout(ctx context.Context, layoutID, sessionID string, patch builder.LayoutPatch) (builder.Layout, error) {
	var layout builder.Layout
	if err := c.do(ctx, http.MethodPatch, "/layouts/"+url.PathEscape(layoutID), sessionID, patch, &layout); err != nil {
		return builder.Layout{}, err
	}
	return layout, nil
}

// ListBlockTypes implements builder.CatalogSource via the block types endpoint.
func (c *HTTPClient) ListBlockTypes(ctx context.Context) ([]builder.BlockTypeDefinition, error) {
	var resp blockTypesResponse
	if err := c.do(ctx, http.MethodGet, "/block-types", "", nil, &resp); err != nil {
		return nil, err
	}
	return resp.BlockTypes, nil
}

type blockTypesResponse struct {
	BlockTypes []builder.BlockTypeDefinition `json:"block_types"`
}

func (c *HTTPClient) do(ctx context.Context, method, path, sessionID string, payload any, target any) error {
	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("remote: encode payload: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	}
	if err != nil {
		return fmt.Errorf("remote: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if sessionID != "" {
		req.Header.Set(SessionHeader, sessionID)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("remote: http request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(resp.Body)
		return &StatusError{Method: method, Path: path, Status: resp.StatusCode, Body: strings.TrimSpace(buf.String())}
	}
	if target == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("remote: decode response: %w", err)
	}
	return nil
}
