package commonground

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/conductionnl/balance-service/internal/domain"
	"github.com/conductionnl/balance-service/internal/logging"
)

// Client talks to a CommonGround resource store. Resources live under
// /{component}/{type}; collections come back hydra-style with the
// members under "hydra:member".
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Object is the shape shared by every stored resource: an identifier
// plus a display name. Raw carries the full document for callers that
// need more.
type Object struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Raw  json.RawMessage
}

type Collection struct {
	Members []json.RawMessage `json:"hydra:member"`
	Total   int               `json:"hydra:totalItems"`
}

// Get fetches a single resource by its URI. The URI may be absolute
// (cross-component references) or relative to the store's base URL.
func (c *Client) Get(ctx context.Context, uri string) (*Object, error) {
	target := uri
	if !strings.HasPrefix(uri, "http://") && !strings.HasPrefix(uri, "https://") {
		target = c.baseURL + "/" + strings.TrimLeft(uri, "/")
	}

	body, err := c.do(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}

	var obj Object
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil, fmt.Errorf("Get: decode: %w", err)
	}
	obj.Raw = body
	return &obj, nil
}

// List queries a resource collection with the given filter.
func (c *Client) List(ctx context.Context, component, rtype string, filter url.Values) (*Collection, error) {
	target := fmt.Sprintf("%s/%s/%s", c.baseURL, component, rtype)
	if len(filter) > 0 {
		target += "?" + filter.Encode()
	}

	body, err := c.do(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("List: %s/%s: %w", component, rtype, err)
	}

	var col Collection
	if err := json.Unmarshal(body, &col); err != nil {
		return nil, fmt.Errorf("List: decode: %w", err)
	}
	return &col, nil
}

// Create posts a new resource and, when out is non-nil, decodes the
// created record into it.
func (c *Client) Create(ctx context.Context, component, rtype string, payload, out any) error {
	target := fmt.Sprintf("%s/%s/%s", c.baseURL, component, rtype)

	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("Create: marshal: %w", err)
	}

	body, err := c.do(ctx, http.MethodPost, target, encoded)
	if err != nil {
		return fmt.Errorf("Create: %s/%s: %w", component, rtype, err)
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("Create: decode: %w", err)
		}
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, target string, payload []byte) ([]byte, error) {
	log := logging.FromContext(ctx)

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", c.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send: %w", err)
	}
	defer resp.Body.Close()

	log.Debug("resource store response",
		"method", method,
		"url", target,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(snippet))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}
