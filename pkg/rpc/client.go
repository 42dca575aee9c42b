package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"conhash/pkg/ringerrors"
)

const maxResponseBytes = 1 << 20

// RingClient talks to the conhash HTTP API.
type RingClient struct {
	baseURL string
	client  *http.Client
}

func NewRingClient(baseURL string) *RingClient {
	return &RingClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 3 * time.Second},
	}
}

// WithHTTPClient replaces the default client (3s timeout).
func (c *RingClient) WithHTTPClient(hc *http.Client) *RingClient {
	c.client = hc
	return c
}

type apiResponse struct {
	Status   string   `json:"status"`
	Error    string   `json:"error"`
	Node     string   `json:"node"`
	Key      uint32   `json:"key"`
	Position uint32   `json:"position"`
	Nodes    []string `json:"nodes"`
	Count    int      `json:"count"`
	Checksum string   `json:"checksum"`
}

// Location is the answer to a lookup.
type Location struct {
	Node     string
	Key      uint32
	Position uint32
}

// StatusError is returned for non-2xx answers.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("conhash api: %d: %s", e.Code, e.Message)
}

func (c *RingClient) do(ctx context.Context, method, path string, body any) (apiResponse, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return apiResponse{}, fmt.Errorf("encode %s %s body: %w", method, path, err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return apiResponse{}, fmt.Errorf("create %s request: %w", method, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return apiResponse{}, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return apiResponse{}, fmt.Errorf("read %s %s response: %w", method, path, err)
	}

	var ar apiResponse
	if resp.StatusCode != http.StatusOK {
		// тело ошибки может быть не JSON (chi 404/405, прокси)
		msg := strings.TrimSpace(string(data))
		if json.Unmarshal(data, &ar) == nil && ar.Error != "" {
			msg = ar.Error
		}
		return ar, &StatusError{Code: resp.StatusCode, Message: msg}
	}
	if err := json.Unmarshal(data, &ar); err != nil {
		return apiResponse{}, fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return ar, nil
}

func (c *RingClient) Health(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/health", nil)
	return err
}

// Lookup returns the owner of key. ok is false when the ring is empty.
func (c *RingClient) Lookup(ctx context.Context, key string) (Location, bool, error) {
	ar, err := c.do(ctx, http.MethodGet, "/api/lookup?key="+url.QueryEscape(key), nil)
	var se *StatusError
	if errors.As(err, &se) && se.Code == http.StatusNotFound && strings.Contains(se.Message, ringerrors.ErrEmptyRing.Error()) {
		return Location{}, false, nil
	}
	if err != nil {
		return Location{}, false, err
	}
	return Location{Node: ar.Node, Key: ar.Key, Position: ar.Position}, true, nil
}

// Owners returns up to n distinct nodes for key in ring order, owner first.
func (c *RingClient) Owners(ctx context.Context, key string, n int) ([]string, error) {
	path := "/api/lookup?key=" + url.QueryEscape(key) + "&replicas=" + strconv.Itoa(n)
	ar, err := c.do(ctx, http.MethodGet, path, nil)
	var se *StatusError
	if errors.As(err, &se) && se.Code == http.StatusNotFound && strings.Contains(se.Message, ringerrors.ErrEmptyRing.Error()) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ar.Nodes, nil
}

// Nodes lists nodes in numeric-tuple order, or lexical order when lexical is set.
func (c *RingClient) Nodes(ctx context.Context, lexical bool) ([]string, string, error) {
	path := "/api/nodes"
	if lexical {
		path += "?order=lexical"
	}
	ar, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, "", err
	}
	return ar.Nodes, ar.Checksum, nil
}

func (c *RingClient) Count(ctx context.Context) (int, error) {
	ar, err := c.do(ctx, http.MethodGet, "/api/nodes/count", nil)
	if err != nil {
		return 0, err
	}
	return ar.Count, nil
}

// AddNodes sends a weighted mapping, a list or a single identifier and
// returns the node count after the call.
func (c *RingClient) AddNodes(ctx context.Context, spec any) (int, error) {
	if spec == nil {
		return c.Count(ctx)
	}
	ar, err := c.do(ctx, http.MethodPost, "/api/nodes", spec)
	if err != nil {
		return 0, err
	}
	return ar.Count, nil
}

func (c *RingClient) RemoveNodes(ctx context.Context, ids []string) (int, error) {
	if ids == nil {
		ids = []string{}
	}
	ar, err := c.do(ctx, http.MethodDelete, "/api/nodes", ids)
	if err != nil {
		return 0, err
	}
	return ar.Count, nil
}
