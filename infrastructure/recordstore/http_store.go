// infrastructure/recordstore/http_store.go
package recordstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/vitovidale/video-publisher-service/domain"
)

const apiKeyHeader = "X-Gibson-API-Key"

type HTTPConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// HTTPStore talks to the hosted record service under {BaseURL}/v1/-/{table}.
type HTTPStore struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHTTPStore(cfg HTTPConfig) *HTTPStore {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &HTTPStore{
		baseURL: strings.TrimRight(cfg.BaseURL, "/") + "/v1/-",
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

func (s *HTTPStore) Create(ctx context.Context, table string, data any, out any) error {
	return s.do(ctx, call{op: "create", table: table, method: http.MethodPost, path: "/" + table, body: data}, out)
}

func (s *HTTPStore) GetByUUID(ctx context.Context, table, uuid string, out any) error {
	return s.do(ctx, call{op: "get", table: table, uuid: uuid, method: http.MethodGet, path: "/" + table + "/" + uuid}, out)
}

func (s *HTTPStore) Query(ctx context.Context, table string, opts domain.QueryOptions, out any) error {
	path := "/" + table + BuildQueryString(opts)
	return s.do(ctx, call{op: "query", table: table, method: http.MethodGet, path: path}, out)
}

func (s *HTTPStore) Update(ctx context.Context, table, uuid string, data any, out any) error {
	return s.do(ctx, call{op: "update", table: table, uuid: uuid, method: http.MethodPatch, path: "/" + table + "/" + uuid, body: data}, out)
}

// UpdateVersioned sends the expected version as If-Match; the service answers
// 412 when the row moved on.
func (s *HTTPStore) UpdateVersioned(ctx context.Context, table, uuid string, expectedVersion int, data any, out any) error {
	return s.do(ctx, call{
		op:      "update",
		table:   table,
		uuid:    uuid,
		method:  http.MethodPatch,
		path:    "/" + table + "/" + uuid,
		body:    data,
		ifMatch: strconv.Itoa(expectedVersion),
	}, out)
}

func (s *HTTPStore) Delete(ctx context.Context, table, uuid string) error {
	return s.do(ctx, call{op: "delete", table: table, uuid: uuid, method: http.MethodDelete, path: "/" + table + "/" + uuid}, nil)
}

func (s *HTTPStore) Count(ctx context.Context, table string, opts domain.QueryOptions) (int, error) {
	var resp struct {
		Count int `json:"count"`
	}
	path := "/" + table + "/count" + BuildQueryString(opts)
	if err := s.do(ctx, call{op: "count", table: table, method: http.MethodGet, path: path}, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

func (s *HTTPStore) Exists(ctx context.Context, table, uuid string) (bool, error) {
	err := s.GetByUUID(ctx, table, uuid, nil)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	return false, err
}

type call struct {
	op      string
	table   string
	uuid    string
	method  string
	path    string
	body    any
	ifMatch string
}

func (s *HTTPStore) do(ctx context.Context, c call, out any) error {
	fail := func(status int, err error) error {
		return &domain.StoreError{Op: c.op, Table: c.table, UUID: c.uuid, StatusCode: status, Err: err}
	}

	var body io.Reader
	if c.body != nil {
		payload, err := json.Marshal(c.body)
		if err != nil {
			return fail(0, fmt.Errorf("encode body: %w", err))
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, c.method, s.baseURL+c.path, body)
	if err != nil {
		return fail(0, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set(apiKeyHeader, s.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if c.ifMatch != "" {
		req.Header.Set("If-Match", c.ifMatch)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fail(0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fail(resp.StatusCode, fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, strings.TrimSpace(string(detail))))
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fail(resp.StatusCode, fmt.Errorf("decode response: %w", err))
	}
	return nil
}
