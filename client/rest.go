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

	"github.com/netobjects/netstore/logger"
	"github.com/netobjects/netstore/model"
	"github.com/netobjects/netstore/resilience"
	"github.com/netobjects/netstore/version"
)

// REST is an HTTP/JSON implementation of Client.
//
// Resource conventions:
//
//	POST   {base}/{entity}          create, returns the full object
//	GET    {base}/{entity}/{id}     read one
//	GET    {base}/{entity}?...      list with query parameters
//	GET    {base}/{entity}/count    count with query parameters
//	PATCH  {base}/{entity}/{id}     partial update, returns the full object
//	DELETE {base}/{entity}/{id}     delete
type REST struct {
	httpClient *http.Client
	config     Config
	cb         *resilience.CircuitBreaker
	log        *logger.Logger
}

// NewREST creates a REST client with the given configuration.
func NewREST(cfg Config, log *logger.Logger) (*REST, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}

	r := &REST{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		config:     cfg,
		log:        log.WithComponent("client"),
	}
	if cfg.CircuitBreaker != nil {
		r.cb = resilience.NewCircuitBreaker(*cfg.CircuitBreaker)
	}
	return r, nil
}

// Create persists a new object remotely.
func (r *REST) Create(ctx context.Context, entity model.EntityDescription, values model.Snapshot) (model.Record, error) {
	body, err := r.do(ctx, http.MethodPost, entity.Path(), nil, payloadFromSnapshot(entity, values))
	if err != nil {
		return model.Record{}, err
	}
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return model.Record{}, NewValidationError(fmt.Sprintf("decode create response: %v", err))
	}
	return recordFromPayload(entity, payload)
}

// Get fetches one object's snapshot.
func (r *REST) Get(ctx context.Context, entity model.EntityDescription, id string) (model.Snapshot, error) {
	body, err := r.do(ctx, http.MethodGet, entity.Path()+"/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return model.Snapshot{}, err
	}
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return model.Snapshot{}, NewValidationError(fmt.Sprintf("decode get response: %v", err))
	}
	return snapshotFromPayload(entity, payload), nil
}

// List fetches all records matching the query.
func (r *REST) List(ctx context.Context, q Query) ([]model.Record, error) {
	params, err := EncodeQuery(q)
	if err != nil {
		return nil, err
	}
	body, err := r.do(ctx, http.MethodGet, q.Entity.Path(), params, nil)
	if err != nil {
		return nil, err
	}
	var payloads []map[string]any
	if err := json.Unmarshal(body, &payloads); err != nil {
		return nil, NewValidationError(fmt.Sprintf("decode list response: %v", err))
	}
	records := make([]model.Record, 0, len(payloads))
	for _, payload := range payloads {
		rec, err := recordFromPayload(q.Entity, payload)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// Count returns the number of objects matching the query.
func (r *REST) Count(ctx context.Context, q Query) (int, error) {
	params, err := EncodeQuery(q)
	if err != nil {
		return 0, err
	}
	body, err := r.do(ctx, http.MethodGet, q.Entity.Path()+"/count", params, nil)
	if err != nil {
		return 0, err
	}
	var payload struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return 0, NewValidationError(fmt.Sprintf("decode count response: %v", err))
	}
	return payload.Count, nil
}

// Update applies changed attributes to one object.
func (r *REST) Update(ctx context.Context, entity model.EntityDescription, id string, changes model.Snapshot) (model.Snapshot, error) {
	body, err := r.do(ctx, http.MethodPatch, entity.Path()+"/"+url.PathEscape(id), nil, payloadFromSnapshot(entity, changes))
	if err != nil {
		return model.Snapshot{}, err
	}
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return model.Snapshot{}, NewValidationError(fmt.Sprintf("decode update response: %v", err))
	}
	return snapshotFromPayload(entity, payload), nil
}

// Delete removes one object.
func (r *REST) Delete(ctx context.Context, entity model.EntityDescription, id string) error {
	_, err := r.do(ctx, http.MethodDelete, entity.Path()+"/"+url.PathEscape(id), nil, nil)
	return err
}

// IsAvailable reports whether the client is configured.
func (r *REST) IsAvailable(_ context.Context) bool {
	return r != nil && r.config.BaseURL != ""
}

// do executes one request with the configured retry and circuit breaker.
func (r *REST) do(ctx context.Context, method, path string, params url.Values, body any) ([]byte, error) {
	if r.config.Retry != nil {
		return resilience.Retry(ctx, *r.config.Retry, func() ([]byte, error) {
			return r.doOnce(ctx, method, path, params, body)
		})
	}
	return r.doOnce(ctx, method, path, params, body)
}

func (r *REST) doOnce(ctx context.Context, method, path string, params url.Values, body any) ([]byte, error) {
	if r.cb != nil {
		var out []byte
		err := r.cb.Execute(func() error {
			var execErr error
			out, execErr = r.executeRequest(ctx, method, path, params, body)
			return execErr
		})
		return out, err
	}
	return r.executeRequest(ctx, method, path, params, body)
}

func (r *REST) executeRequest(ctx context.Context, method, path string, params url.Values, body any) ([]byte, error) {
	httpReq, err := r.buildRequest(ctx, method, path, params, body)
	if err != nil {
		return nil, err
	}

	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, NewTimeoutError(err)
		}
		return nil, NewConnectionError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewConnectionError(fmt.Errorf("read response body: %w", err))
	}

	if classErr := ClassifyStatusCode(resp.StatusCode, respBody); classErr != nil {
		r.log.Debug("request failed", logger.Fields(
			"method", method, "path", path, "status", resp.StatusCode))
		return nil, classErr
	}
	return respBody, nil
}

func (r *REST) buildRequest(ctx context.Context, method, path string, params url.Values, body any) (*http.Request, error) {
	full := strings.TrimRight(r.config.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, NewValidationError(fmt.Sprintf("encode body: %v", err))
		}
		reader = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, full, reader)
	if err != nil {
		return nil, NewValidationError(fmt.Sprintf("create request: %v", err))
	}
	if len(params) > 0 {
		httpReq.URL.RawQuery = params.Encode()
	}
	for k, v := range r.config.Headers {
		httpReq.Header.Set(k, v)
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", version.UserAgent())
	r.config.Auth.apply(httpReq)
	return httpReq, nil
}

// EncodeQuery translates a query into URL parameters:
//
//	filter  JSON-encoded predicate tree
//	sort    comma-separated attributes, "-" prefix for descending
//	limit   positive integer
//	offset  positive integer
func EncodeQuery(q Query) (url.Values, error) {
	params := url.Values{}
	if q.Predicate != nil {
		if err := q.Predicate.Validate(); err != nil {
			return nil, NewValidationError(err.Error())
		}
		data, err := json.Marshal(q.Predicate)
		if err != nil {
			return nil, NewValidationError(fmt.Sprintf("encode predicate: %v", err))
		}
		params.Set("filter", string(data))
	}
	if len(q.Sort) > 0 {
		keys := make([]string, len(q.Sort))
		for i, d := range q.Sort {
			if d.Descending {
				keys[i] = "-" + d.Attribute
			} else {
				keys[i] = d.Attribute
			}
		}
		params.Set("sort", strings.Join(keys, ","))
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		params.Set("offset", strconv.Itoa(q.Offset))
	}
	return params, nil
}

// compile-time interface check
var _ Client = (*REST)(nil)
