package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/netobjects/netstore/model"
)

var widgetEntity = model.EntityDescription{Name: "Widget", ResourcePath: "widgets", VersionAttribute: "rev"}

func newTestREST(t *testing.T, handler http.Handler, mutate func(*Config)) (*REST, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := Config{BaseURL: srv.URL, Timeout: 5 * time.Second}
	if mutate != nil {
		mutate(&cfg)
	}
	c, err := NewREST(cfg, nil)
	if err != nil {
		t.Fatalf("new rest: %v", err)
	}
	return c, srv
}

func TestNewREST_RequiresBaseURL(t *testing.T) {
	if _, err := NewREST(Config{}, nil); err == nil {
		t.Error("expected error for missing base URL")
	}
}

func TestREST_Create_Success(t *testing.T) {
	c, _ := newTestREST(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/widgets" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["name"] != "x" {
			t.Errorf("expected name=x in body, got %v", body)
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "42", "name": "x", "rev": 1})
	}), nil)

	rec, err := c.Create(context.Background(), widgetEntity, model.NewSnapshot(map[string]any{"name": "x"}))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.ID.ID != "42" || rec.ID.Entity != "Widget" {
		t.Errorf("unexpected id: %+v", rec.ID)
	}
	if rec.Snapshot.Values["name"] != "x" {
		t.Errorf("unexpected snapshot: %+v", rec.Snapshot)
	}
	if rec.Snapshot.Version != 1 {
		t.Errorf("expected version 1, got %d", rec.Snapshot.Version)
	}
	if _, ok := rec.Snapshot.Values["id"]; ok {
		t.Error("id attribute should be stripped from snapshot values")
	}
}

func TestREST_Create_NumericID(t *testing.T) {
	c, _ := newTestREST(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"id": 42, "name": "x"})
	}), nil)

	rec, err := c.Create(context.Background(), widgetEntity, model.NewSnapshot(map[string]any{"name": "x"}))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.ID.ID != "42" {
		t.Errorf("expected numeric id coerced to string, got %q", rec.ID.ID)
	}
}

func TestREST_Get_NotFound(t *testing.T) {
	c, _ := newTestREST(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}), nil)

	_, err := c.Get(context.Background(), widgetEntity, "missing")
	if !IsNotFound(err) {
		t.Errorf("expected not-found classification, got %v", err)
	}
}

func TestREST_Update_Conflict(t *testing.T) {
	c, _ := newTestREST(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}), nil)

	_, err := c.Update(context.Background(), widgetEntity, "42", model.NewSnapshot(map[string]any{"name": "y"}))
	if !IsConflict(err) {
		t.Errorf("expected conflict classification, got %v", err)
	}
}

func TestREST_List_TranslatesQuery(t *testing.T) {
	c, _ := newTestREST(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("limit") != "5" || q.Get("offset") != "10" {
			t.Errorf("unexpected limit/offset: %v", q)
		}
		if q.Get("sort") != "-size,name" {
			t.Errorf("unexpected sort: %q", q.Get("sort"))
		}
		var pred model.Predicate
		if err := json.Unmarshal([]byte(q.Get("filter")), &pred); err != nil {
			t.Errorf("filter is not a predicate: %v", err)
		}
		_ = json.NewEncoder(w).Encode([]map[string]any{{"id": "1", "name": "a"}})
	}), nil)

	records, err := c.List(context.Background(), Query{
		Entity:    widgetEntity,
		Predicate: model.Eq("name", "a"),
		Sort:      []model.SortDescriptor{model.Desc("size"), model.Asc("name")},
		Limit:     5,
		Offset:    10,
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 1 || records[0].ID.ID != "1" {
		t.Errorf("unexpected records: %+v", records)
	}
}

func TestREST_List_Empty(t *testing.T) {
	c, _ := newTestREST(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]map[string]any{})
	}), nil)

	records, err := c.List(context.Background(), Query{Entity: widgetEntity})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected empty result, got %+v", records)
	}
}

func TestREST_Count(t *testing.T) {
	c, _ := newTestREST(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/widgets/count" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]int{"count": 7})
	}), nil)

	n, err := c.Count(context.Background(), Query{Entity: widgetEntity})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 7 {
		t.Errorf("expected 7, got %d", n)
	}
}

func TestREST_Delete(t *testing.T) {
	var gotPath string
	c, _ := newTestREST(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.Method + " " + r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}), nil)

	if err := c.Delete(context.Background(), widgetEntity, "42"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if gotPath != "DELETE /widgets/42" {
		t.Errorf("unexpected request: %s", gotPath)
	}
}

func TestREST_Retry_RecoversFromServerError(t *testing.T) {
	attempts := 0
	c, _ := newTestREST(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "1", "name": "a"})
	}), func(cfg *Config) {
		retry := DefaultRetryConfig()
		retry.InitialBackoff = time.Millisecond
		cfg.Retry = retry
	})

	if _, err := c.Get(context.Background(), widgetEntity, "1"); err != nil {
		t.Fatalf("expected eventual success, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestREST_Retry_DoesNotRetryConflict(t *testing.T) {
	attempts := 0
	c, _ := newTestREST(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusConflict)
	}), func(cfg *Config) {
		retry := DefaultRetryConfig()
		retry.InitialBackoff = time.Millisecond
		cfg.Retry = retry
	})

	_, err := c.Update(context.Background(), widgetEntity, "1", model.NewSnapshot(map[string]any{"name": "y"}))
	if !IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("conflicts must not be retried, got %d attempts", attempts)
	}
}

func TestREST_AuthHeaders(t *testing.T) {
	c, _ := newTestREST(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("missing bearer token, got %q", r.Header.Get("Authorization"))
		}
		if r.Header.Get("X-Client") != "netstore" {
			t.Errorf("missing default header")
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "1"})
	}), func(cfg *Config) {
		cfg.Auth = BearerAuth("secret")
		cfg.Headers = map[string]string{"X-Client": "netstore"}
	})

	if _, err := c.Get(context.Background(), widgetEntity, "1"); err != nil {
		t.Fatalf("get: %v", err)
	}
}

func TestREST_ContextCancelled(t *testing.T) {
	c, _ := newTestREST(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := c.Get(ctx, widgetEntity, "1")
	if !IsTimeout(err) {
		t.Errorf("expected timeout classification, got %v", err)
	}
}

func TestClassifyStatusCode(t *testing.T) {
	cases := []struct {
		status int
		code   ErrorCode
	}{
		{401, ErrCodeAuth},
		{403, ErrCodeAuth},
		{404, ErrCodeNotFound},
		{409, ErrCodeConflict},
		{412, ErrCodeConflict},
		{422, ErrCodeValidation},
		{500, ErrCodeServer},
		{503, ErrCodeServer},
	}
	for _, tc := range cases {
		err := ClassifyStatusCode(tc.status, nil)
		if err == nil || err.Code != tc.code {
			t.Errorf("status %d: expected %s, got %v", tc.status, tc.code, err)
		}
	}
	if ClassifyStatusCode(200, nil) != nil || ClassifyStatusCode(204, nil) != nil {
		t.Error("2xx must not classify as error")
	}
}

func TestClassifyStatusCode_ServerErrorsRetryable(t *testing.T) {
	if !ClassifyStatusCode(503, nil).Retryable {
		t.Error("5xx should be retryable")
	}
	if ClassifyStatusCode(409, nil).Retryable {
		t.Error("conflict should not be retryable")
	}
}
