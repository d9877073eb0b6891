package store

import (
	"context"
	"testing"

	"github.com/netobjects/netstore/client"
	"github.com/netobjects/netstore/errors"
	"github.com/netobjects/netstore/model"
	"github.com/netobjects/netstore/storetest"
)

// The tests below run the full stack: store, REST client, and an
// in-process resource server.

func newIntegrationStore(t *testing.T, cfg storetest.ServerConfig, auth *client.AuthConfig) (*Store, *storetest.Server) {
	t.Helper()
	srv := storetest.NewServer(cfg)
	t.Cleanup(srv.Close)

	api, err := client.NewREST(client.Config{
		BaseURL: srv.URL(),
		Auth:    auth,
		Retry:   client.DefaultRetryConfig(),
	}, nil)
	if err != nil {
		t.Fatalf("NewREST: %v", err)
	}
	s := New(api, WithEntities(model.EntityDescription{
		Name:             "note",
		VersionAttribute: "rev",
	}))
	return s, srv
}

func TestIntegrationSaveFetchRoundTrip(t *testing.T) {
	s, srv := newIntegrationStore(t, storetest.ServerConfig{}, nil)

	saved, err := s.ExecuteSave(context.Background(), &model.SaveRequest{
		Inserts: []model.ChangedObject{{
			ID:       model.NewTemporaryID("note"),
			Snapshot: model.NewSnapshot(map[string]any{"title": "hello"}),
		}},
	})
	if err != nil {
		t.Fatalf("ExecuteSave: %v", err)
	}
	permanent := saved.Assignments[0].Permanent
	requests := srv.Requests()

	fetched, err := s.ExecuteFetch(context.Background(), &model.FetchRequest{
		Entity:    model.EntityDescription{Name: "note", VersionAttribute: "rev"},
		Predicate: model.Eq(model.IDAttribute, permanent.ID),
	})
	if err != nil {
		t.Fatalf("ExecuteFetch: %v", err)
	}
	if !fetched.FromCache {
		t.Error("FromCache = false, want cache hit after insert")
	}
	if got := srv.Requests(); got != requests {
		t.Errorf("server requests = %d after cached fetch, want %d", got, requests)
	}
	if fetched.Records[0].Snapshot.Values["title"] != "hello" {
		t.Errorf("title = %v, want hello", fetched.Records[0].Snapshot.Values["title"])
	}
	if fetched.Records[0].Snapshot.Version != 1 {
		t.Errorf("Version = %d, want 1", fetched.Records[0].Snapshot.Version)
	}
}

func TestIntegrationStaleUpdateSurfacesConflict(t *testing.T) {
	s, srv := newIntegrationStore(t, storetest.ServerConfig{}, nil)
	srv.Seed("note", "a", map[string]any{"title": "v1"})

	entity := model.EntityDescription{Name: "note", VersionAttribute: "rev"}
	pin := &model.FetchRequest{Entity: entity, Predicate: model.Eq(model.IDAttribute, "a")}
	if _, err := s.ExecuteFetch(context.Background(), pin); err != nil {
		t.Fatal(err)
	}

	// A concurrent writer bumps the object's version behind our back. The
	// call goes straight through the client, so the store's cache still
	// holds the rev-1 snapshot.
	if _, err := s.Client().Update(context.Background(), entity, "a",
		model.Snapshot{Values: map[string]any{"title": "v2"}, Version: 1}); err != nil {
		t.Fatalf("out-of-band update: %v", err)
	}

	_, err := s.ExecuteSave(context.Background(), &model.SaveRequest{
		Updates: []model.ChangedObject{{
			ID:       model.NewObjectID("note", "a"),
			Snapshot: model.Snapshot{Values: map[string]any{"title": "stale"}, Version: 1},
		}},
	})
	if !errors.IsConflict(err) {
		t.Fatalf("err = %v, want conflict", err)
	}

	cached, err := s.ExecuteFetch(context.Background(), pin)
	if err != nil {
		t.Fatal(err)
	}
	if !cached.FromCache || cached.Records[0].Snapshot.Values["title"] != "v1" {
		t.Errorf("cache after rejected update = %v, want the prior snapshot", cached.Records[0].Snapshot.Values)
	}
}

func TestIntegrationRetryRecoversTransientFailure(t *testing.T) {
	s, srv := newIntegrationStore(t, storetest.ServerConfig{}, nil)
	srv.Seed("note", "a", map[string]any{"title": "steady"})
	srv.FailNext(503, 1)

	result, err := s.ExecuteFetch(context.Background(), &model.FetchRequest{
		Entity:    model.EntityDescription{Name: "note", VersionAttribute: "rev"},
		Predicate: model.Eq(model.IDAttribute, "a"),
	})
	if err != nil {
		t.Fatalf("ExecuteFetch: %v", err)
	}
	if result.Records[0].Snapshot.Values["title"] != "steady" {
		t.Errorf("title = %v, want steady", result.Records[0].Snapshot.Values["title"])
	}
	if got := srv.Requests(); got < 2 {
		t.Errorf("server requests = %d, want the failed attempt plus the retry", got)
	}
}

func TestIntegrationBearerAuth(t *testing.T) {
	token, err := storetest.SignToken("sekret", "store-tests")
	if err != nil {
		t.Fatal(err)
	}
	s, _ := newIntegrationStore(t, storetest.ServerConfig{JWTSecret: "sekret"},
		client.BearerAuth(token))

	result, err := s.ExecuteSave(context.Background(), &model.SaveRequest{
		Inserts: []model.ChangedObject{{
			ID:       model.NewTemporaryID("note"),
			Snapshot: model.NewSnapshot(map[string]any{"title": "authed"}),
		}},
	})
	if err != nil {
		t.Fatalf("ExecuteSave with token: %v", err)
	}
	if len(result.Assignments) != 1 {
		t.Fatalf("len(Assignments) = %d, want 1", len(result.Assignments))
	}

	unauthed, _ := newIntegrationStore(t, storetest.ServerConfig{JWTSecret: "sekret"}, nil)
	_, err = unauthed.ExecuteFetch(context.Background(), &model.FetchRequest{
		Entity: model.EntityDescription{Name: "note"},
	})
	se, ok := errors.AsStoreError(err)
	if !ok || se.Code != errors.ErrCodeUnauthorized {
		t.Errorf("unauthenticated fetch err = %v, want unauthorized", err)
	}
}

func TestIntegrationListFilterAppliedServerSide(t *testing.T) {
	s, srv := newIntegrationStore(t, storetest.ServerConfig{}, nil)
	srv.Seed("note", "a", map[string]any{"title": "alpha", "stars": 1})
	srv.Seed("note", "b", map[string]any{"title": "beta", "stars": 4})
	srv.Seed("note", "c", map[string]any{"title": "gamma", "stars": 5})

	result, err := s.ExecuteFetch(context.Background(), &model.FetchRequest{
		Entity:    model.EntityDescription{Name: "note", VersionAttribute: "rev"},
		Predicate: model.Gte("stars", 4),
		Sort:      []model.SortDescriptor{model.Desc("stars")},
	})
	if err != nil {
		t.Fatalf("ExecuteFetch: %v", err)
	}
	if len(result.Records) != 2 {
		t.Fatalf("len(Records) = %d, want 2", len(result.Records))
	}
	if result.Records[0].Snapshot.Values["title"] != "gamma" {
		t.Errorf("first record = %v, want gamma", result.Records[0].Snapshot.Values["title"])
	}

	// The matching snapshots were cached on the way through.
	cached, err := s.ExecuteFetch(context.Background(), &model.FetchRequest{
		Entity:    model.EntityDescription{Name: "note", VersionAttribute: "rev"},
		Predicate: model.In(model.IDAttribute, "b", "c"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if !cached.FromCache {
		t.Error("FromCache = false, want list results to warm the cache")
	}
}
