package store

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/netobjects/netstore/client"
	"github.com/netobjects/netstore/errors"
	"github.com/netobjects/netstore/logger"
	"github.com/netobjects/netstore/model"
)

// ExecuteFetch resolves a fetch request. Requests whose predicate pins
// exact identifiers are served from the cache when every identifier is
// present; everything else is delegated to the API client, and the
// returned snapshots refresh the cache.
func (s *Store) ExecuteFetch(ctx context.Context, req *model.FetchRequest) (*model.FetchResult, error) {
	if req == nil {
		return nil, errors.Validation("fetch request is nil")
	}
	if err := req.Validate(); err != nil {
		return nil, errors.Validation(err.Error()).WithCause(err)
	}

	ctx, span := s.startSpan(ctx, "store.fetch",
		attribute.String("entity", req.Entity.Name),
		attribute.String("result_type", req.ResultType.String()),
	)
	result, err := s.executeFetch(ctx, req)
	if result != nil {
		span.SetAttributes(attribute.Bool("cache_hit", result.FromCache))
	}
	endSpan(span, err)
	return result, err
}

func (s *Store) executeFetch(ctx context.Context, req *model.FetchRequest) (*model.FetchResult, error) {
	if ids, pinned := req.Predicate.IdentifierSet(); pinned {
		return s.fetchByIdentifiers(ctx, req, dedupe(ids))
	}
	return s.fetchRemote(ctx, req)
}

// fetchByIdentifiers serves an identifier-pinned fetch. The cache answers
// alone only when it holds every pinned identifier; a single miss sends
// the whole set to the remote API so the result can never silently mix
// fresh and unknown objects.
func (s *Store) fetchByIdentifiers(ctx context.Context, req *model.FetchRequest, ids []string) (*model.FetchResult, error) {
	records := make([]model.Record, 0, len(ids))
	for _, id := range ids {
		oid := model.NewObjectID(req.Entity.Name, id)
		snap, ok := s.cacheGet(ctx, oid)
		if !ok {
			return s.fetchIdentifiersRemote(ctx, req, ids)
		}
		records = append(records, model.Record{ID: oid, Snapshot: snap})
	}

	s.log.Debug("fetch served from cache", logger.Fields(
		logger.FieldEntity, req.Entity.Name, logger.FieldCount, len(records)))
	return buildFetchResult(req, records, true), nil
}

// fetchIdentifiersRemote resolves a pinned identifier set against the API
// one object at a time. Missing objects are skipped; they are an empty
// slot in the result, not an error.
func (s *Store) fetchIdentifiersRemote(ctx context.Context, req *model.FetchRequest, ids []string) (*model.FetchResult, error) {
	api := s.Client()
	if api == nil {
		return nil, errors.Internal(nil).WithDetail("reason", "no API client configured")
	}

	records := make([]model.Record, 0, len(ids))
	for _, id := range ids {
		snap, err := api.Get(ctx, req.Entity, id)
		if err != nil {
			if client.IsNotFound(err) {
				continue
			}
			return nil, translateError("fetch", req.Entity.Name, id, err)
		}
		records = append(records, model.Record{ID: model.NewObjectID(req.Entity.Name, id), Snapshot: snap})
	}

	// A cancelled call must not leave partial state behind.
	if ctx.Err() != nil {
		return nil, errors.Cancelled("fetch", ctx.Err())
	}
	s.populateCache(ctx, records)
	return buildFetchResult(req, records, false), nil
}

// fetchRemote delegates a general fetch to the API client.
func (s *Store) fetchRemote(ctx context.Context, req *model.FetchRequest) (*model.FetchResult, error) {
	api := s.Client()
	if api == nil {
		return nil, errors.Internal(nil).WithDetail("reason", "no API client configured")
	}

	q := client.Query{
		Entity:    req.Entity,
		Predicate: req.Predicate,
		Sort:      req.Sort,
		Limit:     req.Limit,
		Offset:    req.Offset,
	}

	if req.ResultType == model.ResultCount {
		n, err := api.Count(ctx, q)
		if err != nil {
			return nil, translateError("count", req.Entity.Name, "", err)
		}
		return &model.FetchResult{Count: n}, nil
	}

	records, err := api.List(ctx, q)
	if err != nil {
		return nil, translateError("fetch", req.Entity.Name, "", err)
	}
	if ctx.Err() != nil {
		return nil, errors.Cancelled("fetch", ctx.Err())
	}
	s.populateCache(ctx, records)

	s.log.Debug("fetch served from remote", logger.Fields(
		logger.FieldEntity, req.Entity.Name, logger.FieldCount, len(records)))

	// The server already applied predicate, sort and window.
	return resultForType(req.ResultType, records, false), nil
}

func (s *Store) populateCache(ctx context.Context, records []model.Record) {
	for _, rec := range records {
		if err := s.cache.Put(ctx, rec.ID, rec.Snapshot); err != nil {
			s.log.Warn("cache refresh failed", logger.Fields(
				logger.FieldObjectID, rec.ID.String(), logger.FieldError, err.Error()))
		}
	}
}

// buildFetchResult orders and windows records locally, then shapes them
// for the requested granularity. Used for cache-served and per-identifier
// paths, where the server had no chance to apply sort and window.
func buildFetchResult(req *model.FetchRequest, records []model.Record, fromCache bool) *model.FetchResult {
	if req.ResultType == model.ResultCount {
		return &model.FetchResult{Count: len(records), FromCache: fromCache}
	}
	model.SortRecords(records, req.Sort)
	records = model.ClampRecords(records, req.Offset, req.Limit)
	return resultForType(req.ResultType, records, fromCache)
}

func resultForType(t model.ResultType, records []model.Record, fromCache bool) *model.FetchResult {
	switch t {
	case model.ResultCount:
		return &model.FetchResult{Count: len(records), FromCache: fromCache}
	case model.ResultObjectIDs:
		ids := make([]model.ObjectID, len(records))
		for i, rec := range records {
			ids[i] = rec.ID
		}
		return &model.FetchResult{ObjectIDs: ids, FromCache: fromCache}
	default:
		return &model.FetchResult{Records: records, FromCache: fromCache}
	}
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
