package store

import (
	"context"
	stderrors "errors"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/netobjects/netstore/cache"
	"github.com/netobjects/netstore/client"
	"github.com/netobjects/netstore/errors"
	"github.com/netobjects/netstore/logger"
	"github.com/netobjects/netstore/model"
	"github.com/netobjects/netstore/resilience"
)

// TypeIdentifier is the store type string used by the registry to select
// this adapter. Fixed at process start.
const TypeIdentifier = "netstore.rest"

// Type returns the store type identifier.
func Type() string { return TypeIdentifier }

const tracerName = "github.com/netobjects/netstore/store"

// Adapter is the capability contract an incremental store satisfies.
type Adapter interface {
	// ExecuteFetch resolves a fetch request against the cache and the
	// remote API.
	ExecuteFetch(ctx context.Context, req *model.FetchRequest) (*model.FetchResult, error)

	// ExecuteSave pushes a change set to the remote API and returns the
	// permanent identifier assignments for inserted objects.
	ExecuteSave(ctx context.Context, req *model.SaveRequest) (*model.SaveResult, error)
}

// Store is the incremental store adapter. Safe for concurrent use from
// multiple persistence contexts.
type Store struct {
	// mu guards the api reference, which is settable after construction.
	mu       sync.RWMutex
	api      client.Client
	cache    cache.Cache
	entities map[string]model.EntityDescription
	log      *logger.Logger
	tracer   trace.Tracer
}

// Option configures a Store.
type Option func(*Store)

// WithCache replaces the default in-memory snapshot cache.
func WithCache(c cache.Cache) Option {
	return func(s *Store) { s.cache = c }
}

// WithLogger sets the store's logger.
func WithLogger(l *logger.Logger) Option {
	return func(s *Store) { s.log = l.WithComponent("store") }
}

// WithEntities pre-registers entity descriptions so save requests, which
// carry only entity names, resolve resource paths and version attributes.
func WithEntities(descs ...model.EntityDescription) Option {
	return func(s *Store) {
		for _, d := range descs {
			s.entities[d.Name] = d
		}
	}
}

// New creates a store adapter around the given API client.
func New(api client.Client, opts ...Option) *Store {
	s := &Store{
		api:      api,
		cache:    cache.NewMemory(0),
		entities: make(map[string]model.EntityDescription),
		log:      logger.Nop(),
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetClient replaces the API client reference. The store holds the
// reference non-owning; the caller manages the client's lifetime.
func (s *Store) SetClient(api client.Client) {
	s.mu.Lock()
	s.api = api
	s.mu.Unlock()
}

// Client returns the current API client reference.
func (s *Store) Client() client.Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.api
}

// RegisterEntity registers an entity description after construction.
func (s *Store) RegisterEntity(desc model.EntityDescription) {
	s.mu.Lock()
	s.entities[desc.Name] = desc
	s.mu.Unlock()
}

// Invalidate drops the cached snapshot for one identifier.
func (s *Store) Invalidate(ctx context.Context, id model.ObjectID) error {
	return s.cache.Delete(ctx, id)
}

// InvalidateEntity drops every cached snapshot of the named entity.
func (s *Store) InvalidateEntity(ctx context.Context, entity string) error {
	return s.cache.InvalidateEntity(ctx, entity)
}

// Clear drops every cached snapshot.
func (s *Store) Clear(ctx context.Context) error {
	return s.cache.Clear(ctx)
}

// CacheLen returns the number of cached snapshots.
func (s *Store) CacheLen(ctx context.Context) (int, error) {
	return s.cache.Len(ctx)
}

func (s *Store) entityFor(name string) model.EntityDescription {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if desc, ok := s.entities[name]; ok {
		return desc
	}
	return model.EntityDescription{Name: name}
}

// cacheGet reads one snapshot, treating corruption as a miss.
func (s *Store) cacheGet(ctx context.Context, id model.ObjectID) (model.Snapshot, bool) {
	snap, ok, err := s.cache.Get(ctx, id)
	if err != nil {
		s.log.Warn("cache entry dropped", logger.Fields(
			logger.FieldObjectID, id.String(), logger.FieldError, err.Error()))
		return model.Snapshot{}, false
	}
	return snap, ok
}

// translateError converts client and context errors into persistence-layer
// errors. Already-translated store errors pass through.
func translateError(operation string, entity string, id string, err error) error {
	if err == nil {
		return nil
	}
	if se, ok := errors.AsStoreError(err); ok {
		return se
	}
	switch {
	case stderrors.Is(err, context.Canceled):
		return errors.Cancelled(operation, err)
	case client.IsNotFound(err):
		return errors.NotFound(entity, id)
	case client.IsConflict(err):
		return errors.Conflict(entity, id, err)
	case client.IsAuth(err):
		return errors.Unauthorized(err)
	case client.IsTimeout(err), stderrors.Is(err, context.DeadlineExceeded):
		return errors.Timeout(operation, err)
	case client.IsConnection(err):
		return errors.Transport(operation, err)
	case stderrors.Is(err, resilience.ErrCircuitOpen), client.IsRetryable(err):
		return errors.Unavailable(err)
	}
	var ce *client.Error
	if stderrors.As(err, &ce) && ce.Code == client.ErrCodeValidation {
		return errors.Validation(ce.Message).WithCause(err)
	}
	return errors.Transport(operation, err)
}

func (s *Store) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
