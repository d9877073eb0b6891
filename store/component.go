package store

import (
	"context"
	"fmt"
	"io"
)

// HealthStatus represents the health state of the store component.
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusUnhealthy HealthStatus = "unhealthy"
)

// Health holds health information for the store component.
type Health struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// Component wraps a Store with the lifecycle contract of a
// component-managed application (Name/Start/Stop/Health).
type Component struct {
	store *Store
	name  string
}

// NewComponent creates a lifecycle component around the store.
func NewComponent(store *Store) *Component {
	return &Component{store: store, name: "netstore"}
}

// Name returns the unique component name for registration.
func (c *Component) Name() string { return c.name }

// Store returns the wrapped store adapter.
func (c *Component) Store() *Store { return c.store }

// Start verifies the API client collaborator is configured.
func (c *Component) Start(ctx context.Context) error {
	api := c.store.Client()
	if api == nil {
		return fmt.Errorf("netstore: no API client configured")
	}
	if !api.IsAvailable(ctx) {
		return fmt.Errorf("netstore: API client is not available")
	}
	return nil
}

// Stop releases cache resources when the backend holds any (the SQLite
// cache does; the in-memory one does not).
func (c *Component) Stop(_ context.Context) error {
	if closer, ok := c.store.cache.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Health reports client availability and the cache entry count.
func (c *Component) Health(ctx context.Context) Health {
	api := c.store.Client()
	if api == nil || !api.IsAvailable(ctx) {
		return Health{Name: c.name, Status: StatusUnhealthy, Message: "API client unavailable"}
	}
	n, err := c.store.CacheLen(ctx)
	if err != nil {
		return Health{Name: c.name, Status: StatusUnhealthy, Message: fmt.Sprintf("cache: %v", err)}
	}
	return Health{Name: c.name, Status: StatusHealthy, Message: fmt.Sprintf("cache entries: %d", n)}
}

// compile-time assertion — Store implements the adapter contract
var _ Adapter = (*Store)(nil)
