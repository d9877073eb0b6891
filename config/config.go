package config

import (
	"fmt"

	"github.com/netobjects/netstore/cache"
	cachesqlite "github.com/netobjects/netstore/cache/sqlite"
	"github.com/netobjects/netstore/client"
	"github.com/netobjects/netstore/logger"
	"github.com/netobjects/netstore/model"
)

// Config is the root configuration of a netstore-backed application.
type Config struct {
	Name        string `yaml:"name" mapstructure:"name"`
	Environment string `yaml:"environment" mapstructure:"environment"`
	Debug       bool   `yaml:"debug" mapstructure:"debug"`

	Logging logger.Config `yaml:"logging" mapstructure:"logging"`
	Client  client.Config `yaml:"client" mapstructure:"client"`
	Cache   CacheConfig   `yaml:"cache" mapstructure:"cache"`
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "netstore"
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Environment == "development" {
		c.Debug = true
	}
	c.Logging.ApplyDefaults()
	c.Client.ApplyDefaults()
	c.Cache.ApplyDefaults()
}

// Validate checks the whole configuration tree.
func (c *Config) Validate() error {
	switch c.Environment {
	case "development", "staging", "production":
	default:
		return fmt.Errorf("environment must be one of [development, staging, production] (got: %s)", c.Environment)
	}
	if err := c.Client.Validate(); err != nil {
		return err
	}
	if err := c.Cache.Validate(); err != nil {
		return err
	}
	return c.Store.Validate()
}

// CacheConfig selects and bounds the snapshot cache backend.
type CacheConfig struct {
	// Backend is "memory" or "sqlite".
	Backend string `yaml:"backend" mapstructure:"backend"`
	// MaxEntries bounds the in-memory cache. 0 means unbounded. Ignored
	// by the sqlite backend.
	MaxEntries int `yaml:"max_entries" mapstructure:"max_entries"`
	// Path is the database file used by the sqlite backend.
	Path string `yaml:"path" mapstructure:"path"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *CacheConfig) ApplyDefaults() {
	if c.Backend == "" {
		c.Backend = "memory"
	}
}

// Validate checks the cache configuration.
func (c *CacheConfig) Validate() error {
	switch c.Backend {
	case "memory":
	case "sqlite":
		if c.Path == "" {
			return fmt.Errorf("cache: path is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("cache: backend must be memory or sqlite (got: %s)", c.Backend)
	}
	if c.MaxEntries < 0 {
		return fmt.Errorf("cache: max_entries must not be negative")
	}
	return nil
}

// Build creates the configured cache backend.
func (c *CacheConfig) Build() (cache.Cache, error) {
	switch c.Backend {
	case "sqlite":
		return cachesqlite.Open(c.Path)
	default:
		return cache.NewMemory(c.MaxEntries), nil
	}
}

// StoreConfig carries the entity descriptions the store registers at
// construction.
type StoreConfig struct {
	Entities []EntityConfig `yaml:"entities" mapstructure:"entities"`
}

// Validate checks the store configuration.
func (c *StoreConfig) Validate() error {
	seen := make(map[string]bool, len(c.Entities))
	for _, e := range c.Entities {
		if e.Name == "" {
			return fmt.Errorf("store: entity name is required")
		}
		if seen[e.Name] {
			return fmt.Errorf("store: duplicate entity %q", e.Name)
		}
		seen[e.Name] = true
	}
	return nil
}

// EntityDescriptions converts the configured entities into model
// descriptions for store registration.
func (c *StoreConfig) EntityDescriptions() []model.EntityDescription {
	descs := make([]model.EntityDescription, len(c.Entities))
	for i, e := range c.Entities {
		descs[i] = model.EntityDescription{
			Name:             e.Name,
			ResourcePath:     e.ResourcePath,
			Attributes:       e.Attributes,
			VersionAttribute: e.VersionAttribute,
		}
	}
	return descs
}

// EntityConfig describes one entity kind exposed by the remote API.
type EntityConfig struct {
	Name             string   `yaml:"name" mapstructure:"name"`
	ResourcePath     string   `yaml:"resource_path" mapstructure:"resource_path"`
	Attributes       []string `yaml:"attributes" mapstructure:"attributes"`
	VersionAttribute string   `yaml:"version_attribute" mapstructure:"version_attribute"`
}
