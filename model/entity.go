package model

import "strings"

// IDAttribute is the attribute name carrying the remote identifier in
// snapshots returned by the API.
const IDAttribute = "id"

// EntityDescription describes one remotely persisted entity kind.
type EntityDescription struct {
	// Name is the entity name as known to the persistence framework.
	Name string `validate:"required"`
	// ResourcePath is the API resource segment. Defaults to the lowercased
	// entity name when empty.
	ResourcePath string
	// Attributes lists the attribute names the entity carries. Empty means
	// the attribute set is open (snapshots are taken as-is).
	Attributes []string
	// VersionAttribute names the attribute used for optimistic concurrency,
	// if the entity has one.
	VersionAttribute string
}

// Path returns the API resource path for the entity.
func (e EntityDescription) Path() string {
	if e.ResourcePath != "" {
		return e.ResourcePath
	}
	return strings.ToLower(e.Name)
}

// HasAttribute reports whether the entity declares the named attribute.
// An entity with an empty attribute list accepts any attribute.
func (e EntityDescription) HasAttribute(name string) bool {
	if len(e.Attributes) == 0 {
		return true
	}
	if name == IDAttribute {
		return true
	}
	for _, a := range e.Attributes {
		if a == name {
			return true
		}
	}
	return false
}
