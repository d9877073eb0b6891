package model

import (
	"fmt"

	"github.com/google/uuid"
)

// ObjectID identifies one remotely persisted object: an entity name plus a
// resource identifier. Temporary IDs are client-minted placeholders that a
// successful create replaces with the durable server-assigned identifier.
type ObjectID struct {
	Entity    string `json:"entity"`
	ID        string `json:"id"`
	Temporary bool   `json:"temporary,omitempty"`
}

// NewObjectID creates a permanent object identifier.
func NewObjectID(entity, id string) ObjectID {
	return ObjectID{Entity: entity, ID: id}
}

// NewTemporaryID mints a placeholder identifier for a not-yet-persisted
// object of the given entity.
func NewTemporaryID(entity string) ObjectID {
	return ObjectID{Entity: entity, ID: "tmp-" + uuid.NewString(), Temporary: true}
}

// String returns the "entity/id" form of the identifier.
func (o ObjectID) String() string {
	return fmt.Sprintf("%s/%s", o.Entity, o.ID)
}

// IsZero reports whether the identifier is empty.
func (o ObjectID) IsZero() bool {
	return o.Entity == "" && o.ID == ""
}
