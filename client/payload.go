package client

import (
	"fmt"
	"strconv"

	"github.com/netobjects/netstore/model"
)

// recordFromPayload splits a wire object into identifier and snapshot.
// The id attribute moves into the record's ObjectID and the version
// attribute, when the entity declares one, into Snapshot.Version.
func recordFromPayload(entity model.EntityDescription, payload map[string]any) (model.Record, error) {
	raw, ok := payload[model.IDAttribute]
	if !ok {
		return model.Record{}, NewValidationError(fmt.Sprintf("%s object has no id attribute", entity.Name))
	}
	id, ok := idString(raw)
	if !ok {
		return model.Record{}, NewValidationError(fmt.Sprintf("%s object has a non-scalar id: %v", entity.Name, raw))
	}
	return model.Record{
		ID:       model.NewObjectID(entity.Name, id),
		Snapshot: snapshotFromPayload(entity, payload),
	}, nil
}

// snapshotFromPayload builds a snapshot from a wire object, stripping the
// id and version attributes out of the value map.
func snapshotFromPayload(entity model.EntityDescription, payload map[string]any) model.Snapshot {
	values := make(map[string]any, len(payload))
	var version int64
	for k, v := range payload {
		if k == model.IDAttribute {
			continue
		}
		if entity.VersionAttribute != "" && k == entity.VersionAttribute {
			if f, ok := v.(float64); ok {
				version = int64(f)
				continue
			}
		}
		values[k] = v
	}
	return model.Snapshot{Values: values, Version: version}
}

// payloadFromSnapshot builds the wire body for a create or update. The
// version attribute is included when set so the server can reject stale
// writes.
func payloadFromSnapshot(entity model.EntityDescription, snap model.Snapshot) map[string]any {
	payload := make(map[string]any, len(snap.Values)+1)
	for k, v := range snap.Values {
		payload[k] = v
	}
	if entity.VersionAttribute != "" && snap.Version > 0 {
		payload[entity.VersionAttribute] = snap.Version
	}
	return payload
}

func idString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, t != ""
	case float64:
		return strconv.FormatInt(int64(t), 10), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	}
	return "", false
}
