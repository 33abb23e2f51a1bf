package audit

import (
	"encoding/json"
)

// volatileKeys are stripped from snapshots at every nesting level before
// comparison. Identity and version stamps churn on every write, and credential
// material must never end up in a ledger entry.
var volatileKeys = map[string]struct{}{
	"id":           {},
	"_id":          {},
	"createdAt":    {},
	"updatedAt":    {},
	"deletedAt":    {},
	"version":      {},
	"__v":          {},
	"password":     {},
	"passwordHash": {},
}

// Normalize converts a domain entity into a plain, JSON-comparable nested
// structure via a marshal/unmarshal round trip, then strips volatile keys.
// A nil entity (no "before" on creation, no "after" on deletion) normalizes
// to an empty map.
func Normalize(entity any) map[string]any {
	if entity == nil {
		return map[string]any{}
	}

	data, err := json.Marshal(entity)
	if err != nil {
		return map[string]any{}
	}

	var snapshot map[string]any
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return map[string]any{}
	}
	if snapshot == nil {
		return map[string]any{}
	}

	stripVolatile(snapshot)
	return snapshot
}

// stripVolatile removes denylisted keys from the snapshot, recursing into
// nested objects and arrays of objects
func stripVolatile(snapshot map[string]any) {
	for key, value := range snapshot {
		if _, volatile := volatileKeys[key]; volatile {
			delete(snapshot, key)
			continue
		}
		switch v := value.(type) {
		case map[string]any:
			stripVolatile(v)
		case []any:
			for _, item := range v {
				if nested, ok := item.(map[string]any); ok {
					stripVolatile(nested)
				}
			}
		}
	}
}
