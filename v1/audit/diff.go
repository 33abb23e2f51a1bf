// Package audit implements the structural diff engine behind the registry's
// audit ledger: it normalizes domain entities into plain JSON-shaped
// snapshots and computes ordered field-level change records between them.
package audit

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Diff compares two normalized snapshots and returns the ordered list of
// field-level changes. Equal snapshots produce an empty list, never a no-op
// record (this is what guarantees update suppression in the ledger).
func Diff(before, after map[string]any) ChangeList {
	return diffMaps("", before, after)
}

func diffMaps(prefix string, before, after map[string]any) ChangeList {
	changes := ChangeList{}

	for _, key := range unionKeys(before, after) {
		beforeValue := before[key]
		afterValue := after[key]

		// Deep value equality via canonical JSON. A missing key and an
		// explicit null share the same canonical form, so they compare
		// equal to each other and unequal to any concrete value.
		if canonical(beforeValue) == canonical(afterValue) {
			continue
		}

		field := prefix + key

		beforeList, beforeIsList := beforeValue.([]any)
		afterList, afterIsList := afterValue.([]any)
		beforeMap, beforeIsMap := beforeValue.(map[string]any)
		afterMap, afterIsMap := afterValue.(map[string]any)

		switch {
		case beforeIsList && afterIsList:
			changes = append(changes, diffCollections(field, beforeList, afterList)...)
		case beforeIsMap && afterIsMap:
			changes = append(changes, diffMaps(field+".", beforeMap, afterMap)...)
		default:
			// Scalar change, type mismatch, or one side missing
			changes = append(changes, Change{
				Field:  field,
				Kind:   ChangeModified,
				Before: beforeValue,
				After:  afterValue,
			})
		}
	}

	return changes
}

// diffCollections treats both arrays as named-item collections keyed by each
// item's "name" field when present, else by the item's canonical form. Items
// are matched by identity only: an item present on both sides emits nothing
// even if its other fields differ. Added records precede removed records.
func diffCollections(field string, before, after []any) ChangeList {
	beforeIdentities := collectIdentities(before)
	afterIdentities := collectIdentities(after)

	changes := ChangeList{}

	for _, identity := range afterIdentities.order {
		if _, existed := beforeIdentities.labels[identity]; !existed {
			changes = append(changes, Change{
				Field: field,
				Kind:  ChangeAdded,
				Value: afterIdentities.labels[identity],
			})
		}
	}

	for _, identity := range beforeIdentities.order {
		if _, exists := afterIdentities.labels[identity]; !exists {
			changes = append(changes, Change{
				Field: field,
				Kind:  ChangeRemoved,
				Value: beforeIdentities.labels[identity],
			})
		}
	}

	return changes
}

// identitySet maps collection-item identities to their display labels while
// preserving first-seen order
type identitySet struct {
	labels map[string]any
	order  []string
}

func collectIdentities(items []any) identitySet {
	set := identitySet{labels: make(map[string]any, len(items))}
	for _, item := range items {
		identity, label := itemIdentity(item)
		if _, seen := set.labels[identity]; seen {
			continue
		}
		set.labels[identity] = label
		set.order = append(set.order, identity)
	}
	return set
}

// itemIdentity derives a collection item's identity key and the label emitted
// in added/removed records: the item's "name" when it is an object carrying a
// string name, otherwise the item's own value.
func itemIdentity(item any) (identity string, label any) {
	if object, ok := item.(map[string]any); ok {
		if name, ok := object["name"].(string); ok {
			return name, name
		}
	}
	return canonical(item), item
}

// unionKeys returns the sorted keys of before followed by the sorted keys
// present only in after. Go maps are unordered, so sorting is the stable
// iteration policy that keeps diff output deterministic.
func unionKeys(before, after map[string]any) []string {
	keys := make([]string, 0, len(before)+len(after))
	for key := range before {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	afterOnly := make([]string, 0, len(after))
	for key := range after {
		if _, exists := before[key]; !exists {
			afterOnly = append(afterOnly, key)
		}
	}
	sort.Strings(afterOnly)

	return append(keys, afterOnly...)
}

// canonical returns the canonical serialized form of a JSON-shaped value.
// encoding/json marshals map keys in sorted order, so byte equality of the
// output is order-insensitive deep value equality. A missing value (nil)
// canonicalizes to "null".
func canonical(value any) string {
	data, err := json.Marshal(value)
	if err != nil {
		// Values reaching the differ come from a JSON round trip, so this is
		// unreachable for well-formed snapshots.
		return fmt.Sprintf("!%v", value)
	}
	return string(data)
}
