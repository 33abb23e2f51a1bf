package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type household struct {
	ID        string         `json:"id"`
	HeadName  string         `json:"headName"`
	Phone     string         `json:"phone,omitempty"`
	Family    []familyMember `json:"familyMembers"`
	UpdatedAt string         `json:"updatedAt"`
}

type familyMember struct {
	Name     string `json:"name"`
	Relation string `json:"relation,omitempty"`
}

func TestNormalize_StripsVolatileKeys(t *testing.T) {
	snapshot := Normalize(household{
		ID:        "abc-123",
		HeadName:  "Ramesh Patel",
		UpdatedAt: "2026-01-01T00:00:00Z",
	})

	assert.NotContains(t, snapshot, "id")
	assert.NotContains(t, snapshot, "updatedAt")
	assert.Equal(t, "Ramesh Patel", snapshot["headName"])
}

func TestNormalize_StripsVolatileKeysAtEveryLevel(t *testing.T) {
	snapshot := Normalize(map[string]any{
		"id": "outer",
		"head": map[string]any{
			"_id":  "inner",
			"name": "Ramesh",
		},
		"family": []any{
			map[string]any{"id": "x", "name": "Sita", "passwordHash": "secret"},
		},
	})

	head, ok := snapshot["head"].(map[string]any)
	require.True(t, ok)
	assert.NotContains(t, head, "_id")

	family, ok := snapshot["family"].([]any)
	require.True(t, ok)
	item, ok := family[0].(map[string]any)
	require.True(t, ok)
	assert.NotContains(t, item, "id")
	assert.NotContains(t, item, "passwordHash")
	assert.Equal(t, "Sita", item["name"])
}

func TestNormalize_NilEntity(t *testing.T) {
	snapshot := Normalize(nil)
	assert.NotNil(t, snapshot)
	assert.Empty(t, snapshot)
}

func TestDiff_EqualSnapshotsProduceNoChanges(t *testing.T) {
	entity := household{
		ID:       "abc",
		HeadName: "Ramesh Patel",
		Phone:    "9876543210",
		Family:   []familyMember{{Name: "Sita", Relation: "spouse"}},
	}

	// Differing volatile fields must not show through
	other := entity
	other.ID = "different"
	other.UpdatedAt = "2026-02-02T00:00:00Z"

	changes := Diff(Normalize(entity), Normalize(other))
	assert.Empty(t, changes)
}

func TestDiff_ScalarModification(t *testing.T) {
	before := Normalize(map[string]any{"phone": "9876543210"})
	after := Normalize(map[string]any{"phone": "9123456780"})

	changes := Diff(before, after)
	require.Len(t, changes, 1)
	assert.Equal(t, "phone", changes[0].Field)
	assert.Equal(t, ChangeModified, changes[0].Kind)
	assert.Equal(t, "9876543210", changes[0].Before)
	assert.Equal(t, "9123456780", changes[0].After)
}

func TestDiff_NestedFieldPath(t *testing.T) {
	before := Normalize(map[string]any{
		"head": map[string]any{"name": "Ramesh", "city": "Surat"},
	})
	after := Normalize(map[string]any{
		"head": map[string]any{"name": "Suresh", "city": "Surat"},
	})

	changes := Diff(before, after)
	require.Len(t, changes, 1)
	assert.Equal(t, "head.name", changes[0].Field)
	assert.Equal(t, ChangeModified, changes[0].Kind)
	assert.Equal(t, "Ramesh", changes[0].Before)
	assert.Equal(t, "Suresh", changes[0].After)
}

func TestDiff_NamedCollectionAddition(t *testing.T) {
	before := Normalize(map[string]any{
		"familyMembers": []any{
			map[string]any{"name": "Sita", "relation": "spouse"},
		},
	})
	after := Normalize(map[string]any{
		"familyMembers": []any{
			map[string]any{"name": "Sita", "relation": "spouse"},
			map[string]any{"name": "Sam", "relation": "son"},
		},
	})

	changes := Diff(before, after)
	require.Len(t, changes, 1)
	assert.Equal(t, "familyMembers", changes[0].Field)
	assert.Equal(t, ChangeAdded, changes[0].Kind)
	assert.Equal(t, "Sam", changes[0].Value)
	assert.Nil(t, changes[0].Before)
	assert.Nil(t, changes[0].After)
}

func TestDiff_NamedCollectionRemoval(t *testing.T) {
	before := Normalize(map[string]any{
		"familyMembers": []any{
			map[string]any{"name": "Sita"},
			map[string]any{"name": "Sam"},
		},
	})
	after := Normalize(map[string]any{
		"familyMembers": []any{
			map[string]any{"name": "Sita"},
		},
	})

	changes := Diff(before, after)
	require.Len(t, changes, 1)
	assert.Equal(t, ChangeRemoved, changes[0].Kind)
	assert.Equal(t, "Sam", changes[0].Value)
}

func TestDiff_CollectionAddedBeforeRemoved(t *testing.T) {
	before := Normalize(map[string]any{
		"familyMembers": []any{map[string]any{"name": "Sam"}},
	})
	after := Normalize(map[string]any{
		"familyMembers": []any{map[string]any{"name": "Rita"}},
	})

	changes := Diff(before, after)
	require.Len(t, changes, 2)
	assert.Equal(t, ChangeAdded, changes[0].Kind)
	assert.Equal(t, "Rita", changes[0].Value)
	assert.Equal(t, ChangeRemoved, changes[1].Kind)
	assert.Equal(t, "Sam", changes[1].Value)
}

func TestDiff_MatchedCollectionItemEmitsNothing(t *testing.T) {
	// Identity is the item's name; other field changes are invisible
	before := Normalize(map[string]any{
		"familyMembers": []any{map[string]any{"name": "Sita", "relation": "spouse"}},
	})
	after := Normalize(map[string]any{
		"familyMembers": []any{map[string]any{"name": "Sita", "relation": "daughter"}},
	})

	changes := Diff(before, after)
	assert.Empty(t, changes)
}

func TestDiff_UnnamedCollectionItems(t *testing.T) {
	before := Normalize(map[string]any{"tags": []any{"north", "south"}})
	after := Normalize(map[string]any{"tags": []any{"north", "east"}})

	changes := Diff(before, after)
	require.Len(t, changes, 2)
	assert.Equal(t, ChangeAdded, changes[0].Kind)
	assert.Equal(t, "east", changes[0].Value)
	assert.Equal(t, ChangeRemoved, changes[1].Kind)
	assert.Equal(t, "south", changes[1].Value)
}

func TestDiff_NullAndMissingAreEquivalent(t *testing.T) {
	withNull := map[string]any{"phone": nil}
	withoutKey := map[string]any{}

	assert.Empty(t, Diff(withNull, withoutKey))
	assert.Empty(t, Diff(withoutKey, withNull))

	// But null vs a concrete value is a change
	changes := Diff(withNull, map[string]any{"phone": "123"})
	require.Len(t, changes, 1)
	assert.Equal(t, ChangeModified, changes[0].Kind)
	assert.Nil(t, changes[0].Before)
	assert.Equal(t, "123", changes[0].After)
}

func TestDiff_FieldClearedToNull(t *testing.T) {
	changes := Diff(
		map[string]any{"phone": "123"},
		map[string]any{"phone": nil},
	)
	require.Len(t, changes, 1)
	assert.Equal(t, "phone", changes[0].Field)
	assert.Equal(t, "123", changes[0].Before)
	assert.Nil(t, changes[0].After)
}

func TestDiff_DeterministicOrdering(t *testing.T) {
	before := map[string]any{"zeta": 1.0, "alpha": 1.0, "mid": 1.0}
	after := map[string]any{"zeta": 2.0, "alpha": 2.0, "beta": 2.0}

	first := Diff(before, after)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, Diff(before, after))
	}

	// Sorted before keys, then sorted after-only keys
	fields := make([]string, 0, len(first))
	for _, change := range first {
		fields = append(fields, change.Field)
	}
	assert.Equal(t, []string{"alpha", "mid", "zeta", "beta"}, fields)
}

func TestDiff_TypeMismatchIsModification(t *testing.T) {
	changes := Diff(
		map[string]any{"value": "12"},
		map[string]any{"value": 12.0},
	)
	require.Len(t, changes, 1)
	assert.Equal(t, ChangeModified, changes[0].Kind)
}
