package services_test

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samaj-registry/registry-backend/v1/audit"
	"github.com/samaj-registry/registry-backend/v1/models"
	"github.com/samaj-registry/registry-backend/v1/services"
)

func TestFlattenChanges_Modified(t *testing.T) {
	rendered := services.FlattenChanges(audit.ChangeList{
		{Field: "head.name", Kind: audit.ChangeModified, Before: "Ramesh", After: "Suresh"},
	})
	assert.Equal(t, `[head.name: "Ramesh" -> "Suresh"]`, rendered)
}

func TestFlattenChanges_AddedAndRemoved(t *testing.T) {
	rendered := services.FlattenChanges(audit.ChangeList{
		{Field: "familyMembers", Kind: audit.ChangeAdded, Value: "Sam"},
		{Field: "familyMembers", Kind: audit.ChangeRemoved, Value: "Rita"},
	})
	assert.Equal(t, `[familyMembers: added "Sam"]; [familyMembers: removed "Rita"]`, rendered)
}

func TestFlattenChanges_NilValuesRenderEmpty(t *testing.T) {
	rendered := services.FlattenChanges(audit.ChangeList{
		{Field: "phone", Kind: audit.ChangeModified, Before: nil, After: "123"},
	})
	assert.Equal(t, `[phone: "" -> "123"]`, rendered)
}

func TestFlattenChanges_NumbersAndBooleans(t *testing.T) {
	rendered := services.FlattenChanges(audit.ChangeList{
		{Field: "age", Kind: audit.ChangeModified, Before: float64(42), After: float64(43)},
		{Field: "verified", Kind: audit.ChangeModified, Before: false, After: true},
	})
	assert.Equal(t, `[age: "42" -> "43"]; [verified: "false" -> "true"]`, rendered)
}

func TestFlattenChanges_Empty(t *testing.T) {
	assert.Equal(t, "", services.FlattenChanges(nil))
}

func TestWriteAuditCSV(t *testing.T) {
	memberID := "m-1"
	actorName := "Priya Shah"
	records := []models.AuditRecord{
		{
			AuditNumber: 2,
			Action:      models.ActionUpdate,
			EntityType:  models.EntityMember,
			EntityID:    "m-1",
			MemberID:    &memberID,
			ActorName:   &actorName,
			Timestamp:   time.Date(2026, 4, 1, 9, 30, 0, 0, time.UTC),
			Changes: audit.ChangeList{
				{Field: "phone", Kind: audit.ChangeModified, Before: "123", After: "456"},
			},
		},
		{
			AuditNumber: 1,
			Action:      models.ActionCreate,
			EntityType:  models.EntityZone,
			EntityID:    "z-1",
			Timestamp:   time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		},
	}

	var buf bytes.Buffer
	err := services.WriteAuditCSV(&buf, records, map[string]string{"m-1": "Ramesh Patel"})
	require.NoError(t, err)

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{"Audit Number", "Timestamp", "Action", "Entity Type", "Actor Name", "Member", "Changes"}, rows[0])
	assert.Equal(t, []string{"2", "2026-04-01T09:30:00Z", "update", "Member", "Priya Shah", "Ramesh Patel", `[phone: "123" -> "456"]`}, rows[1])
	assert.Equal(t, []string{"1", "2026-03-01T09:00:00Z", "create", "Zone", "", "", ""}, rows[2])
}
