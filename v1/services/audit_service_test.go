package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samaj-registry/registry-backend/v1/audit"
	"github.com/samaj-registry/registry-backend/v1/database"
	"github.com/samaj-registry/registry-backend/v1/models"
	"github.com/samaj-registry/registry-backend/v1/services"
	"github.com/samaj-registry/registry-backend/v1/testutil"
)

func newAuditService(t *testing.T) (*services.AuditService, database.AuditRepository) {
	t.Helper()
	repo := database.NewGormAuditRepository(testutil.SetupTestDB(t))
	return services.NewAuditService(repo), repo
}

func TestRecord_CreateActionIsAlwaysPersisted(t *testing.T) {
	service, _ := newAuditService(t)

	record, err := service.Record(context.Background(), services.RecordInput{
		Action:     models.ActionCreate,
		EntityType: models.EntityMember,
		EntityID:   "m-1",
		After:      map[string]any{"headName": "Ramesh Patel"},
	})
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, int64(1), record.AuditNumber)
	require.Len(t, record.Changes, 1)
	assert.Equal(t, "headName", record.Changes[0].Field)
}

func TestRecord_UpdateWithNoChangesIsSuppressed(t *testing.T) {
	service, repo := newAuditService(t)
	ctx := context.Background()

	entity := map[string]any{"headName": "Ramesh Patel", "phone": "123"}
	record, err := service.Record(ctx, services.RecordInput{
		Action:     models.ActionUpdate,
		EntityType: models.EntityMember,
		EntityID:   "m-1",
		Before:     entity,
		After:      entity,
	})
	require.NoError(t, err)
	assert.Nil(t, record)

	// Nothing must reach the ledger
	records, err := repo.ListByEntity(ctx, models.EntityMember, "m-1")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestRecord_UpdateCapturesBeforeAndAfter(t *testing.T) {
	service, _ := newAuditService(t)

	record, err := service.Record(context.Background(), services.RecordInput{
		Action:     models.ActionUpdate,
		EntityType: models.EntityMember,
		EntityID:   "m-1",
		Before:     map[string]any{"phone": "123"},
		After:      map[string]any{"phone": "456"},
	})
	require.NoError(t, err)
	require.NotNil(t, record)
	require.Len(t, record.Changes, 1)
	assert.Equal(t, audit.ChangeModified, record.Changes[0].Kind)
	assert.Equal(t, "123", record.Changes[0].Before)
	assert.Equal(t, "456", record.Changes[0].After)
}

func TestRecord_DeleteWithEmptyDiffIsStillPersisted(t *testing.T) {
	service, _ := newAuditService(t)

	record, err := service.Record(context.Background(), services.RecordInput{
		Action:     models.ActionDelete,
		EntityType: models.EntityMember,
		EntityID:   "m-1",
	})
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.NotNil(t, record.Changes)
}

func TestRecord_SequenceIsMonotonic(t *testing.T) {
	service, _ := newAuditService(t)
	ctx := context.Background()

	for i := int64(1); i <= 10; i++ {
		record, err := service.Record(ctx, services.RecordInput{
			Action:     models.ActionCreate,
			EntityType: models.EntityZone,
			EntityID:   "z-1",
		})
		require.NoError(t, err)
		assert.Equal(t, i, record.AuditNumber)
	}
}

func TestRecord_ActorIsCaptured(t *testing.T) {
	service, _ := newAuditService(t)

	record, err := service.Record(context.Background(), services.RecordInput{
		Action:     models.ActionCreate,
		EntityType: models.EntityMember,
		EntityID:   "m-1",
		Actor: services.ActorContext{
			ID:        "u-1",
			Name:      "Priya Shah",
			Email:     "priya@example.org",
			IPAddress: "10.0.0.5",
			UserAgent: "registry-admin/1.0",
		},
	})
	require.NoError(t, err)
	require.NotNil(t, record.ActorID)
	assert.Equal(t, "u-1", *record.ActorID)
	require.NotNil(t, record.ActorName)
	assert.Equal(t, "Priya Shah", *record.ActorName)
	require.NotNil(t, record.IPAddress)
	assert.Equal(t, "10.0.0.5", *record.IPAddress)
}

func TestRecord_AnonymousActorLeavesFieldsNull(t *testing.T) {
	service, _ := newAuditService(t)

	record, err := service.Record(context.Background(), services.RecordInput{
		Action:     models.ActionCreate,
		EntityType: models.EntityRequest,
		EntityID:   "r-1",
	})
	require.NoError(t, err)
	assert.Nil(t, record.ActorID)
	assert.Nil(t, record.ActorName)
	assert.Nil(t, record.ActorEmail)
}

func TestRecord_InvalidActionFailsValidation(t *testing.T) {
	service, _ := newAuditService(t)

	_, err := service.Record(context.Background(), services.RecordInput{
		Action:     "archive",
		EntityType: models.EntityMember,
		EntityID:   "m-1",
	})
	require.Error(t, err)
	assert.True(t, services.IsValidationError(err))
}

func TestRecord_InvalidEntityTypeFailsValidation(t *testing.T) {
	service, _ := newAuditService(t)

	_, err := service.Record(context.Background(), services.RecordInput{
		Action:     models.ActionCreate,
		EntityType: "document",
		EntityID:   "d-1",
	})
	require.Error(t, err)
	assert.True(t, services.IsValidationError(err))
}

func TestListByEntity_RejectsUnknownEntityType(t *testing.T) {
	service, _ := newAuditService(t)

	_, err := service.ListByEntity(context.Background(), "document", "d-1")
	require.Error(t, err)
	assert.True(t, services.IsValidationError(err))
}
