package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samaj-registry/registry-backend/v1/audit"
	"github.com/samaj-registry/registry-backend/v1/database"
	"github.com/samaj-registry/registry-backend/v1/models"
	"github.com/samaj-registry/registry-backend/v1/testutil"
)

func newTestRepository(t *testing.T) *database.GormAuditRepository {
	t.Helper()
	return database.NewGormAuditRepository(testutil.SetupTestDB(t))
}

func newRecord(action, entityType, entityID string) *models.AuditRecord {
	return &models.AuditRecord{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Timestamp:  time.Now().UTC(),
	}
}

func TestCreate_AssignsSequentialAuditNumbers(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		created, err := repo.Create(ctx, newRecord(models.ActionCreate, models.EntityMember, "m-1"))
		require.NoError(t, err)
		assert.Equal(t, int64(i), created.AuditNumber)
	}
}

func TestCreate_AssignsIDAndPersistsChanges(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	record := newRecord(models.ActionUpdate, models.EntityMember, "m-1")
	record.Changes = audit.ChangeList{
		{Field: "phone", Kind: audit.ChangeModified, Before: "123", After: "456"},
	}

	created, err := repo.Create(ctx, record)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	records, err := repo.ListByEntity(ctx, models.EntityMember, "m-1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Len(t, records[0].Changes, 1)
	assert.Equal(t, "phone", records[0].Changes[0].Field)
	assert.Equal(t, "123", records[0].Changes[0].Before)
}

func TestListByEntity_NewestFirst(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		record := newRecord(models.ActionUpdate, models.EntityMember, "m-1")
		record.Timestamp = base.Add(time.Duration(i) * time.Minute)
		_, err := repo.Create(ctx, record)
		require.NoError(t, err)
	}
	// A record for another entity must not leak in
	_, err := repo.Create(ctx, newRecord(models.ActionCreate, models.EntityZone, "z-1"))
	require.NoError(t, err)

	records, err := repo.ListByEntity(ctx, models.EntityMember, "m-1")
	require.NoError(t, err)
	require.Len(t, records, 3)
	for i := 1; i < len(records); i++ {
		assert.True(t, !records[i-1].Timestamp.Before(records[i].Timestamp))
	}
}

func TestListByEntity_EmptyResultIsNotError(t *testing.T) {
	repo := newTestRepository(t)

	records, err := repo.ListByEntity(context.Background(), models.EntityMember, "missing")
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestListByMember_ReturnsCrossReferencedRecords(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	memberID := "m-42"
	record := newRecord(models.ActionUpdate, models.EntityRequest, "r-1")
	record.MemberID = &memberID
	_, err := repo.Create(ctx, record)
	require.NoError(t, err)

	_, err = repo.Create(ctx, newRecord(models.ActionCreate, models.EntityZone, "z-1"))
	require.NoError(t, err)

	records, err := repo.ListByMember(ctx, memberID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, models.EntityRequest, records[0].EntityType)
}

func TestFindPage_FiltersAndCounts(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, err := repo.Create(ctx, newRecord(models.ActionCreate, models.EntityMember, "m-1"))
		require.NoError(t, err)
	}
	_, err := repo.Create(ctx, newRecord(models.ActionDelete, models.EntityMember, "m-1"))
	require.NoError(t, err)

	action := models.ActionCreate
	records, total, err := repo.FindPage(ctx, &database.AuditFilters{Action: &action}, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	assert.Len(t, records, 2)
}

func TestFindPage_NumericSearchMatchesAuditNumber(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	for i := 0; i < 9; i++ {
		_, err := repo.Create(ctx, newRecord(models.ActionCreate, models.EntityMember, "m-1"))
		require.NoError(t, err)
	}

	search := "7"
	records, total, err := repo.FindPage(ctx, &database.AuditFilters{Search: &search}, 25, 0)
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Len(t, records, 1)
	assert.Equal(t, int64(7), records[0].AuditNumber)
}

func TestFindPage_SearchMatchesActorName(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	actorName := "Priya Shah"
	record := newRecord(models.ActionUpdate, models.EntityMember, "m-1")
	record.ActorName = &actorName
	_, err := repo.Create(ctx, record)
	require.NoError(t, err)

	_, err = repo.Create(ctx, newRecord(models.ActionUpdate, models.EntityMember, "m-2"))
	require.NoError(t, err)

	search := "priya"
	records, total, err := repo.FindPage(ctx, &database.AuditFilters{Search: &search}, 25, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, records, 1)
	assert.Equal(t, actorName, *records[0].ActorName)
}

func TestFindPage_SearchTreatsLikeWildcardsLiterally(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	seed := []struct{ name, email string }{
		{"100% attendance", "ops_team@example.org"},
		{"100x attendance", "opsxteam@example.org"},
	}
	for i := range seed {
		record := newRecord(models.ActionUpdate, models.EntityMember, "m-1")
		record.ActorName = &seed[i].name
		record.ActorEmail = &seed[i].email
		_, err := repo.Create(ctx, record)
		require.NoError(t, err)
	}

	search := "100%"
	records, total, err := repo.FindPage(ctx, &database.AuditFilters{Search: &search}, 25, 0)
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Len(t, records, 1)
	assert.Equal(t, "100% attendance", *records[0].ActorName)

	search = "ops_team"
	records, total, err = repo.FindPage(ctx, &database.AuditFilters{Search: &search}, 25, 0)
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Len(t, records, 1)
	assert.Equal(t, "ops_team@example.org", *records[0].ActorEmail)
}

func TestFindPage_TimestampRange(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		record := newRecord(models.ActionCreate, models.EntityMember, "m-1")
		record.Timestamp = base.AddDate(0, 0, i)
		_, err := repo.Create(ctx, record)
		require.NoError(t, err)
	}

	from := base.AddDate(0, 0, 1)
	to := base.AddDate(0, 0, 1)
	_, total, err := repo.FindPage(ctx, &database.AuditFilters{From: &from, To: &to}, 25, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestFindAll_ReturnsEverythingFiltered(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	for i := 0; i < 30; i++ {
		_, err := repo.Create(ctx, newRecord(models.ActionCreate, models.EntityMember, "m-1"))
		require.NoError(t, err)
	}

	records, err := repo.FindAll(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, records, 30)
}
