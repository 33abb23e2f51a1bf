package services_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samaj-registry/registry-backend/v1/database"
	"github.com/samaj-registry/registry-backend/v1/models"
	"github.com/samaj-registry/registry-backend/v1/services"
	"github.com/samaj-registry/registry-backend/v1/testutil"
)

type zoneFixture struct {
	repo    database.AuditRepository
	zones   *services.ZoneService
	members *services.MemberService
}

func newZoneFixture(t *testing.T) *zoneFixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repo := database.NewGormAuditRepository(db)
	auditor := services.NewAuditService(repo)
	return &zoneFixture{
		repo:    repo,
		zones:   services.NewZoneService(db, auditor),
		members: services.NewMemberService(db, auditor, nil),
	}
}

func TestZoneCreate_LogsAndEnforcesUniqueName(t *testing.T) {
	f := newZoneFixture(t)
	ctx := context.Background()

	zone, err := f.zones.Create(ctx, &models.CreateZoneRequest{Name: "North Ward"}, testActor())
	require.NoError(t, err)
	assert.NotEmpty(t, zone.ID)

	records, err := f.repo.ListByEntity(ctx, models.EntityZone, zone.ID.String())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, models.ActionCreate, records[0].Action)

	_, err = f.zones.Create(ctx, &models.CreateZoneRequest{Name: "North Ward"}, testActor())
	require.Error(t, err)
	assert.True(t, services.IsConflictError(err))
}

func TestZoneCreate_RequiresName(t *testing.T) {
	f := newZoneFixture(t)

	_, err := f.zones.Create(context.Background(), &models.CreateZoneRequest{}, testActor())
	require.Error(t, err)
	assert.True(t, services.IsValidationError(err))
}

func TestZoneUpdate_LogsRename(t *testing.T) {
	f := newZoneFixture(t)
	ctx := context.Background()

	zone, err := f.zones.Create(ctx, &models.CreateZoneRequest{Name: "North Ward"}, testActor())
	require.NoError(t, err)

	newName := "North-East Ward"
	updated, err := f.zones.Update(ctx, zone.ID, &models.UpdateZoneRequest{Name: &newName}, testActor())
	require.NoError(t, err)
	assert.Equal(t, newName, updated.Name)

	records, err := f.repo.ListByEntity(ctx, models.EntityZone, zone.ID.String())
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Len(t, records[0].Changes, 1)
	assert.Equal(t, "name", records[0].Changes[0].Field)
	assert.Equal(t, "North Ward", records[0].Changes[0].Before)
	assert.Equal(t, newName, records[0].Changes[0].After)
}

func TestZoneDelete_RefusedWhileMembersAssigned(t *testing.T) {
	f := newZoneFixture(t)
	ctx := context.Background()

	zone, err := f.zones.Create(ctx, &models.CreateZoneRequest{Name: "North Ward"}, testActor())
	require.NoError(t, err)

	_, err = f.members.Create(ctx, &models.CreateMemberRequest{
		HeadName: "Ramesh Patel",
		ZoneID:   &zone.ID,
	}, testActor())
	require.NoError(t, err)

	err = f.zones.Delete(ctx, zone.ID, testActor())
	require.Error(t, err)
	assert.True(t, services.IsValidationError(err))

	// Still present
	_, err = f.zones.Get(ctx, zone.ID)
	require.NoError(t, err)
}

func TestZoneDelete_EmptyZone(t *testing.T) {
	f := newZoneFixture(t)
	ctx := context.Background()

	zone, err := f.zones.Create(ctx, &models.CreateZoneRequest{Name: "North Ward"}, testActor())
	require.NoError(t, err)

	require.NoError(t, f.zones.Delete(ctx, zone.ID, testActor()))

	_, err = f.zones.Get(ctx, zone.ID)
	require.Error(t, err)
	assert.True(t, services.IsNotFoundError(err))

	records, err := f.repo.ListByEntity(ctx, models.EntityZone, zone.ID.String())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, models.ActionDelete, records[0].Action)
}

func TestZoneList_AlphabeticalWithCounts(t *testing.T) {
	f := newZoneFixture(t)
	ctx := context.Background()

	west, err := f.zones.Create(ctx, &models.CreateZoneRequest{Name: "West Ward"}, testActor())
	require.NoError(t, err)
	_, err = f.zones.Create(ctx, &models.CreateZoneRequest{Name: "East Ward"}, testActor())
	require.NoError(t, err)

	_, err = f.members.Create(ctx, &models.CreateMemberRequest{
		HeadName: "Ramesh Patel",
		ZoneID:   &west.ID,
	}, testActor())
	require.NoError(t, err)

	zones, err := f.zones.List(ctx)
	require.NoError(t, err)
	require.Len(t, zones, 2)
	assert.Equal(t, "East Ward", zones[0].Name)
	assert.Equal(t, int64(0), zones[0].MemberCount)
	assert.Equal(t, "West Ward", zones[1].Name)
	assert.Equal(t, int64(1), zones[1].MemberCount)
}

func TestZoneGet_NotFound(t *testing.T) {
	f := newZoneFixture(t)

	_, err := f.zones.Get(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, services.IsNotFoundError(err))
}
