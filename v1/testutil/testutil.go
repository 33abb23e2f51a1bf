// Package testutil provides shared helpers for service and repository tests.
package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/samaj-registry/registry-backend/v1/database"
	"github.com/samaj-registry/registry-backend/v1/models"
)

// SetupTestDB opens a private in-memory SQLite database with the full schema
// migrated. Each call gets its own database; it is closed on test cleanup.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to access test database handle: %v", err)
	}
	// A single connection keeps the in-memory database alive for the test
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(
		&models.AuditRecord{},
		&models.Member{},
		&models.Zone{},
		&models.RegistrationRequest{},
		&models.User{},
	); err != nil {
		t.Fatalf("failed to migrate test schema: %v", err)
	}

	return db
}

// FailingRepository is an AuditRepository whose writes always fail. It lets
// tests assert that domain writes survive a broken ledger.
type FailingRepository struct {
	Err error
}

func (r *FailingRepository) failure() error {
	if r.Err != nil {
		return r.Err
	}
	return fmt.Errorf("audit store unavailable")
}

func (r *FailingRepository) Create(ctx context.Context, record *models.AuditRecord) (*models.AuditRecord, error) {
	return nil, r.failure()
}

func (r *FailingRepository) ListByEntity(ctx context.Context, entityType, entityID string) ([]models.AuditRecord, error) {
	return nil, r.failure()
}

func (r *FailingRepository) ListByMember(ctx context.Context, memberID string) ([]models.AuditRecord, error) {
	return nil, r.failure()
}

func (r *FailingRepository) FindPage(ctx context.Context, filters *database.AuditFilters, limit, offset int) ([]models.AuditRecord, int64, error) {
	return nil, 0, r.failure()
}

func (r *FailingRepository) FindAll(ctx context.Context, filters *database.AuditFilters) ([]models.AuditRecord, error) {
	return nil, r.failure()
}

// CountingRepository wraps another repository and counts store accesses.
// Useful for asserting that validation failures never reach the store.
type CountingRepository struct {
	Inner database.AuditRepository
	Calls int
}

func (r *CountingRepository) Create(ctx context.Context, record *models.AuditRecord) (*models.AuditRecord, error) {
	r.Calls++
	return r.Inner.Create(ctx, record)
}

func (r *CountingRepository) ListByEntity(ctx context.Context, entityType, entityID string) ([]models.AuditRecord, error) {
	r.Calls++
	return r.Inner.ListByEntity(ctx, entityType, entityID)
}

func (r *CountingRepository) ListByMember(ctx context.Context, memberID string) ([]models.AuditRecord, error) {
	r.Calls++
	return r.Inner.ListByMember(ctx, memberID)
}

func (r *CountingRepository) FindPage(ctx context.Context, filters *database.AuditFilters, limit, offset int) ([]models.AuditRecord, int64, error) {
	r.Calls++
	return r.Inner.FindPage(ctx, filters, limit, offset)
}

func (r *CountingRepository) FindAll(ctx context.Context, filters *database.AuditFilters) ([]models.AuditRecord, error) {
	r.Calls++
	return r.Inner.FindAll(ctx, filters)
}
