package database

import (
	"context"
	"time"

	"github.com/samaj-registry/registry-backend/v1/models"
)

// AuditRepository defines the database-agnostic interface for the audit
// ledger. The ledger exclusively owns AuditRecord persistence and audit
// number allocation; no other component constructs a persisted record.
type AuditRepository interface {
	// Create appends a new ledger entry, allocating its audit number
	Create(ctx context.Context, record *models.AuditRecord) (*models.AuditRecord, error)

	// ListByEntity retrieves all records for one entity, newest first
	ListByEntity(ctx context.Context, entityType, entityID string) ([]models.AuditRecord, error)

	// ListByMember retrieves all records cross-referencing a member, newest first
	ListByMember(ctx context.Context, memberID string) ([]models.AuditRecord, error)

	// FindPage retrieves one page of filtered records plus the total match count
	FindPage(ctx context.Context, filters *AuditFilters, limit, offset int) ([]models.AuditRecord, int64, error)

	// FindAll retrieves all filtered records, unpaginated, for bulk export
	FindAll(ctx context.Context, filters *AuditFilters) ([]models.AuditRecord, error)
}

// AuditFilters represents query filters for retrieving audit records.
// All fields are optional and combined with logical AND. Search matches
// case-insensitively against actor name, actor email, action and entity
// type; a numeric search string additionally matches the audit number.
type AuditFilters struct {
	EntityType *string
	Action     *string
	ActorID    *string
	From       *time.Time
	To         *time.Time
	Search     *string
}
