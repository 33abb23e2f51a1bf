package services

import (
	"context"
	"fmt"
	"time"

	"github.com/samaj-registry/registry-backend/monitoring"
	"github.com/samaj-registry/registry-backend/v1/audit"
	"github.com/samaj-registry/registry-backend/v1/database"
	"github.com/samaj-registry/registry-backend/v1/models"
)

// ActorContext is the authenticated principal plus request provenance,
// captured at write time. All fields are optional; absence never fails a
// ledger write.
type ActorContext struct {
	ID        string
	Name      string
	Email     string
	IPAddress string
	UserAgent string
}

// RecordInput describes one auditable action. Before and After are plain
// domain snapshots already fetched by the calling workflow; the ledger never
// fetches entities itself.
type RecordInput struct {
	Action     string
	EntityType string
	EntityID   string
	Before     any
	After      any
	MemberID   *string
	RequestID  *string
	Actor      ActorContext
}

// AuditService is the append-only ledger: it normalizes snapshots, diffs
// them, suppresses no-op updates and persists numbered records.
type AuditService struct {
	repo database.AuditRepository
}

// NewAuditService creates a new ledger service
func NewAuditService(repo database.AuditRepository) *AuditService {
	return &AuditService{repo: repo}
}

// Record appends one ledger entry for a mutating workflow. For update
// actions with an empty diff it returns (nil, nil) and persists nothing;
// callers must not treat that as an error. Create and delete actions are
// always persisted even when the change list is empty, since the full
// snapshot stands in for the diff.
func (s *AuditService) Record(ctx context.Context, in RecordInput) (*models.AuditRecord, error) {
	record := &models.AuditRecord{
		Action:     in.Action,
		EntityType: in.EntityType,
		EntityID:   in.EntityID,
		MemberID:   in.MemberID,
		RequestID:  in.RequestID,
		Timestamp:  time.Now().UTC(),
	}
	if err := record.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	changes := audit.Diff(audit.Normalize(in.Before), audit.Normalize(in.After))
	if in.Action == models.ActionUpdate && len(changes) == 0 {
		return nil, nil
	}
	record.Changes = changes

	if in.Actor.ID != "" {
		record.ActorID = strPtr(in.Actor.ID)
	}
	if in.Actor.Name != "" {
		record.ActorName = strPtr(in.Actor.Name)
	}
	if in.Actor.Email != "" {
		record.ActorEmail = strPtr(in.Actor.Email)
	}
	if in.Actor.IPAddress != "" {
		record.IPAddress = strPtr(in.Actor.IPAddress)
	}
	if in.Actor.UserAgent != "" {
		record.UserAgent = strPtr(in.Actor.UserAgent)
	}

	created, err := s.repo.Create(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("failed to persist audit record: %w", err)
	}
	monitoring.CountAuditWrite(ctx, created.Action, created.EntityType)
	return created, nil
}

// ListByEntity returns all ledger entries for one entity, newest first.
// No matching records is not an error; it returns an empty slice.
func (s *AuditService) ListByEntity(ctx context.Context, entityType, entityID string) ([]models.AuditRecord, error) {
	if !models.IsValidEntityType(entityType) {
		return nil, fmt.Errorf("%w: invalid entityType: %s", ErrValidation, entityType)
	}
	return s.repo.ListByEntity(ctx, entityType, entityID)
}

// ListByMember returns all ledger entries cross-referencing a member,
// newest first
func (s *AuditService) ListByMember(ctx context.Context, memberID string) ([]models.AuditRecord, error) {
	return s.repo.ListByMember(ctx, memberID)
}

func strPtr(s string) *string {
	return &s
}
