package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/samaj-registry/registry-backend/v1/models"
	"gorm.io/gorm"
)

// ZoneService handles geographic zones. Mutations are audited.
type ZoneService struct {
	db      *gorm.DB
	auditor *AuditService
}

// NewZoneService creates a new zone service
func NewZoneService(db *gorm.DB, auditor *AuditService) *ZoneService {
	if err := db.AutoMigrate(&models.Zone{}); err != nil {
		slog.Warn("Failed to auto-migrate zones table", "error", err)
	}
	return &ZoneService{db: db, auditor: auditor}
}

// Create adds a new zone; zone names are unique
func (s *ZoneService) Create(ctx context.Context, req *models.CreateZoneRequest, actor ActorContext) (*models.Zone, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}

	zone := &models.Zone{Name: req.Name, Description: req.Description}
	if err := s.db.WithContext(ctx).Create(zone).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: zone %q already exists", ErrConflict, req.Name)
		}
		return nil, fmt.Errorf("failed to create zone: %w", err)
	}

	s.recordAudit(ctx, RecordInput{
		Action:     models.ActionCreate,
		EntityType: models.EntityZone,
		EntityID:   zone.ID.String(),
		After:      zone,
		Actor:      actor,
	})

	return zone, nil
}

// Get returns one zone by ID
func (s *ZoneService) Get(ctx context.Context, id uuid.UUID) (*models.Zone, error) {
	var zone models.Zone
	err := s.db.WithContext(ctx).First(&zone, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: zone %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to load zone: %w", err)
	}
	return &zone, nil
}

// Update applies a partial update and logs the resulting diff
func (s *ZoneService) Update(ctx context.Context, id uuid.UUID, req *models.UpdateZoneRequest, actor ActorContext) (*models.Zone, error) {
	zone, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	before := *zone

	if req.Name != nil {
		if *req.Name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", ErrValidation)
		}
		zone.Name = *req.Name
	}
	if req.Description != nil {
		zone.Description = *req.Description
	}

	if err := s.db.WithContext(ctx).Save(zone).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: zone %q already exists", ErrConflict, zone.Name)
		}
		return nil, fmt.Errorf("failed to update zone: %w", err)
	}

	s.recordAudit(ctx, RecordInput{
		Action:     models.ActionUpdate,
		EntityType: models.EntityZone,
		EntityID:   zone.ID.String(),
		Before:     &before,
		After:      zone,
		Actor:      actor,
	})

	return zone, nil
}

// Delete removes a zone that has no members and logs a delete entry
func (s *ZoneService) Delete(ctx context.Context, id uuid.UUID, actor ActorContext) error {
	zone, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	var memberCount int64
	if err := s.db.WithContext(ctx).Model(&models.Member{}).Where("zone_id = ?", id).Count(&memberCount).Error; err != nil {
		return fmt.Errorf("failed to count zone members: %w", err)
	}
	if memberCount > 0 {
		return fmt.Errorf("%w: zone %q still has %d members", ErrValidation, zone.Name, memberCount)
	}

	if err := s.db.WithContext(ctx).Delete(zone).Error; err != nil {
		return fmt.Errorf("failed to delete zone: %w", err)
	}

	s.recordAudit(ctx, RecordInput{
		Action:     models.ActionDelete,
		EntityType: models.EntityZone,
		EntityID:   zone.ID.String(),
		Before:     zone,
		Actor:      actor,
	})

	return nil
}

// List returns all zones with their member counts, alphabetically
func (s *ZoneService) List(ctx context.Context) ([]models.ZoneWithCount, error) {
	var zones []models.Zone
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&zones).Error; err != nil {
		return nil, fmt.Errorf("failed to list zones: %w", err)
	}

	result := make([]models.ZoneWithCount, 0, len(zones))
	for _, zone := range zones {
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.Member{}).Where("zone_id = ?", zone.ID).Count(&count).Error; err != nil {
			return nil, fmt.Errorf("failed to count members for zone %s: %w", zone.ID, err)
		}
		result = append(result, models.ZoneWithCount{Zone: zone, MemberCount: count})
	}
	return result, nil
}

func (s *ZoneService) recordAudit(ctx context.Context, in RecordInput) {
	if s.auditor == nil {
		return
	}
	if _, err := s.auditor.Record(ctx, in); err != nil {
		slog.Warn("Failed to record audit entry",
			"action", in.Action,
			"entity_type", in.EntityType,
			"entity_id", in.EntityID,
			"error", err)
	}
}
