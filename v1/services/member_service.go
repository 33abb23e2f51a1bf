package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/samaj-registry/registry-backend/config"
	"github.com/samaj-registry/registry-backend/v1/models"
	"gorm.io/gorm"
)

// MemberFilters are the list filters for the member directory
type MemberFilters struct {
	ZoneID   *uuid.UUID
	Status   string
	Search   string
	Page     int
	PageSize int
}

// MemberService handles household CRUD. Every mutation records to the audit
// ledger; updates go through the differ so unchanged submissions are
// suppressed.
type MemberService struct {
	db      *gorm.DB
	auditor *AuditService
	enums   *config.RegistryEnums
}

// NewMemberService creates a new member service
func NewMemberService(db *gorm.DB, auditor *AuditService, enums *config.RegistryEnums) *MemberService {
	if err := db.AutoMigrate(&models.Member{}); err != nil {
		slog.Warn("Failed to auto-migrate members table", "error", err)
	}
	if enums == nil {
		enums = config.GetDefaultEnums()
	}
	return &MemberService{db: db, auditor: auditor, enums: enums}
}

// Create registers a new household and logs a create entry
func (s *MemberService) Create(ctx context.Context, req *models.CreateMemberRequest, actor ActorContext) (*models.Member, error) {
	return s.create(ctx, req, nil, actor)
}

// CreateFromRequest registers a household from an approved registration
// request; the ledger entry carries the originating request as a
// cross-reference
func (s *MemberService) CreateFromRequest(ctx context.Context, req *models.CreateMemberRequest, requestID uuid.UUID, actor ActorContext) (*models.Member, error) {
	id := requestID.String()
	return s.create(ctx, req, &id, actor)
}

func (s *MemberService) create(ctx context.Context, req *models.CreateMemberRequest, requestID *string, actor ActorContext) (*models.Member, error) {
	if req.HeadName == "" {
		return nil, fmt.Errorf("%w: headName is required", ErrValidation)
	}
	status := req.Status
	if status == "" {
		status = "active"
	}
	if !s.enums.IsValidMemberStatus(status) {
		return nil, fmt.Errorf("%w: invalid status: %s", ErrValidation, status)
	}
	if err := s.validateFamily(req.FamilyMembers); err != nil {
		return nil, err
	}
	if err := s.validateZone(ctx, req.ZoneID); err != nil {
		return nil, err
	}

	member := &models.Member{
		HeadName:      req.HeadName,
		Phone:         req.Phone,
		Email:         req.Email,
		Occupation:    req.Occupation,
		AddressLine:   req.AddressLine,
		City:          req.City,
		Pincode:       req.Pincode,
		ZoneID:        req.ZoneID,
		FamilyMembers: req.FamilyMembers,
		Status:        status,
	}
	if member.FamilyMembers == nil {
		member.FamilyMembers = models.FamilyMemberList{}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		number, err := nextMembershipNumber(tx)
		if err != nil {
			return err
		}
		member.MembershipNumber = number
		return tx.Create(member).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: membership number already taken", ErrConflict)
		}
		return nil, fmt.Errorf("failed to create member: %w", err)
	}

	memberID := member.ID.String()
	s.recordAudit(ctx, RecordInput{
		Action:     models.ActionCreate,
		EntityType: models.EntityMember,
		EntityID:   memberID,
		After:      member,
		MemberID:   &memberID,
		RequestID:  requestID,
		Actor:      actor,
	})

	return member, nil
}

// Get returns one member by ID
func (s *MemberService) Get(ctx context.Context, id uuid.UUID) (*models.Member, error) {
	var member models.Member
	err := s.db.WithContext(ctx).First(&member, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: member %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to load member: %w", err)
	}
	return &member, nil
}

// Update applies a partial update and logs the resulting diff. When nothing
// actually changed the ledger suppresses the entry; the save still succeeds.
func (s *MemberService) Update(ctx context.Context, id uuid.UUID, req *models.UpdateMemberRequest, actor ActorContext) (*models.Member, error) {
	member, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	before := *member

	if req.HeadName != nil {
		if *req.HeadName == "" {
			return nil, fmt.Errorf("%w: headName cannot be empty", ErrValidation)
		}
		member.HeadName = *req.HeadName
	}
	if req.Phone != nil {
		member.Phone = *req.Phone
	}
	if req.Email != nil {
		member.Email = *req.Email
	}
	if req.Occupation != nil {
		member.Occupation = *req.Occupation
	}
	if req.AddressLine != nil {
		member.AddressLine = *req.AddressLine
	}
	if req.City != nil {
		member.City = *req.City
	}
	if req.Pincode != nil {
		member.Pincode = *req.Pincode
	}
	if req.ZoneID != nil {
		if err := s.validateZone(ctx, req.ZoneID); err != nil {
			return nil, err
		}
		member.ZoneID = req.ZoneID
	}
	if req.FamilyMembers != nil {
		if err := s.validateFamily(*req.FamilyMembers); err != nil {
			return nil, err
		}
		member.FamilyMembers = *req.FamilyMembers
	}
	if req.Status != nil {
		if !s.enums.IsValidMemberStatus(*req.Status) {
			return nil, fmt.Errorf("%w: invalid status: %s", ErrValidation, *req.Status)
		}
		member.Status = *req.Status
	}

	if err := s.db.WithContext(ctx).Save(member).Error; err != nil {
		return nil, fmt.Errorf("failed to update member: %w", err)
	}

	memberID := member.ID.String()
	s.recordAudit(ctx, RecordInput{
		Action:     models.ActionUpdate,
		EntityType: models.EntityMember,
		EntityID:   memberID,
		Before:     &before,
		After:      member,
		MemberID:   &memberID,
		Actor:      actor,
	})

	return member, nil
}

// Delete soft-deletes a member and logs a delete entry
func (s *MemberService) Delete(ctx context.Context, id uuid.UUID, actor ActorContext) error {
	member, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(member).Error; err != nil {
		return fmt.Errorf("failed to delete member: %w", err)
	}

	memberID := member.ID.String()
	s.recordAudit(ctx, RecordInput{
		Action:     models.ActionDelete,
		EntityType: models.EntityMember,
		EntityID:   memberID,
		Before:     member,
		MemberID:   &memberID,
		Actor:      actor,
	})

	return nil
}

// List returns one page of the member directory
func (s *MemberService) List(ctx context.Context, filters MemberFilters) (*models.MemberPageResponse, error) {
	page := filters.Page
	if page < defaultPage {
		page = defaultPage
	}
	pageSize := filters.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	query := s.db.WithContext(ctx).Model(&models.Member{})
	if filters.ZoneID != nil {
		query = query.Where("zone_id = ?", *filters.ZoneID)
	}
	if filters.Status != "" {
		query = query.Where("status = ?", filters.Status)
	}
	if filters.Search != "" {
		pattern := "%" + filters.Search + "%"
		query = query.Where("head_name LIKE ? OR phone LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count members: %w", err)
	}

	var members []models.Member
	if err := query.Order("membership_number ASC").Limit(pageSize).Offset((page - 1) * pageSize).Find(&members).Error; err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	if members == nil {
		members = []models.Member{}
	}

	return &models.MemberPageResponse{
		Members: members,
		Pagination: models.Pagination{
			Page:       page,
			PageSize:   pageSize,
			TotalCount: total,
		},
	}, nil
}

// DisplayNames resolves member IDs to head-of-family names for export
// projection
func (s *MemberService) DisplayNames(ctx context.Context, records []models.AuditRecord) (map[string]string, error) {
	ids := make([]string, 0)
	seen := make(map[string]struct{})
	for _, record := range records {
		if record.MemberID == nil {
			continue
		}
		if _, ok := seen[*record.MemberID]; ok {
			continue
		}
		seen[*record.MemberID] = struct{}{}
		ids = append(ids, *record.MemberID)
	}
	if len(ids) == 0 {
		return map[string]string{}, nil
	}

	var rows []models.Member
	if err := s.db.WithContext(ctx).Unscoped().Select("id", "head_name").Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to resolve member names: %w", err)
	}

	names := make(map[string]string, len(rows))
	for _, row := range rows {
		names[row.ID.String()] = row.HeadName
	}
	return names, nil
}

// validateFamily checks family-member relations against the configured enums
func (s *MemberService) validateFamily(family models.FamilyMemberList) error {
	for _, fm := range family {
		if fm.Name == "" {
			return fmt.Errorf("%w: family member name is required", ErrValidation)
		}
		if !s.enums.IsValidRelation(fm.Relation) {
			return fmt.Errorf("%w: invalid relation: %s", ErrValidation, fm.Relation)
		}
	}
	return nil
}

// validateZone checks that a referenced zone exists
func (s *MemberService) validateZone(ctx context.Context, zoneID *uuid.UUID) error {
	if zoneID == nil {
		return nil
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Zone{}).Where("id = ?", *zoneID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check zone: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("%w: unknown zone: %s", ErrValidation, zoneID)
	}
	return nil
}

// recordAudit logs the ledger entry for an already-committed domain write.
// A ledger failure here is logged and swallowed: losing an audit entry is
// undesirable but must not overturn the committed mutation.
func (s *MemberService) recordAudit(ctx context.Context, in RecordInput) {
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

// nextMembershipNumber allocates membership numbers the same way the ledger
// allocates audit numbers: re-read the maximum, let the unique index arbitrate
func nextMembershipNumber(tx *gorm.DB) (int64, error) {
	var current sql.NullInt64
	err := tx.Model(&models.Member{}).Unscoped().Select("MAX(membership_number)").Scan(&current).Error
	if err != nil {
		return 0, fmt.Errorf("failed to read current membership number: %w", err)
	}
	return current.Int64 + 1, nil
}
