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

// RequestService handles public registration requests and their admin
// review workflow. Approval converts the request's household snapshot into
// a member; every transition is audited with a request cross-reference.
type RequestService struct {
	db      *gorm.DB
	members *MemberService
	auditor *AuditService
}

// NewRequestService creates a new registration-request service
func NewRequestService(db *gorm.DB, members *MemberService, auditor *AuditService) *RequestService {
	if err := db.AutoMigrate(&models.RegistrationRequest{}); err != nil {
		slog.Warn("Failed to auto-migrate registration_requests table", "error", err)
	}
	return &RequestService{db: db, members: members, auditor: auditor}
}

// Submit files a public membership application. There is no authenticated
// actor on this path; the ledger accepts an empty actor snapshot.
func (s *RequestService) Submit(ctx context.Context, req *models.SubmitRegistrationRequest, actor ActorContext) (*models.RegistrationRequest, error) {
	if req.HeadName == "" {
		return nil, fmt.Errorf("%w: headName is required", ErrValidation)
	}

	request := &models.RegistrationRequest{
		HeadName:      req.HeadName,
		Phone:         req.Phone,
		Email:         req.Email,
		Occupation:    req.Occupation,
		AddressLine:   req.AddressLine,
		City:          req.City,
		Pincode:       req.Pincode,
		ZoneID:        req.ZoneID,
		FamilyMembers: req.FamilyMembers,
		Status:        models.RequestPending,
	}
	if request.FamilyMembers == nil {
		request.FamilyMembers = models.FamilyMemberList{}
	}

	if err := s.db.WithContext(ctx).Create(request).Error; err != nil {
		return nil, fmt.Errorf("failed to submit registration request: %w", err)
	}

	requestID := request.ID.String()
	s.recordAudit(ctx, RecordInput{
		Action:     models.ActionCreate,
		EntityType: models.EntityRequest,
		EntityID:   requestID,
		After:      request,
		RequestID:  &requestID,
		Actor:      actor,
	})

	return request, nil
}

// Get returns one registration request by ID
func (s *RequestService) Get(ctx context.Context, id uuid.UUID) (*models.RegistrationRequest, error) {
	var request models.RegistrationRequest
	err := s.db.WithContext(ctx).First(&request, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: request %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to load registration request: %w", err)
	}
	return &request, nil
}

// Approve converts a pending request into a member. The member creation is
// committed first; the request's status transition and both ledger entries
// follow. The new member's create entry carries the request cross-reference.
func (s *RequestService) Approve(ctx context.Context, id uuid.UUID, actor ActorContext) (*models.Member, error) {
	request, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if request.Status != models.RequestPending {
		return nil, fmt.Errorf("%w: request %s is already %s", ErrValidation, id, request.Status)
	}

	member, err := s.members.CreateFromRequest(ctx, &models.CreateMemberRequest{
		HeadName:      request.HeadName,
		Phone:         request.Phone,
		Email:         request.Email,
		Occupation:    request.Occupation,
		AddressLine:   request.AddressLine,
		City:          request.City,
		Pincode:       request.Pincode,
		ZoneID:        request.ZoneID,
		FamilyMembers: request.FamilyMembers,
	}, request.ID, actor)
	if err != nil {
		return nil, fmt.Errorf("failed to create member from request %s: %w", id, err)
	}

	before := *request
	request.Status = models.RequestApproved
	if err := s.db.WithContext(ctx).Save(request).Error; err != nil {
		return nil, fmt.Errorf("failed to mark request approved: %w", err)
	}

	requestID := request.ID.String()
	memberID := member.ID.String()
	s.recordAudit(ctx, RecordInput{
		Action:     models.ActionUpdate,
		EntityType: models.EntityRequest,
		EntityID:   requestID,
		Before:     &before,
		After:      request,
		MemberID:   &memberID,
		RequestID:  &requestID,
		Actor:      actor,
	})

	return member, nil
}

// Reject marks a pending request rejected with an optional note
func (s *RequestService) Reject(ctx context.Context, id uuid.UUID, note string, actor ActorContext) (*models.RegistrationRequest, error) {
	request, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if request.Status != models.RequestPending {
		return nil, fmt.Errorf("%w: request %s is already %s", ErrValidation, id, request.Status)
	}

	before := *request
	request.Status = models.RequestRejected
	request.Note = note
	if err := s.db.WithContext(ctx).Save(request).Error; err != nil {
		return nil, fmt.Errorf("failed to mark request rejected: %w", err)
	}

	requestID := request.ID.String()
	s.recordAudit(ctx, RecordInput{
		Action:     models.ActionUpdate,
		EntityType: models.EntityRequest,
		EntityID:   requestID,
		Before:     &before,
		After:      request,
		RequestID:  &requestID,
		Actor:      actor,
	})

	return request, nil
}

// Delete removes a registration request and logs a delete entry
func (s *RequestService) Delete(ctx context.Context, id uuid.UUID, actor ActorContext) error {
	request, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(request).Error; err != nil {
		return fmt.Errorf("failed to delete registration request: %w", err)
	}

	requestID := request.ID.String()
	s.recordAudit(ctx, RecordInput{
		Action:     models.ActionDelete,
		EntityType: models.EntityRequest,
		EntityID:   requestID,
		Before:     request,
		RequestID:  &requestID,
		Actor:      actor,
	})

	return nil
}

// List returns one page of registration requests, optionally filtered by
// status, newest first
func (s *RequestService) List(ctx context.Context, status string, page, pageSize int) (*models.RequestPageResponse, error) {
	if page < defaultPage {
		page = defaultPage
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	query := s.db.WithContext(ctx).Model(&models.RegistrationRequest{})
	if status != "" {
		if status != models.RequestPending && status != models.RequestApproved && status != models.RequestRejected {
			return nil, fmt.Errorf("%w: invalid request status: %s", ErrValidation, status)
		}
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count registration requests: %w", err)
	}

	var requests []models.RegistrationRequest
	if err := query.Order("created_at DESC").Limit(pageSize).Offset((page - 1) * pageSize).Find(&requests).Error; err != nil {
		return nil, fmt.Errorf("failed to list registration requests: %w", err)
	}
	if requests == nil {
		requests = []models.RegistrationRequest{}
	}

	return &models.RequestPageResponse{
		Requests: requests,
		Pagination: models.Pagination{
			Page:       page,
			PageSize:   pageSize,
			TotalCount: total,
		},
	}, nil
}

func (s *RequestService) recordAudit(ctx context.Context, in RecordInput) {
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
