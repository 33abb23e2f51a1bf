package services

import (
	"context"
	"fmt"
	"time"

	"github.com/samaj-registry/registry-backend/v1/database"
	"github.com/samaj-registry/registry-backend/v1/models"
)

// Pagination defaults and bounds
const (
	defaultPage     = 1
	defaultPageSize = 25
	maxPageSize     = 100
)

// QueryParams are the external filter parameters for reviewing the ledger.
// All filters are optional and combined with logical AND. From and To accept
// RFC 3339 timestamps or plain dates (2006-01-02).
type QueryParams struct {
	EntityType string
	Action     string
	ActorID    string
	From       string
	To         string
	Search     string
	Page       int
	PageSize   int
}

// AuditQueryService translates external filter parameters into ledger
// queries and formats results for delivery
type AuditQueryService struct {
	repo database.AuditRepository
}

// NewAuditQueryService creates a new query service
func NewAuditQueryService(repo database.AuditRepository) *AuditQueryService {
	return &AuditQueryService{repo: repo}
}

// Query returns one page of filtered ledger entries sorted by timestamp
// descending, ties broken by audit number descending. Filter validation
// happens before any store access.
func (s *AuditQueryService) Query(ctx context.Context, params QueryParams) (*models.AuditPageResponse, error) {
	filters, err := s.buildFilters(params)
	if err != nil {
		return nil, err
	}

	page := params.Page
	if page < defaultPage {
		page = defaultPage
	}
	pageSize := params.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	records, total, err := s.repo.FindPage(ctx, filters, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}

	return &models.AuditPageResponse{
		Records: records,
		Pagination: models.Pagination{
			Page:       page,
			PageSize:   pageSize,
			TotalCount: total,
		},
	}, nil
}

// ExportAll returns all filtered ledger entries, unpaginated, for bulk
// projection into CSV rows by the export formatter
func (s *AuditQueryService) ExportAll(ctx context.Context, params QueryParams) ([]models.AuditRecord, error) {
	filters, err := s.buildFilters(params)
	if err != nil {
		return nil, err
	}
	return s.repo.FindAll(ctx, filters)
}

// ByEntity returns the full trail for one entity, newest first
func (s *AuditQueryService) ByEntity(ctx context.Context, entityType, entityID string) ([]models.AuditRecord, error) {
	if !models.IsValidEntityType(entityType) {
		return nil, fmt.Errorf("%w: invalid entityType: %s", ErrValidation, entityType)
	}
	if entityID == "" {
		return nil, fmt.Errorf("%w: entityId is required", ErrValidation)
	}
	return s.repo.ListByEntity(ctx, entityType, entityID)
}

// buildFilters validates and translates query parameters. A malformed date
// or an end-before-start range is an ErrValidation, not silently ignored.
func (s *AuditQueryService) buildFilters(params QueryParams) (*database.AuditFilters, error) {
	filters := &database.AuditFilters{}

	if params.EntityType != "" {
		if !models.IsValidEntityType(params.EntityType) {
			return nil, fmt.Errorf("%w: invalid entityType: %s", ErrValidation, params.EntityType)
		}
		filters.EntityType = strPtr(params.EntityType)
	}
	if params.Action != "" {
		if !models.IsValidAction(params.Action) {
			return nil, fmt.Errorf("%w: invalid action: %s", ErrValidation, params.Action)
		}
		filters.Action = strPtr(params.Action)
	}
	if params.ActorID != "" {
		filters.ActorID = strPtr(params.ActorID)
	}
	if params.From != "" {
		from, err := parseTimestamp(params.From)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid from timestamp %q", ErrValidation, params.From)
		}
		filters.From = &from
	}
	if params.To != "" {
		to, err := parseTimestamp(params.To)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid to timestamp %q", ErrValidation, params.To)
		}
		filters.To = &to
	}
	if filters.From != nil && filters.To != nil && filters.From.After(*filters.To) {
		return nil, fmt.Errorf("%w: from timestamp %s is after to timestamp %s", ErrValidation, params.From, params.To)
	}
	if params.Search != "" {
		filters.Search = strPtr(params.Search)
	}

	return filters, nil
}

// parseTimestamp accepts RFC 3339 or a plain date interpreted as UTC midnight
func parseTimestamp(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
