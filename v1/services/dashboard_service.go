package services

import (
	"context"
	"fmt"

	"github.com/samaj-registry/registry-backend/v1/database"
	"github.com/samaj-registry/registry-backend/v1/models"
	"gorm.io/gorm"
)

// recentActivityLimit caps the ledger entries shown on the admin landing page
const recentActivityLimit = 10

// DashboardService aggregates registry counts for the admin landing page
type DashboardService struct {
	db    *gorm.DB
	zones *ZoneService
	repo  database.AuditRepository
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(db *gorm.DB, zones *ZoneService, repo database.AuditRepository) *DashboardService {
	return &DashboardService{db: db, zones: zones, repo: repo}
}

// Summary computes the dashboard aggregates in one call
func (s *DashboardService) Summary(ctx context.Context) (*models.DashboardResponse, error) {
	summary := &models.DashboardResponse{}

	if err := s.db.WithContext(ctx).Model(&models.Member{}).Count(&summary.TotalMembers).Error; err != nil {
		return nil, fmt.Errorf("failed to count members: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(&models.Member{}).Where("status = ?", "active").Count(&summary.ActiveMembers).Error; err != nil {
		return nil, fmt.Errorf("failed to count active members: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(&models.RegistrationRequest{}).Where("status = ?", models.RequestPending).Count(&summary.PendingRequests).Error; err != nil {
		return nil, fmt.Errorf("failed to count pending requests: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(&models.Zone{}).Count(&summary.TotalZones).Error; err != nil {
		return nil, fmt.Errorf("failed to count zones: %w", err)
	}

	zoneCounts, err := s.zones.List(ctx)
	if err != nil {
		return nil, err
	}
	summary.ZoneCounts = zoneCounts

	recent, _, err := s.repo.FindPage(ctx, nil, recentActivityLimit, 0)
	if err != nil {
		return nil, err
	}
	summary.RecentActivity = recent

	return summary, nil
}
