package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/samaj-registry/registry-backend/v1/models"
	"gorm.io/gorm"
)

// maxSequenceRetries bounds the re-read-and-retry loop when two writers race
// for the same audit number. Exhaustion escalates as a storage error.
const maxSequenceRetries = 3

// GormAuditRepository implements AuditRepository using GORM (works with
// SQLite or PostgreSQL)
type GormAuditRepository struct {
	db *gorm.DB
}

// NewGormAuditRepository creates a new repository
func NewGormAuditRepository(db *gorm.DB) *GormAuditRepository {
	// Auto-migrate the audit_records table. A migration error is logged but
	// does not fail construction; the actual database operation will fail
	// later if the schema is wrong.
	if err := db.AutoMigrate(&models.AuditRecord{}); err != nil {
		slog.Warn("Failed to auto-migrate audit_records table", "error", err)
	}
	return &GormAuditRepository{db: db}
}

// Create appends a new ledger entry. The audit number is allocated by
// re-reading the current maximum on every call. The unique index is the
// arbiter when two writers race: the loser's insert fails with a
// duplicate-key error and is retried with a fresh maximum.
func (r *GormAuditRepository) Create(ctx context.Context, record *models.AuditRecord) (*models.AuditRecord, error) {
	for attempt := 1; attempt <= maxSequenceRetries; attempt++ {
		next, err := r.nextAuditNumber(ctx)
		if err != nil {
			return nil, err
		}
		record.AuditNumber = next

		err = r.db.WithContext(ctx).Create(record).Error
		if err == nil {
			return record, nil
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			slog.Warn("Audit number collision, retrying",
				"audit_number", record.AuditNumber,
				"attempt", attempt)
			continue
		}
		return nil, fmt.Errorf("failed to create audit record: %w", err)
	}
	return nil, fmt.Errorf("audit number allocation failed after %d attempts", maxSequenceRetries)
}

// nextAuditNumber reads the current maximum audit number and returns max+1,
// defaulting to 1 when the ledger is empty. Never exposed outside the
// repository.
func (r *GormAuditRepository) nextAuditNumber(ctx context.Context) (int64, error) {
	var current sql.NullInt64
	err := r.db.WithContext(ctx).
		Model(&models.AuditRecord{}).
		Select("MAX(audit_number)").
		Scan(&current).Error
	if err != nil {
		return 0, fmt.Errorf("failed to read current audit number: %w", err)
	}
	return current.Int64 + 1, nil
}

// ListByEntity retrieves all records for one entity, newest first
func (r *GormAuditRepository) ListByEntity(ctx context.Context, entityType, entityID string) ([]models.AuditRecord, error) {
	var records []models.AuditRecord
	result := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("timestamp DESC, audit_number DESC").
		Find(&records)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to retrieve audit records by entity: %w", result.Error)
	}
	if records == nil {
		records = []models.AuditRecord{}
	}
	return records, nil
}

// ListByMember retrieves all records cross-referencing a member, newest first
func (r *GormAuditRepository) ListByMember(ctx context.Context, memberID string) ([]models.AuditRecord, error) {
	var records []models.AuditRecord
	result := r.db.WithContext(ctx).
		Where("member_id = ?", memberID).
		Order("timestamp DESC, audit_number DESC").
		Find(&records)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to retrieve audit records by member: %w", result.Error)
	}
	if records == nil {
		records = []models.AuditRecord{}
	}
	return records, nil
}

// FindPage retrieves one page of filtered records plus the total match count
func (r *GormAuditRepository) FindPage(ctx context.Context, filters *AuditFilters, limit, offset int) ([]models.AuditRecord, int64, error) {
	var records []models.AuditRecord
	var total int64

	query := r.applyFilters(r.db.WithContext(ctx).Model(&models.AuditRecord{}), filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count audit records: %w", err)
	}

	if err := query.Order("timestamp DESC, audit_number DESC").Limit(limit).Offset(offset).Find(&records).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to retrieve audit records: %w", err)
	}

	if records == nil {
		records = []models.AuditRecord{}
	}

	return records, total, nil
}

// FindAll retrieves all filtered records, unpaginated, for bulk export
func (r *GormAuditRepository) FindAll(ctx context.Context, filters *AuditFilters) ([]models.AuditRecord, error) {
	var records []models.AuditRecord

	query := r.applyFilters(r.db.WithContext(ctx).Model(&models.AuditRecord{}), filters)

	if err := query.Order("timestamp DESC, audit_number DESC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to export audit records: %w", err)
	}

	if records == nil {
		records = []models.AuditRecord{}
	}

	return records, nil
}

// applyFilters translates AuditFilters into WHERE clauses
func (r *GormAuditRepository) applyFilters(query *gorm.DB, filters *AuditFilters) *gorm.DB {
	if filters == nil {
		return query
	}

	if filters.EntityType != nil && *filters.EntityType != "" {
		query = query.Where("entity_type = ?", *filters.EntityType)
	}
	if filters.Action != nil && *filters.Action != "" {
		query = query.Where("action = ?", *filters.Action)
	}
	if filters.ActorID != nil && *filters.ActorID != "" {
		query = query.Where("actor_id = ?", *filters.ActorID)
	}
	if filters.From != nil {
		query = query.Where("timestamp >= ?", *filters.From)
	}
	if filters.To != nil {
		query = query.Where("timestamp <= ?", *filters.To)
	}
	if filters.Search != nil && *filters.Search != "" {
		search := strings.TrimSpace(*filters.Search)
		pattern := "%" + escapeLike(strings.ToLower(search)) + "%"
		textMatch := `LOWER(actor_name) LIKE ? ESCAPE '\' OR LOWER(actor_email) LIKE ? ESCAPE '\' OR LOWER(action) LIKE ? ESCAPE '\' OR LOWER(entity_type) LIKE ? ESCAPE '\'`
		if number, err := strconv.ParseInt(search, 10, 64); err == nil {
			// A numeric search additionally matches the audit number exactly
			query = query.Where(textMatch+" OR audit_number = ?", pattern, pattern, pattern, pattern, number)
		} else {
			query = query.Where(textMatch, pattern, pattern, pattern, pattern)
		}
	}

	return query
}

// likeEscaper neutralizes LIKE metacharacters so the search term is matched
// literally
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
