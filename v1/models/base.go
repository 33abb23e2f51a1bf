package models

import (
	"time"

	"gorm.io/gorm"
)

// BaseModel contains common fields for all models.
// Note: UpdatedAt is intentionally omitted here. Models that are mutable
// declare it themselves, while ledger entries are created only, never updated.
type BaseModel struct {
	CreatedAt time.Time `gorm:"column:created_at;default:CURRENT_TIMESTAMP" json:"createdAt"`
}

// BeforeCreate GORM hook for BaseModel
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	b.CreatedAt = time.Now().UTC()
	return nil
}

// ErrorResponse is the JSON error envelope returned by all handlers
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
