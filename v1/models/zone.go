package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Zone is a geographic area members belong to
type Zone struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_zones_name" json:"name"`
	Description string    `gorm:"type:varchar(512)" json:"description,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName sets the table name for the Zone model
func (Zone) TableName() string {
	return "zones"
}

// BeforeCreate hook to assign the primary key
func (z *Zone) BeforeCreate(tx *gorm.DB) error {
	if z.ID == uuid.Nil {
		z.ID = uuid.New()
	}
	return nil
}
