package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Registration request statuses
const (
	RequestPending  = "pending"
	RequestApproved = "approved"
	RequestRejected = "rejected"
)

// RegistrationRequest is a public membership application awaiting admin
// review. On approval its household snapshot becomes a Member.
type RegistrationRequest struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	HeadName   string `gorm:"type:varchar(255);not null" json:"headName"`
	Phone      string `gorm:"type:varchar(20)" json:"phone,omitempty"`
	Email      string `gorm:"type:varchar(255)" json:"email,omitempty"`
	Occupation string `gorm:"type:varchar(255)" json:"occupation,omitempty"`

	AddressLine string `gorm:"type:varchar(512)" json:"addressLine,omitempty"`
	City        string `gorm:"type:varchar(100)" json:"city,omitempty"`
	Pincode     string `gorm:"type:varchar(10)" json:"pincode,omitempty"`

	ZoneID *uuid.UUID `gorm:"type:uuid;index:idx_requests_zone" json:"zoneId,omitempty"`

	FamilyMembers FamilyMemberList `gorm:"type:text" json:"familyMembers"`

	Status string `gorm:"type:varchar(20);not null;default:pending;index:idx_requests_status" json:"status"`

	// Note holds the admin's reason on rejection
	Note string `gorm:"type:varchar(512)" json:"note,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName sets the table name for the RegistrationRequest model
func (RegistrationRequest) TableName() string {
	return "registration_requests"
}

// BeforeCreate hook to assign the primary key
func (r *RegistrationRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
