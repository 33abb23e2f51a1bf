package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FamilyMember is one person in a household. Name is the identity used by the
// audit differ when comparing family lists.
type FamilyMember struct {
	Name       string `json:"name"`
	Relation   string `json:"relation,omitempty"`
	Age        int    `json:"age,omitempty"`
	Occupation string `json:"occupation,omitempty"`
}

// FamilyMemberList is persisted as a JSON text column
type FamilyMemberList []FamilyMember

// Value implements driver.Valuer
func (l FamilyMemberList) Value() (driver.Value, error) {
	if l == nil {
		l = FamilyMemberList{}
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal family members: %w", err)
	}
	return string(data), nil
}

// Scan implements sql.Scanner
func (l *FamilyMemberList) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*l = FamilyMemberList{}
		return nil
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported family member column type %T", value)
	}
}

// Well-known member statuses. The full set is configurable; these two are
// always present.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Member represents one registered household
type Member struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	// MembershipNumber is allocated at creation time and printed on cards
	MembershipNumber int64 `gorm:"uniqueIndex:idx_members_number;not null" json:"membershipNumber"`

	// Head of family
	HeadName   string `gorm:"type:varchar(255);not null;index:idx_members_head_name" json:"headName"`
	Phone      string `gorm:"type:varchar(20)" json:"phone,omitempty"`
	Email      string `gorm:"type:varchar(255)" json:"email,omitempty"`
	Occupation string `gorm:"type:varchar(255)" json:"occupation,omitempty"`

	// Address
	AddressLine string `gorm:"type:varchar(512)" json:"addressLine,omitempty"`
	City        string `gorm:"type:varchar(100)" json:"city,omitempty"`
	Pincode     string `gorm:"type:varchar(10)" json:"pincode,omitempty"`

	ZoneID *uuid.UUID `gorm:"type:uuid;index:idx_members_zone" json:"zoneId,omitempty"`

	FamilyMembers FamilyMemberList `gorm:"type:text" json:"familyMembers"`

	Status string `gorm:"type:varchar(20);not null;default:active" json:"status"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName sets the table name for the Member model
func (Member) TableName() string {
	return "members"
}

// BeforeCreate hook to assign the primary key
func (m *Member) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
