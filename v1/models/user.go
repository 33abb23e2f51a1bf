package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Staff roles
const (
	RoleAdmin  = "admin"
	RoleViewer = "viewer"
)

// User is a staff account. Sessions are issued by the external identity
// provider; this table only mirrors the principal for role checks and for
// denormalized actor snapshots in the audit ledger.
type User struct {
	ID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name  string    `gorm:"type:varchar(255);not null" json:"name"`
	Email string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_users_email" json:"email"`

	// PasswordHash is never serialized and never reaches audit snapshots
	PasswordHash string `gorm:"type:varchar(255)" json:"-"`

	Role string `gorm:"type:varchar(20);not null;default:viewer" json:"role"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName sets the table name for the User model
func (User) TableName() string {
	return "users"
}

// BeforeCreate hook to assign the primary key
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
