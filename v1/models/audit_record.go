package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samaj-registry/registry-backend/v1/audit"
	"gorm.io/gorm"
)

// Audit action constants (core to the ledger contract, not configurable)
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Audited entity types (closed enumeration; extend here when a new entity
// kind becomes auditable)
const (
	EntityMember  = "Member"
	EntityUser    = "User"
	EntityZone    = "Zone"
	EntityRequest = "Request"
)

var validActions = map[string]struct{}{
	ActionCreate: {},
	ActionUpdate: {},
	ActionDelete: {},
}

var validEntityTypes = map[string]struct{}{
	EntityMember:  {},
	EntityUser:    {},
	EntityZone:    {},
	EntityRequest: {},
}

// IsValidAction reports whether action is a recognized audit action
func IsValidAction(action string) bool {
	_, ok := validActions[action]
	return ok
}

// IsValidEntityType reports whether entityType is an auditable entity kind
func IsValidEntityType(entityType string) bool {
	_, ok := validEntityTypes[entityType]
	return ok
}

// AuditRecord is one immutable ledger entry describing one action on one
// entity. Records are created exactly once by the ledger service, never
// updated, never deleted by normal operation. The actor fields are a
// denormalized snapshot of the authenticated principal at write time so
// history remains readable if the user account is later altered or removed.
type AuditRecord struct {
	// Primary Key
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	// AuditNumber is strictly increasing across all records, unique, and
	// assigned at persist time (never client-supplied)
	AuditNumber int64 `gorm:"uniqueIndex:idx_audit_records_number;not null" json:"auditNumber"`

	// Event Classification
	Action     string `gorm:"type:varchar(20);not null" json:"action"`
	EntityType string `gorm:"type:varchar(50);not null;index:idx_audit_records_entity,priority:1" json:"entityType"`
	EntityID   string `gorm:"type:varchar(255);not null;index:idx_audit_records_entity,priority:2" json:"entityId"`

	// Optional cross-references when the action relates to a member or
	// originated from a registration-request workflow
	MemberID  *string `gorm:"type:varchar(255);index:idx_audit_records_member" json:"memberId,omitempty"`
	RequestID *string `gorm:"type:varchar(255)" json:"requestId,omitempty"`

	// Changes holds the ordered field-level diff. May be empty for create
	// and delete actions, where the full snapshot stands in for the diff.
	Changes audit.ChangeList `gorm:"type:text" json:"changes"`

	// Actor snapshot (all optional; absence must not fail the write)
	ActorID    *string `gorm:"type:varchar(255);index:idx_audit_records_actor" json:"actorId,omitempty"`
	ActorName  *string `gorm:"type:varchar(255)" json:"actorName,omitempty"`
	ActorEmail *string `gorm:"type:varchar(255)" json:"actorEmail,omitempty"`

	// Request provenance, best-effort
	IPAddress *string `gorm:"type:varchar(64)" json:"ipAddress,omitempty"`
	UserAgent *string `gorm:"type:varchar(512)" json:"userAgent,omitempty"`

	// Timestamp is the record-creation instant, server-assigned
	Timestamp time.Time `gorm:"not null;index:idx_audit_records_timestamp" json:"timestamp"`

	// BaseModel provides CreatedAt
	BaseModel
}

// TableName sets the table name for the AuditRecord model
func (AuditRecord) TableName() string {
	return "audit_records"
}

// BeforeCreate hook to set default values
func (r *AuditRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}

	// Timestamp should already be set by the ledger service; this is a
	// safety fallback, not the primary source
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now().UTC()
	}

	return r.BaseModel.BeforeCreate(tx)
}

// Validate performs validation checks matching the database constraints
func (r *AuditRecord) Validate() error {
	if !IsValidAction(r.Action) {
		return fmt.Errorf("invalid action: %s (must be %s, %s or %s)", r.Action, ActionCreate, ActionUpdate, ActionDelete)
	}
	if !IsValidEntityType(r.EntityType) {
		return fmt.Errorf("invalid entityType: %s", r.EntityType)
	}
	if r.EntityID == "" {
		return fmt.Errorf("entityId is required")
	}
	return nil
}
