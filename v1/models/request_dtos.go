package models

import "github.com/google/uuid"

// CreateMemberRequest is the payload for creating a member directly
// (admin-only; the usual path is approving a registration request)
type CreateMemberRequest struct {
	HeadName      string           `json:"headName"`
	Phone         string           `json:"phone,omitempty"`
	Email         string           `json:"email,omitempty"`
	Occupation    string           `json:"occupation,omitempty"`
	AddressLine   string           `json:"addressLine,omitempty"`
	City          string           `json:"city,omitempty"`
	Pincode       string           `json:"pincode,omitempty"`
	ZoneID        *uuid.UUID       `json:"zoneId,omitempty"`
	FamilyMembers FamilyMemberList `json:"familyMembers,omitempty"`
	Status        string           `json:"status,omitempty"`
}

// UpdateMemberRequest is the payload for a partial member update. Nil fields
// are left untouched so unchanged submissions suppress cleanly in the ledger.
type UpdateMemberRequest struct {
	HeadName      *string           `json:"headName,omitempty"`
	Phone         *string           `json:"phone,omitempty"`
	Email         *string           `json:"email,omitempty"`
	Occupation    *string           `json:"occupation,omitempty"`
	AddressLine   *string           `json:"addressLine,omitempty"`
	City          *string           `json:"city,omitempty"`
	Pincode       *string           `json:"pincode,omitempty"`
	ZoneID        *uuid.UUID        `json:"zoneId,omitempty"`
	FamilyMembers *FamilyMemberList `json:"familyMembers,omitempty"`
	Status        *string           `json:"status,omitempty"`
}

// SubmitRegistrationRequest is the public membership application payload
type SubmitRegistrationRequest struct {
	HeadName      string           `json:"headName"`
	Phone         string           `json:"phone,omitempty"`
	Email         string           `json:"email,omitempty"`
	Occupation    string           `json:"occupation,omitempty"`
	AddressLine   string           `json:"addressLine,omitempty"`
	City          string           `json:"city,omitempty"`
	Pincode       string           `json:"pincode,omitempty"`
	ZoneID        *uuid.UUID       `json:"zoneId,omitempty"`
	FamilyMembers FamilyMemberList `json:"familyMembers,omitempty"`
}

// RejectRequestRequest carries the admin's rejection reason
type RejectRequestRequest struct {
	Note string `json:"note,omitempty"`
}

// CreateZoneRequest is the payload for creating a zone
type CreateZoneRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// UpdateZoneRequest is the payload for a partial zone update
type UpdateZoneRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}
