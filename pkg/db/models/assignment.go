package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/alexandreseverogh/NetImobiliaria-sub010/pkg/enums"
)

// Assignment is one timed attempt to hand a lead to an agent. Rows are
// append-only per lead and an agent id never repeats within a lead's history.
type Assignment struct {
	ID         uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	LeadID     uuid.UUID              `gorm:"column:lead_id;type:uuid;not null;index"`
	AgentID    uuid.UUID              `gorm:"column:agent_id;type:uuid;not null"`
	Tier       enums.AgentTier        `gorm:"column:tier;type:agent_tier;not null"`
	Status     enums.AssignmentStatus `gorm:"column:status;type:assignment_status;not null;default:'assigned'"`
	AssignedAt time.Time              `gorm:"column:assigned_at;autoCreateTime"`
	ExpiresAt  time.Time              `gorm:"column:expires_at;not null"`
	AcceptedAt *time.Time             `gorm:"column:accepted_at"`
	Outcome    *AssignmentOutcome     `gorm:"column:outcome;type:jsonb;serializer:json"`
}

// AssignmentOutcome is the free-form audit payload explaining how the
// assignment came to be and how it ended.
type AssignmentOutcome struct {
	Reason          string     `json:"reason,omitempty"`
	Attempt         int        `json:"attempt,omitempty"`
	ForcedTier      string     `json:"forcedTier,omitempty"`
	PreviousAgentID *uuid.UUID `json:"previousAgentId,omitempty"`
	ExpiredAt       *time.Time `json:"expiredAt,omitempty"`
}
