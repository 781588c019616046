package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/alexandreseverogh/NetImobiliaria-sub010/pkg/enums"
)

// Agent is a broker eligible to receive leads. Tier is a static
// classification, not derived from history.
type Agent struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name           string          `gorm:"column:name;not null"`
	Email          string          `gorm:"column:email;type:text;not null;uniqueIndex"`
	Phone          *string         `gorm:"column:phone"`
	Tier           enums.AgentTier `gorm:"column:tier;type:agent_tier;not null"`
	Active         bool            `gorm:"column:active;not null;default:true"`
	ServiceState   string          `gorm:"column:service_state;not null;default:''"`
	ServiceCity    string          `gorm:"column:service_city;not null;default:''"`
	LastAssignedAt *time.Time      `gorm:"column:last_assigned_at"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
