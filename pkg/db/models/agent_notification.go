package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/alexandreseverogh/NetImobiliaria-sub010/pkg/enums"
)

// AgentNotification is the in-app copy of a message dispatched to an agent.
// The outbound channel (email/SMS) consumes the same payload downstream.
type AgentNotification struct {
	ID        uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AgentID   uuid.UUID              `gorm:"column:agent_id;type:uuid;not null;index"`
	Kind      enums.NotificationKind `gorm:"column:kind;type:notification_kind;not null"`
	Payload   map[string]any         `gorm:"column:payload;type:jsonb;serializer:json"`
	ReadAt    *time.Time             `gorm:"column:read_at"`
	CreatedAt time.Time              `gorm:"column:created_at;autoCreateTime"`
}
