package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/alexandreseverogh/NetImobiliaria-sub010/pkg/enums"
)

// Lead records a buyer's expressed interest in a property. At most one lead
// exists per (buyer, property) pair; repeat registrations update the row in
// place instead of creating a duplicate.
type Lead struct {
	ID                uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BuyerID           uuid.UUID               `gorm:"column:buyer_id;type:uuid;not null;uniqueIndex:idx_leads_buyer_property"`
	PropertyID        uuid.UUID               `gorm:"column:property_id;type:uuid;not null;uniqueIndex:idx_leads_buyer_property"`
	ContactPreference enums.ContactPreference `gorm:"column:contact_preference;type:contact_preference;not null;default:'either'"`
	Message           *string                 `gorm:"column:message"`
	Assignments       []Assignment            `gorm:"foreignKey:LeadID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
