package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Property is the listing a lead refers to. State and city feed the
// selector's service-area filter; code/title/price feed agent notifications.
type Property struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code      string          `gorm:"column:code;type:text;not null;uniqueIndex"`
	Title     string          `gorm:"column:title;not null"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(14,2);not null;default:0"`
	State     string          `gorm:"column:state;not null"`
	City      string          `gorm:"column:city;not null"`
	Active    bool            `gorm:"column:active;not null;default:true"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
