package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Entity is an association or local organization that applies for
// municipal support.
type Entity struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Name      string       `gorm:"type:text;not null" json:"name"`
	TaxID     string       `gorm:"column:tax_id;type:text;not null;uniqueIndex" json:"tax_id"`
	Email     string       `gorm:"type:text;not null;default:''" json:"email"`
	Phone     string       `gorm:"type:text;not null;default:''" json:"phone"`
	Address   string       `gorm:"type:text;not null;default:''" json:"address"`
	IsActive  bool         `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Entity) TableName() string { return "entities" }
