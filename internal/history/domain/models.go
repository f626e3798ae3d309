// Package domain contains the append-only audit trail for application
// status changes and document reviews. Rows are never updated or
// deleted once written.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// StatusEntry records one status change. FromStatus is nil for the
// creation row. ChangedBy is nil for system-driven changes.
type StatusEntry struct {
	ID            snowflake.ID      `gorm:"primaryKey" json:"id"`
	ApplicationID snowflake.ID      `gorm:"column:application_id;not null;index" json:"application_id"`
	FromStatus    *string           `gorm:"column:from_status" json:"from_status,omitempty"`
	ToStatus      string            `gorm:"column:to_status;not null" json:"to_status"`
	Comment       string            `gorm:"type:text;not null;default:''" json:"comment"`
	ChangedBy     *snowflake.ID     `gorm:"column:changed_by" json:"changed_by,omitempty"`
	Metadata      datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt     time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP;index" json:"created_at"`
}

func (StatusEntry) TableName() string { return "application_status_history" }

// DocumentReviewEntry records one review decision on a document.
type DocumentReviewEntry struct {
	ID            snowflake.ID  `gorm:"primaryKey" json:"id"`
	DocumentID    snowflake.ID  `gorm:"column:document_id;not null;index" json:"document_id"`
	ApplicationID snowflake.ID  `gorm:"column:application_id;not null;index" json:"application_id"`
	Decision      string        `gorm:"not null" json:"decision"`
	Comment       string        `gorm:"type:text;not null;default:''" json:"comment"`
	ReviewedBy    *snowflake.ID `gorm:"column:reviewed_by" json:"reviewed_by,omitempty"`
	CreatedAt     time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (DocumentReviewEntry) TableName() string { return "document_review_history" }
