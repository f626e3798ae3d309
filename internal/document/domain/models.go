// Package domain contains documents attached to applications and their
// review lifecycle.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "PENDING"
	ReviewApproved ReviewStatus = "APPROVED"
	ReviewRejected ReviewStatus = "REJECTED"
)

// Document is an uploaded attachment. The blob lives in storage under
// StorageKey; rows are soft deleted so review history keeps its anchor.
type Document struct {
	ID             snowflake.ID   `gorm:"primaryKey" json:"id"`
	ApplicationID  snowflake.ID   `gorm:"column:application_id;not null;index" json:"application_id"`
	DocumentTypeID *snowflake.ID  `gorm:"column:document_type_id" json:"document_type_id,omitempty"`
	Name           string         `gorm:"type:text;not null" json:"name"`
	OriginalName   string         `gorm:"column:original_name;type:text;not null;default:''" json:"original_name"`
	ContentType    string         `gorm:"column:content_type;type:text;not null;default:''" json:"content_type"`
	SizeBytes      int64          `gorm:"column:size_bytes;not null;default:0" json:"size_bytes"`
	StorageKey     string         `gorm:"column:storage_key;type:text;not null" json:"-"`
	ReviewStatus   ReviewStatus   `gorm:"column:review_status;not null;default:'PENDING';index" json:"review_status"`
	ReviewComment  *string        `gorm:"column:review_comment" json:"review_comment,omitempty"`
	ReviewedBy     *snowflake.ID  `gorm:"column:reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt     *time.Time     `gorm:"column:reviewed_at" json:"reviewed_at,omitempty"`
	UploadedBy     *snowflake.ID  `gorm:"column:uploaded_by" json:"uploaded_by,omitempty"`
	CreatedAt      time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Document) TableName() string { return "documents" }
