package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/municipia/apoios/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	InsertStatus(ctx context.Context, db *gorm.DB, entry *StatusEntry) error
	InsertDocumentReview(ctx context.Context, db *gorm.DB, entry *DocumentReviewEntry) error
	ListStatus(ctx context.Context, db *gorm.DB, applicationID snowflake.ID, page pagination.Pagination) ([]*StatusEntry, error)
	ListDocumentReviews(ctx context.Context, db *gorm.DB, documentID snowflake.ID) ([]DocumentReviewEntry, error)
}
