package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, document *Document) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Document, error)
	ListByApplication(ctx context.Context, db *gorm.DB, applicationID snowflake.ID) ([]Document, error)
	UpdateReview(ctx context.Context, db *gorm.DB, id snowflake.ID, fields map[string]any) error
	SoftDelete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
}
