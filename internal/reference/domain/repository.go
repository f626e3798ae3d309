package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	ListCategories(ctx context.Context, db *gorm.DB, includeInactive bool) ([]ApplicationCategory, error)
	FindCategoryByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*ApplicationCategory, error)
	FindCategoryByCode(ctx context.Context, db *gorm.DB, code string) (*ApplicationCategory, error)
	SaveCategory(ctx context.Context, db *gorm.DB, category *ApplicationCategory) error

	ListDocumentTypes(ctx context.Context, db *gorm.DB, includeInactive bool) ([]DocumentType, error)
	FindDocumentTypeByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*DocumentType, error)
	FindDocumentTypeByCode(ctx context.Context, db *gorm.DB, code string) (*DocumentType, error)
	SaveDocumentType(ctx context.Context, db *gorm.DB, documentType *DocumentType) error
}
