package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrInvalidCode = errors.New("invalid_code")
	ErrInvalidName = errors.New("invalid_name")
	ErrNotFound    = errors.New("reference_not_found")
	ErrCodeExists  = errors.New("code_exists")
)

type UpsertCategoryRequest struct {
	Code     string
	Name     string
	IsActive *bool
}

type UpsertDocumentTypeRequest struct {
	Code     string
	Name     string
	Required *bool
	IsActive *bool
}

type Service interface {
	ListCategories(ctx context.Context, includeInactive bool) ([]ApplicationCategory, error)
	GetCategory(ctx context.Context, id snowflake.ID) (*ApplicationCategory, error)
	CreateCategory(ctx context.Context, req UpsertCategoryRequest) (*ApplicationCategory, error)
	UpdateCategory(ctx context.Context, id snowflake.ID, req UpsertCategoryRequest) (*ApplicationCategory, error)

	ListDocumentTypes(ctx context.Context, includeInactive bool) ([]DocumentType, error)
	GetDocumentType(ctx context.Context, id snowflake.ID) (*DocumentType, error)
	CreateDocumentType(ctx context.Context, req UpsertDocumentTypeRequest) (*DocumentType, error)
	UpdateDocumentType(ctx context.Context, id snowflake.ID, req UpsertDocumentTypeRequest) (*DocumentType, error)
}
