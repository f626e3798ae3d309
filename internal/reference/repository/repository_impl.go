package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/municipia/apoios/internal/reference/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) ListCategories(ctx context.Context, db *gorm.DB, includeInactive bool) ([]domain.ApplicationCategory, error) {
	var categories []domain.ApplicationCategory
	stmt := db.WithContext(ctx).Model(&domain.ApplicationCategory{})
	if !includeInactive {
		stmt = stmt.Where("is_active = ?", true)
	}
	err := stmt.Order("code ASC").Find(&categories).Error
	return categories, err
}

func (r *repo) FindCategoryByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.ApplicationCategory, error) {
	var category domain.ApplicationCategory
	err := db.WithContext(ctx).Where("id = ?", id).First(&category).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *repo) FindCategoryByCode(ctx context.Context, db *gorm.DB, code string) (*domain.ApplicationCategory, error) {
	var category domain.ApplicationCategory
	err := db.WithContext(ctx).Where("code = ?", code).First(&category).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *repo) SaveCategory(ctx context.Context, db *gorm.DB, category *domain.ApplicationCategory) error {
	return db.WithContext(ctx).Save(category).Error
}

func (r *repo) ListDocumentTypes(ctx context.Context, db *gorm.DB, includeInactive bool) ([]domain.DocumentType, error) {
	var types []domain.DocumentType
	stmt := db.WithContext(ctx).Model(&domain.DocumentType{})
	if !includeInactive {
		stmt = stmt.Where("is_active = ?", true)
	}
	err := stmt.Order("code ASC").Find(&types).Error
	return types, err
}

func (r *repo) FindDocumentTypeByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.DocumentType, error) {
	var documentType domain.DocumentType
	err := db.WithContext(ctx).Where("id = ?", id).First(&documentType).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &documentType, nil
}

func (r *repo) FindDocumentTypeByCode(ctx context.Context, db *gorm.DB, code string) (*domain.DocumentType, error) {
	var documentType domain.DocumentType
	err := db.WithContext(ctx).Where("code = ?", code).First(&documentType).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &documentType, nil
}

func (r *repo) SaveDocumentType(ctx context.Context, db *gorm.DB, documentType *domain.DocumentType) error {
	return db.WithContext(ctx).Save(documentType).Error
}
