package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/municipia/apoios/internal/entity/domain"
	"github.com/municipia/apoios/pkg/db/option"
	"github.com/municipia/apoios/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, entity *domain.Entity) error {
	return db.WithContext(ctx).Create(entity).Error
}

func (r *repo) Save(ctx context.Context, db *gorm.DB, entity *domain.Entity) error {
	return db.WithContext(ctx).Save(entity).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Entity, error) {
	var entity domain.Entity
	err := db.WithContext(ctx).Where("id = ?", id).First(&entity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

func (r *repo) FindByTaxID(ctx context.Context, db *gorm.DB, taxID string) (*domain.Entity, error) {
	var entity domain.Entity
	err := db.WithContext(ctx).Where("tax_id = ?", taxID).First(&entity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListEntityFilter, page pagination.Pagination) ([]*domain.Entity, error) {
	var entities []*domain.Entity
	stmt := db.WithContext(ctx).Model(&domain.Entity{})
	if filter.Name != "" {
		stmt = stmt.Where("name LIKE ?", "%"+filter.Name+"%")
	}
	if filter.OnlyActive {
		stmt = stmt.Where("is_active = ?", true)
	}
	stmt = option.ApplyPagination(page).Apply(stmt)
	err := stmt.
		Order("created_at desc, id desc").
		Find(&entities).Error
	if err != nil {
		return nil, err
	}
	return entities, nil
}
