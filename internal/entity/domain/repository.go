package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/municipia/apoios/pkg/db/pagination"
	"gorm.io/gorm"
)

type ListEntityFilter struct {
	Name       string
	OnlyActive bool
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entity *Entity) error
	Save(ctx context.Context, db *gorm.DB, entity *Entity) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Entity, error)
	FindByTaxID(ctx context.Context, db *gorm.DB, taxID string) (*Entity, error)
	List(ctx context.Context, db *gorm.DB, filter ListEntityFilter, page pagination.Pagination) ([]*Entity, error)
}
