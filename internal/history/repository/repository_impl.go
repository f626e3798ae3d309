package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/municipia/apoios/internal/history/domain"
	"github.com/municipia/apoios/pkg/db/option"
	"github.com/municipia/apoios/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertStatus(ctx context.Context, db *gorm.DB, entry *domain.StatusEntry) error {
	return db.WithContext(ctx).Create(entry).Error
}

func (r *repo) InsertDocumentReview(ctx context.Context, db *gorm.DB, entry *domain.DocumentReviewEntry) error {
	return db.WithContext(ctx).Create(entry).Error
}

func (r *repo) ListStatus(ctx context.Context, db *gorm.DB, applicationID snowflake.ID, page pagination.Pagination) ([]*domain.StatusEntry, error) {
	var entries []*domain.StatusEntry
	stmt := db.WithContext(ctx).
		Model(&domain.StatusEntry{}).
		Where("application_id = ?", applicationID)
	stmt = option.ApplyPagination(page).Apply(stmt)
	err := stmt.
		Order("created_at desc, id desc").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repo) ListDocumentReviews(ctx context.Context, db *gorm.DB, documentID snowflake.ID) ([]domain.DocumentReviewEntry, error) {
	var entries []domain.DocumentReviewEntry
	err := db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("created_at ASC, id ASC").
		Find(&entries).Error
	return entries, err
}
