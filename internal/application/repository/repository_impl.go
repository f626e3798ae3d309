package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/municipia/apoios/internal/application/domain"
	"github.com/municipia/apoios/pkg/db/option"
	"github.com/municipia/apoios/pkg/db/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, application *domain.Application) error {
	return db.WithContext(ctx).Create(application).Error
}

func (r *repo) Save(ctx context.Context, db *gorm.DB, application *domain.Application) error {
	return db.WithContext(ctx).Save(application).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Delete(&domain.Application{}, "id = ?", id).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Application, error) {
	var application domain.Application
	err := db.WithContext(ctx).Where("id = ?", id).First(&application).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &application, nil
}

func (r *repo) FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Application, error) {
	stmt := db.WithContext(ctx)
	// sqlite has no row locks; the CAS status update is the guard there.
	if db.Dialector.Name() != "sqlite" {
		stmt = stmt.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var application domain.Application
	err := stmt.Where("id = ?", id).First(&application).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &application, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListApplicationFilter, page pagination.Pagination) ([]*domain.Application, error) {
	var applications []*domain.Application
	stmt := db.WithContext(ctx).Model(&domain.Application{})
	if filter.EntityID != nil {
		stmt = stmt.Where("entity_id = ?", *filter.EntityID)
	}
	if filter.Status != nil {
		stmt = stmt.Where("current_status = ?", *filter.Status)
	}
	stmt = option.ApplyPagination(page).Apply(stmt)
	err := stmt.
		Order("created_at desc, id desc").
		Find(&applications).Error
	if err != nil {
		return nil, err
	}
	return applications, nil
}

func (r *repo) UpdateStatusCAS(ctx context.Context, db *gorm.DB, id snowflake.ID, from, to domain.ApplicationStatus, extra map[string]any) (int64, error) {
	updates := map[string]any{"current_status": to}
	for column, value := range extra {
		updates[column] = value
	}

	tx := db.WithContext(ctx).
		Model(&domain.Application{}).
		Where("id = ? AND current_status = ?", id, from).
		Updates(updates)
	if tx.Error != nil {
		return 0, tx.Error
	}
	return tx.RowsAffected, nil
}

func (r *repo) FindDuplicates(ctx context.Context, db *gorm.DB, objectNormalized string, excludeID snowflake.ID) ([]domain.DuplicateCandidate, error) {
	var candidates []domain.DuplicateCandidate
	err := db.WithContext(ctx).
		Model(&domain.Application{}).
		Select("id", "entity_id", "object", "current_status").
		Where("object_normalized = ?", objectNormalized).
		Where("id <> ?", excludeID).
		Limit(10).
		Find(&candidates).Error
	if err != nil {
		return nil, err
	}
	return candidates, nil
}

func (r *repo) UpsertDeliberation(ctx context.Context, db *gorm.DB, deliberation *domain.MeetingDeliberation) error {
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "application_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"decision", "approved_amount", "meeting_date",
				"votes_for", "votes_against", "votes_abstain", "voting_notes",
				"comment", "recorded_by", "updated_at",
			}),
		}).
		Create(deliberation).Error
}

func (r *repo) FindDeliberation(ctx context.Context, db *gorm.DB, applicationID snowflake.ID) (*domain.MeetingDeliberation, error) {
	var deliberation domain.MeetingDeliberation
	err := db.WithContext(ctx).Where("application_id = ?", applicationID).First(&deliberation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &deliberation, nil
}

func (r *repo) UpsertPresidentDecision(ctx context.Context, db *gorm.DB, decision *domain.PresidentDecision) error {
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "application_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"decision", "comment", "decided_by", "decided_at", "updated_at",
			}),
		}).
		Create(decision).Error
}

func (r *repo) FindPresidentDecision(ctx context.Context, db *gorm.DB, applicationID snowflake.ID) (*domain.PresidentDecision, error) {
	var decision domain.PresidentDecision
	err := db.WithContext(ctx).Where("application_id = ?", applicationID).First(&decision).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &decision, nil
}
