package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/municipia/apoios/pkg/db/pagination"
	"gorm.io/gorm"
)

type ListApplicationFilter struct {
	EntityID *snowflake.ID
	Status   *ApplicationStatus
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, application *Application) error
	Save(ctx context.Context, db *gorm.DB, application *Application) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Application, error)
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Application, error)
	List(ctx context.Context, db *gorm.DB, filter ListApplicationFilter, page pagination.Pagination) ([]*Application, error)

	// UpdateStatusCAS moves the application from one status to another
	// with a compare-and-swap on current_status. Extra columns are
	// written in the same statement. Returns the number of rows
	// changed: zero means another writer won.
	UpdateStatusCAS(ctx context.Context, db *gorm.DB, id snowflake.ID, from, to ApplicationStatus, extra map[string]any) (int64, error)

	FindDuplicates(ctx context.Context, db *gorm.DB, objectNormalized string, excludeID snowflake.ID) ([]DuplicateCandidate, error)

	UpsertDeliberation(ctx context.Context, db *gorm.DB, deliberation *MeetingDeliberation) error
	FindDeliberation(ctx context.Context, db *gorm.DB, applicationID snowflake.ID) (*MeetingDeliberation, error)
	UpsertPresidentDecision(ctx context.Context, db *gorm.DB, decision *PresidentDecision) error
	FindPresidentDecision(ctx context.Context, db *gorm.DB, applicationID snowflake.ID) (*PresidentDecision, error)
}
