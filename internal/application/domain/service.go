package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/municipia/apoios/pkg/db/pagination"
)

var (
	ErrInvalidID           = errors.New("invalid_id")
	ErrInvalidEntity       = errors.New("invalid_entity")
	ErrInvalidObject       = errors.New("invalid_object")
	ErrInvalidAmount       = errors.New("invalid_amount")
	ErrInvalidDecision     = errors.New("invalid_decision")
	ErrCommentRequired     = errors.New("comment_required")
	ErrMeetingDateRequired = errors.New("meeting_date_required")
	ErrNotFound            = errors.New("application_not_found")
	ErrNotEditable         = errors.New("application_not_editable")
	ErrNotOwner            = errors.New("application_not_owner")
	ErrConcurrentUpdate    = errors.New("concurrent_update")
	ErrDeliberationMissing = errors.New("deliberation_missing")
)

type CreateApplicationRequest struct {
	EntityID        snowflake.ID
	CategoryID      *snowflake.ID
	Object          string
	Description     string
	RequestedAmount float64
}

type UpdateApplicationRequest struct {
	CategoryID      *snowflake.ID
	Object          string
	Description     string
	RequestedAmount *float64
}

// DuplicateCandidate flags an existing application with a matching
// object. Advisory only; duplicates never block intake.
type DuplicateCandidate struct {
	ID            snowflake.ID      `json:"id"`
	EntityID      snowflake.ID      `json:"entity_id"`
	Object        string            `json:"object"`
	CurrentStatus ApplicationStatus `json:"current_status"`
}

type CreateApplicationResult struct {
	Application Application          `json:"application"`
	Duplicates  []DuplicateCandidate `json:"duplicates,omitempty"`
	Warnings    []string             `json:"warnings,omitempty"`
}

// TransitionResult reports the status after a workflow operation.
// Warnings carry best-effort failures (history append, notification)
// that did not abort the committed change.
type TransitionResult struct {
	Application Application `json:"application"`
	Warnings    []string    `json:"warnings,omitempty"`
}

type SubmitRequest struct {
	Comment string
}

type ReturnRequest struct {
	Comment string
}

type ValidateRequest struct {
	Comment string
}

type PresidentDecideRequest struct {
	Decision string
	Comment  string
}

type DeliberateRequest struct {
	Decision       string
	ApprovedAmount *float64
	MeetingDate    *time.Time
	VotesFor       *int
	VotesAgainst   *int
	VotesAbstain   *int
	VotingNotes    string
	Comment        string
}

type ListApplicationRequest struct {
	PageToken string
	PageSize  int32
	EntityID  *snowflake.ID
	Status    *ApplicationStatus
}

type ListApplicationResponse struct {
	pagination.PageInfo
	Applications []Application `json:"applications"`
}

type Service interface {
	Create(ctx context.Context, req CreateApplicationRequest) (CreateApplicationResult, error)
	Update(ctx context.Context, id string, req UpdateApplicationRequest) (Application, error)
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (Application, error)
	List(ctx context.Context, req ListApplicationRequest) (ListApplicationResponse, error)

	Submit(ctx context.Context, id string, req SubmitRequest) (TransitionResult, error)
	BeginReview(ctx context.Context, id string) (TransitionResult, error)
	Return(ctx context.Context, id string, req ReturnRequest) (TransitionResult, error)
	Validate(ctx context.Context, id string, req ValidateRequest) (TransitionResult, error)
	SendToPresident(ctx context.Context, id string) (TransitionResult, error)
	PresidentDecide(ctx context.Context, id string, req PresidentDecideRequest) (TransitionResult, error)
	Deliberate(ctx context.Context, id string, req DeliberateRequest) (TransitionResult, error)
	Deliberation(ctx context.Context, id string) (MeetingDeliberation, error)

	// ForceReturn sends the application back to the entity after a
	// document rejection. No-op when the application is already with
	// the entity or past the point of return.
	ForceReturn(ctx context.Context, id snowflake.ID, comment string) (TransitionResult, error)

	// CanUploadDocuments reports whether the entity-side edit window is
	// still open for the application.
	CanUploadDocuments(ctx context.Context, id snowflake.ID) (bool, error)
}
