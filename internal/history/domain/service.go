package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/municipia/apoios/pkg/db/pagination"
)

var (
	ErrInvalidApplication = errors.New("invalid_application")
	ErrInvalidDocument    = errors.New("invalid_document")
	ErrInvalidStatus      = errors.New("invalid_status")
)

type RecordStatusRequest struct {
	ApplicationID snowflake.ID
	FromStatus    *string
	ToStatus      string
	Comment       string
	ChangedBy     *snowflake.ID
	Metadata      map[string]any
}

type RecordDocumentReviewRequest struct {
	DocumentID    snowflake.ID
	ApplicationID snowflake.ID
	Decision      string
	Comment       string
	ReviewedBy    *snowflake.ID
}

type TimelineRequest struct {
	ApplicationID snowflake.ID
	PageToken     string
	PageSize      int32
}

type TimelineResponse struct {
	pagination.PageInfo
	Entries []StatusEntry `json:"entries"`
}

// Service appends and reads audit records. Append failures must never
// abort the state change they describe; callers surface them as
// warnings instead.
type Service interface {
	RecordStatus(ctx context.Context, req RecordStatusRequest) error
	RecordDocumentReview(ctx context.Context, req RecordDocumentReviewRequest) error
	ApplicationTimeline(ctx context.Context, req TimelineRequest) (TimelineResponse, error)
	DocumentTrail(ctx context.Context, documentID snowflake.ID) ([]DocumentReviewEntry, error)
}
