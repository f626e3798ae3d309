package domain

import (
	"context"
	"errors"
	"io"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrInvalidID       = errors.New("invalid_id")
	ErrInvalidName     = errors.New("invalid_name")
	ErrInvalidDecision = errors.New("invalid_decision")
	ErrCommentRequired = errors.New("comment_required")
	ErrNotFound        = errors.New("document_not_found")
	ErrWindowClosed    = errors.New("upload_window_closed")
)

type UploadDocumentRequest struct {
	ApplicationID  string
	DocumentTypeID *snowflake.ID
	Name           string
	OriginalName   string
	ContentType    string
	Data           io.Reader
}

type ReviewDocumentRequest struct {
	Decision string
	Comment  string
}

// ReviewResult reports the document after review. Warnings carry
// best-effort failures (audit append, return cascade) that did not
// abort the review itself.
type ReviewResult struct {
	Document Document `json:"document"`
	Warnings []string `json:"warnings,omitempty"`
}

type Service interface {
	Upload(ctx context.Context, req UploadDocumentRequest) (Document, error)
	GetByID(ctx context.Context, id string) (Document, error)
	ListByApplication(ctx context.Context, applicationID string) ([]Document, error)

	// Review applies a decision to the document. A rejection needs a
	// comment and forces the application back to the entity. Documents
	// may be re-reviewed; every decision is audited.
	Review(ctx context.Context, id string, req ReviewDocumentRequest) (ReviewResult, error)

	Delete(ctx context.Context, id string) error
	Download(ctx context.Context, id string) (io.ReadCloser, Document, error)
	SignedURL(ctx context.Context, id string) (string, error)
}
