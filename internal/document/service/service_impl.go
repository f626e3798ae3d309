package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/municipia/apoios/internal/actorcontext"
	applicationdomain "github.com/municipia/apoios/internal/application/domain"
	"github.com/municipia/apoios/internal/clock"
	"github.com/municipia/apoios/internal/document/domain"
	historydomain "github.com/municipia/apoios/internal/history/domain"
	"github.com/municipia/apoios/internal/providers/storage"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	warnReviewNotAudited       = "review history not recorded"
	warnApplicationNotReturned = "application not returned to entity"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	Repo         domain.Repository
	Applications applicationdomain.Service
	History      historydomain.Service
	Store        storage.Store
	Signer       *storage.Signer
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	repo         domain.Repository
	applications applicationdomain.Service
	hist         historydomain.Service
	store        storage.Store
	signer       *storage.Signer
}

func New(p Params) domain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("document.service"),
		genID:        p.GenID,
		clock:        p.Clock,
		repo:         p.Repo,
		applications: p.Applications,
		hist:         p.History,
		store:        p.Store,
		signer:       p.Signer,
	}
}

func (s *Service) Upload(ctx context.Context, req domain.UploadDocumentRequest) (domain.Document, error) {
	// GetByID enforces entity ownership for ENTITY actors.
	application, err := s.applications.GetByID(ctx, req.ApplicationID)
	if err != nil {
		return domain.Document{}, err
	}
	if !applicationdomain.Editable(application.CurrentStatus) {
		return domain.Document{}, domain.ErrWindowClosed
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = strings.TrimSpace(req.OriginalName)
	}
	if name == "" {
		return domain.Document{}, domain.ErrInvalidName
	}
	if req.Data == nil {
		return domain.Document{}, domain.ErrInvalidName
	}

	key, size, err := s.store.Put(ctx, req.Data)
	if err != nil {
		return domain.Document{}, err
	}

	now := s.clock.Now()
	document := domain.Document{
		ID:             s.genID.Generate(),
		ApplicationID:  application.ID,
		DocumentTypeID: req.DocumentTypeID,
		Name:           name,
		OriginalName:   strings.TrimSpace(req.OriginalName),
		ContentType:    strings.TrimSpace(req.ContentType),
		SizeBytes:      size,
		StorageKey:     key,
		ReviewStatus:   domain.ReviewPending,
		UploadedBy:     s.actorID(ctx),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Insert(ctx, s.db, &document); err != nil {
		// Orphaned blobs are cheaper than lost rows; best effort cleanup.
		_ = s.store.Delete(ctx, key)
		return domain.Document{}, err
	}
	return document, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Document, error) {
	document, err := s.findOwned(ctx, id)
	if err != nil {
		return domain.Document{}, err
	}
	return *document, nil
}

func (s *Service) ListByApplication(ctx context.Context, applicationID string) ([]domain.Document, error) {
	application, err := s.applications.GetByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByApplication(ctx, s.db, application.ID)
}

func (s *Service) Review(ctx context.Context, id string, req domain.ReviewDocumentRequest) (domain.ReviewResult, error) {
	documentID, err := s.parseID(id)
	if err != nil {
		return domain.ReviewResult{}, err
	}

	decision := strings.ToUpper(strings.TrimSpace(req.Decision))
	if decision != string(domain.ReviewApproved) && decision != string(domain.ReviewRejected) {
		return domain.ReviewResult{}, domain.ErrInvalidDecision
	}
	comment := strings.TrimSpace(req.Comment)
	if decision == string(domain.ReviewRejected) && comment == "" {
		return domain.ReviewResult{}, domain.ErrCommentRequired
	}

	document, err := s.repo.FindByID(ctx, s.db, documentID)
	if err != nil {
		return domain.ReviewResult{}, err
	}
	if document == nil {
		return domain.ReviewResult{}, domain.ErrNotFound
	}

	now := s.clock.Now()
	reviewer := s.actorID(ctx)
	fields := map[string]any{
		"review_status": decision,
		"reviewed_by":   reviewer,
		"reviewed_at":   now,
		"updated_at":    now,
	}
	if comment != "" {
		fields["review_comment"] = comment
	} else {
		fields["review_comment"] = nil
	}
	if err := s.repo.UpdateReview(ctx, s.db, documentID, fields); err != nil {
		return domain.ReviewResult{}, err
	}

	document.ReviewStatus = domain.ReviewStatus(decision)
	document.ReviewedBy = reviewer
	document.ReviewedAt = &now
	if comment != "" {
		document.ReviewComment = &comment
	} else {
		document.ReviewComment = nil
	}
	document.UpdatedAt = now

	result := domain.ReviewResult{Document: *document}

	if err := s.hist.RecordDocumentReview(ctx, historydomain.RecordDocumentReviewRequest{
		DocumentID:    document.ID,
		ApplicationID: document.ApplicationID,
		Decision:      decision,
		Comment:       comment,
		ReviewedBy:    reviewer,
	}); err != nil {
		result.Warnings = append(result.Warnings, warnReviewNotAudited)
	}

	if decision == string(domain.ReviewRejected) {
		cascadeComment := fmt.Sprintf("Document rejected: %s (%s)", document.Name, comment)
		cascade, err := s.applications.ForceReturn(ctx, document.ApplicationID, cascadeComment)
		if err != nil {
			s.log.Warn("return cascade failed",
				zap.String("document_id", document.ID.String()),
				zap.String("application_id", document.ApplicationID.String()),
				zap.Error(err),
			)
			result.Warnings = append(result.Warnings, warnApplicationNotReturned)
		} else {
			result.Warnings = append(result.Warnings, cascade.Warnings...)
		}
	}

	return result, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	document, err := s.findOwned(ctx, id)
	if err != nil {
		return err
	}

	application, err := s.applications.GetByID(ctx, document.ApplicationID.String())
	if err != nil {
		return err
	}
	if !applicationdomain.Editable(application.CurrentStatus) {
		return domain.ErrWindowClosed
	}

	// The blob is kept; review history may still reference the document.
	return s.repo.SoftDelete(ctx, s.db, document.ID)
}

func (s *Service) Download(ctx context.Context, id string) (io.ReadCloser, domain.Document, error) {
	document, err := s.findOwned(ctx, id)
	if err != nil {
		return nil, domain.Document{}, err
	}
	reader, err := s.store.Open(ctx, document.StorageKey)
	if err != nil {
		return nil, domain.Document{}, err
	}
	return reader, *document, nil
}

func (s *Service) SignedURL(ctx context.Context, id string) (string, error) {
	document, err := s.findOwned(ctx, id)
	if err != nil {
		return "", err
	}
	filename := document.OriginalName
	if filename == "" {
		filename = document.Name
	}
	return s.signer.SignedURL(document.StorageKey, filename, s.clock.Now()), nil
}

// findOwned loads the document and replays the application ownership
// check so ENTITY actors only ever reach their own attachments.
func (s *Service) findOwned(ctx context.Context, id string) (*domain.Document, error) {
	documentID, err := s.parseID(id)
	if err != nil {
		return nil, err
	}
	document, err := s.repo.FindByID(ctx, s.db, documentID)
	if err != nil {
		return nil, err
	}
	if document == nil {
		return nil, domain.ErrNotFound
	}
	if _, err := s.applications.GetByID(ctx, document.ApplicationID.String()); err != nil {
		return nil, err
	}
	return document, nil
}

func (s *Service) actorID(ctx context.Context) *snowflake.ID {
	actor, ok := actorcontext.ActorFromContext(ctx)
	if !ok {
		return nil
	}
	id := actor.UserID
	return &id
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
