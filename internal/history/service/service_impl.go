package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/municipia/apoios/internal/clock"
	"github.com/municipia/apoios/internal/history/domain"
	"github.com/municipia/apoios/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("history.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) RecordStatus(ctx context.Context, req domain.RecordStatusRequest) error {
	if req.ApplicationID == 0 {
		return domain.ErrInvalidApplication
	}
	toStatus := strings.TrimSpace(req.ToStatus)
	if toStatus == "" {
		return domain.ErrInvalidStatus
	}

	metadata := datatypes.JSONMap{}
	for k, v := range req.Metadata {
		metadata[k] = v
	}

	entry := &domain.StatusEntry{
		ID:            s.genID.Generate(),
		ApplicationID: req.ApplicationID,
		FromStatus:    req.FromStatus,
		ToStatus:      toStatus,
		Comment:       strings.TrimSpace(req.Comment),
		ChangedBy:     req.ChangedBy,
		Metadata:      metadata,
		CreatedAt:     s.clock.Now(),
	}

	if err := s.repo.InsertStatus(ctx, s.db, entry); err != nil {
		s.log.Warn("status history append failed",
			zap.String("application_id", req.ApplicationID.String()),
			zap.String("to_status", toStatus),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (s *Service) RecordDocumentReview(ctx context.Context, req domain.RecordDocumentReviewRequest) error {
	if req.DocumentID == 0 {
		return domain.ErrInvalidDocument
	}
	if req.ApplicationID == 0 {
		return domain.ErrInvalidApplication
	}

	entry := &domain.DocumentReviewEntry{
		ID:            s.genID.Generate(),
		DocumentID:    req.DocumentID,
		ApplicationID: req.ApplicationID,
		Decision:      strings.TrimSpace(req.Decision),
		Comment:       strings.TrimSpace(req.Comment),
		ReviewedBy:    req.ReviewedBy,
		CreatedAt:     s.clock.Now(),
	}

	if err := s.repo.InsertDocumentReview(ctx, s.db, entry); err != nil {
		s.log.Warn("document review history append failed",
			zap.String("document_id", req.DocumentID.String()),
			zap.String("decision", entry.Decision),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (s *Service) ApplicationTimeline(ctx context.Context, req domain.TimelineRequest) (domain.TimelineResponse, error) {
	if req.ApplicationID == 0 {
		return domain.TimelineResponse{}, domain.ErrInvalidApplication
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.ListStatus(ctx, s.db, req.ApplicationID, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  int(pageSize),
	})
	if err != nil {
		return domain.TimelineResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(entry *domain.StatusEntry) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        entry.ID.String(),
			CreatedAt: entry.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	entries := make([]domain.StatusEntry, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		entries = append(entries, *item)
	}

	resp := domain.TimelineResponse{Entries: entries}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) DocumentTrail(ctx context.Context, documentID snowflake.ID) ([]domain.DocumentReviewEntry, error) {
	if documentID == 0 {
		return nil, domain.ErrInvalidDocument
	}
	return s.repo.ListDocumentReviews(ctx, s.db, documentID)
}
