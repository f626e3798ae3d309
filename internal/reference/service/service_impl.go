package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/municipia/apoios/internal/clock"
	"github.com/municipia/apoios/internal/reference/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
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
		log:   p.Log.Named("reference.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) ListCategories(ctx context.Context, includeInactive bool) ([]domain.ApplicationCategory, error) {
	return s.repo.ListCategories(ctx, s.db, includeInactive)
}

func (s *Service) GetCategory(ctx context.Context, id snowflake.ID) (*domain.ApplicationCategory, error) {
	category, err := s.repo.FindCategoryByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, domain.ErrNotFound
	}
	return category, nil
}

func (s *Service) CreateCategory(ctx context.Context, req domain.UpsertCategoryRequest) (*domain.ApplicationCategory, error) {
	code := normalizeCode(req.Code)
	if code == "" {
		return nil, domain.ErrInvalidCode
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	existing, err := s.repo.FindCategoryByCode(ctx, s.db, code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrCodeExists
	}

	now := s.clock.Now()
	category := &domain.ApplicationCategory{
		ID:        s.genID.Generate(),
		Code:      code,
		Name:      name,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}
	if err := s.repo.SaveCategory(ctx, s.db, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *Service) UpdateCategory(ctx context.Context, id snowflake.ID, req domain.UpsertCategoryRequest) (*domain.ApplicationCategory, error) {
	category, err := s.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		category.Name = name
	}
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}
	category.UpdatedAt = s.clock.Now()

	if err := s.repo.SaveCategory(ctx, s.db, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *Service) ListDocumentTypes(ctx context.Context, includeInactive bool) ([]domain.DocumentType, error) {
	return s.repo.ListDocumentTypes(ctx, s.db, includeInactive)
}

func (s *Service) GetDocumentType(ctx context.Context, id snowflake.ID) (*domain.DocumentType, error) {
	documentType, err := s.repo.FindDocumentTypeByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if documentType == nil {
		return nil, domain.ErrNotFound
	}
	return documentType, nil
}

func (s *Service) CreateDocumentType(ctx context.Context, req domain.UpsertDocumentTypeRequest) (*domain.DocumentType, error) {
	code := normalizeCode(req.Code)
	if code == "" {
		return nil, domain.ErrInvalidCode
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	existing, err := s.repo.FindDocumentTypeByCode(ctx, s.db, code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrCodeExists
	}

	now := s.clock.Now()
	documentType := &domain.DocumentType{
		ID:        s.genID.Generate(),
		Code:      code,
		Name:      name,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.Required != nil {
		documentType.Required = *req.Required
	}
	if req.IsActive != nil {
		documentType.IsActive = *req.IsActive
	}
	if err := s.repo.SaveDocumentType(ctx, s.db, documentType); err != nil {
		return nil, err
	}
	return documentType, nil
}

func (s *Service) UpdateDocumentType(ctx context.Context, id snowflake.ID, req domain.UpsertDocumentTypeRequest) (*domain.DocumentType, error) {
	documentType, err := s.GetDocumentType(ctx, id)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		documentType.Name = name
	}
	if req.Required != nil {
		documentType.Required = *req.Required
	}
	if req.IsActive != nil {
		documentType.IsActive = *req.IsActive
	}
	documentType.UpdatedAt = s.clock.Now()

	if err := s.repo.SaveDocumentType(ctx, s.db, documentType); err != nil {
		return nil, err
	}
	return documentType, nil
}

func normalizeCode(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}
