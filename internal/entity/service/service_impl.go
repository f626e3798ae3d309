package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/municipia/apoios/internal/clock"
	"github.com/municipia/apoios/internal/entity/domain"
	"github.com/municipia/apoios/pkg/db/pagination"
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
		log:   p.Log.Named("entity.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateEntityRequest) (domain.Entity, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Entity{}, domain.ErrInvalidName
	}
	taxID := strings.TrimSpace(req.TaxID)
	if taxID == "" {
		return domain.Entity{}, domain.ErrInvalidTaxID
	}
	email := strings.TrimSpace(req.Email)
	if email != "" && !strings.Contains(email, "@") {
		return domain.Entity{}, domain.ErrInvalidEmail
	}

	existing, err := s.repo.FindByTaxID(ctx, s.db, taxID)
	if err != nil {
		return domain.Entity{}, err
	}
	if existing != nil {
		return domain.Entity{}, domain.ErrTaxIDExists
	}

	now := s.clock.Now()
	entity := domain.Entity{
		ID:        s.genID.Generate(),
		Name:      name,
		TaxID:     taxID,
		Email:     email,
		Phone:     strings.TrimSpace(req.Phone),
		Address:   strings.TrimSpace(req.Address),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Insert(ctx, s.db, &entity); err != nil {
		return domain.Entity{}, err
	}
	return entity, nil
}

func (s *Service) Update(ctx context.Context, id string, req domain.UpdateEntityRequest) (domain.Entity, error) {
	entityID, err := s.parseID(id)
	if err != nil {
		return domain.Entity{}, err
	}

	entity, err := s.repo.FindByID(ctx, s.db, entityID)
	if err != nil {
		return domain.Entity{}, err
	}
	if entity == nil {
		return domain.Entity{}, domain.ErrNotFound
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		entity.Name = name
	}
	if email := strings.TrimSpace(req.Email); email != "" {
		if !strings.Contains(email, "@") {
			return domain.Entity{}, domain.ErrInvalidEmail
		}
		entity.Email = email
	}
	if phone := strings.TrimSpace(req.Phone); phone != "" {
		entity.Phone = phone
	}
	if address := strings.TrimSpace(req.Address); address != "" {
		entity.Address = address
	}
	if req.IsActive != nil {
		entity.IsActive = *req.IsActive
	}
	entity.UpdatedAt = s.clock.Now()

	if err := s.repo.Save(ctx, s.db, entity); err != nil {
		return domain.Entity{}, err
	}
	return *entity, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Entity, error) {
	entityID, err := s.parseID(id)
	if err != nil {
		return domain.Entity{}, err
	}

	entity, err := s.repo.FindByID(ctx, s.db, entityID)
	if err != nil {
		return domain.Entity{}, err
	}
	if entity == nil {
		return domain.Entity{}, domain.ErrNotFound
	}
	return *entity, nil
}

func (s *Service) List(ctx context.Context, req domain.ListEntityRequest) (domain.ListEntityResponse, error) {
	filter := domain.ListEntityFilter{
		Name:       strings.TrimSpace(req.Name),
		OnlyActive: req.OnlyActive,
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.List(ctx, s.db, filter, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  int(pageSize),
	})
	if err != nil {
		return domain.ListEntityResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(entity *domain.Entity) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        entity.ID.String(),
			CreatedAt: entity.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	entities := make([]domain.Entity, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		entities = append(entities, *item)
	}

	resp := domain.ListEntityResponse{Entities: entities}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
