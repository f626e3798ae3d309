package domain

import (
	"context"
	"errors"

	"github.com/municipia/apoios/pkg/db/pagination"
)

var (
	ErrInvalidName  = errors.New("invalid_name")
	ErrInvalidTaxID = errors.New("invalid_tax_id")
	ErrInvalidEmail = errors.New("invalid_email")
	ErrInvalidID    = errors.New("invalid_id")
	ErrTaxIDExists  = errors.New("tax_id_exists")
	ErrNotFound     = errors.New("entity_not_found")
)

type CreateEntityRequest struct {
	Name    string
	TaxID   string
	Email   string
	Phone   string
	Address string
}

type UpdateEntityRequest struct {
	Name     string
	Email    string
	Phone    string
	Address  string
	IsActive *bool
}

type ListEntityRequest struct {
	PageToken  string
	PageSize   int32
	Name       string
	OnlyActive bool
}

type ListEntityResponse struct {
	pagination.PageInfo
	Entities []Entity `json:"entities"`
}

type Service interface {
	Create(ctx context.Context, req CreateEntityRequest) (Entity, error)
	Update(ctx context.Context, id string, req UpdateEntityRequest) (Entity, error)
	GetByID(ctx context.Context, id string) (Entity, error)
	List(ctx context.Context, req ListEntityRequest) (ListEntityResponse, error)
}
