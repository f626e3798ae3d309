package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	entitydomain "github.com/municipia/apoios/internal/entity/domain"
	"github.com/municipia/apoios/pkg/db/pagination"
)

type createEntityRequest struct {
	Name    string `json:"name"`
	TaxID   string `json:"tax_id"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type updateEntityRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	IsActive *bool  `json:"is_active"`
}

func (s *Server) CreateEntity(c *gin.Context) {
	var req createEntityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.entitySvc.Create(c.Request.Context(), entitydomain.CreateEntityRequest{
		Name:    strings.TrimSpace(req.Name),
		TaxID:   strings.TrimSpace(req.TaxID),
		Email:   strings.TrimSpace(req.Email),
		Phone:   strings.TrimSpace(req.Phone),
		Address: strings.TrimSpace(req.Address),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListEntities(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Name       string `form:"name"`
		OnlyActive string `form:"only_active"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	onlyActive, err := parseOptionalBool(query.OnlyActive)
	if err != nil {
		AbortWithError(c, newValidationError("only_active", "invalid_only_active", "invalid only_active"))
		return
	}

	req := entitydomain.ListEntityRequest{
		PageToken: query.PageToken,
		PageSize:  int32(query.PageSize),
		Name:      strings.TrimSpace(query.Name),
	}
	if onlyActive != nil {
		req.OnlyActive = *onlyActive
	}

	resp, err := s.entitySvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetEntityByID(c *gin.Context) {
	resp, err := s.entitySvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateEntity(c *gin.Context) {
	var req updateEntityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.entitySvc.Update(c.Request.Context(), strings.TrimSpace(c.Param("id")), entitydomain.UpdateEntityRequest{
		Name:     strings.TrimSpace(req.Name),
		Email:    strings.TrimSpace(req.Email),
		Phone:    strings.TrimSpace(req.Phone),
		Address:  strings.TrimSpace(req.Address),
		IsActive: req.IsActive,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func isEntityValidationError(err error) bool {
	switch err {
	case entitydomain.ErrInvalidName,
		entitydomain.ErrInvalidTaxID,
		entitydomain.ErrInvalidEmail,
		entitydomain.ErrInvalidID:
		return true
	default:
		return false
	}
}
