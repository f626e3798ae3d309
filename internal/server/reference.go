package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	referencedomain "github.com/municipia/apoios/internal/reference/domain"
)

type upsertCategoryRequest struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	IsActive *bool  `json:"is_active"`
}

type upsertDocumentTypeRequest struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Required *bool  `json:"required"`
	IsActive *bool  `json:"is_active"`
}

func (s *Server) ListCategories(c *gin.Context) {
	includeInactive, err := parseOptionalBool(c.Query("include_inactive"))
	if err != nil {
		AbortWithError(c, newValidationError("include_inactive", "invalid_include_inactive", "invalid include_inactive"))
		return
	}

	resp, err := s.referenceSvc.ListCategories(c.Request.Context(), includeInactive != nil && *includeInactive)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreateCategory(c *gin.Context) {
	var req upsertCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.referenceSvc.CreateCategory(c.Request.Context(), referencedomain.UpsertCategoryRequest{
		Code:     strings.TrimSpace(req.Code),
		Name:     strings.TrimSpace(req.Name),
		IsActive: req.IsActive,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateCategory(c *gin.Context) {
	id, err := parseReferenceID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req upsertCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.referenceSvc.UpdateCategory(c.Request.Context(), id, referencedomain.UpsertCategoryRequest{
		Code:     strings.TrimSpace(req.Code),
		Name:     strings.TrimSpace(req.Name),
		IsActive: req.IsActive,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListDocumentTypes(c *gin.Context) {
	includeInactive, err := parseOptionalBool(c.Query("include_inactive"))
	if err != nil {
		AbortWithError(c, newValidationError("include_inactive", "invalid_include_inactive", "invalid include_inactive"))
		return
	}

	resp, err := s.referenceSvc.ListDocumentTypes(c.Request.Context(), includeInactive != nil && *includeInactive)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreateDocumentType(c *gin.Context) {
	var req upsertDocumentTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.referenceSvc.CreateDocumentType(c.Request.Context(), referencedomain.UpsertDocumentTypeRequest{
		Code:     strings.TrimSpace(req.Code),
		Name:     strings.TrimSpace(req.Name),
		Required: req.Required,
		IsActive: req.IsActive,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateDocumentType(c *gin.Context) {
	id, err := parseReferenceID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req upsertDocumentTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.referenceSvc.UpdateDocumentType(c.Request.Context(), id, referencedomain.UpsertDocumentTypeRequest{
		Code:     strings.TrimSpace(req.Code),
		Name:     strings.TrimSpace(req.Name),
		Required: req.Required,
		IsActive: req.IsActive,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func parseReferenceID(value string) (snowflake.ID, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || parsed == 0 {
		return 0, newValidationError("id", "invalid_id", "invalid id")
	}
	return parsed, nil
}

func isReferenceValidationError(err error) bool {
	switch err {
	case referencedomain.ErrInvalidCode,
		referencedomain.ErrInvalidName:
		return true
	default:
		return false
	}
}
