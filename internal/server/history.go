package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	historydomain "github.com/municipia/apoios/internal/history/domain"
	"github.com/municipia/apoios/pkg/db/pagination"
)

func (s *Server) GetApplicationTimeline(c *gin.Context) {
	var query struct {
		pagination.Pagination
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	// GetByID replays the ownership check so entity users only read
	// their own timeline.
	application, err := s.applicationSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.historySvc.ApplicationTimeline(c.Request.Context(), historydomain.TimelineRequest{
		ApplicationID: application.ID,
		PageToken:     query.PageToken,
		PageSize:      int32(query.PageSize),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetDocumentTrail(c *gin.Context) {
	document, err := s.documentSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.historySvc.DocumentTrail(c.Request.Context(), document.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func isHistoryValidationError(err error) bool {
	switch err {
	case historydomain.ErrInvalidApplication,
		historydomain.ErrInvalidDocument,
		historydomain.ErrInvalidStatus:
		return true
	default:
		return false
	}
}
