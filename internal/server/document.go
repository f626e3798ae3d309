package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	documentdomain "github.com/municipia/apoios/internal/document/domain"
)

type reviewDocumentRequest struct {
	Decision string `json:"decision"`
	Comment  string `json:"comment"`
}

func (s *Server) UploadDocument(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		AbortWithError(c, newValidationError("file", "required", "a file is required"))
		return
	}

	documentTypeID, err := parseOptionalSnowflakeID(c.PostForm("document_type_id"))
	if err != nil {
		AbortWithError(c, newValidationError("document_type_id", "invalid_document_type", "invalid document type"))
		return
	}

	reader, err := file.Open()
	if err != nil {
		AbortWithError(c, err)
		return
	}
	defer reader.Close()

	resp, err := s.documentSvc.Upload(c.Request.Context(), documentdomain.UploadDocumentRequest{
		ApplicationID:  strings.TrimSpace(c.Param("id")),
		DocumentTypeID: documentTypeID,
		Name:           strings.TrimSpace(c.PostForm("name")),
		OriginalName:   file.Filename,
		ContentType:    file.Header.Get("Content-Type"),
		Data:           reader,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListApplicationDocuments(c *gin.Context) {
	resp, err := s.documentSvc.ListByApplication(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetDocumentByID(c *gin.Context) {
	resp, err := s.documentSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ReviewDocument(c *gin.Context) {
	var req reviewDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.documentSvc.Review(c.Request.Context(), strings.TrimSpace(c.Param("id")), documentdomain.ReviewDocumentRequest{
		Decision: strings.TrimSpace(req.Decision),
		Comment:  strings.TrimSpace(req.Comment),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteDocument(c *gin.Context) {
	if err := s.documentSvc.Delete(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) GetDocumentDownloadURL(c *gin.Context) {
	url, err := s.documentSvc.SignedURL(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"url": url}})
}

func isDocumentValidationError(err error) bool {
	switch err {
	case documentdomain.ErrInvalidID,
		documentdomain.ErrInvalidName,
		documentdomain.ErrInvalidDecision,
		documentdomain.ErrCommentRequired:
		return true
	default:
		return false
	}
}
