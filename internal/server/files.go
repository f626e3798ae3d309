package server

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// DownloadFile streams a blob addressed by a signed link. The signature
// is the only credential; no session is required.
func (s *Server) DownloadFile(c *gin.Context) {
	key := strings.TrimSpace(c.Param("key"))
	expires := strings.TrimSpace(c.Query("expires"))
	signature := strings.TrimSpace(c.Query("signature"))

	if err := s.signer.Verify(key, expires, signature, time.Now()); err != nil {
		AbortWithError(c, err)
		return
	}

	reader, err := s.blobs.Open(c.Request.Context(), key)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	defer reader.Close()

	if filename := strings.TrimSpace(c.Query("filename")); filename != "" {
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	}
	c.Header("Content-Type", "application/octet-stream")

	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, reader)
}
