package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	authdomain "github.com/municipia/apoios/internal/auth/domain"
)

type createUserRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
	EntityID    string `json:"entity_id"`
}

func (s *Server) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	entityID, err := parseOptionalSnowflakeID(req.EntityID)
	if err != nil {
		AbortWithError(c, newValidationError("entity_id", "invalid_entity", "invalid entity id"))
		return
	}

	user, err := s.authsvc.CreateUser(c.Request.Context(), authdomain.CreateUserRequest{
		Email:       strings.TrimSpace(req.Email),
		Password:    req.Password,
		DisplayName: strings.TrimSpace(req.DisplayName),
		Role:        strings.ToUpper(strings.TrimSpace(req.Role)),
		EntityID:    entityID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": userView(user)})
}

func (s *Server) ListUsers(c *gin.Context) {
	users, err := s.authsvc.ListUsers(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	views := make([]gin.H, 0, len(users))
	for i := range users {
		views = append(views, userView(&users[i]))
	}

	c.JSON(http.StatusOK, gin.H{"data": views})
}

func (s *Server) GetUserByID(c *gin.Context) {
	id, err := parseOptionalSnowflakeID(c.Param("id"))
	if err != nil || id == nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	user, err := s.authsvc.FindByID(c.Request.Context(), *id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": userView(user)})
}

func (s *Server) ActivateUser(c *gin.Context) {
	s.setUserActive(c, true)
}

func (s *Server) DeactivateUser(c *gin.Context) {
	s.setUserActive(c, false)
}

func (s *Server) setUserActive(c *gin.Context, active bool) {
	id, err := parseOptionalSnowflakeID(c.Param("id"))
	if err != nil || id == nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	// Admins cannot lock themselves out.
	if actor, ok := actorFrom(c); ok && !active && actor.UserID == *id {
		AbortWithError(c, newValidationError("id", "self_deactivation", "cannot deactivate the current user"))
		return
	}

	if err := s.authsvc.SetActive(c.Request.Context(), *id, active); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func isUserValidationError(err error) bool {
	switch err {
	case authdomain.ErrInvalidRole,
		authdomain.ErrInvalidEmail,
		authdomain.ErrWeakPassword:
		return true
	default:
		return false
	}
}
