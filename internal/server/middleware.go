package server

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/municipia/apoios/internal/actorcontext"
)

const contextUserIDKey = "user_id"

// AuthRequired resolves the session cookie into an actor. The user row
// is re-read on every request, so role changes and deactivation take
// effect immediately.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := s.sessions.ReadToken(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		user, _, err := s.authsvc.Authenticate(c.Request.Context(), token)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		actor := actorcontext.Actor{
			UserID:   user.ID,
			Email:    user.Email,
			Role:     user.Role,
			EntityID: user.EntityID,
		}

		c.Set(contextUserIDKey, user.ID.String())
		c.Request = c.Request.WithContext(actorcontext.WithActor(c.Request.Context(), actor))
		c.Next()
	}
}

// authorize gates the route on the actor's role capabilities.
func (s *Server) authorize(object, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorcontext.ActorFromContext(c.Request.Context())
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		subject := fmt.Sprintf("user:%s", actor.UserID.String())
		if err := s.authzSvc.Authorize(c.Request.Context(), subject, actor.Role, object, action); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

func actorFrom(c *gin.Context) (actorcontext.Actor, bool) {
	return actorcontext.ActorFromContext(c.Request.Context())
}

// LoginRateLimit throttles credential guessing per client address.
func (s *Server) LoginRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.loginLimiter.Allow(c.ClientIP()) {
			AbortWithError(c, ErrTooManyRequests)
			return
		}
		c.Next()
	}
}
