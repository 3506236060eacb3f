package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-pedagogy-api/internal/models"
	appErrors "github.com/noah-isme/sma-pedagogy-api/pkg/errors"
	"github.com/noah-isme/sma-pedagogy-api/pkg/logger"
	"github.com/noah-isme/sma-pedagogy-api/pkg/response"
)

const (
	// SchoolHeader selects one of the caller's schools for a single request.
	SchoolHeader = "X-School-ID"

	contextActorKey = "currentActor"
)

// SchoolScope resolves the school a request acts on and the caller's role there. Without the
// header the school carried by the token applies.
func SchoolScope() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := ClaimsFromContext(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		actor := models.Actor{
			UserID:   claims.UserID,
			Name:     claims.FullName,
			Role:     claims.Role,
			SchoolID: claims.SchoolID,
		}
		if requested := strings.TrimSpace(c.GetHeader(SchoolHeader)); requested != "" && requested != claims.SchoolID {
			role, ok := claims.RoleIn(requested)
			if !ok {
				response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "no membership in requested school"))
				c.Abort()
				return
			}
			actor.SchoolID = requested
			actor.Role = role
		}
		if actor.SchoolID == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "no active school"))
			c.Abort()
			return
		}

		c.Set(contextActorKey, actor)
		c.Set(logger.ContextSchoolIDKey, actor.SchoolID)
		c.Next()
	}
}

// ActorFromContext returns the actor resolved by SchoolScope.
func ActorFromContext(c *gin.Context) (models.Actor, bool) {
	value, exists := c.Get(contextActorKey)
	if !exists {
		return models.Actor{}, false
	}
	actor, ok := value.(models.Actor)
	return actor, ok
}

// SetActor stores an actor on the context. Handlers under SchoolScope never need it.
func SetActor(c *gin.Context, actor models.Actor) {
	c.Set(contextActorKey, actor)
}
