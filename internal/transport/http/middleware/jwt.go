package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"knowledge-governance/internal/app"
	"knowledge-governance/internal/model"
	"knowledge-governance/internal/pkg/jwtutil"
	"knowledge-governance/internal/transport/http/response"
)

const (
	ContextUserIDKey     = "user_id"
	ContextUsernameKey   = "username"
	ContextRoleKey       = "role"
	ContextDepartmentKey = "department"
)

func AuthJWT(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader == "" {
			response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "missing authorization header")
			c.Abort()
			return
		}

		const prefix = "Bearer "
		if !strings.HasPrefix(authHeader, prefix) {
			response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid authorization scheme")
			c.Abort()
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, prefix))
		claims, err := jwtutil.ParseToken(secret, token)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid or expired token")
			c.Abort()
			return
		}

		c.Set(ContextUserIDKey, claims.UserID)
		c.Set(ContextUsernameKey, claims.Username)
		c.Set(ContextRoleKey, model.Role(claims.Role))
		c.Set(ContextDepartmentKey, claims.Department)
		c.Next()
	}
}

// RequireRole rejects callers whose token role is not one of roles.
func RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok {
			response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
			c.Abort()
			return
		}
		for _, r := range roles {
			if actor.Role == r {
				c.Next()
				return
			}
		}
		response.Error(c, http.StatusForbidden, response.CodeForbidden, "insufficient role")
		c.Abort()
	}
}

// ActorFrom rebuilds the governance actor from the claims AuthJWT stored.
func ActorFrom(c *gin.Context) (app.Actor, bool) {
	username := c.GetString(ContextUsernameKey)
	if username == "" {
		return app.Actor{}, false
	}
	role, _ := c.Get(ContextRoleKey)
	r, _ := role.(model.Role)
	return app.Actor{
		Username:   username,
		Role:       r,
		Department: c.GetString(ContextDepartmentKey),
	}, true
}
