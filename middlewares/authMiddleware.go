package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/grcsuite/auditoria_backend/models"
	"github.com/grcsuite/auditoria_backend/utils"
)

// AuthMiddleware validates the bearer token and loads the caller into the
// request context. Requests without a token pass through; protected routes
// reject them later in RequireAuth.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		correlationId := c.Request.Header.Get("X-Correlation-Id")
		if correlationId == "" {
			correlationId = uuid.NewString()
		}
		ctx = utils.SetCorrelationIdInContext(ctx, correlationId)
		c.Header("X-Correlation-Id", correlationId)

		if c.Query("includeInactive") == "true" {
			ctx = utils.SetIncludeInactiveInContext(ctx, true)
		}

		auth := c.Request.Header.Get("Authorization")
		if auth == "" {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
			return
		}

		token := strings.TrimPrefix(auth, "Bearer ")
		validated, err := utils.JwtValidate(token)
		if err != nil || !validated.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"errors": []string{"unauthorized"}})
			c.Abort()
			return
		}
		claims, ok := validated.Claims.(*utils.JwtCustomClaim)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"errors": []string{"unauthorized"}})
			c.Abort()
			return
		}

		user, err := models.GetUser(ctx, claims.ID)
		if err != nil || !utils.DereferencePtr(user.IsActive) {
			c.JSON(http.StatusForbidden, gin.H{"errors": []string{"account is not usable"}})
			c.Abort()
			return
		}

		ctx = utils.SetTokenInContext(ctx, token)
		ctx = utils.SetUserIdInContext(ctx, user.ID)
		ctx = utils.SetUserNameInContext(ctx, user.Name)
		ctx = utils.SetUsernameInContext(ctx, user.Username)
		ctx = utils.SetRoleIdInContext(ctx, user.RoleId)
		if user.Role != nil {
			ctx = utils.SetIsAdminInContext(ctx, utils.DereferencePtr(user.Role.IsAdmin))
		}

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireAuth rejects requests that did not authenticate.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := utils.GetUserIdFromContext(c.Request.Context()); !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"errors": []string{"unauthorized"}})
			c.Abort()
			return
		}
		c.Next()
	}
}
