package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/uniportal/portal-api/internal/models"
	appErrors "github.com/uniportal/portal-api/pkg/errors"
	"github.com/uniportal/portal-api/pkg/response"
)

// RequireTypes restricts a route to the given account types. It assumes
// JWT ran earlier on the chain.
func RequireTypes(types ...models.UserType) gin.HandlerFunc {
	allowed := make(map[models.UserType]struct{}, len(types))
	for _, t := range types {
		allowed[t] = struct{}{}
	}
	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims := claimsValue.(*models.JWTClaims)
		if _, ok := allowed[claims.Type]; !ok {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireNonAdmin allows students and graduates only.
func RequireNonAdmin() gin.HandlerFunc {
	return RequireTypes(models.UserTypeStudent, models.UserTypeGraduate)
}
