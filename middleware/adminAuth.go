package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"slotbook/apperror"
	"slotbook/utils"
)

// JWTAuthAdminMiddleware admits requests carrying a valid bearer token with the admin role.
func JWTAuthAdminMiddleware(tokens *utils.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			unauthorized(c, "Missing or invalid Authorization header")
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		subject, role, err := tokens.ExtractRole(tokenString)
		if err != nil || role != utils.RoleAdmin {
			unauthorized(c, "Unauthorized admin access")
			return
		}

		c.Set("adminID", subject)
		c.Set("isAdmin", true)
		c.Next()
	}
}

func unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, utils.ErrorResponse{
		Kind:    apperror.KindUnauthorized,
		Message: message,
	})
}
