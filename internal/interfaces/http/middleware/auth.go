package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"credit-ledger.backend/pkg/jwt"
)

const (
	AuthorizationHeader = "Authorization"
	BearerPrefix        = "Bearer "

	// UserIDKey is the context key for the authenticated forum user id
	UserIDKey = "userId"
	// UsernameKey is the context key for the forum username
	UsernameKey = "username"
	// IsAdminKey is the context key for the admin flag
	IsAdminKey = "isAdmin"
)

// Auth verifies the forum-issued session token and stores the claims on the
// gin context. The engine never issues tokens itself.
func Auth(jwtService *jwt.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(AuthorizationHeader)
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    "UNAUTHORIZED",
				"message": "authorization header is required",
			})
			return
		}
		if !strings.HasPrefix(authHeader, BearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    "UNAUTHORIZED",
				"message": "invalid authorization format, use: Bearer <token>",
			})
			return
		}

		claims, err := jwtService.ValidateToken(strings.TrimPrefix(authHeader, BearerPrefix))
		if err != nil {
			message := "invalid token"
			if err == jwt.ErrExpiredToken {
				message = "token has expired"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    "UNAUTHORIZED",
				"message": message,
			})
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(UsernameKey, claims.Username)
		c.Set(IsAdminKey, claims.IsAdmin)

		c.Next()
	}
}

// GetUserID gets the authenticated user id from context
func GetUserID(c *gin.Context) (int64, bool) {
	value, exists := c.Get(UserIDKey)
	if !exists {
		return 0, false
	}
	userID, ok := value.(int64)
	return userID, ok
}

// GetUsername gets the authenticated username from context
func GetUsername(c *gin.Context) (string, bool) {
	value, exists := c.Get(UsernameKey)
	if !exists {
		return "", false
	}
	username, ok := value.(string)
	return username, ok
}

// IsAdmin reports whether the authenticated user carries the admin flag
func IsAdmin(c *gin.Context) bool {
	value, exists := c.Get(IsAdminKey)
	if !exists {
		return false
	}
	isAdmin, ok := value.(bool)
	return ok && isAdmin
}

// RequireAdmin aborts requests from non-admin users
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsAdmin(c) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code":    "FORBIDDEN",
				"message": "admin access required",
			})
			return
		}
		c.Next()
	}
}
