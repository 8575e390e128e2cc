// internal/middleware/auth.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/javajoker/curated-market/internal/apperrors"
	"github.com/javajoker/curated-market/internal/i18n"
	"github.com/javajoker/curated-market/internal/models"
	"github.com/javajoker/curated-market/internal/services"
	"github.com/javajoker/curated-market/internal/utils"
)

const callerKey = "caller"

func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := utils.GetLangFromContext(c)

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthRequired))
			c.Abort()
			return
		}

		token, ok := bearerToken(authHeader)
		if !ok {
			utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthInvalidToken))
			c.Abort()
			return
		}

		claims, err := utils.ValidateJWT(token)
		if err != nil {
			utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthTokenExpired))
			c.Abort()
			return
		}

		if !setCaller(c, claims) {
			utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthInvalidToken))
			c.Abort()
			return
		}
		c.Next()
	}
}

func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.Next()
			return
		}

		claims, err := utils.ValidateJWT(token)
		if err != nil {
			c.Next()
			return
		}

		// Set user info in context if token is valid
		setCaller(c, claims)
		c.Next()
	}
}

// RequireCapability rejects the request before the handler runs when the caller's
// role lacks the capability. Services repeat the same check.
func RequireCapability(capability services.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := CallerFrom(c)
		if !ok {
			utils.UnauthorizedResponse(c, "")
			c.Abort()
			return
		}
		if err := services.Require(caller.Role, capability); err != nil {
			utils.AppErrorResponse(c, err)
			c.Abort()
			return
		}
		c.Next()
	}
}

// CallerFrom returns the identity AuthRequired or OptionalAuth stored on the context.
func CallerFrom(c *gin.Context) (services.Caller, bool) {
	if v, exists := c.Get(callerKey); exists {
		if caller, ok := v.(services.Caller); ok {
			return caller, true
		}
	}
	return services.Caller{}, false
}

// MustCaller is for handlers mounted behind AuthRequired.
func MustCaller(c *gin.Context) (services.Caller, bool) {
	caller, ok := CallerFrom(c)
	if !ok {
		utils.AppErrorResponse(c, apperrors.Unauthorized("authentication required"))
	}
	return caller, ok
}

func bearerToken(header string) (string, bool) {
	// Extract token from "Bearer <token>"
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func setCaller(c *gin.Context, claims *utils.JWTClaims) bool {
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return false
	}

	c.Set("user_id", claims.UserID)
	c.Set("username", claims.Username)
	c.Set("role", claims.Role)
	c.Set(callerKey, services.Caller{UserID: userID, Role: models.UserRole(claims.Role)})
	return true
}
