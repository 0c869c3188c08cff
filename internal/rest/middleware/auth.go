package middleware

import (
	"net/http"
	"strings"

	"github.com/brewcycle/brewcycle/internal/auth"
	"github.com/brewcycle/brewcycle/internal/config"
	ierr "github.com/brewcycle/brewcycle/internal/errors"
	"github.com/brewcycle/brewcycle/internal/logger"
	"github.com/brewcycle/brewcycle/internal/types"
	"github.com/gin-gonic/gin"
)

// AuthenticateMiddleware authenticates requests based on either:
// 1. API key in the x-api-key header (or configured header name)
// 2. JWT token in the Authorization header as a Bearer token
// It sets the user ID and role in the request context for downstream handlers
func AuthenticateMiddleware(cfg *config.Configuration, logger *logger.Logger) gin.HandlerFunc {
	tokens := auth.NewTokenValidator(cfg)

	return func(c *gin.Context) {
		if apiKey := c.GetHeader(cfg.Auth.APIKey.Header); apiKey != "" {
			claims, valid := auth.ValidateAPIKey(cfg, apiKey)
			if !valid {
				logger.Debugw("invalid api key")
				abortUnauthorized(c, "Invalid API key")
				return
			}
			setClaims(c, claims)
			c.Next()
			return
		}

		authHeader := c.GetHeader(types.HeaderAuthorization)
		if authHeader == "" {
			abortUnauthorized(c, "Unauthorized")
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			abortUnauthorized(c, "Invalid authorization header format")
			return
		}

		claims, err := tokens.ValidateToken(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			logger.Debugw("failed to validate token", "error", err)
			abortUnauthorized(c, "Invalid token")
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// RequireAdmin rejects callers without the admin role
func RequireAdmin(c *gin.Context) {
	if !types.IsAdmin(c.Request.Context()) {
		c.AbortWithStatusJSON(http.StatusForbidden,
			ierr.NewErrorResponse("Admin access is required", types.GetRequestID(c.Request.Context())))
		return
	}
	c.Next()
}

func setClaims(c *gin.Context, claims *auth.Claims) {
	ctx := c.Request.Context()
	ctx = types.SetUserID(ctx, claims.UserID)
	ctx = types.SetRole(ctx, claims.Role)
	c.Request = c.Request.WithContext(ctx)
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized,
		ierr.NewErrorResponse(message, types.GetRequestID(c.Request.Context())))
}
