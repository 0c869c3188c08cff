package middleware

import (
	"time"

	"github.com/brewcycle/brewcycle/internal/config"
	"github.com/brewcycle/brewcycle/internal/types"
	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
)

// SentryMiddleware captures panics and tags the request scope with the caller.
// It is a pass-through when sentry is disabled.
func SentryMiddleware(cfg *config.Configuration) gin.HandlerFunc {
	if !cfg.Sentry.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return sentrygin.New(sentrygin.Options{
		Repanic:         true,
		WaitForDelivery: false,
		Timeout:         2 * time.Second,
	})
}

// SentryScope tags the request hub with the authenticated user. It must run
// after authentication.
func SentryScope(c *gin.Context) {
	if hub := sentrygin.GetHubFromContext(c); hub != nil {
		ctx := c.Request.Context()
		hub.Scope().SetUser(sentry.User{ID: types.GetUserID(ctx)})
		hub.Scope().SetTag("request_id", types.GetRequestID(ctx))
	}
	c.Next()
}
