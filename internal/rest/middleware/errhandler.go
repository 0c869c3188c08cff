package middleware

import (
	"encoding/json"
	"strings"

	"github.com/brewcycle/brewcycle/internal/config"
	ierr "github.com/brewcycle/brewcycle/internal/errors"
	"github.com/brewcycle/brewcycle/internal/logger"
	"github.com/brewcycle/brewcycle/internal/types"
	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
)

// ErrorHandler renders the last error a handler attached with c.Error.
// Only hints and reportable details reach the client; the cause is included
// in local deployments to ease debugging.
func ErrorHandler(cfg *config.Configuration, logger *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		status := ierr.HTTPStatusFromErr(err)

		requestID := types.GetRequestID(c.Request.Context())
		response := ierr.NewErrorResponse(getDisplayMessage(err), requestID)
		response.Error.Details = getSafeDetails(err)
		if cfg.Deployment.Mode == types.ModeLocal {
			response.Error.InternalError = err.Error()
		}

		if status >= 500 {
			logger.Errorw("request failed",
				"path", c.FullPath(),
				"status", status,
				"request_id", requestID,
				"error", err,
			)
		}

		c.JSON(status, response)
	}
}

func getDisplayMessage(err error) string {
	// GetAllHints is post-order, the first non-empty hint is the most specific
	for _, hint := range errors.GetAllHints(err) {
		if hint = strings.TrimSpace(hint); hint != "" {
			return hint
		}
	}
	return "An unexpected error occurred"
}

func getSafeDetails(err error) map[string]any {
	details := make(map[string]any)

	for _, sdp := range errors.GetAllSafeDetails(err) {
		for _, payload := range sdp.SafeDetails {
			jsonStr, ok := strings.CutPrefix(payload, "__json__:")
			if !ok {
				continue
			}
			var jsonDetails map[string]any
			if err := json.Unmarshal([]byte(jsonStr), &jsonDetails); err == nil {
				for k, v := range jsonDetails {
					details[k] = v
				}
			}
		}
	}

	if len(details) == 0 {
		return nil
	}
	return details
}
