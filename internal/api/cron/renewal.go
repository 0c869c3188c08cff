package cron

import (
	"net/http"
	"time"

	"github.com/brewcycle/brewcycle/internal/logger"
	"github.com/brewcycle/brewcycle/internal/service"
	"github.com/gin-gonic/gin"
)

// RenewalHandler is the entry point for the scheduled renewal run
type RenewalHandler struct {
	renewalService service.RenewalService
	logger         *logger.Logger
}

func NewRenewalHandler(renewalService service.RenewalService, logger *logger.Logger) *RenewalHandler {
	return &RenewalHandler{
		renewalService: renewalService,
		logger:         logger,
	}
}

// @Summary Process due renewals
// @Description Renew every active subscription that is due. Admin only; meant to be called by a scheduler.
// @Tags Subscriptions
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} dto.RenewalReport
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /subscriptions/process [post]
func (h *RenewalHandler) ProcessRenewals(c *gin.Context) {
	h.logger.Infow("starting renewal cron job")

	report, err := h.renewalService.ProcessRenewals(c.Request.Context(), time.Now().UTC())
	if err != nil {
		h.logger.Errorw("renewal cron job failed", "error", err)
		c.Error(err)
		return
	}

	h.logger.Infow("completed renewal cron job",
		"processed", report.Processed,
		"failed", report.Failed,
	)
	c.JSON(http.StatusOK, report)
}
