package v1

import (
	"net/http"

	"github.com/brewcycle/brewcycle/internal/api/dto"
	ierr "github.com/brewcycle/brewcycle/internal/errors"
	"github.com/brewcycle/brewcycle/internal/logger"
	"github.com/brewcycle/brewcycle/internal/service"
	"github.com/gin-gonic/gin"
)

type PreferenceHandler struct {
	service service.PreferenceService
	log     *logger.Logger
}

func NewPreferenceHandler(service service.PreferenceService, log *logger.Logger) *PreferenceHandler {
	return &PreferenceHandler{service: service, log: log}
}

// @Summary Get flavor preferences
// @Tags Preferences
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} dto.PreferencesResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /preferences [get]
func (h *PreferenceHandler) GetPreferences(c *gin.Context) {
	resp, err := h.service.GetPreferences(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Set flavor preferences
// @Description Replace the caller's flavor preferences
// @Tags Preferences
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param preferences body dto.UpdatePreferencesRequest true "Preferences"
// @Success 200 {object} dto.PreferencesResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /preferences [put]
func (h *PreferenceHandler) UpdatePreferences(c *gin.Context) {
	var req dto.UpdatePreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.UpdatePreferences(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
