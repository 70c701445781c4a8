package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"cargoledger/internal/domain"
	"cargoledger/internal/service"
)

// RateHandler handles rate table endpoints.
type RateHandler struct {
	rateService service.RateService
}

// NewRateHandler creates a new RateHandler.
func NewRateHandler(rateService service.RateService) *RateHandler {
	return &RateHandler{rateService: rateService}
}

// Current handles GET /api/v1/rates
// @Summary Get current rate table
// @Description Get the rate table in effect now
// @Tags rates
// @Produce json
// @Success 200 {object} APIResponse{data=domain.RateTable} "Rate table in effect"
// @Failure 401 {object} APIResponse "Unauthorized"
// @Failure 503 {object} APIResponse "No rate table in effect"
// @Security BearerAuth
// @Router /rates [get]
func (h *RateHandler) Current(c *gin.Context) {
	rt, err := h.rateService.CurrentRateTable(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, rt)
}

// Publish handles PUT /api/v1/rates
// @Summary Publish rate table
// @Description Publish a new rate table, effective from its effective_from timestamp (admin only)
// @Tags rates
// @Accept json
// @Produce json
// @Param request body domain.RateTable true "Rate table"
// @Success 201 {object} APIResponse{data=domain.RateTable} "Rate table published"
// @Failure 400 {object} APIResponse "Invalid rate table"
// @Failure 401 {object} APIResponse "Unauthorized"
// @Failure 403 {object} APIResponse "Insufficient permission"
// @Security BearerAuth
// @Router /rates [put]
func (h *RateHandler) Publish(c *gin.Context) {
	var rt domain.RateTable
	if err := c.ShouldBindJSON(&rt); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	rt.ID = uuid.Nil

	published, err := h.rateService.PublishRateTable(c.Request.Context(), &rt)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondCreated(c, published)
}
