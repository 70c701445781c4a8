package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cargoledger/internal/domain"
	"cargoledger/internal/service"
)

// FeeHandler handles fee quotes.
type FeeHandler struct {
	rateService service.RateService
}

// NewFeeHandler creates a new FeeHandler.
func NewFeeHandler(rateService service.RateService) *FeeHandler {
	return &FeeHandler{rateService: rateService}
}

// ComputeFeesRequest is the body of a fee quote. RateTable overrides the
// table currently in effect.
type ComputeFeesRequest struct {
	Package   domain.Package    `json:"package"`
	RateTable *domain.RateTable `json:"rate_table,omitempty"`
}

// FeeQuote is a fee breakdown together with its total.
type FeeQuote struct {
	*domain.FeeBreakdown
	Total string `json:"total"`
}

// Compute handles POST /api/v1/fees/compute
// @Summary Quote package fees
// @Description Compute shipping, storage and customs charges for a package against the rate table in effect or an override
// @Tags fees
// @Accept json
// @Produce json
// @Param request body ComputeFeesRequest true "Package and optional rate table"
// @Success 200 {object} APIResponse{data=FeeQuote} "Fee breakdown"
// @Failure 400 {object} APIResponse "Invalid request or unknown currency"
// @Failure 401 {object} APIResponse "Unauthorized"
// @Failure 503 {object} APIResponse "No rate table in effect or exchange rates unavailable"
// @Security BearerAuth
// @Router /fees/compute [post]
func (h *FeeHandler) Compute(c *gin.Context) {
	var req ComputeFeesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	fb, err := h.rateService.ComputeFees(c.Request.Context(), &service.ComputeFeesInput{
		Package:   req.Package,
		RateTable: req.RateTable,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, FeeQuote{FeeBreakdown: fb, Total: fb.Total().String()})
}
