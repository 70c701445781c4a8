package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"cargoledger/internal/service"
)

// CurrencyHandler handles currency conversion and display endpoints.
type CurrencyHandler struct {
	currencyService service.CurrencyService
}

// NewCurrencyHandler creates a new CurrencyHandler.
func NewCurrencyHandler(currencyService service.CurrencyService) *CurrencyHandler {
	return &CurrencyHandler{currencyService: currencyService}
}

// FormatResult is the response of the format endpoint.
type FormatResult struct {
	Amount    decimal.Decimal `json:"amount"`
	Code      string          `json:"code"`
	Rounded   decimal.Decimal `json:"rounded"`
	Formatted string          `json:"formatted"`
}

// List handles GET /api/v1/currencies
// @Summary List currencies
// @Description List supported currencies with symbol, decimal places and display pattern
// @Tags currencies
// @Produce json
// @Success 200 {object} APIResponse{data=[]domain.CurrencyInfo} "Supported currencies"
// @Failure 401 {object} APIResponse "Unauthorized"
// @Security BearerAuth
// @Router /currencies [get]
func (h *CurrencyHandler) List(c *gin.Context) {
	RespondOK(c, h.currencyService.Currencies())
}

// Convert handles GET /api/v1/currencies/convert?amount=&from=&to=
// @Summary Convert amount
// @Description Convert an amount between currencies through the current exchange rate snapshot
// @Tags currencies
// @Produce json
// @Param amount query string true "Amount to convert"
// @Param from query string true "Source currency code"
// @Param to query string true "Target currency code"
// @Success 200 {object} APIResponse{data=service.Conversion} "Converted amount"
// @Failure 400 {object} APIResponse "Invalid amount or unknown currency"
// @Failure 401 {object} APIResponse "Unauthorized"
// @Failure 503 {object} APIResponse "Exchange rates stale or unavailable"
// @Security BearerAuth
// @Router /currencies/convert [get]
func (h *CurrencyHandler) Convert(c *gin.Context) {
	amount, ok := amountQuery(c)
	if !ok {
		return
	}
	from := strings.ToUpper(strings.TrimSpace(c.Query("from")))
	to := strings.ToUpper(strings.TrimSpace(c.Query("to")))
	if from == "" || to == "" {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "from and to are required")
		return
	}

	conv, err := h.currencyService.Convert(c.Request.Context(), amount, from, to)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, conv)
}

// Format handles GET /api/v1/currencies/format?amount=&code=
// @Summary Format amount
// @Description Format an amount for display in a currency
// @Tags currencies
// @Produce json
// @Param amount query string true "Amount to format"
// @Param code query string true "Currency code"
// @Success 200 {object} APIResponse{data=FormatResult} "Formatted amount"
// @Failure 400 {object} APIResponse "Invalid amount or unknown currency"
// @Failure 401 {object} APIResponse "Unauthorized"
// @Security BearerAuth
// @Router /currencies/format [get]
func (h *CurrencyHandler) Format(c *gin.Context) {
	amount, ok := amountQuery(c)
	if !ok {
		return
	}
	code := strings.ToUpper(strings.TrimSpace(c.Query("code")))

	RespondOK(c, FormatResult{
		Amount:    amount,
		Code:      code,
		Rounded:   h.currencyService.Round(amount, code),
		Formatted: h.currencyService.Format(amount, code),
	})
}

func amountQuery(c *gin.Context) (decimal.Decimal, bool) {
	amount, err := decimal.NewFromString(c.Query("amount"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "amount must be a decimal number")
		return decimal.Zero, false
	}
	return amount, true
}
