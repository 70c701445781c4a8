package handler_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"cargoledger/internal/domain"
	"cargoledger/internal/handler"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestMapDomainError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("%w: description is required", domain.ErrValidation), http.StatusBadRequest, "VALIDATION_ERROR"},
		{fmt.Errorf("%w: amount must be greater than 0", domain.ErrInvalidPayment), http.StatusBadRequest, "INVALID_PAYMENT"},
		{fmt.Errorf("%w: XYZ", domain.ErrUnknownCurrency), http.StatusBadRequest, "UNKNOWN_CURRENCY"},
		{domain.ErrInvoiceNotFound, http.StatusNotFound, "INVOICE_NOT_FOUND"},
		{domain.ErrLineItemNotFound, http.StatusNotFound, "LINE_ITEM_NOT_FOUND"},
		{domain.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{fmt.Errorf("%w: status is sent", domain.ErrInvoiceNotEditable), http.StatusConflict, "INVOICE_NOT_EDITABLE"},
		{domain.ErrInvoiceCancelled, http.StatusConflict, "INVOICE_CANCELLED"},
		{domain.ErrInvalidTransition, http.StatusConflict, "INVALID_TRANSITION"},
		{fmt.Errorf("%w: year 2026 after 5 attempts", domain.ErrNumberConflict), http.StatusConflict, "NUMBER_CONFLICT"},
		{fmt.Errorf("saving invoice INV-2026-0001: %w", domain.ErrConcurrentUpdate), http.StatusConflict, "CONCURRENT_UPDATE"},
		{fmt.Errorf("fetching rate snapshot: %w", domain.ErrStaleSnapshot), http.StatusServiceUnavailable, "STALE_RATES"},
		{domain.ErrSnapshotMissing, http.StatusServiceUnavailable, "RATES_UNAVAILABLE"},
		{domain.ErrRateTableMissing, http.StatusServiceUnavailable, "RATE_TABLE_MISSING"},
		{domain.ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED"},
		{domain.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
		{errors.New("connection reset"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			status, code, _ := handler.MapDomainError(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, code)
		})
	}
}

func TestMapDomainError_ValidationCarriesDetail(t *testing.T) {
	_, _, msg := handler.MapDomainError(fmt.Errorf("%w: due_date is before issue_date", domain.ErrValidation))
	assert.Contains(t, msg, "due_date is before issue_date")

	_, _, msg = handler.MapDomainError(errors.New("pq: password authentication failed"))
	assert.NotContains(t, msg, "password")
}
