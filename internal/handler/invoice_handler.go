package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"cargoledger/internal/billing"
	"cargoledger/internal/domain"
	"cargoledger/internal/middleware"
	"cargoledger/internal/port"
	"cargoledger/internal/service"
)

// InvoiceHandler handles invoice endpoints.
type InvoiceHandler struct {
	invoiceService service.InvoiceService
}

// NewInvoiceHandler creates a new InvoiceHandler.
func NewInvoiceHandler(invoiceService service.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService}
}

// CreateInvoiceRequest is the body of POST /api/v1/invoices.
type CreateInvoiceRequest struct {
	Currency   string                  `json:"currency"`
	CustomerID *uuid.UUID              `json:"customer_id"`
	PackageRef string                  `json:"package_ref"`
	Notes      string                  `json:"notes"`
	IssueDate  *time.Time              `json:"issue_date"`
	DueDate    *time.Time              `json:"due_date"`
	LineItems  []billing.LineItemInput `json:"line_items"`
	Discount   *domain.Discount        `json:"discount"`
}

// InvoicePackageRequest is the body of POST /api/v1/invoices/from-package.
type InvoicePackageRequest struct {
	Package        domain.Package   `json:"package"`
	Currency       string           `json:"currency"`
	CustomerID     *uuid.UUID       `json:"customer_id"`
	Notes          string           `json:"notes"`
	TaxRatePercent *decimal.Decimal `json:"tax_rate_percent"`
	DueDate        *time.Time       `json:"due_date"`
	Discount       *domain.Discount `json:"discount"`
}

// SetDiscountRequest is the body of PUT /api/v1/invoices/:id/discount. A
// null discount clears it.
type SetDiscountRequest struct {
	Discount *domain.Discount `json:"discount"`
}

// ApplyPaymentRequest is the body of POST /api/v1/invoices/:id/payments.
type ApplyPaymentRequest struct {
	Amount    decimal.Decimal      `json:"amount"`
	Method    domain.PaymentMethod `json:"method"`
	Reference string               `json:"reference"`
	Date      *time.Time           `json:"date"`
}

// Create handles POST /api/v1/invoices
// @Summary Create invoice
// @Description Create a draft invoice from line items with an optional discount
// @Tags invoices
// @Accept json
// @Produce json
// @Param request body CreateInvoiceRequest true "Invoice details"
// @Success 201 {object} APIResponse{data=domain.Invoice} "Invoice created"
// @Failure 400 {object} APIResponse "Invalid request or unknown currency"
// @Failure 401 {object} APIResponse "Unauthorized"
// @Failure 403 {object} APIResponse "Insufficient permission"
// @Failure 409 {object} APIResponse "Invoice number could not be assigned"
// @Security BearerAuth
// @Router /invoices [post]
func (h *InvoiceHandler) Create(c *gin.Context) {
	var req CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	input := &service.CreateInvoiceInput{
		Currency:   req.Currency,
		CustomerID: req.CustomerID,
		PackageRef: req.PackageRef,
		Notes:      req.Notes,
		DueDate:    req.DueDate,
		LineItems:  req.LineItems,
		Discount:   req.Discount,
	}
	if req.IssueDate != nil {
		input.IssueDate = *req.IssueDate
	}

	inv, err := h.invoiceService.Create(c.Request.Context(), input)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondCreated(c, inv)
}

// FromPackage handles POST /api/v1/invoices/from-package
// @Summary Invoice a package
// @Description Compute a package's fees and create a draft invoice with the rate table frozen into it
// @Tags invoices
// @Accept json
// @Produce json
// @Param request body InvoicePackageRequest true "Package and invoice details"
// @Success 201 {object} APIResponse{data=domain.Invoice} "Invoice created"
// @Failure 400 {object} APIResponse "Invalid request or unknown currency"
// @Failure 401 {object} APIResponse "Unauthorized"
// @Failure 403 {object} APIResponse "Insufficient permission"
// @Failure 409 {object} APIResponse "Invoice number could not be assigned"
// @Failure 503 {object} APIResponse "No rate table in effect or exchange rates unavailable"
// @Security BearerAuth
// @Router /invoices/from-package [post]
func (h *InvoiceHandler) FromPackage(c *gin.Context) {
	var req InvoicePackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	inv, err := h.invoiceService.InvoicePackage(c.Request.Context(), &service.InvoicePackageInput{
		Package:        req.Package,
		Currency:       req.Currency,
		CustomerID:     req.CustomerID,
		Notes:          req.Notes,
		TaxRatePercent: req.TaxRatePercent,
		DueDate:        req.DueDate,
		Discount:       req.Discount,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondCreated(c, inv)
}

// List handles GET /api/v1/invoices. Customers only see their own invoices.
// @Summary List invoices
// @Description List invoices newest first. Customers only see their own invoices.
// @Tags invoices
// @Produce json
// @Param offset query int false "Offset for pagination" default(0)
// @Param limit query int false "Limit for pagination (max 100)" default(20)
// @Param status query string false "Filter by status" Enums(draft, sent, paid, overdue, cancelled)
// @Param customer_id query string false "Filter by customer ID (staff only)"
// @Success 200 {object} APIResponse{data=[]domain.Invoice,meta=PagMeta} "List of invoices"
// @Failure 400 {object} APIResponse "Invalid status or customer_id"
// @Failure 401 {object} APIResponse "Unauthorized"
// @Failure 403 {object} APIResponse "Insufficient permission"
// @Security BearerAuth
// @Router /invoices [get]
func (h *InvoiceHandler) List(c *gin.Context) {
	offset, limit := pagination(c)
	filter := port.InvoiceFilter{Status: domain.InvoiceStatus(c.Query("status"))}

	if middleware.GetRole(c) == domain.RoleCustomer {
		customerID, ok := requireCustomer(c)
		if !ok {
			return
		}
		filter.CustomerID = customerID
	} else if raw := c.Query("customer_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid customer ID")
			return
		}
		filter.CustomerID = &id
	}

	invoices, total, err := h.invoiceService.List(c.Request.Context(), filter, offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondPaginated(c, invoices, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// GetByID handles GET /api/v1/invoices/:id
// @Summary Get invoice by ID
// @Description Get an invoice with its line items and payment history
// @Tags invoices
// @Produce json
// @Param id path string true "Invoice ID (UUID)"
// @Success 200 {object} APIResponse{data=domain.Invoice} "Invoice details"
// @Failure 400 {object} APIResponse "Invalid ID"
// @Failure 401 {object} APIResponse "Unauthorized"
// @Failure 403 {object} APIResponse "Insufficient permission"
// @Failure 404 {object} APIResponse "Invoice not found"
// @Security BearerAuth
// @Router /invoices/{id} [get]
func (h *InvoiceHandler) GetByID(c *gin.Context) {
	id, ok := invoiceID(c)
	if !ok {
		return
	}

	inv, err := h.invoiceService.GetByID(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	if middleware.GetRole(c) == domain.RoleCustomer {
		customerID, ok := requireCustomer(c)
		if !ok {
			return
		}
		if inv.CustomerID == nil || *inv.CustomerID != *customerID {
			HandleError(c, domain.ErrInvoiceNotFound)
			return
		}
	}

	RespondOK(c, inv)
}

// AddLineItem handles POST /api/v1/invoices/:id/line-items
// @Summary Add line item
// @Description Add a line item to a draft invoice
// @Tags invoices
// @Accept json
// @Produce json
// @Param id path string true "Invoice ID (UUID)"
// @Param request body billing.LineItemInput true "Line item"
// @Success 200 {object} APIResponse{data=domain.Invoice} "Updated invoice"
// @Failure 400 {object} APIResponse "Invalid ID or line item"
// @Failure 401 {object} APIResponse "Unauthorized"
// @Failure 403 {object} APIResponse "Insufficient permission"
// @Failure 404 {object} APIResponse "Invoice not found"
// @Failure 409 {object} APIResponse "Invoice is not editable"
// @Security BearerAuth
// @Router /invoices/{id}/line-items [post]
func (h *InvoiceHandler) AddLineItem(c *gin.Context) {
	id, ok := invoiceID(c)
	if !ok {
		return
	}
	var item billing.LineItemInput
	if err := c.ShouldBindJSON(&item); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	inv, err := h.invoiceService.AddLineItem(c.Request.Context(), id, item)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, inv)
}

// RemoveLineItem handles DELETE /api/v1/invoices/:id/line-items/:itemId
// @Summary Remove line item
// @Description Remove a line item from a draft invoice
// @Tags invoices
// @Produce json
// @Param id path string true "Invoice ID (UUID)"
// @Param itemId path string true "Line item ID (UUID)"
// @Success 200 {object} APIResponse{data=domain.Invoice} "Updated invoice"
// @Failure 400 {object} APIResponse "Invalid ID"
// @Failure 401 {object} APIResponse "Unauthorized"
// @Failure 403 {object} APIResponse "Insufficient permission"
// @Failure 404 {object} APIResponse "Invoice or line item not found"
// @Failure 409 {object} APIResponse "Invoice is not editable"
// @Security BearerAuth
// @Router /invoices/{id}/line-items/{itemId} [delete]
func (h *InvoiceHandler) RemoveLineItem(c *gin.Context) {
	id, ok := invoiceID(c)
	if !ok {
		return
	}
	itemID, err := uuid.Parse(c.Param("itemId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid line item ID")
		return
	}

	inv, err := h.invoiceService.RemoveLineItem(c.Request.Context(), id, itemID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, inv)
}

// SetDiscount handles PUT /api/v1/invoices/:id/discount
// @Summary Set discount
// @Description Set or clear the discount of a draft invoice
// @Tags invoices
// @Accept json
// @Produce json
// @Param id path string true "Invoice ID (UUID)"
// @Param request body SetDiscountRequest true "Discount, null clears it"
// @Success 200 {object} APIResponse{data=domain.Invoice} "Updated invoice"
// @Failure 400 {object} APIResponse "Invalid ID or discount"
// @Failure 401 {object} APIResponse "Unauthorized"
// @Failure 403 {object} APIResponse "Insufficient permission"
// @Failure 404 {object} APIResponse "Invoice not found"
// @Failure 409 {object} APIResponse "Invoice is not editable"
// @Security BearerAuth
// @Router /invoices/{id}/discount [put]
func (h *InvoiceHandler) SetDiscount(c *gin.Context) {
	id, ok := invoiceID(c)
	if !ok {
		return
	}
	var req SetDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	inv, err := h.invoiceService.SetDiscount(c.Request.Context(), id, req.Discount)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, inv)
}

// Send handles POST /api/v1/invoices/:id/send
// @Summary Send invoice
// @Description Move a draft invoice to sent
// @Tags invoices
// @Produce json
// @Param id path string true "Invoice ID (UUID)"
// @Success 200 {object} APIResponse{data=domain.Invoice} "Invoice sent"
// @Failure 400 {object} APIResponse "Invalid ID"
// @Failure 401 {object} APIResponse "Unauthorized"
// @Failure 403 {object} APIResponse "Insufficient permission"
// @Failure 404 {object} APIResponse "Invoice not found"
// @Failure 409 {object} APIResponse "Invalid status transition"
// @Security BearerAuth
// @Router /invoices/{id}/send [post]
func (h *InvoiceHandler) Send(c *gin.Context) {
	id, ok := invoiceID(c)
	if !ok {
		return
	}

	inv, err := h.invoiceService.Send(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, inv)
}

// Cancel handles POST /api/v1/invoices/:id/cancel
// @Summary Cancel invoice
// @Description Cancel an invoice that has not been paid
// @Tags invoices
// @Produce json
// @Param id path string true "Invoice ID (UUID)"
// @Success 200 {object} APIResponse{data=domain.Invoice} "Invoice cancelled"
// @Failure 400 {object} APIResponse "Invalid ID"
// @Failure 401 {object} APIResponse "Unauthorized"
// @Failure 403 {object} APIResponse "Insufficient permission"
// @Failure 404 {object} APIResponse "Invoice not found"
// @Failure 409 {object} APIResponse "Invalid status transition"
// @Security BearerAuth
// @Router /invoices/{id}/cancel [post]
func (h *InvoiceHandler) Cancel(c *gin.Context) {
	id, ok := invoiceID(c)
	if !ok {
		return
	}

	inv, err := h.invoiceService.Cancel(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, inv)
}

// ApplyPayment handles POST /api/v1/invoices/:id/payments
// @Summary Apply payment
// @Description Record a payment against an invoice and update its balance and status
// @Tags invoices
// @Accept json
// @Produce json
// @Param id path string true "Invoice ID (UUID)"
// @Param request body ApplyPaymentRequest true "Payment details"
// @Success 200 {object} APIResponse{data=domain.Invoice} "Updated invoice"
// @Failure 400 {object} APIResponse "Invalid ID or payment"
// @Failure 401 {object} APIResponse "Unauthorized"
// @Failure 403 {object} APIResponse "Insufficient permission"
// @Failure 404 {object} APIResponse "Invoice not found"
// @Failure 409 {object} APIResponse "Invoice was modified concurrently"
// @Security BearerAuth
// @Router /invoices/{id}/payments [post]
func (h *InvoiceHandler) ApplyPayment(c *gin.Context) {
	id, ok := invoiceID(c)
	if !ok {
		return
	}
	var req ApplyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	input := &service.ApplyPaymentInput{
		InvoiceID: id,
		Amount:    req.Amount,
		Method:    req.Method,
		Reference: req.Reference,
	}
	if req.Date != nil {
		input.Date = *req.Date
	}

	inv, err := h.invoiceService.ApplyPayment(c.Request.Context(), input)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, inv)
}

func invoiceID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid invoice ID")
		return uuid.Nil, false
	}
	return id, true
}

// requireCustomer returns the customer bound to the caller's token. A
// customer token without one is rejected.
func requireCustomer(c *gin.Context) (*uuid.UUID, bool) {
	customerID := middleware.GetCustomerID(c)
	if customerID == nil {
		RespondError(c, http.StatusForbidden, "FORBIDDEN", "token is not bound to a customer")
		return nil, false
	}
	return customerID, true
}
