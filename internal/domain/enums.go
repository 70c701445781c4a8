package domain

// InvoiceStatus is the lifecycle state of an invoice.
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusSent      InvoiceStatus = "sent"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusOverdue   InvoiceStatus = "overdue"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// ValidInvoiceStatuses is the set of accepted status values for filtering.
var ValidInvoiceStatuses = map[InvoiceStatus]bool{
	InvoiceStatusDraft:     true,
	InvoiceStatusSent:      true,
	InvoiceStatusPaid:      true,
	InvoiceStatusOverdue:   true,
	InvoiceStatusCancelled: true,
}

// DiscountType selects how a discount value is applied to the subtotal.
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// LineItemKind tags where a line item came from.
type LineItemKind string

const (
	LineItemShipping LineItemKind = "shipping"
	LineItemStorage  LineItemKind = "storage"
	LineItemCustoms  LineItemKind = "customs"
	LineItemCustom   LineItemKind = "custom"
)

// PaymentMethod is how a payment was made.
type PaymentMethod string

const (
	PaymentCash         PaymentMethod = "cash"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
	PaymentCard         PaymentMethod = "card"
	PaymentMobileMoney  PaymentMethod = "mobile_money"
	PaymentOther        PaymentMethod = "other"
)

// ValidPaymentMethods is the set of accepted payment methods.
var ValidPaymentMethods = map[PaymentMethod]bool{
	PaymentCash:         true,
	PaymentBankTransfer: true,
	PaymentCard:         true,
	PaymentMobileMoney:  true,
	PaymentOther:        true,
}

// UserRole is the role claim carried by portal access tokens.
type UserRole string

const (
	RoleAdmin     UserRole = "admin"
	RoleWarehouse UserRole = "warehouse"
	RoleCustomer  UserRole = "customer"
)
