package domain

import "errors"

var (
	ErrNotFound     = errors.New("resource not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	ErrValidation             = errors.New("validation failed")
	ErrInvoiceNotFound        = errors.New("invoice not found")
	ErrInvoiceNotEditable     = errors.New("invoice is not editable")
	ErrInvoiceCancelled       = errors.New("invoice is cancelled")
	ErrInvalidTransition      = errors.New("invalid invoice status transition")
	ErrInvalidPayment         = errors.New("invalid payment")
	ErrDuplicateInvoiceNumber = errors.New("invoice number already exists")
	ErrNumberConflict         = errors.New("could not assign a unique invoice number")
	ErrLineItemNotFound       = errors.New("line item not found")
	ErrConcurrentUpdate       = errors.New("invoice was modified concurrently")

	ErrUnknownCurrency  = errors.New("unknown currency")
	ErrStaleSnapshot    = errors.New("exchange rate snapshot is stale")
	ErrSnapshotMissing  = errors.New("exchange rate snapshot unavailable")
	ErrRateTableMissing = errors.New("no rate table in effect")
)
