package dto

import "github.com/shopspring/decimal"

// CreateQuoteRequest body para POST /api/quotes y PUT /api/quotes/:id.
type CreateQuoteRequest struct {
	ClientID     string            `json:"client_id" validate:"required"`
	Items        []LineItemRequest `json:"items" validate:"required,min=1,dive"`
	Currency     string            `json:"currency" validate:"omitempty,len=3"`
	IncludeITBIS bool              `json:"include_itbis"`
	ValidUntil   string            `json:"valid_until" validate:"required,datetime=2006-01-02"`
	Notes        string            `json:"notes,omitempty" validate:"max=2000"`
}

// ChangeQuoteStatusRequest body para PATCH /api/quotes/:id/status.
type ChangeQuoteStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=borrador enviada aceptada rechazada"`
}

// QuoteResponse cotización completa.
type QuoteResponse struct {
	ID                 string                 `json:"id"`
	CompanyID          string                 `json:"company_id"`
	UserID             string                 `json:"user_id"`
	ClientID           string                 `json:"client_id"`
	Client             ClientSnapshotResponse `json:"client"`
	QuoteNumber        string                 `json:"quote_number"`
	Currency           string                 `json:"currency"`
	IncludeITBIS       bool                   `json:"include_itbis"`
	Items              []LineItemResponse     `json:"items"`
	Subtotal           decimal.Decimal        `json:"subtotal"`
	DiscountTotal      decimal.Decimal        `json:"discount_total"`
	ITBIS              decimal.Decimal        `json:"itbis"`
	Total              decimal.Decimal        `json:"total"`
	Status             string                 `json:"status"`
	ValidUntil         string                 `json:"valid_until"`
	Notes              string                 `json:"notes,omitempty"`
	ConvertedInvoiceID string                 `json:"converted_invoice_id,omitempty"`
}

// QuoteListResponse listado paginado.
type QuoteListResponse struct {
	Items []QuoteResponse `json:"items"`
	Page  PageResponse    `json:"page"`
}
