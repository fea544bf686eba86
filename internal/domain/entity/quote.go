package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una cotización. vencida se calcula al leer.
const (
	QuoteStatusDraft    = "borrador"
	QuoteStatusSent     = "enviada"
	QuoteStatusAccepted = "aceptada"
	QuoteStatusRejected = "rechazada"
	QuoteStatusInvoiced = "facturada"
	QuoteStatusExpired  = "vencida"
)

// Quote es una cotización: mismas reglas de cálculo que la factura, sin stock ni NCF.
type Quote struct {
	ID                 string
	CompanyID          string
	UserID             string
	ClientID           string
	Client             ClientSnapshot
	QuoteNumber        string
	Currency           string
	IncludeITBIS       bool
	Items              []LineItem
	Subtotal           decimal.Decimal
	DiscountTotal      decimal.Decimal
	ITBIS              decimal.Decimal
	Total              decimal.Decimal
	Status             string
	ValidUntil         time.Time
	Notes              string
	ConvertedInvoiceID string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// IsInvoiced indica si la cotización ya fue convertida (inmutable).
func (q *Quote) IsInvoiced() bool {
	return q.Status == QuoteStatusInvoiced
}

// DisplayStatus marca como vencida una cotización abierta cuya validez terminó.
func (q *Quote) DisplayStatus(now time.Time) string {
	if (q.Status == QuoteStatusDraft || q.Status == QuoteStatusSent) && IsPastDay(q.ValidUntil, now) {
		return QuoteStatusExpired
	}
	return q.Status
}

// CanTransition valida los cambios manuales de estado.
// facturada solo se alcanza por conversión.
func (q *Quote) CanTransition(to string) bool {
	switch q.Status {
	case QuoteStatusDraft:
		return to == QuoteStatusSent || to == QuoteStatusAccepted || to == QuoteStatusRejected
	case QuoteStatusSent:
		return to == QuoteStatusAccepted || to == QuoteStatusRejected || to == QuoteStatusDraft
	case QuoteStatusAccepted:
		return to == QuoteStatusRejected
	case QuoteStatusRejected:
		return to == QuoteStatusDraft
	}
	return false
}
