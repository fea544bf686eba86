// Package events define los eventos de dominio que se escriben en el outbox
// y el despachador que los publica.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
)

// Tipos de evento.
const (
	InvoiceCreated        = "invoice.created"
	InvoiceDeleted        = "invoice.deleted"
	InvoicePaymentApplied = "invoice.payment_applied"
	QuoteConverted        = "quote.converted"
)

// InvoicePayload cuerpo de los eventos de factura.
type InvoicePayload struct {
	InvoiceID     string          `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	NCF           string          `json:"ncf,omitempty"`
	ClientID      string          `json:"client_id"`
	Currency      string          `json:"currency"`
	Total         decimal.Decimal `json:"total"`
	BalanceDue    decimal.Decimal `json:"balance_due"`
	Status        string          `json:"status"`
	QuoteID       string          `json:"quote_id,omitempty"`
	PaymentID     string          `json:"payment_id,omitempty"`
	Amount        string          `json:"amount,omitempty"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// NewInvoicePayload arma el cuerpo a partir de la factura.
func NewInvoicePayload(inv *entity.Invoice, now time.Time) InvoicePayload {
	return InvoicePayload{
		InvoiceID:     inv.ID,
		InvoiceNumber: inv.InvoiceNumber,
		NCF:           inv.NCFNumber,
		ClientID:      inv.ClientID,
		Currency:      inv.Currency,
		Total:         inv.Total,
		BalanceDue:    inv.BalanceDue,
		Status:        inv.Status,
		QuoteID:       inv.QuoteID,
		OccurredAt:    now,
	}
}

// Enqueue serializa el payload y lo guarda en el outbox de la transacción.
func Enqueue(ctx context.Context, tx repository.Repos, companyID, aggregateID, eventType string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("serializar evento %s: %w", eventType, err)
	}
	return tx.Outbox.Enqueue(ctx, &entity.OutboxEvent{
		ID:          uuid.New().String(),
		CompanyID:   companyID,
		AggregateID: aggregateID,
		Type:        eventType,
		Payload:     raw,
		Status:      entity.OutboxStatusPending,
		CreatedAt:   time.Now(),
	})
}
