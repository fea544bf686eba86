package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Métodos de pago aceptados.
const (
	PaymentMethodCash     = "efectivo"
	PaymentMethodTransfer = "transferencia"
	PaymentMethodCard     = "tarjeta"
)

// PaymentStatusApplied estado único de un pago registrado.
const PaymentStatusApplied = "aplicado"

// Payment es un abono inmutable a una factura.
type Payment struct {
	ID            string
	InvoiceID     string
	Amount        decimal.Decimal
	PaymentDate   time.Time
	Method        string
	Note          string
	ImageURL      string
	ReceiptNumber string
	Status        string
	CreatedAt     time.Time
	CreatedBy     string
}

// IsValidPaymentMethod valida el método contra los aceptados.
func IsValidPaymentMethod(m string) bool {
	switch m {
	case PaymentMethodCash, PaymentMethodTransfer, PaymentMethodCard:
		return true
	}
	return false
}
