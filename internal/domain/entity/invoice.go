package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de cobro de una factura.
// Solo pendiente, parcialmente pagada y pagada se persisten; vencida se calcula al leer.
const (
	InvoiceStatusDraft   = "borrador"
	InvoiceStatusPending = "pendiente"
	InvoiceStatusPartial = "parcialmente pagada"
	InvoiceStatusPaid    = "pagada"
	InvoiceStatusOverdue = "vencida"
)

// Invoice representa una factura con sus líneas y pagos.
type Invoice struct {
	ID            string
	CompanyID     string
	UserID        string // dueño (quien la emitió)
	ClientID      string
	Client        ClientSnapshot
	InvoiceNumber string
	NCFType       string
	NCFNumber     string
	Currency      string
	IncludeITBIS  bool
	Items         []LineItem
	Subtotal      decimal.Decimal
	DiscountTotal decimal.Decimal
	ITBIS         decimal.Decimal
	Total         decimal.Decimal
	Payments      []Payment
	BalanceDue    decimal.Decimal
	Status        string
	QuoteID       string
	IssueDate     time.Time
	DueDate       time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// PaidAmount suma los pagos aplicados.
func (inv *Invoice) PaidAmount() decimal.Decimal {
	paid := decimal.Zero
	for _, p := range inv.Payments {
		paid = paid.Add(p.Amount)
	}
	return paid
}

// RecomputeBalance recalcula BalanceDue y Status a partir de Total y Payments.
func (inv *Invoice) RecomputeBalance() {
	balance := inv.Total.Sub(inv.PaidAmount())
	if balance.IsNegative() {
		balance = decimal.Zero
	}
	inv.BalanceDue = balance.Round(2)
	inv.Status = DeriveInvoiceStatus(inv.Total, inv.BalanceDue)
}

// DeriveInvoiceStatus devuelve el estado persistible según total y balance.
func DeriveInvoiceStatus(total, balanceDue decimal.Decimal) string {
	switch {
	case balanceDue.LessThanOrEqual(decimal.Zero):
		return InvoiceStatusPaid
	case balanceDue.LessThan(total):
		return InvoiceStatusPartial
	default:
		return InvoiceStatusPending
	}
}

// DisplayStatus es el estado visible: una factura pendiente con vencimiento anterior a hoy se muestra vencida.
func (inv *Invoice) DisplayStatus(now time.Time) string {
	if inv.Status == InvoiceStatusPending && IsPastDay(inv.DueDate, now) {
		return InvoiceStatusOverdue
	}
	return inv.Status
}

// HasPayments indica si la factura tiene al menos un pago (no se puede eliminar).
func (inv *Invoice) HasPayments() bool {
	return len(inv.Payments) > 0
}

// IsPastDay compara por día calendario: true si day es anterior a la fecha de now.
func IsPastDay(day, now time.Time) bool {
	if day.IsZero() {
		return false
	}
	y1, m1, d1 := day.In(now.Location()).Date()
	y2, m2, d2 := now.Date()
	return time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC).Before(time.Date(y2, m2, d2, 0, 0, 0, 0, time.UTC))
}
