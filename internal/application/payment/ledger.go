package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/jhoicas/Ventas-api/internal/application/dto"
	"github.com/jhoicas/Ventas-api/internal/application/events"
	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
	"github.com/jhoicas/Ventas-api/pkg/logger"
)

// Tolerance margen de redondeo aceptado sobre el balance pendiente.
var Tolerance = decimal.RequireFromString("0.01")

var tracer = otel.Tracer("github.com/jhoicas/Ventas-api/internal/application/payment")

// Ledger registra pagos contra facturas y mantiene balance y estado.
type Ledger struct {
	uow repository.UnitOfWork
	log *logger.Logger
	now func() time.Time
}

// NewLedger construye el ledger de pagos.
func NewLedger(uow repository.UnitOfWork, log *logger.Logger) *Ledger {
	if log == nil {
		log = logger.Nop()
	}
	return &Ledger{uow: uow, log: log, now: time.Now}
}

// AddPayment aplica un pago en una sola transacción con la factura bloqueada.
// Un pago rechazado no deja rastro.
func (l *Ledger) AddPayment(ctx context.Context, companyID, userID, invoiceID string, in dto.AddPaymentRequest) (*dto.AddPaymentResponse, error) {
	ctx, span := tracer.Start(ctx, "payment.AddPayment")
	defer span.End()
	span.SetAttributes(attribute.String("invoice.id", invoiceID))

	if !in.Amount.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidAmount
	}
	if !in.Amount.Equal(in.Amount.Round(2)) {
		return nil, fmt.Errorf("%w: máximo 2 decimales", domain.ErrInvalidAmount)
	}
	if !entity.IsValidPaymentMethod(in.Method) {
		return nil, fmt.Errorf("%w: método de pago %q", domain.ErrInvalidInput, in.Method)
	}
	now := l.now()
	paymentDate := now
	if in.PaymentDate != "" {
		d, err := time.Parse("2006-01-02", in.PaymentDate)
		if err != nil {
			return nil, fmt.Errorf("%w: payment_date", domain.ErrInvalidInput)
		}
		paymentDate = d
	}

	var (
		p   *entity.Payment
		inv *entity.Invoice
	)
	err := l.uow.Run(ctx, func(ctx context.Context, tx repository.Repos) error {
		var err error
		inv, err = tx.Invoices.GetForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}
		if inv == nil {
			return domain.ErrNotFound
		}
		if inv.CompanyID != companyID {
			return domain.ErrForbidden
		}
		// la tolerancia solo absorbe el redondeo del último pago; una factura saldada no admite más
		if !inv.BalanceDue.IsPositive() {
			return fmt.Errorf("%w: la factura ya está pagada", domain.ErrOverpaymentRejected)
		}
		if in.Amount.GreaterThan(inv.BalanceDue.Add(Tolerance)) {
			return fmt.Errorf("%w: pendiente %s, pago %s",
				domain.ErrOverpaymentRejected, inv.BalanceDue.StringFixed(2), in.Amount.StringFixed(2))
		}

		p = &entity.Payment{
			ID:            uuid.New().String(),
			InvoiceID:     inv.ID,
			Amount:        in.Amount,
			PaymentDate:   paymentDate,
			Method:        in.Method,
			Note:          in.Note,
			ImageURL:      in.ImageURL,
			ReceiptNumber: ReceiptNumber(inv.InvoiceNumber, len(inv.Payments)+1),
			Status:        entity.PaymentStatusApplied,
			CreatedAt:     now,
			CreatedBy:     userID,
		}
		if err := tx.Invoices.CreatePayment(ctx, p); err != nil {
			return err
		}

		inv.Payments = append(inv.Payments, *p)
		inv.RecomputeBalance()
		inv.UpdatedAt = now
		if err := tx.Invoices.UpdateBalance(ctx, inv); err != nil {
			return err
		}

		payload := events.NewInvoicePayload(inv, now)
		payload.PaymentID = p.ID
		payload.Amount = p.Amount.StringFixed(2)
		return events.Enqueue(ctx, tx, companyID, inv.ID, events.InvoicePaymentApplied, payload)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	l.log.Ctx(ctx).Info().
		Str("invoice_id", inv.ID).
		Str("receipt", p.ReceiptNumber).
		Str("amount", p.Amount.StringFixed(2)).
		Str("status", inv.Status).
		Msg("pago aplicado")

	return &dto.AddPaymentResponse{
		Payment:    ToPaymentResponse(*p),
		BalanceDue: inv.BalanceDue,
		Status:     inv.DisplayStatus(now),
	}, nil
}

// ListPayments devuelve los pagos de una factura de la empresa.
func (l *Ledger) ListPayments(ctx context.Context, reader repository.Repos, companyID, invoiceID string) ([]dto.PaymentResponse, error) {
	inv, err := reader.Invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	if inv.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	out := make([]dto.PaymentResponse, 0, len(inv.Payments))
	for _, p := range inv.Payments {
		out = append(out, ToPaymentResponse(p))
	}
	return out, nil
}

// ReceiptNumber número de recibo consecutivo por factura: <factura>-R<nn>.
func ReceiptNumber(invoiceNumber string, seq int) string {
	return fmt.Sprintf("%s-R%02d", invoiceNumber, seq)
}

// ToPaymentResponse mapea un pago a su DTO.
func ToPaymentResponse(p entity.Payment) dto.PaymentResponse {
	return dto.PaymentResponse{
		ID:            p.ID,
		InvoiceID:     p.InvoiceID,
		Amount:        p.Amount,
		PaymentDate:   p.PaymentDate.Format("2006-01-02"),
		Method:        p.Method,
		Note:          p.Note,
		ImageURL:      p.ImageURL,
		ReceiptNumber: p.ReceiptNumber,
		Status:        p.Status,
	}
}
