package billing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/jhoicas/Ventas-api/internal/application/dto"
	"github.com/jhoicas/Ventas-api/internal/application/events"
	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
)

// QuoteConvertedPayload cuerpo del evento quote.converted.
type QuoteConvertedPayload struct {
	QuoteID       string `json:"quote_id"`
	QuoteNumber   string `json:"quote_number"`
	InvoiceID     string `json:"invoice_id"`
	InvoiceNumber string `json:"invoice_number"`
	NCF           string `json:"ncf,omitempty"`
}

// ConvertQuoteToInvoice factura una cotización con sus líneas congeladas.
// La cotización queda facturada en la misma unidad de trabajo; una segunda conversión falla.
func (uc *InvoiceUseCase) ConvertQuoteToInvoice(ctx context.Context, companyID, userID, quoteID string) (*dto.InvoiceResponse, error) {
	ctx, span := tracer.Start(ctx, "billing.ConvertQuoteToInvoice")
	defer span.End()
	span.SetAttributes(attribute.String("quote.id", quoteID))

	ncfType := uc.ncfTypeFor("")
	if ncfType != "" {
		release := uc.allocator.Lock(ctx, companyID, ncfType)
		defer release()
	}

	var inv *entity.Invoice
	err := uc.uow.Run(ctx, func(ctx context.Context, tx repository.Repos) error {
		q, err := tx.Quotes.GetForUpdate(ctx, quoteID)
		if err != nil {
			return err
		}
		if q == nil {
			return domain.ErrNotFound
		}
		if q.CompanyID != companyID || q.UserID != userID {
			return fmt.Errorf("%w: solo el autor puede convertir la cotización", domain.ErrForbidden)
		}
		switch q.Status {
		case entity.QuoteStatusInvoiced:
			return fmt.Errorf("%w: la cotización ya fue facturada", domain.ErrFailedPrecondition)
		case entity.QuoteStatusRejected:
			return fmt.Errorf("%w: la cotización fue rechazada", domain.ErrFailedPrecondition)
		}
		if len(q.Items) == 0 {
			return fmt.Errorf("%w: la cotización no tiene líneas", domain.ErrInvalidInput)
		}

		issue := truncateDay(uc.now())
		inv, err = uc.createInTx(ctx, tx, invoiceDraft{
			companyID:    companyID,
			userID:       userID,
			clientID:     q.ClientID,
			client:       q.Client,
			currency:     q.Currency,
			includeITBIS: q.IncludeITBIS,
			items:        q.Items,
			issueDate:    issue,
			dueDate:      issue.AddDate(0, 0, uc.cfg.PaymentTermDays),
			ncfType:      ncfType,
			quoteID:      q.ID,
		})
		if err != nil {
			return err
		}

		q.Status = entity.QuoteStatusInvoiced
		q.ConvertedInvoiceID = inv.ID
		q.UpdatedAt = uc.now()
		if err := tx.Quotes.Update(ctx, q); err != nil {
			return err
		}
		return events.Enqueue(ctx, tx, companyID, q.ID, events.QuoteConverted, QuoteConvertedPayload{
			QuoteID:       q.ID,
			QuoteNumber:   q.QuoteNumber,
			InvoiceID:     inv.ID,
			InvoiceNumber: inv.InvoiceNumber,
			NCF:           inv.NCFNumber,
		})
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	uc.log.Ctx(ctx).Info().
		Str("company_id", companyID).
		Str("quote_id", quoteID).
		Str("invoice_id", inv.ID).
		Str("invoice_number", inv.InvoiceNumber).
		Msg("cotización facturada")
	return toInvoiceResponse(inv, uc.now()), nil
}
