package billing

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/jhoicas/Ventas-api/internal/application/events"
	"github.com/jhoicas/Ventas-api/internal/application/inventory"
	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
)

// DeleteInvoice elimina una factura sin pagos y devuelve su stock, todo en una unidad de trabajo.
// Solo el usuario que la emitió puede eliminarla. El NCF asignado queda anulado (hueco en la secuencia)
// y viaja en el evento invoice.deleted.
func (uc *InvoiceUseCase) DeleteInvoice(ctx context.Context, companyID, userID, invoiceID string) error {
	ctx, span := tracer.Start(ctx, "billing.DeleteInvoice")
	defer span.End()
	span.SetAttributes(attribute.String("invoice.id", invoiceID))

	var deleted *entity.Invoice
	err := uc.uow.Run(ctx, func(ctx context.Context, tx repository.Repos) error {
		inv, err := tx.Invoices.GetForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}
		if inv == nil {
			return domain.ErrNotFound
		}
		if inv.CompanyID != companyID || inv.UserID != userID {
			return fmt.Errorf("%w: solo el emisor puede eliminar la factura", domain.ErrForbidden)
		}
		if inv.HasPayments() {
			return fmt.Errorf("%w: la factura tiene pagos registrados", domain.ErrFailedPrecondition)
		}

		for _, item := range inv.Items {
			if !item.IsGood() {
				continue
			}
			_, err := uc.stock.Restore(ctx, tx, inventory.RestoreInput{
				CompanyID:     companyID,
				TransactionID: inv.ID,
				ProductID:     item.ProductID,
				UserID:        userID,
				Quantity:      item.Quantity,
			})
			if errors.Is(err, domain.ErrProductGone) {
				uc.log.Warn().
					Str("invoice_id", inv.ID).
					Str("product_id", item.ProductID).
					Int64("quantity", item.Quantity).
					Msg("producto eliminado, se omite la devolución de stock")
				continue
			}
			if err != nil {
				return err
			}
		}

		if err := tx.Invoices.Delete(ctx, inv.ID); err != nil {
			return err
		}
		deleted = inv
		return events.Enqueue(ctx, tx, companyID, inv.ID, events.InvoiceDeleted, events.NewInvoicePayload(inv, uc.now()))
	})
	if err != nil {
		span.RecordError(err)
		return err
	}

	ev := uc.log.Ctx(ctx).Info().
		Str("company_id", companyID).
		Str("invoice_id", deleted.ID).
		Str("invoice_number", deleted.InvoiceNumber)
	if deleted.NCFNumber != "" {
		ev = ev.Str("ncf_anulado", deleted.NCFNumber)
	}
	ev.Msg("factura eliminada")
	return nil
}
