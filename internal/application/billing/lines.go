package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/Ventas-api/internal/application/dto"
	"github.com/jhoicas/Ventas-api/internal/application/payment"
	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/money"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
)

const dateLayout = "2006-01-02"

// resolveClient valida que el cliente exista y sea de la empresa.
func resolveClient(ctx context.Context, reader repository.Repos, companyID, clientID string) (*entity.Client, error) {
	if clientID == "" {
		return nil, fmt.Errorf("%w: client_id requerido", domain.ErrInvalidInput)
	}
	client, err := reader.Clients.GetByID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if client == nil || client.CompanyID != companyID {
		return nil, fmt.Errorf("%w: cliente %s no encontrado", domain.ErrInvalidInput, clientID)
	}
	return client, nil
}

// resolveLines valida las líneas (fuera de la tx, solo lectura) y congela precio y datos del producto.
// El costo definitivo de los bienes lo fija la reserva de inventario.
func resolveLines(ctx context.Context, reader repository.Repos, companyID, currency string, items []dto.LineItemRequest) ([]entity.LineItem, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: la factura requiere al menos una línea", domain.ErrInvalidInput)
	}
	lines := make([]entity.LineItem, 0, len(items))
	for i, item := range items {
		if item.ProductID == "" || item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: línea %d: producto y cantidad > 0 requeridos", domain.ErrInvalidInput, i+1)
		}
		if err := money.ValidateDiscount(item.Discount); err != nil {
			return nil, fmt.Errorf("%w: línea %d: %s", domain.ErrInvalidInput, i+1, err.Error())
		}
		if item.UnitPrice != nil && item.UnitPrice.IsNegative() {
			return nil, fmt.Errorf("%w: línea %d: precio negativo", domain.ErrInvalidInput, i+1)
		}
		product, err := reader.Products.GetByID(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil || product.CompanyID != companyID || !product.IsActive {
			return nil, fmt.Errorf("%w: línea %d: producto %s no disponible", domain.ErrInvalidInput, i+1, item.ProductID)
		}
		if product.Currency != "" && product.Currency != currency {
			return nil, fmt.Errorf("%w: línea %d: el producto se vende en %s", domain.ErrInvalidInput, i+1, product.Currency)
		}
		unitPrice := product.Price
		if item.UnitPrice != nil {
			unitPrice = *item.UnitPrice
		}
		lines = append(lines, entity.LineItem{
			ProductID:      product.ID,
			ProductName:    product.Name,
			ProductType:    product.ProductType,
			Quantity:       item.Quantity,
			UnitPrice:      unitPrice,
			Discount:       item.Discount,
			FinalPrice:     money.FinalPrice(unitPrice, item.Discount),
			UnitCost:       product.Cost,
			IsTaxExempt:    product.IsTaxExempt,
			NumberOfPeople: item.NumberOfPeople,
		})
	}
	return lines, nil
}

func moneyLines(items []entity.LineItem) []money.Line {
	out := make([]money.Line, len(items))
	for i, it := range items {
		out[i] = money.Line{UnitPrice: it.UnitPrice, Quantity: it.Quantity, Discount: it.Discount, IsTaxExempt: it.IsTaxExempt}
	}
	return out
}

func parseDate(value, field string, def time.Time) (time.Time, error) {
	if value == "" {
		return def, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s con formato AAAA-MM-DD", domain.ErrInvalidInput, field)
	}
	return t, nil
}

// ── mapeo a DTO ──────────────────────────────────────────────────────────────

func toLineResponses(items []entity.LineItem) []dto.LineItemResponse {
	out := make([]dto.LineItemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, dto.LineItemResponse{
			ProductID:      it.ProductID,
			ProductName:    it.ProductName,
			ProductType:    it.ProductType,
			Quantity:       it.Quantity,
			UnitPrice:      it.UnitPrice,
			Discount:       it.Discount,
			FinalPrice:     it.FinalPrice,
			UnitCost:       it.UnitCost,
			IsTaxExempt:    it.IsTaxExempt,
			NumberOfPeople: it.NumberOfPeople,
		})
	}
	return out
}

func toClientResponse(c entity.ClientSnapshot) dto.ClientSnapshotResponse {
	return dto.ClientSnapshotResponse{Name: c.Name, TaxID: c.TaxID, Email: c.Email, Address: c.Address}
}

func toInvoiceResponse(inv *entity.Invoice, now time.Time) *dto.InvoiceResponse {
	resp := &dto.InvoiceResponse{
		ID:            inv.ID,
		CompanyID:     inv.CompanyID,
		UserID:        inv.UserID,
		ClientID:      inv.ClientID,
		Client:        toClientResponse(inv.Client),
		InvoiceNumber: inv.InvoiceNumber,
		NCFType:       inv.NCFType,
		NCF:           inv.NCFNumber,
		Currency:      inv.Currency,
		IncludeITBIS:  inv.IncludeITBIS,
		Items:         toLineResponses(inv.Items),
		Subtotal:      inv.Subtotal,
		DiscountTotal: inv.DiscountTotal,
		ITBIS:         inv.ITBIS,
		Total:         inv.Total,
		BalanceDue:    inv.BalanceDue,
		Status:        inv.DisplayStatus(now),
		Payments:      make([]dto.PaymentResponse, 0, len(inv.Payments)),
		QuoteID:       inv.QuoteID,
		IssueDate:     inv.IssueDate.Format(dateLayout),
		DueDate:       inv.DueDate.Format(dateLayout),
	}
	for _, p := range inv.Payments {
		resp.Payments = append(resp.Payments, payment.ToPaymentResponse(p))
	}
	return resp
}

func toQuoteResponse(q *entity.Quote, now time.Time) *dto.QuoteResponse {
	return &dto.QuoteResponse{
		ID:                 q.ID,
		CompanyID:          q.CompanyID,
		UserID:             q.UserID,
		ClientID:           q.ClientID,
		Client:             toClientResponse(q.Client),
		QuoteNumber:        q.QuoteNumber,
		Currency:           q.Currency,
		IncludeITBIS:       q.IncludeITBIS,
		Items:              toLineResponses(q.Items),
		Subtotal:           q.Subtotal,
		DiscountTotal:      q.DiscountTotal,
		ITBIS:              q.ITBIS,
		Total:              q.Total,
		Status:             q.DisplayStatus(now),
		ValidUntil:         q.ValidUntil.Format(dateLayout),
		Notes:              q.Notes,
		ConvertedInvoiceID: q.ConvertedInvoiceID,
	}
}
