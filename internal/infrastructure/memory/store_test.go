package memory_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/infrastructure/memory"
)

func TestCreatePayment_ReciboUnicoPorFactura(t *testing.T) {
	store := memory.NewStore()
	repos := store.Repos()
	ctx := context.Background()

	a := &entity.Invoice{CompanyID: "c1", InvoiceNumber: "FAC-000001", Total: decimal.NewFromInt(10), BalanceDue: decimal.NewFromInt(10)}
	b := &entity.Invoice{CompanyID: "c2", InvoiceNumber: "FAC-000001", Total: decimal.NewFromInt(10), BalanceDue: decimal.NewFromInt(10)}
	require.NoError(t, repos.Invoices.Create(ctx, a))
	require.NoError(t, repos.Invoices.Create(ctx, b))

	receipt := func(invoiceID string) *entity.Payment {
		return &entity.Payment{InvoiceID: invoiceID, Amount: decimal.NewFromInt(1), ReceiptNumber: "FAC-000001-R01"}
	}
	require.NoError(t, repos.Invoices.CreatePayment(ctx, receipt(a.ID)))
	require.NoError(t, repos.Invoices.CreatePayment(ctx, receipt(b.ID)), "otra factura puede repetir el recibo")

	err := repos.Invoices.CreatePayment(ctx, receipt(a.ID))
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}
