package inventory_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Ventas-api/internal/application/inventory"
	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
	"github.com/jhoicas/Ventas-api/internal/infrastructure/memory"
)

const companyID = "company-1"

func seedProduct(t *testing.T, store *memory.Store, allowNegative bool, stocks ...int64) *entity.Product {
	t.Helper()
	p := &entity.Product{
		CompanyID:          companyID,
		Code:               "P1",
		Name:               "Producto",
		ProductType:        entity.ProductTypeGood,
		Cost:               decimal.NewFromInt(5),
		AllowNegativeStock: allowNegative,
		IsActive:           true,
	}
	for i, s := range stocks {
		p.Batches = append(p.Batches, entity.Batch{Stock: s, Cost: decimal.NewFromInt(int64(10 * (i + 1)))})
	}
	require.NoError(t, store.Repos().Products.Create(context.Background(), p))
	return p
}

func reserve(store *memory.Store, l *inventory.Ledger, in inventory.ReserveInput) (*inventory.Reservation, error) {
	var out *inventory.Reservation
	err := store.Run(context.Background(), func(ctx context.Context, tx repository.Repos) error {
		var err error
		out, err = l.Reserve(ctx, tx, in)
		return err
	})
	return out, err
}

func restore(store *memory.Store, l *inventory.Ledger, in inventory.RestoreInput) (int64, error) {
	var n int64
	err := store.Run(context.Background(), func(ctx context.Context, tx repository.Repos) error {
		var err error
		n, err = l.Restore(ctx, tx, in)
		return err
	})
	return n, err
}

func batches(t *testing.T, store *memory.Store, id string) []int64 {
	t.Helper()
	p, err := store.Repos().Products.GetByID(context.Background(), id)
	require.NoError(t, err)
	out := make([]int64, len(p.Batches))
	for i, b := range p.Batches {
		out[i] = b.Stock
	}
	return out
}

func TestReserve_ConsumeLotesEnOrden(t *testing.T) {
	store := memory.NewStore()
	p := seedProduct(t, store, false, 2, 4)
	l := inventory.NewLedger(nil)

	res, err := reserve(store, l, inventory.ReserveInput{CompanyID: companyID, TransactionID: "inv-1", ProductID: p.ID, Quantity: 3})

	require.NoError(t, err)
	assert.Equal(t, []int64{0, 3}, batches(t, store, p.ID))
	assert.Equal(t, int64(3), res.Taken)
	// (2*10 + 1*20) / 3
	assert.Equal(t, "13.3333", res.UnitCost.String())
	assert.Len(t, store.Movements(), 2)
}

func TestReserve_StockInsuficiente(t *testing.T) {
	store := memory.NewStore()
	p := seedProduct(t, store, false, 1, 1)
	l := inventory.NewLedger(nil)

	_, err := reserve(store, l, inventory.ReserveInput{CompanyID: companyID, TransactionID: "inv-1", ProductID: p.ID, Quantity: 3})

	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, []int64{1, 1}, batches(t, store, p.ID))
	assert.Empty(t, store.Movements())
}

// Con stock negativo permitido el último lote absorbe el faltante.
func TestReserve_NegativoPermitidoUltimoLote(t *testing.T) {
	store := memory.NewStore()
	p := seedProduct(t, store, true, 1, 1)
	l := inventory.NewLedger(nil)

	_, err := reserve(store, l, inventory.ReserveInput{CompanyID: companyID, TransactionID: "inv-1", ProductID: p.ID, Quantity: 5})

	require.NoError(t, err)
	assert.Equal(t, []int64{0, -3}, batches(t, store, p.ID))
}

func TestReserve_BienSinLotesNuncaSeReserva(t *testing.T) {
	store := memory.NewStore()
	p := seedProduct(t, store, true)
	l := inventory.NewLedger(nil)

	_, err := reserve(store, l, inventory.ReserveInput{CompanyID: companyID, TransactionID: "inv-1", ProductID: p.ID, Quantity: 1})

	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
}

func TestRestore_DevuelveALosMismosLotes(t *testing.T) {
	store := memory.NewStore()
	p := seedProduct(t, store, false, 2, 4)
	l := inventory.NewLedger(nil)
	_, err := reserve(store, l, inventory.ReserveInput{CompanyID: companyID, TransactionID: "inv-1", ProductID: p.ID, Quantity: 3})
	require.NoError(t, err)

	n, err := restore(store, l, inventory.RestoreInput{CompanyID: companyID, TransactionID: "inv-1", ProductID: p.ID, Quantity: 3})

	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.Equal(t, []int64{2, 4}, batches(t, store, p.ID))
}

// Un lote borrado después de la venta no recibe stock y no falla la devolución.
func TestRestore_LoteEliminadoSeOmite(t *testing.T) {
	store := memory.NewStore()
	p := seedProduct(t, store, false, 2, 4)
	l := inventory.NewLedger(nil)
	_, err := reserve(store, l, inventory.ReserveInput{CompanyID: companyID, TransactionID: "inv-1", ProductID: p.ID, Quantity: 3})
	require.NoError(t, err)
	store.DeleteBatch(p.Batches[0].ID)

	n, err := restore(store, l, inventory.RestoreInput{CompanyID: companyID, TransactionID: "inv-1", ProductID: p.ID, Quantity: 3})

	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, []int64{4}, batches(t, store, p.ID))
}

func TestRestore_ProductoEliminado(t *testing.T) {
	store := memory.NewStore()
	l := inventory.NewLedger(nil)

	_, err := restore(store, l, inventory.RestoreInput{CompanyID: companyID, TransactionID: "inv-1", ProductID: "borrado", Quantity: 1})

	assert.ErrorIs(t, err, domain.ErrProductGone)
}

// Sin movimientos previos (factura antigua) no se inventa stock.
func TestRestore_SinMovimientosNoInventaStock(t *testing.T) {
	store := memory.NewStore()
	p := seedProduct(t, store, false, 2)
	l := inventory.NewLedger(nil)

	n, err := restore(store, l, inventory.RestoreInput{CompanyID: companyID, TransactionID: "legacy", ProductID: p.ID, Quantity: 2})

	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, []int64{2}, batches(t, store, p.ID))
}
