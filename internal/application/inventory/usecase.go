package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/inventory"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
	"github.com/jhoicas/Ventas-api/pkg/logger"
)

// Ledger descuenta y devuelve stock por lote. Solo opera dentro de una unidad de trabajo:
// recibe los repos atados a la transacción del caller y nunca hace commit por su cuenta.
type Ledger struct {
	log *logger.Logger
}

// NewLedger construye el ledger de inventario.
func NewLedger(log *logger.Logger) *Ledger {
	if log == nil {
		log = logger.Nop()
	}
	return &Ledger{log: log}
}

// ReserveInput salida de inventario asociada a una factura.
type ReserveInput struct {
	CompanyID     string
	TransactionID string // ID de la factura
	ProductID     string
	UserID        string
	Quantity      int64
}

// Reservation resultado de una salida.
type Reservation struct {
	Product  *entity.Product
	UnitCost decimal.Decimal // costo promedio de los lotes consumidos
	Taken    int64
}

// Reserve bloquea el producto y consume sus lotes en el orden guardado.
// Servicios: no-op. Bienes sin stock suficiente y sin AllowNegativeStock: ErrInsufficientStock.
// Con AllowNegativeStock el último lote absorbe el faltante y queda negativo.
func (l *Ledger) Reserve(ctx context.Context, tx repository.Repos, in ReserveInput) (*Reservation, error) {
	if in.Quantity <= 0 {
		return nil, fmt.Errorf("%w: cantidad debe ser mayor que cero", domain.ErrInvalidInput)
	}
	product, err := tx.Products.GetForUpdate(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("producto %s: %w", in.ProductID, domain.ErrNotFound)
	}
	if product.CompanyID != in.CompanyID {
		return nil, fmt.Errorf("producto %s: %w", in.ProductID, domain.ErrForbidden)
	}
	if !product.IsGood() {
		return &Reservation{Product: product, UnitCost: product.Cost}, nil
	}

	available := product.Stock()
	if len(product.Batches) == 0 || (available < in.Quantity && !product.AllowNegativeStock) {
		return nil, fmt.Errorf("%w: %s disponible %d, solicitado %d",
			domain.ErrInsufficientStock, product.Name, available, in.Quantity)
	}

	now := time.Now()
	remaining := in.Quantity
	parts := make([]inventory.Consumption, 0, len(product.Batches))
	last := len(product.Batches) - 1
	for i := range product.Batches {
		if remaining == 0 {
			break
		}
		b := &product.Batches[i]
		take := min(max(b.Stock, 0), remaining)
		if i == last {
			take = remaining
		}
		if take <= 0 {
			continue
		}
		b.Stock -= take
		if err := tx.Products.UpdateBatchStock(ctx, b.ID, b.Stock); err != nil {
			return nil, err
		}
		cost := b.Cost
		if cost.IsZero() {
			cost = product.Cost
		}
		mov := &entity.InventoryMovement{
			TransactionID: in.TransactionID,
			CompanyID:     in.CompanyID,
			ProductID:     product.ID,
			BatchID:       b.ID,
			Type:          entity.MovementTypeOUT,
			Quantity:      -take,
			UnitCost:      cost,
			CreatedAt:     now,
			CreatedBy:     in.UserID,
		}
		if err := tx.Movements.Create(ctx, mov); err != nil {
			return nil, err
		}
		parts = append(parts, inventory.Consumption{Quantity: take, UnitCost: cost})
		remaining -= take
	}

	return &Reservation{
		Product:  product,
		UnitCost: inventory.WeightedCost(parts, product.Cost),
		Taken:    in.Quantity - remaining,
	}, nil
}

// RestoreInput devolución de inventario al eliminar una factura.
type RestoreInput struct {
	CompanyID     string
	TransactionID string
	ProductID     string
	UserID        string
	Quantity      int64
}

// Restore devuelve a cada lote exactamente lo que la factura le tomó, sin superar Quantity.
// Si el producto ya no existe devuelve ErrProductGone para que el caller lo registre y continúe.
// Lotes eliminados y faltantes sin movimientos se registran en el log, nunca se inventa stock.
func (l *Ledger) Restore(ctx context.Context, tx repository.Repos, in RestoreInput) (int64, error) {
	product, err := tx.Products.GetForUpdate(ctx, in.ProductID)
	if err != nil {
		return 0, err
	}
	if product == nil {
		return 0, fmt.Errorf("producto %s: %w", in.ProductID, domain.ErrProductGone)
	}
	if !product.IsGood() || in.Quantity <= 0 {
		return 0, nil
	}

	movements, err := tx.Movements.ListByTransaction(ctx, in.TransactionID, in.ProductID)
	if err != nil {
		return 0, err
	}
	// pendiente por lote = lo tomado menos lo ya devuelto, en orden de primera salida
	outstanding := make(map[string]int64)
	var order []string
	for _, m := range movements {
		if _, seen := outstanding[m.BatchID]; !seen {
			order = append(order, m.BatchID)
		}
		outstanding[m.BatchID] -= m.Quantity
	}

	batches := make(map[string]*entity.Batch, len(product.Batches))
	for i := range product.Batches {
		batches[product.Batches[i].ID] = &product.Batches[i]
	}

	now := time.Now()
	remaining := in.Quantity
	var restored int64
	for _, batchID := range order {
		if remaining == 0 {
			break
		}
		q := min(outstanding[batchID], remaining)
		if q <= 0 {
			continue
		}
		remaining -= q
		b, ok := batches[batchID]
		if !ok {
			l.log.Warn().
				Str("invoice_id", in.TransactionID).
				Str("product_id", in.ProductID).
				Str("batch_id", batchID).
				Int64("quantity", q).
				Msg("lote eliminado, no se devuelve stock")
			continue
		}
		b.Stock += q
		if err := tx.Products.UpdateBatchStock(ctx, b.ID, b.Stock); err != nil {
			return restored, err
		}
		mov := &entity.InventoryMovement{
			TransactionID: in.TransactionID,
			CompanyID:     in.CompanyID,
			ProductID:     in.ProductID,
			BatchID:       b.ID,
			Type:          entity.MovementTypeRETURN,
			Quantity:      q,
			UnitCost:      b.Cost,
			CreatedAt:     now,
			CreatedBy:     in.UserID,
		}
		if err := tx.Movements.Create(ctx, mov); err != nil {
			return restored, err
		}
		restored += q
	}
	if remaining > 0 {
		l.log.Warn().
			Str("invoice_id", in.TransactionID).
			Str("product_id", in.ProductID).
			Int64("missing", remaining).
			Msg("la factura no tiene movimientos suficientes para devolver todo el stock")
	}
	return restored, nil
}
