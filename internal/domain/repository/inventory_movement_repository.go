package repository

import (
	"context"

	"github.com/jhoicas/Ventas-api/internal/domain/entity"
)

// InventoryMovementRepository define el puerto de persistencia para movimientos de inventario.
type InventoryMovementRepository interface {
	Create(ctx context.Context, movement *entity.InventoryMovement) error
	// ListByTransaction devuelve los movimientos de un producto dentro de una factura, en orden de creación.
	ListByTransaction(ctx context.Context, transactionID, productID string) ([]*entity.InventoryMovement, error)
}
