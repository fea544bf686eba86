package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
)

var _ repository.InventoryMovementRepository = (*InventoryMovementRepo)(nil)

// InventoryMovementRepo implementación sobre PostgreSQL (usable con pool o tx).
type InventoryMovementRepo struct {
	q Querier
}

// NewInventoryMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInventoryMovementRepository(q Querier) *InventoryMovementRepo {
	return &InventoryMovementRepo{q: q}
}

// Create persiste un movimiento de inventario.
func (r *InventoryMovementRepo) Create(ctx context.Context, m *entity.InventoryMovement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	query := `
		INSERT INTO inventory_movements (id, transaction_id, company_id, product_id, batch_id, type, quantity, unit_cost, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.TransactionID, m.CompanyID, m.ProductID, m.BatchID,
		m.Type, m.Quantity, m.UnitCost, m.CreatedAt, nullIfEmpty(m.CreatedBy),
	)
	if err != nil {
		return fmt.Errorf("create inventory movement: %w", err)
	}
	return nil
}

// ListByTransaction movimientos de una factura para un producto, en orden de creación.
func (r *InventoryMovementRepo) ListByTransaction(ctx context.Context, transactionID, productID string) ([]*entity.InventoryMovement, error) {
	query := `
		SELECT id, transaction_id, company_id, product_id, batch_id, type, quantity, unit_cost, created_at, created_by
		FROM inventory_movements
		WHERE transaction_id = $1 AND product_id = $2
		ORDER BY created_at, id`
	rows, err := r.q.Query(ctx, query, transactionID, productID)
	if err != nil {
		return nil, fmt.Errorf("list inventory movements: %w", err)
	}
	defer rows.Close()
	var list []*entity.InventoryMovement
	for rows.Next() {
		var m entity.InventoryMovement
		var createdBy *string
		if err := rows.Scan(
			&m.ID, &m.TransactionID, &m.CompanyID, &m.ProductID, &m.BatchID,
			&m.Type, &m.Quantity, &m.UnitCost, &m.CreatedAt, &createdBy,
		); err != nil {
			return nil, fmt.Errorf("scan inventory movement: %w", err)
		}
		m.CreatedBy = derefStr(createdBy)
		list = append(list, &m)
	}
	return list, rows.Err()
}
