package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jhoicas/Ventas-api/internal/domain/entity"
)

// invoice_items y quote_items comparten columnas; owner es invoice_id o quote_id.

func insertLineItems(ctx context.Context, q Querier, table, owner, ownerID string, items []entity.LineItem) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, %s, position, product_id, product_name, product_type, quantity,
		                unit_price, discount, final_price, unit_cost, is_tax_exempt, number_of_people)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`, table, owner)
	for i := range items {
		it := &items[i]
		if it.ID == "" {
			it.ID = uuid.New().String()
		}
		_, err := q.Exec(ctx, query,
			it.ID, ownerID, i+1, it.ProductID, it.ProductName, it.ProductType, it.Quantity,
			it.UnitPrice, it.Discount, it.FinalPrice, it.UnitCost, it.IsTaxExempt, it.NumberOfPeople,
		)
		if err != nil {
			return fmt.Errorf("insert %s: %w", table, err)
		}
	}
	return nil
}

func listLineItems(ctx context.Context, q Querier, table, owner, ownerID string) ([]entity.LineItem, error) {
	query := fmt.Sprintf(`
		SELECT id, product_id, product_name, product_type, quantity, unit_price, discount,
		       final_price, unit_cost, is_tax_exempt, number_of_people
		FROM %s WHERE %s = $1 ORDER BY position`, table, owner)
	rows, err := q.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	defer rows.Close()
	var items []entity.LineItem
	for rows.Next() {
		var it entity.LineItem
		if err := rows.Scan(
			&it.ID, &it.ProductID, &it.ProductName, &it.ProductType, &it.Quantity, &it.UnitPrice, &it.Discount,
			&it.FinalPrice, &it.UnitCost, &it.IsTaxExempt, &it.NumberOfPeople,
		); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
