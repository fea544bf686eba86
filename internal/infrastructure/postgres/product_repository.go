package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
// El stock vive solo en product_batches.
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

const productColumns = `id, company_id, code, name, product_type, currency, price, cost,
	is_tax_exempt, allow_negative_stock, is_active, created_at, updated_at`

// Create persiste el producto y sus lotes.
func (r *ProductRepo) Create(ctx context.Context, p *entity.Product) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now(), now())`
	_, err := r.q.Exec(ctx, query,
		p.ID, p.CompanyID, p.Code, p.Name, p.ProductType, p.Currency, p.Price, p.Cost,
		p.IsTaxExempt, p.AllowNegativeStock, p.IsActive,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert product: %w", err)
	}
	for i := range p.Batches {
		b := &p.Batches[i]
		if b.ID == "" {
			b.ID = uuid.New().String()
		}
		b.ProductID = p.ID
		if b.Position == 0 {
			b.Position = i + 1
		}
		_, err := r.q.Exec(ctx, `
			INSERT INTO product_batches (id, product_id, position, cost, price, stock, expiration_date)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			b.ID, b.ProductID, b.Position, b.Cost, b.Price, b.Stock, b.ExpirationDate,
		)
		if err != nil {
			return fmt.Errorf("insert product batch: %w", err)
		}
	}
	return nil
}

// GetByID obtiene un producto con sus lotes en orden de consumo.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	return r.get(ctx, id, "")
}

// GetForUpdate bloquea el producto y sus lotes hasta el fin de la transacción.
func (r *ProductRepo) GetForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	return r.get(ctx, id, " FOR UPDATE")
}

func (r *ProductRepo) get(ctx context.Context, id, lock string) (*entity.Product, error) {
	var p entity.Product
	err := r.q.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`+lock, id).Scan(
		&p.ID, &p.CompanyID, &p.Code, &p.Name, &p.ProductType, &p.Currency, &p.Price, &p.Cost,
		&p.IsTaxExempt, &p.AllowNegativeStock, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	rows, err := r.q.Query(ctx, `
		SELECT id, product_id, position, cost, price, stock, expiration_date
		FROM product_batches WHERE product_id = $1
		ORDER BY position, id`+lock, id)
	if err != nil {
		return nil, fmt.Errorf("list product batches: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var b entity.Batch
		if err := rows.Scan(&b.ID, &b.ProductID, &b.Position, &b.Cost, &b.Price, &b.Stock, &b.ExpirationDate); err != nil {
			return nil, fmt.Errorf("scan product batch: %w", err)
		}
		p.Batches = append(p.Batches, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list product batches: %w", err)
	}
	return &p, nil
}

// UpdateBatchStock fija la existencia de un lote.
func (r *ProductRepo) UpdateBatchStock(ctx context.Context, batchID string, stock int64) error {
	tag, err := r.q.Exec(ctx, `UPDATE product_batches SET stock = $2 WHERE id = $1`, batchID, stock)
	if err != nil {
		return fmt.Errorf("update batch stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("lote %s: %w", batchID, domain.ErrNotFound)
	}
	return nil
}
