package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/Ventas-api/internal/domain/repository"
)

var _ repository.CounterRepository = (*CounterRepo)(nil)

// CounterRepo consecutivos de documentos por empresa. El upsert bloquea la fila hasta el fin de la tx,
// así que dos facturas concurrentes nunca obtienen el mismo número.
type CounterRepo struct {
	q Querier
}

func NewCounterRepository(q Querier) *CounterRepo {
	return &CounterRepo{q: q}
}

func (r *CounterRepo) Next(ctx context.Context, companyID, kind string) (int64, error) {
	const q = `
		INSERT INTO document_counters (company_id, kind, last_value)
		VALUES ($1, $2, 1)
		ON CONFLICT (company_id, kind) DO UPDATE SET last_value = document_counters.last_value + 1
		RETURNING last_value`
	var n int64
	if err := r.q.QueryRow(ctx, q, companyID, kind).Scan(&n); err != nil {
		return 0, fmt.Errorf("next %s counter: %w", kind, err)
	}
	return n, nil
}
