package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
	"github.com/jhoicas/Ventas-api/pkg/logger"
)

var _ repository.UnitOfWork = (*TxRunner)(nil)

// maxTxAttempts intentos de una unidad de trabajo ante serialización o deadlock.
const maxTxAttempts = 3

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
	log  *logger.Logger
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool, log *logger.Logger) *TxRunner {
	if log == nil {
		log = logger.Nop()
	}
	return &TxRunner{pool: pool, log: log}
}

// NewRepos construye el juego de repositorios sobre q (pool o tx).
func NewRepos(q Querier) repository.Repos {
	return repository.Repos{
		Products:  NewProductRepository(q),
		Clients:   NewClientRepository(q),
		Movements: NewInventoryMovementRepository(q),
		Invoices:  NewInvoiceRepository(q),
		Quotes:    NewQuoteRepository(q),
		Sequences: NewNCFSequenceRepository(q),
		Counters:  NewCounterRepository(q),
		Outbox:    NewOutboxRepository(q),
	}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// Si Postgres aborta por serialización o deadlock, la unidad completa se repite hasta maxTxAttempts;
// agotados los intentos devuelve ErrInternal.
func (r *TxRunner) Run(ctx context.Context, fn func(ctx context.Context, tx repository.Repos) error) error {
	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err = r.runOnce(ctx, fn)
		if err == nil || !isRetryable(err) {
			return err
		}
		r.log.Warn().Err(err).Int("attempt", attempt).Msg("transacción abortada por concurrencia, reintentando")
	}
	return fmt.Errorf("%w: transacción abortada tras %d intentos: %v", domain.ErrInternal, maxTxAttempts, err)
}

func (r *TxRunner) runOnce(ctx context.Context, fn func(ctx context.Context, tx repository.Repos) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ctx, NewRepos(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
