package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
)

var _ repository.OutboxRepository = (*OutboxRepo)(nil)

// OutboxRepo eventos pendientes de publicar, escritos en la misma tx que el cambio que describen.
type OutboxRepo struct {
	q Querier
}

func NewOutboxRepository(q Querier) *OutboxRepo {
	return &OutboxRepo{q: q}
}

func (r *OutboxRepo) Enqueue(ctx context.Context, e *entity.OutboxEvent) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Status == "" {
		e.Status = entity.OutboxStatusPending
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	const q = `
		INSERT INTO outbox_events (id, company_id, aggregate_id, type, payload, status, attempts, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, 0, $7)`
	_, err := r.q.Exec(ctx, q, e.ID, e.CompanyID, e.AggregateID, e.Type, []byte(e.Payload), e.Status, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}
	return nil
}

// ClaimPending toma eventos PENDING, FAILED vencidos o PROCESSING abandonados.
// SKIP LOCKED permite varios despachadores sin pisarse.
func (r *OutboxRepo) ClaimPending(ctx context.Context, dispatcherID string, limit int, lockTimeout time.Duration) ([]*entity.OutboxEvent, error) {
	const q = `
		UPDATE outbox_events o
		SET status = 'PROCESSING', locked_at = now(), locked_by = $1, attempts = o.attempts + 1, last_error = NULL
		WHERE o.id IN (
			SELECT id FROM outbox_events
			WHERE (status = 'PENDING')
			   OR (status = 'FAILED' AND (next_attempt_at IS NULL OR next_attempt_at <= now()))
			   OR (status = 'PROCESSING' AND locked_at <= now() - make_interval(secs => $3))
			ORDER BY created_at
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
		RETURNING o.id, o.company_id, o.aggregate_id, o.type, o.payload, o.status, o.attempts,
		          o.next_attempt_at, o.locked_at, o.locked_by, o.created_at`
	rows, err := r.q.Query(ctx, q, dispatcherID, limit, lockTimeout.Seconds())
	if err != nil {
		return nil, fmt.Errorf("claim outbox events: %w", err)
	}
	defer rows.Close()
	var list []*entity.OutboxEvent
	for rows.Next() {
		var e entity.OutboxEvent
		var payload []byte
		var lockedBy *string
		if err := rows.Scan(
			&e.ID, &e.CompanyID, &e.AggregateID, &e.Type, &payload, &e.Status, &e.Attempts,
			&e.NextAttemptAt, &e.LockedAt, &lockedBy, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan outbox event: %w", err)
		}
		e.Payload = payload
		e.LockedBy = derefStr(lockedBy)
		list = append(list, &e)
	}
	return list, rows.Err()
}

func (r *OutboxRepo) MarkSent(ctx context.Context, id string) error {
	const q = `
		UPDATE outbox_events
		SET status = 'SENT', published_at = now(), locked_at = NULL, locked_by = NULL, next_attempt_at = NULL
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, q, id)
	if err != nil {
		return fmt.Errorf("mark outbox event sent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("evento %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (r *OutboxRepo) MarkFailed(ctx context.Context, id, lastError string, nextAttemptAt *time.Time, dead bool) error {
	status := entity.OutboxStatusFailed
	if dead {
		status = entity.OutboxStatusDead
	}
	const q = `
		UPDATE outbox_events
		SET status = $2, last_error = $3, next_attempt_at = $4, locked_at = NULL, locked_by = NULL
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, q, id, status, lastError, nextAttemptAt)
	if err != nil {
		return fmt.Errorf("mark outbox event failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("evento %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
