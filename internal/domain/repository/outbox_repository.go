package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Ventas-api/internal/domain/entity"
)

// OutboxRepository persistencia de eventos de dominio pendientes de publicar.
type OutboxRepository interface {
	Enqueue(ctx context.Context, event *entity.OutboxEvent) error
	// ClaimPending reserva hasta limit eventos listos para el despachador indicado.
	// Los eventos bloqueados por más de lockTimeout se consideran abandonados.
	ClaimPending(ctx context.Context, dispatcherID string, limit int, lockTimeout time.Duration) ([]*entity.OutboxEvent, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, lastError string, nextAttemptAt *time.Time, dead bool) error
}
