package events

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
	"github.com/jhoicas/Ventas-api/pkg/logger"
)

const maxBackoff = 10 * time.Minute

// Publisher entrega un evento al bus externo. Devuelve el ID asignado por el bus.
type Publisher interface {
	Publish(ctx context.Context, e *entity.OutboxEvent) (string, error)
}

// LogPublisher publica en el log (modo desarrollo, sin bus configurado).
type LogPublisher struct {
	Log *logger.Logger
}

func (p LogPublisher) Publish(_ context.Context, e *entity.OutboxEvent) (string, error) {
	p.Log.Info().
		Str("event_id", e.ID).
		Str("type", e.Type).
		Str("aggregate_id", e.AggregateID).
		RawJSON("payload", e.Payload).
		Msg("evento publicado")
	return e.ID, nil
}

// DispatcherConfig parámetros del despachador.
type DispatcherConfig struct {
	BatchSize      int
	PollInterval   time.Duration
	LockTimeout    time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
}

func (c DispatcherConfig) withDefaults() DispatcherConfig {
	if c.BatchSize <= 0 {
		c.BatchSize = 50
	}
	if c.PollInterval <= 0 {
		c.PollInterval = time.Second
	}
	if c.LockTimeout <= 0 {
		c.LockTimeout = 30 * time.Second
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 20
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = 5 * time.Second
	}
	return c
}

// Dispatcher publica los eventos pendientes del outbox.
// Entrega al menos una vez: un evento reclamado por un despachador caído se vuelve a tomar tras LockTimeout.
type Dispatcher struct {
	outbox    repository.OutboxRepository
	publisher Publisher
	cfg       DispatcherConfig
	log       *logger.Logger
	id        string
	now       func() time.Time
}

func NewDispatcher(outbox repository.OutboxRepository, publisher Publisher, cfg DispatcherConfig, log *logger.Logger) *Dispatcher {
	if log == nil {
		log = logger.Nop()
	}
	return &Dispatcher{
		outbox:    outbox,
		publisher: publisher,
		cfg:       cfg.withDefaults(),
		log:       log,
		id:        uuid.NewString(),
		now:       time.Now,
	}
}

// Run sondea el outbox hasta que ctx se cancele.
func (d *Dispatcher) Run(ctx context.Context) {
	d.log.Info().Str("dispatcher_id", d.id).Dur("poll_interval", d.cfg.PollInterval).Msg("despachador de eventos iniciado")
	ticker := time.NewTicker(d.cfg.PollInterval)
	defer ticker.Stop()
	for {
		if _, err := d.DispatchOnce(ctx); err != nil && ctx.Err() == nil {
			d.log.Error().Err(err).Msg("no se pudo reclamar eventos del outbox")
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// DispatchOnce reclama un lote y lo publica. Devuelve cuántos eventos se enviaron.
func (d *Dispatcher) DispatchOnce(ctx context.Context) (int, error) {
	claimed, err := d.outbox.ClaimPending(ctx, d.id, d.cfg.BatchSize, d.cfg.LockTimeout)
	if err != nil {
		return 0, err
	}
	sent := 0
	for _, e := range claimed {
		if e.Attempts > d.cfg.MaxAttempts {
			d.fail(ctx, e, fmt.Errorf("máximo de intentos excedido (%d)", d.cfg.MaxAttempts))
			continue
		}
		msgID, err := d.publisher.Publish(ctx, e)
		if err != nil {
			d.fail(ctx, e, err)
			continue
		}
		if err := d.outbox.MarkSent(ctx, e.ID); err != nil {
			d.log.Error().Err(err).Str("event_id", e.ID).Msg("evento publicado pero no marcado como enviado")
			continue
		}
		d.log.Debug().Str("event_id", e.ID).Str("message_id", msgID).Str("type", e.Type).Msg("evento enviado")
		sent++
	}
	return sent, nil
}

func (d *Dispatcher) fail(ctx context.Context, e *entity.OutboxEvent, cause error) {
	dead := e.Attempts >= d.cfg.MaxAttempts
	var next *time.Time
	if !dead {
		at := d.now().Add(Backoff(d.cfg.InitialBackoff, e.Attempts))
		next = &at
	}
	if err := d.outbox.MarkFailed(ctx, e.ID, cause.Error(), next, dead); err != nil {
		d.log.Error().Err(err).Str("event_id", e.ID).Msg("no se pudo registrar el fallo del evento")
		return
	}
	ev := d.log.Warn()
	if dead {
		ev = d.log.Error()
	}
	ev.Err(cause).
		Str("event_id", e.ID).
		Str("company_id", e.CompanyID).
		Int("attempt", e.Attempts).
		Bool("dead", dead).
		Msg("fallo al publicar evento")
}

// Backoff espera exponencial: initial * 2^(attempt-1), con tope de 10 minutos.
func Backoff(initial time.Duration, attempt int) time.Duration {
	b := initial
	for i := 1; i < attempt; i++ {
		b *= 2
		if b >= maxBackoff {
			return maxBackoff
		}
	}
	return b
}
