package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	goredis "github.com/redis/go-redis/v9"

	"github.com/jhoicas/Ventas-api/internal/application/fiscal"
	"github.com/jhoicas/Ventas-api/pkg/logger"
)

var _ fiscal.SequenceLocker = (*SequenceLocker)(nil)

// ErrLockNotObtained otra réplica tiene la secuencia y no se liberó a tiempo.
var ErrLockNotObtained = errors.New("candado de secuencia ocupado")

// SequenceLocker serializa la asignación de NCF entre réplicas con redislock.
// Si falla, el asignador sigue igual: el compare-and-swap en la base evita duplicados.
type SequenceLocker struct {
	client *redislock.Client
	wait   redislock.RetryStrategy
	log    *logger.Logger
}

// NewSequenceLocker espera hasta ~1s (20 x 50ms) antes de rendirse.
func NewSequenceLocker(rdb goredis.UniversalClient, log *logger.Logger) *SequenceLocker {
	if log == nil {
		log = logger.Nop()
	}
	return &SequenceLocker{
		client: redislock.New(rdb),
		wait:   redislock.LimitRetry(redislock.LinearBackoff(50*time.Millisecond), 20),
		log:    log,
	}
}

// Acquire implementa fiscal.SequenceLocker.
func (l *SequenceLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	lock, err := l.client.Obtain(ctx, key, ttl, &redislock.Options{RetryStrategy: l.wait})
	if err != nil {
		if errors.Is(err, redislock.ErrNotObtained) {
			return nil, fmt.Errorf("%w: %s", ErrLockNotObtained, key)
		}
		return nil, fmt.Errorf("obtain lock %s: %w", key, err)
	}
	return func() {
		// el ctx del request puede estar cancelado; el TTL cubre el resto
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := lock.Release(releaseCtx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			l.log.Warn().Err(err).Str("key", key).Msg("no se pudo liberar el candado de secuencia")
		}
	}, nil
}
