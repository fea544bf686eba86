package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/jhoicas/Ventas-api/internal/application/dto"
	"github.com/jhoicas/Ventas-api/internal/domain"
)

const (
	inFlightMarker = "in_flight"
	// InFlightTTL cubre una petición colgada: pasado este tiempo la clave se puede reintentar.
	InFlightTTL = 2 * time.Minute
	// ResponseTTL tiempo que se recuerda la respuesta de una clave.
	ResponseTTL = 24 * time.Hour
)

// IdempotencyStore claves Idempotency-Key en Redis.
// Begin marca la clave en curso con SET NX; Complete la reemplaza por la respuesta.
type IdempotencyStore struct {
	rdb    goredis.Cmdable
	prefix string
}

// NewIdempotencyStore construye el store.
func NewIdempotencyStore(rdb goredis.Cmdable) *IdempotencyStore {
	return &IdempotencyStore{rdb: rdb, prefix: "idem:"}
}

// Begin devuelve (nil, nil) si la clave es nueva y queda reservada para el caller,
// la respuesta guardada si ya se completó, o domain.ErrIdempotencyInProgress si otra petición la tiene.
func (s *IdempotencyStore) Begin(ctx context.Context, key string) (*dto.StoredResponse, error) {
	k := s.prefix + key
	ok, err := s.rdb.SetNX(ctx, k, inFlightMarker, InFlightTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("reserve idempotency key: %w", err)
	}
	if ok {
		return nil, nil
	}
	raw, err := s.rdb.Get(ctx, k).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			// expiró entre SETNX y GET
			return s.Begin(ctx, key)
		}
		return nil, fmt.Errorf("get idempotency key: %w", err)
	}
	if string(raw) == inFlightMarker {
		return nil, domain.ErrIdempotencyInProgress
	}
	var stored dto.StoredResponse
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("decode idempotency response: %w", err)
	}
	return &stored, nil
}

// Complete guarda la respuesta final de la clave.
func (s *IdempotencyStore) Complete(ctx context.Context, key string, resp dto.StoredResponse) error {
	raw, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encode idempotency response: %w", err)
	}
	if err := s.rdb.Set(ctx, s.prefix+key, raw, ResponseTTL).Err(); err != nil {
		return fmt.Errorf("store idempotency response: %w", err)
	}
	return nil
}

// Release libera una clave reservada sin respuesta (error del servidor) para permitir el reintento.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("release idempotency key: %w", err)
	}
	return nil
}
