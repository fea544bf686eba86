package http

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Ventas-api/internal/application/dto"
	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/pkg/logger"
)

// HeaderIdempotencyKey clave enviada por el cliente en escrituras reintentables.
const HeaderIdempotencyKey = "Idempotency-Key"

const maxIdempotencyKeyLen = 128

// IdempotencyStore lo implementa redis.IdempotencyStore.
type IdempotencyStore interface {
	Begin(ctx context.Context, key string) (*dto.StoredResponse, error)
	Complete(ctx context.Context, key string, resp dto.StoredResponse) error
	Release(ctx context.Context, key string) error
}

// Idempotency repite la respuesta 2xx de una petición ya procesada con la misma clave.
// Una clave en curso responde 409; las respuestas de error liberan la clave para reintentar.
// Sin store (o con Redis caído) la petición pasa sin protección.
func Idempotency(store IdempotencyStore, log *logger.Logger) fiber.Handler {
	if log == nil {
		log = logger.Nop()
	}
	return func(c *fiber.Ctx) error {
		key := strings.TrimSpace(c.Get(HeaderIdempotencyKey))
		if key == "" || store == nil {
			return c.Next()
		}
		if len(key) > maxIdempotencyKeyLen {
			return badRequest(c, "VALIDATION", "Idempotency-Key demasiado larga")
		}
		// la misma clave en otra empresa o en otra ruta es otra petición
		scoped := GetCompanyID(c) + ":" + c.Method() + ":" + c.Path() + ":" + key
		ctx := c.UserContext()

		stored, err := store.Begin(ctx, scoped)
		switch {
		case errors.Is(err, domain.ErrIdempotencyInProgress):
			return writeError(c, err)
		case err != nil:
			log.Warn().Err(err).Str("path", c.Path()).Msg("idempotencia no disponible, se procesa sin ella")
			return c.Next()
		case stored != nil:
			c.Set("Idempotent-Replayed", "true")
			c.Set(fiber.HeaderContentType, stored.ContentType)
			return c.Status(stored.Status).Send(stored.Body)
		}

		if err := c.Next(); err != nil {
			releaseKey(ctx, store, scoped, log)
			return err
		}
		status := c.Response().StatusCode()
		if status < 200 || status >= 300 {
			releaseKey(ctx, store, scoped, log)
			return nil
		}
		resp := dto.StoredResponse{
			Status:      status,
			ContentType: string(c.Response().Header.ContentType()),
			Body:        append([]byte(nil), c.Response().Body()...),
		}
		if err := store.Complete(ctx, scoped, resp); err != nil {
			log.Warn().Err(err).Str("path", c.Path()).Msg("no se pudo guardar la respuesta idempotente")
		}
		return nil
	}
}

func releaseKey(ctx context.Context, store IdempotencyStore, key string, log *logger.Logger) {
	if err := store.Release(ctx, key); err != nil {
		log.Warn().Err(err).Msg("no se pudo liberar la clave de idempotencia")
	}
}
