package domain

import "errors"

// Errores de dominio (sin dependencias externas).
// Los handlers los clasifican con errors.Is; el detalle se agrega con fmt.Errorf("%w: ...").
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrConflict           = errors.New("conflicto con el estado actual")
	ErrFailedPrecondition = errors.New("la operación no es válida en el estado actual")
	ErrInternal           = errors.New("error interno")

	// Inventario
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrProductGone       = errors.New("el producto ya no existe")

	// Pagos
	ErrInvalidAmount       = errors.New("el monto debe ser mayor que cero")
	ErrOverpaymentRejected = errors.New("el pago excede el balance pendiente")

	// Secuencias fiscales (NCF)
	ErrNoActiveSequence  = errors.New("no hay secuencia NCF activa para el tipo")
	ErrSequenceExhausted = errors.New("secuencia NCF agotada")
	ErrSequenceExpired   = errors.New("secuencia NCF vencida")
	ErrSequenceConflict  = errors.New("contención al asignar NCF, reintentos agotados")

	// Idempotency-Key en uso por otra petición
	ErrIdempotencyInProgress = errors.New("petición con la misma clave de idempotencia en curso")
)
