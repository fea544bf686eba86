package http

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Ventas-api/internal/application/dto"
	"github.com/jhoicas/Ventas-api/internal/domain"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// errorStatus clasifica un error de la aplicación en status HTTP y código.
// El orden importa: los errores específicos van antes que los genéricos.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidAmount):
		return fiber.StatusBadRequest, "INVALID_AMOUNT"
	case errors.Is(err, domain.ErrInvalidInput):
		return fiber.StatusBadRequest, "VALIDATION"
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized, "UNAUTHORIZED"
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrInsufficientStock):
		return fiber.StatusConflict, "INSUFFICIENT_STOCK"
	case errors.Is(err, domain.ErrNoActiveSequence):
		return fiber.StatusConflict, "NO_ACTIVE_SEQUENCE"
	case errors.Is(err, domain.ErrSequenceExhausted):
		return fiber.StatusConflict, "SEQUENCE_EXHAUSTED"
	case errors.Is(err, domain.ErrSequenceExpired):
		return fiber.StatusConflict, "SEQUENCE_EXPIRED"
	case errors.Is(err, domain.ErrIdempotencyInProgress):
		return fiber.StatusConflict, "IDEMPOTENCY_IN_PROGRESS"
	case errors.Is(err, domain.ErrOverpaymentRejected):
		return fiber.StatusUnprocessableEntity, "OVERPAYMENT_REJECTED"
	case errors.Is(err, domain.ErrFailedPrecondition), errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrDuplicate):
		return fiber.StatusConflict, "FAILED_PRECONDITION"
	default:
		return fiber.StatusInternalServerError, "INTERNAL"
	}
}

// localError guarda el error para que el logger de peticiones lo registre.
const localError = "request_error"

// writeError responde con dto.ErrorResponse. Los 500 no exponen el detalle.
func writeError(c *fiber.Ctx, err error) error {
	status, code := errorStatus(err)
	msg := err.Error()
	if status == fiber.StatusInternalServerError {
		msg = "error interno"
	}
	c.Locals(localError, err)
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: msg})
}

func badRequest(c *fiber.Ctx, code, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: code, Message: msg})
}

// bindBody decodifica y valida el cuerpo. Si ok es false ya se respondió 400.
func bindBody(c *fiber.Ctx, out any) (ok bool, err error) {
	if err := c.BodyParser(out); err != nil {
		return false, badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	if err := validate.Struct(out); err != nil {
		return false, badRequest(c, "VALIDATION", validationMessage(err))
	}
	return true, nil
}

// validationMessage primer campo inválido, suficiente para el cliente.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return "campo " + fe.Namespace() + " no cumple '" + fe.Tag() + "'"
	}
	return "datos inválidos"
}
