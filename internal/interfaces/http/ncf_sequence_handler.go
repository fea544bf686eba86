package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Ventas-api/internal/application/dto"
	"github.com/jhoicas/Ventas-api/internal/application/fiscal"
)

// NCFSequenceHandler configuración de rangos NCF (solo admin).
type NCFSequenceHandler struct {
	uc *fiscal.SequenceUseCase
}

// NewNCFSequenceHandler construye el handler.
func NewNCFSequenceHandler(uc *fiscal.SequenceUseCase) *NCFSequenceHandler {
	return &NCFSequenceHandler{uc: uc}
}

// List GET /api/ncf-sequences
func (h *NCFSequenceHandler) List(c *fiber.Ctx) error {
	out, err := h.uc.List(c.UserContext(), GetCompanyID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Create godoc
// @Summary      Registrar secuencia NCF
// @Tags         ncf-sequences
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateNCFSequenceRequest  true  "Rango autorizado"
// @Success      201   {object}  dto.NCFSequenceResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/ncf-sequences [post]
func (h *NCFSequenceHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateNCFSequenceRequest
	if ok, err := bindBody(c, &in); !ok {
		return err
	}
	out, err := h.uc.Create(c.UserContext(), GetCompanyID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Activate POST /api/ncf-sequences/:id/activate
func (h *NCFSequenceHandler) Activate(c *fiber.Ctx) error {
	out, err := h.uc.Activate(c.UserContext(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Deactivate POST /api/ncf-sequences/:id/deactivate
func (h *NCFSequenceHandler) Deactivate(c *fiber.Ctx) error {
	out, err := h.uc.Deactivate(c.UserContext(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
