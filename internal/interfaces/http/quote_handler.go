package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Ventas-api/internal/application/billing"
	"github.com/jhoicas/Ventas-api/internal/application/dto"
)

// QuoteHandler cotizaciones y su conversión a factura (protegido).
type QuoteHandler struct {
	quotes   *billing.QuoteUseCase
	invoices *billing.InvoiceUseCase
}

// NewQuoteHandler construye el handler.
func NewQuoteHandler(quotes *billing.QuoteUseCase, invoices *billing.InvoiceUseCase) *QuoteHandler {
	return &QuoteHandler{quotes: quotes, invoices: invoices}
}

// Create godoc
// @Summary      Crear cotización
// @Tags         quotes
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateQuoteRequest  true  "Cotización"
// @Success      201   {object}  dto.QuoteResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/quotes [post]
func (h *QuoteHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateQuoteRequest
	if ok, err := bindBody(c, &in); !ok {
		return err
	}
	out, err := h.quotes.CreateQuote(c.UserContext(), GetCompanyID(c), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List GET /api/quotes
func (h *QuoteHandler) List(c *fiber.Ctx) error {
	out, err := h.quotes.ListQuotes(c.UserContext(), GetCompanyID(c), pageFromQuery(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetByID GET /api/quotes/:id
func (h *QuoteHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.quotes.GetQuote(c.UserContext(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Update reemplaza líneas y condiciones de una cotización no facturada.
// PUT /api/quotes/:id
func (h *QuoteHandler) Update(c *fiber.Ctx) error {
	var in dto.CreateQuoteRequest
	if ok, err := bindBody(c, &in); !ok {
		return err
	}
	out, err := h.quotes.UpdateQuote(c.UserContext(), GetCompanyID(c), GetUserID(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ChangeStatus PATCH /api/quotes/:id/status
func (h *QuoteHandler) ChangeStatus(c *fiber.Ctx) error {
	var in dto.ChangeQuoteStatusRequest
	if ok, err := bindBody(c, &in); !ok {
		return err
	}
	out, err := h.quotes.ChangeStatus(c.UserContext(), GetCompanyID(c), GetUserID(c), c.Params("id"), in.Status)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Convert godoc
// @Summary      Convertir cotización en factura
// @Description  Reserva stock y numera como una factura nueva; la cotización queda facturada.
// @Tags         quotes
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la cotización"
// @Success      201  {object}  dto.InvoiceResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/quotes/{id}/convert [post]
func (h *QuoteHandler) Convert(c *fiber.Ctx) error {
	out, err := h.invoices.ConvertQuoteToInvoice(c.UserContext(), GetCompanyID(c), GetUserID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}
