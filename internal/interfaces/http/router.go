package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Ventas-api/internal/application/billing"
	"github.com/jhoicas/Ventas-api/internal/application/fiscal"
	"github.com/jhoicas/Ventas-api/internal/application/payment"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
	"github.com/jhoicas/Ventas-api/pkg/jwt"
	"github.com/jhoicas/Ventas-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Invoices    *billing.InvoiceUseCase
	Quotes      *billing.QuoteUseCase
	Payments    *payment.Ledger
	Sequences   *fiscal.SequenceUseCase
	Reader      repository.Repos
	Idempotency IdempotencyStore // nil: sin Redis
	JWTSecret   string
	JWTIssuer   string
	Log         *logger.Logger
}

// Router registra las rutas de la API. Todo bajo /api requiere Bearer Token.
func Router(app *fiber.App, deps RouterDeps) {
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret, deps.JWTIssuer))
	idem := Idempotency(deps.Idempotency, deps.Log)

	// Facturas y pagos
	invoices := api.Group("/invoices")
	invoiceHandler := NewInvoiceHandler(deps.Invoices, deps.Payments, deps.Reader)
	invoices.Post("/", idem, invoiceHandler.Create)
	invoices.Get("/", invoiceHandler.List)
	invoices.Get("/:id", invoiceHandler.GetByID)
	invoices.Delete("/:id", invoiceHandler.Delete)
	invoices.Post("/:id/payments", idem, invoiceHandler.AddPayment)
	invoices.Get("/:id/payments", invoiceHandler.ListPayments)

	// Cotizaciones
	quotes := api.Group("/quotes")
	quoteHandler := NewQuoteHandler(deps.Quotes, deps.Invoices)
	quotes.Post("/", quoteHandler.Create)
	quotes.Get("/", quoteHandler.List)
	quotes.Get("/:id", quoteHandler.GetByID)
	quotes.Put("/:id", quoteHandler.Update)
	quotes.Patch("/:id/status", quoteHandler.ChangeStatus)
	quotes.Post("/:id/convert", quoteHandler.Convert)

	// Secuencias NCF (admin)
	sequences := api.Group("/ncf-sequences", RequireRole(jwt.RoleAdmin))
	sequenceHandler := NewNCFSequenceHandler(deps.Sequences)
	sequences.Get("/", sequenceHandler.List)
	sequences.Post("/", sequenceHandler.Create)
	sequences.Post("/:id/activate", sequenceHandler.Activate)
	sequences.Post("/:id/deactivate", sequenceHandler.Deactivate)
}
