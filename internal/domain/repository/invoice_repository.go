package repository

import (
	"context"

	"github.com/jhoicas/Ventas-api/internal/domain/entity"
)

// InvoiceFilter filtros de listado.
type InvoiceFilter struct {
	Status string
	Limit  int
	Offset int
}

// InvoiceRepository define el puerto de persistencia para Invoice, sus líneas y pagos.
type InvoiceRepository interface {
	// Create persiste cabecera y líneas.
	Create(ctx context.Context, invoice *entity.Invoice) error
	GetByID(ctx context.Context, id string) (*entity.Invoice, error)
	// GetForUpdate bloquea la fila de la factura hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.Invoice, error)
	// UpdateBalance persiste balance_due, status y updated_at.
	UpdateBalance(ctx context.Context, invoice *entity.Invoice) error
	CreatePayment(ctx context.Context, payment *entity.Payment) error
	Delete(ctx context.Context, id string) error
	ListByCompany(ctx context.Context, companyID string, filter InvoiceFilter) ([]*entity.Invoice, error)
}
