package repository

import (
	"context"

	"github.com/jhoicas/Ventas-api/internal/domain/entity"
)

// QuoteRepository define el puerto de persistencia para cotizaciones.
type QuoteRepository interface {
	Create(ctx context.Context, quote *entity.Quote) error
	GetByID(ctx context.Context, id string) (*entity.Quote, error)
	GetForUpdate(ctx context.Context, id string) (*entity.Quote, error)
	// Update reemplaza líneas, totales, estado y términos.
	Update(ctx context.Context, quote *entity.Quote) error
	ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*entity.Quote, error)
}
