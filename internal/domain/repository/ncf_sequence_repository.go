package repository

import (
	"context"

	"github.com/jhoicas/Ventas-api/internal/domain/entity"
)

// NCFSequenceRepository define el puerto de persistencia de secuencias fiscales.
type NCFSequenceRepository interface {
	Create(ctx context.Context, seq *entity.NCFSequence) error
	GetByID(ctx context.Context, id string) (*entity.NCFSequence, error)
	// GetActive devuelve nil, nil si no hay secuencia activa para el tipo.
	GetActive(ctx context.Context, companyID, typeCode string) (*entity.NCFSequence, error)
	ListByCompany(ctx context.Context, companyID string) ([]*entity.NCFSequence, error)
	// CompareAndAdvance incrementa current_number solo si la versión coincide y quedan números.
	// Devuelve false si otro escritor ganó la carrera.
	CompareAndAdvance(ctx context.Context, id string, expectedVersion int64) (bool, error)
	SetActive(ctx context.Context, id string, active bool) error
}
