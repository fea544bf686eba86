package fiscal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Ventas-api/internal/application/dto"
	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
)

// SequenceUseCase configuración de secuencias NCF con la regla de una sola activa por tipo.
type SequenceUseCase struct {
	uow    repository.UnitOfWork
	reader repository.Repos
	now    func() time.Time
}

// NewSequenceUseCase construye el caso de uso. reader son repos fuera de transacción.
func NewSequenceUseCase(uow repository.UnitOfWork, reader repository.Repos) *SequenceUseCase {
	return &SequenceUseCase{uow: uow, reader: reader, now: time.Now}
}

// Create registra un rango autorizado. Si Activate y ya hay otra activa del mismo tipo, falla:
// el reemplazo se hace explícito con Activate.
func (uc *SequenceUseCase) Create(ctx context.Context, companyID string, in dto.CreateNCFSequenceRequest) (*dto.NCFSequenceResponse, error) {
	now := uc.now()
	seq := &entity.NCFSequence{
		ID:            uuid.New().String(),
		CompanyID:     companyID,
		TypeCode:      strings.ToUpper(strings.TrimSpace(in.TypeCode)),
		Prefix:        strings.TrimSpace(in.Prefix),
		StartNumber:   in.StartNumber,
		CurrentNumber: in.StartNumber,
		EndNumber:     in.EndNumber,
		NumberWidth:   in.NumberWidth,
		IsActive:      in.Activate,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if in.ExpirationDate != "" {
		exp, err := time.Parse("2006-01-02", in.ExpirationDate)
		if err != nil {
			return nil, fmt.Errorf("%w: expiration_date", domain.ErrInvalidInput)
		}
		seq.ExpirationDate = &exp
	}
	if err := seq.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, err.Error())
	}

	err := uc.uow.Run(ctx, func(ctx context.Context, tx repository.Repos) error {
		if seq.IsActive {
			current, err := tx.Sequences.GetActive(ctx, companyID, seq.TypeCode)
			if err != nil {
				return err
			}
			if current != nil {
				return fmt.Errorf("%w: ya hay una secuencia %s activa", domain.ErrFailedPrecondition, seq.TypeCode)
			}
		}
		if err := tx.Sequences.Create(ctx, seq); err != nil {
			if errors.Is(err, domain.ErrDuplicate) {
				return fmt.Errorf("%w: ya hay una secuencia %s activa", domain.ErrFailedPrecondition, seq.TypeCode)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return uc.toResponse(seq), nil
}

// Activate activa la secuencia y desactiva la que estuviera activa para el mismo tipo, en una sola transacción.
func (uc *SequenceUseCase) Activate(ctx context.Context, companyID, id string) (*dto.NCFSequenceResponse, error) {
	var out *entity.NCFSequence
	err := uc.uow.Run(ctx, func(ctx context.Context, tx repository.Repos) error {
		seq, err := uc.load(ctx, tx, companyID, id)
		if err != nil {
			return err
		}
		if seq.IsExhausted() || seq.IsExpired(uc.now()) {
			return fmt.Errorf("%w: la secuencia está agotada o vencida", domain.ErrFailedPrecondition)
		}
		current, err := tx.Sequences.GetActive(ctx, companyID, seq.TypeCode)
		if err != nil {
			return err
		}
		if current != nil && current.ID != seq.ID {
			if err := tx.Sequences.SetActive(ctx, current.ID, false); err != nil {
				return err
			}
		}
		if err := tx.Sequences.SetActive(ctx, seq.ID, true); err != nil {
			return err
		}
		seq.IsActive = true
		out = seq
		return nil
	})
	if err != nil {
		return nil, err
	}
	return uc.toResponse(out), nil
}

// Deactivate saca de uso una secuencia. Las facturas siguientes de ese tipo fallan con ErrNoActiveSequence.
func (uc *SequenceUseCase) Deactivate(ctx context.Context, companyID, id string) (*dto.NCFSequenceResponse, error) {
	var out *entity.NCFSequence
	err := uc.uow.Run(ctx, func(ctx context.Context, tx repository.Repos) error {
		seq, err := uc.load(ctx, tx, companyID, id)
		if err != nil {
			return err
		}
		if err := tx.Sequences.SetActive(ctx, seq.ID, false); err != nil {
			return err
		}
		seq.IsActive = false
		out = seq
		return nil
	})
	if err != nil {
		return nil, err
	}
	return uc.toResponse(out), nil
}

// List devuelve las secuencias de la empresa.
func (uc *SequenceUseCase) List(ctx context.Context, companyID string) ([]dto.NCFSequenceResponse, error) {
	list, err := uc.reader.Sequences.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.NCFSequenceResponse, 0, len(list))
	for _, seq := range list {
		out = append(out, *uc.toResponse(seq))
	}
	return out, nil
}

func (uc *SequenceUseCase) load(ctx context.Context, tx repository.Repos, companyID, id string) (*entity.NCFSequence, error) {
	seq, err := tx.Sequences.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if seq == nil {
		return nil, domain.ErrNotFound
	}
	if seq.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	return seq, nil
}

func (uc *SequenceUseCase) toResponse(seq *entity.NCFSequence) *dto.NCFSequenceResponse {
	resp := &dto.NCFSequenceResponse{
		ID:            seq.ID,
		TypeCode:      seq.TypeCode,
		Prefix:        seq.Prefix,
		StartNumber:   seq.StartNumber,
		CurrentNumber: seq.CurrentNumber,
		EndNumber:     seq.EndNumber,
		NumberWidth:   seq.NumberWidth,
		Remaining:     seq.Remaining(),
		IsActive:      seq.IsActive,
		IsExpired:     seq.IsExpired(uc.now()),
	}
	if !seq.IsExhausted() {
		resp.NextNCF = seq.Format(seq.CurrentNumber)
	}
	if seq.ExpirationDate != nil {
		resp.ExpirationDate = seq.ExpirationDate.Format("2006-01-02")
	}
	return resp
}
