package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
)

var _ repository.NCFSequenceRepository = (*NCFSequenceRepo)(nil)

// NCFSequenceRepo implementa NCFSequenceRepository sobre PostgreSQL.
// El índice único parcial uq_ncf_sequences_active impide dos secuencias activas del mismo tipo.
type NCFSequenceRepo struct {
	q Querier
}

// NewNCFSequenceRepository construye el repositorio.
func NewNCFSequenceRepository(q Querier) *NCFSequenceRepo {
	return &NCFSequenceRepo{q: q}
}

const sequenceColumns = `id, company_id, type_code, prefix, start_number, current_number, end_number,
	number_width, expiration_date, is_active, version, created_at, updated_at`

func (r *NCFSequenceRepo) Create(ctx context.Context, seq *entity.NCFSequence) error {
	if seq.ID == "" {
		seq.ID = uuid.New().String()
	}
	if seq.Version == 0 {
		seq.Version = 1
	}
	const q = `
		INSERT INTO ncf_sequences
			(id, company_id, type_code, prefix, start_number, current_number, end_number,
			 number_width, expiration_date, is_active, version, created_at, updated_at)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now(), now())`
	_, err := r.q.Exec(ctx, q,
		seq.ID, seq.CompanyID, seq.TypeCode, seq.Prefix, seq.StartNumber, seq.CurrentNumber, seq.EndNumber,
		seq.NumberWidth, seq.ExpirationDate, seq.IsActive, seq.Version,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("ya existe una secuencia activa %s: %w", seq.TypeCode, domain.ErrDuplicate)
		}
		return fmt.Errorf("insert ncf_sequence: %w", err)
	}
	return nil
}

func (r *NCFSequenceRepo) GetByID(ctx context.Context, id string) (*entity.NCFSequence, error) {
	seq, err := scanSequence(r.q.QueryRow(ctx, `SELECT `+sequenceColumns+` FROM ncf_sequences WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get ncf_sequence by id: %w", err)
	}
	return seq, nil
}

// GetActive es la consulta crítica de la asignación de NCF.
// Devuelve nil, nil si no hay secuencia activa; vencimiento y agotamiento los evalúa el asignador.
func (r *NCFSequenceRepo) GetActive(ctx context.Context, companyID, typeCode string) (*entity.NCFSequence, error) {
	const q = `SELECT ` + sequenceColumns + `
		FROM ncf_sequences
		WHERE company_id = $1
		  AND type_code  = $2
		  AND is_active  = true
		LIMIT 1`
	seq, err := scanSequence(r.q.QueryRow(ctx, q, companyID, typeCode))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get active ncf_sequence: %w", err)
	}
	return seq, nil
}

func (r *NCFSequenceRepo) ListByCompany(ctx context.Context, companyID string) ([]*entity.NCFSequence, error) {
	const q = `SELECT ` + sequenceColumns + `
		FROM ncf_sequences
		WHERE company_id = $1
		ORDER BY type_code, created_at DESC`
	rows, err := r.q.Query(ctx, q, companyID)
	if err != nil {
		return nil, fmt.Errorf("list ncf_sequences: %w", err)
	}
	defer rows.Close()
	var list []*entity.NCFSequence
	for rows.Next() {
		seq, err := scanSequence(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ncf_sequence: %w", err)
		}
		list = append(list, seq)
	}
	return list, rows.Err()
}

// CompareAndAdvance avanza el número solo si nadie lo hizo desde la lectura (version) y quedan números.
func (r *NCFSequenceRepo) CompareAndAdvance(ctx context.Context, id string, expectedVersion int64) (bool, error) {
	const q = `
		UPDATE ncf_sequences
		SET current_number = current_number + 1, version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $2 AND current_number <= end_number`
	tag, err := r.q.Exec(ctx, q, id, expectedVersion)
	if err != nil {
		return false, fmt.Errorf("advance ncf_sequence: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *NCFSequenceRepo) SetActive(ctx context.Context, id string, active bool) error {
	const q = `UPDATE ncf_sequences SET is_active = $2, version = version + 1, updated_at = now() WHERE id = $1`
	tag, err := r.q.Exec(ctx, q, id, active)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("ya existe una secuencia activa: %w", domain.ErrDuplicate)
		}
		return fmt.Errorf("update ncf_sequence: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("secuencia %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// ── helpers ───────────────────────────────────────────────────────────────────

// pgxScanner abstrae pgx.Row y pgx.Rows para reutilizar scanSequence.
type pgxScanner interface {
	Scan(dest ...any) error
}

func scanSequence(row pgxScanner) (*entity.NCFSequence, error) {
	var seq entity.NCFSequence
	err := row.Scan(
		&seq.ID, &seq.CompanyID, &seq.TypeCode, &seq.Prefix,
		&seq.StartNumber, &seq.CurrentNumber, &seq.EndNumber,
		&seq.NumberWidth, &seq.ExpirationDate,
		&seq.IsActive, &seq.Version, &seq.CreatedAt, &seq.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &seq, nil
}
