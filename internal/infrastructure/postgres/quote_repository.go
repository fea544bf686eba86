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

var _ repository.QuoteRepository = (*QuoteRepo)(nil)

// QuoteRepo implementación de QuoteRepository (usable con pool o tx).
type QuoteRepo struct {
	q Querier
}

func NewQuoteRepository(q Querier) *QuoteRepo {
	return &QuoteRepo{q: q}
}

const quoteColumns = `id, company_id, user_id, client_id, client_name, client_tax_id, client_email, client_address,
	quote_number, currency, include_itbis, subtotal, discount_total, itbis, total, status, valid_until,
	notes, converted_invoice_id, created_at, updated_at`

func (r *QuoteRepo) Create(ctx context.Context, q *entity.Quote) error {
	if q.ID == "" {
		q.ID = uuid.New().String()
	}
	query := `
		INSERT INTO quotes (` + quoteColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`
	_, err := r.q.Exec(ctx, query,
		q.ID, q.CompanyID, q.UserID, q.ClientID,
		q.Client.Name, nullIfEmpty(q.Client.TaxID), nullIfEmpty(q.Client.Email), nullIfEmpty(q.Client.Address),
		q.QuoteNumber, q.Currency, q.IncludeITBIS, q.Subtotal, q.DiscountTotal, q.ITBIS, q.Total, q.Status,
		q.ValidUntil, nullIfEmpty(q.Notes), nullIfEmpty(q.ConvertedInvoiceID), q.CreatedAt, q.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("número de cotización repetido: %w", domain.ErrDuplicate)
		}
		return fmt.Errorf("insert quote: %w", err)
	}
	return insertLineItems(ctx, r.q, "quote_items", "quote_id", q.ID, q.Items)
}

func (r *QuoteRepo) GetByID(ctx context.Context, id string) (*entity.Quote, error) {
	return r.get(ctx, id, "")
}

// GetForUpdate bloquea la cotización (conversión y cambios de estado).
func (r *QuoteRepo) GetForUpdate(ctx context.Context, id string) (*entity.Quote, error) {
	return r.get(ctx, id, " FOR UPDATE")
}

func (r *QuoteRepo) get(ctx context.Context, id, lock string) (*entity.Quote, error) {
	q, err := scanQuote(r.q.QueryRow(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE id = $1`+lock, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get quote: %w", err)
	}
	if q.Items, err = listLineItems(ctx, r.q, "quote_items", "quote_id", q.ID); err != nil {
		return nil, err
	}
	return q, nil
}

// Update reemplaza cabecera y líneas.
func (r *QuoteRepo) Update(ctx context.Context, q *entity.Quote) error {
	query := `
		UPDATE quotes
		SET client_id = $2, client_name = $3, client_tax_id = $4, client_email = $5, client_address = $6,
		    currency = $7, include_itbis = $8, subtotal = $9, discount_total = $10, itbis = $11, total = $12,
		    status = $13, valid_until = $14, notes = $15, converted_invoice_id = $16, updated_at = $17
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		q.ID, q.ClientID, q.Client.Name, nullIfEmpty(q.Client.TaxID), nullIfEmpty(q.Client.Email), nullIfEmpty(q.Client.Address),
		q.Currency, q.IncludeITBIS, q.Subtotal, q.DiscountTotal, q.ITBIS, q.Total,
		q.Status, q.ValidUntil, nullIfEmpty(q.Notes), nullIfEmpty(q.ConvertedInvoiceID), q.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update quote: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("cotización %s: %w", q.ID, domain.ErrNotFound)
	}
	if _, err := r.q.Exec(ctx, `DELETE FROM quote_items WHERE quote_id = $1`, q.ID); err != nil {
		return fmt.Errorf("replace quote items: %w", err)
	}
	return insertLineItems(ctx, r.q, "quote_items", "quote_id", q.ID, q.Items)
}

func (r *QuoteRepo) ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*entity.Quote, error) {
	query := `SELECT ` + quoteColumns + ` FROM quotes
		WHERE company_id = $1
		ORDER BY created_at DESC, quote_number DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, companyID, limit, max(offset, 0))
	if err != nil {
		return nil, fmt.Errorf("list quotes: %w", err)
	}
	defer rows.Close()
	var list []*entity.Quote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan quote: %w", err)
		}
		list = append(list, q)
	}
	return list, rows.Err()
}

func scanQuote(row pgx.Row) (*entity.Quote, error) {
	var q entity.Quote
	var taxID, email, address, notes, convertedID *string
	err := row.Scan(
		&q.ID, &q.CompanyID, &q.UserID, &q.ClientID,
		&q.Client.Name, &taxID, &email, &address,
		&q.QuoteNumber, &q.Currency, &q.IncludeITBIS, &q.Subtotal, &q.DiscountTotal, &q.ITBIS, &q.Total, &q.Status,
		&q.ValidUntil, &notes, &convertedID, &q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	q.Client.TaxID = derefStr(taxID)
	q.Client.Email = derefStr(email)
	q.Client.Address = derefStr(address)
	q.Notes = derefStr(notes)
	q.ConvertedInvoiceID = derefStr(convertedID)
	return &q, nil
}
