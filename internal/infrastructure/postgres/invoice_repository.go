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

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

// InvoiceRepo implementación de InvoiceRepository (usable con pool o tx).
type InvoiceRepo struct {
	q Querier
}

// NewInvoiceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInvoiceRepository(q Querier) *InvoiceRepo {
	return &InvoiceRepo{q: q}
}

const invoiceColumns = `id, company_id, user_id, client_id, client_name, client_tax_id, client_email, client_address,
	invoice_number, ncf_type, ncf_number, currency, include_itbis, subtotal, discount_total, itbis, total,
	balance_due, status, quote_id, issue_date, due_date, created_at, updated_at`

// Create persiste la cabecera y las líneas de la factura.
func (r *InvoiceRepo) Create(ctx context.Context, inv *entity.Invoice) error {
	if inv.ID == "" {
		inv.ID = uuid.New().String()
	}
	query := `
		INSERT INTO invoices (` + invoiceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)`
	_, err := r.q.Exec(ctx, query,
		inv.ID, inv.CompanyID, inv.UserID, inv.ClientID,
		inv.Client.Name, nullIfEmpty(inv.Client.TaxID), nullIfEmpty(inv.Client.Email), nullIfEmpty(inv.Client.Address),
		inv.InvoiceNumber, nullIfEmpty(inv.NCFType), nullIfEmpty(inv.NCFNumber), inv.Currency, inv.IncludeITBIS,
		inv.Subtotal, inv.DiscountTotal, inv.ITBIS, inv.Total, inv.BalanceDue, inv.Status,
		nullIfEmpty(inv.QuoteID), inv.IssueDate, inv.DueDate, inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("número de factura o NCF repetido: %w", domain.ErrDuplicate)
		}
		return fmt.Errorf("insert invoice: %w", err)
	}
	return insertLineItems(ctx, r.q, "invoice_items", "invoice_id", inv.ID, inv.Items)
}

// GetByID obtiene una factura completa (líneas y pagos).
func (r *InvoiceRepo) GetByID(ctx context.Context, id string) (*entity.Invoice, error) {
	return r.get(ctx, id, "")
}

// GetForUpdate bloquea la fila de la factura hasta el fin de la transacción.
func (r *InvoiceRepo) GetForUpdate(ctx context.Context, id string) (*entity.Invoice, error) {
	return r.get(ctx, id, " FOR UPDATE")
}

func (r *InvoiceRepo) get(ctx context.Context, id, lock string) (*entity.Invoice, error) {
	inv, err := scanInvoice(r.q.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`+lock, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	if inv.Items, err = listLineItems(ctx, r.q, "invoice_items", "invoice_id", inv.ID); err != nil {
		return nil, err
	}
	if inv.Payments, err = r.listPayments(ctx, inv.ID); err != nil {
		return nil, err
	}
	return inv, nil
}

// UpdateBalance persiste balance_due, status y updated_at.
func (r *InvoiceRepo) UpdateBalance(ctx context.Context, inv *entity.Invoice) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE invoices SET balance_due = $2, status = $3, updated_at = $4 WHERE id = $1`,
		inv.ID, inv.BalanceDue, inv.Status, inv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update invoice balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("factura %s: %w", inv.ID, domain.ErrNotFound)
	}
	return nil
}

// CreatePayment persiste un pago.
func (r *InvoiceRepo) CreatePayment(ctx context.Context, p *entity.Payment) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	query := `
		INSERT INTO payments (id, invoice_id, amount, payment_date, method, note, image_url, receipt_number, status, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		p.ID, p.InvoiceID, p.Amount, p.PaymentDate, p.Method, nullIfEmpty(p.Note), nullIfEmpty(p.ImageURL),
		p.ReceiptNumber, p.Status, p.CreatedAt, nullIfEmpty(p.CreatedBy),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("recibo %s: %w", p.ReceiptNumber, domain.ErrDuplicate)
		}
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func (r *InvoiceRepo) listPayments(ctx context.Context, invoiceID string) ([]entity.Payment, error) {
	query := `
		SELECT id, invoice_id, amount, payment_date, method, note, image_url, receipt_number, status, created_at, created_by
		FROM payments WHERE invoice_id = $1 ORDER BY created_at, receipt_number`
	rows, err := r.q.Query(ctx, query, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()
	var list []entity.Payment
	for rows.Next() {
		var p entity.Payment
		var note, imageURL, createdBy *string
		if err := rows.Scan(
			&p.ID, &p.InvoiceID, &p.Amount, &p.PaymentDate, &p.Method, &note, &imageURL,
			&p.ReceiptNumber, &p.Status, &p.CreatedAt, &createdBy,
		); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		p.Note = derefStr(note)
		p.ImageURL = derefStr(imageURL)
		p.CreatedBy = derefStr(createdBy)
		list = append(list, p)
	}
	return list, rows.Err()
}

// Delete elimina la factura y sus líneas (ON DELETE CASCADE). Los pagos la protegen (RESTRICT).
func (r *InvoiceRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM invoices WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete invoice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("factura %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// ListByCompany cabeceras de factura (sin líneas ni pagos), más recientes primero.
func (r *InvoiceRepo) ListByCompany(ctx context.Context, companyID string, f repository.InvoiceFilter) ([]*entity.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices
		WHERE company_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC, invoice_number DESC
		OFFSET $3`
	args := []any{companyID, f.Status, max(f.Offset, 0)}
	if f.Limit > 0 {
		query += ` LIMIT $4`
		args = append(args, f.Limit)
	}
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()
	var list []*entity.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		list = append(list, inv)
	}
	return list, rows.Err()
}

func scanInvoice(row pgx.Row) (*entity.Invoice, error) {
	var inv entity.Invoice
	var taxID, email, address, ncfType, ncfNumber, quoteID *string
	err := row.Scan(
		&inv.ID, &inv.CompanyID, &inv.UserID, &inv.ClientID,
		&inv.Client.Name, &taxID, &email, &address,
		&inv.InvoiceNumber, &ncfType, &ncfNumber, &inv.Currency, &inv.IncludeITBIS,
		&inv.Subtotal, &inv.DiscountTotal, &inv.ITBIS, &inv.Total, &inv.BalanceDue, &inv.Status,
		&quoteID, &inv.IssueDate, &inv.DueDate, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	inv.Client.TaxID = derefStr(taxID)
	inv.Client.Email = derefStr(email)
	inv.Client.Address = derefStr(address)
	inv.NCFType = derefStr(ncfType)
	inv.NCFNumber = derefStr(ncfNumber)
	inv.QuoteID = derefStr(quoteID)
	return &inv, nil
}
