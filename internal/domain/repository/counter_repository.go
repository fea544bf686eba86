package repository

import "context"

// Tipos de contador de documentos.
const (
	CounterInvoice = "invoice"
	CounterQuote   = "quote"
)

// CounterRepository entrega consecutivos por empresa y tipo de documento.
type CounterRepository interface {
	Next(ctx context.Context, companyID, kind string) (int64, error)
}
