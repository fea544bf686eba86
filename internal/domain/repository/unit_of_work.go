package repository

import "context"

// Repos agrupa los repositorios atados a una misma transacción (o al pool, para lecturas).
type Repos struct {
	Products  ProductRepository
	Clients   ClientRepository
	Movements InventoryMovementRepository
	Invoices  InvoiceRepository
	Quotes    QuoteRepository
	Sequences NCFSequenceRepository
	Counters  CounterRepository
	Outbox    OutboxRepository
}

// UnitOfWork ejecuta fn dentro de una transacción: si fn devuelve error nada se persiste.
type UnitOfWork interface {
	Run(ctx context.Context, fn func(ctx context.Context, tx Repos) error) error
}
