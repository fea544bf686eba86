package billing

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Ventas-api/internal/application/fiscal"
	"github.com/jhoicas/Ventas-api/internal/application/inventory"
	"github.com/jhoicas/Ventas-api/internal/domain/money"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
)

// StockLedger integra facturación con inventario. Opera con los repos de la transacción del caller;
// si Reserve retorna error (ej: ErrInsufficientStock) el caller debe abortar la unidad de trabajo.
type StockLedger interface {
	Reserve(ctx context.Context, tx repository.Repos, in inventory.ReserveInput) (*inventory.Reservation, error)
	Restore(ctx context.Context, tx repository.Repos, in inventory.RestoreInput) (int64, error)
}

// SequenceAllocator asigna NCF dentro de la transacción del caller.
type SequenceAllocator interface {
	AllocateNext(ctx context.Context, tx repository.Repos, companyID, typeCode string) (*fiscal.Allocation, error)
	Lock(ctx context.Context, companyID, typeCode string) func()
}

// Config reglas de facturación configurables.
type Config struct {
	TaxRate         *decimal.Decimal // nil: money.DefaultTaxRate; cero factura sin ITBIS
	FiscalNumbering bool             // asignar NCF a toda factura nueva
	DefaultNCFType  string           // tipo usado cuando la numeración fiscal está activa
	DefaultCurrency string
	PaymentTermDays int // vencimiento de facturas nacidas de cotizaciones
}

func (c Config) withDefaults() Config {
	if c.TaxRate == nil {
		rate := money.DefaultTaxRate
		c.TaxRate = &rate
	}
	if c.DefaultNCFType == "" {
		c.DefaultNCFType = "B02"
	}
	if c.DefaultCurrency == "" {
		c.DefaultCurrency = "DOP"
	}
	if c.PaymentTermDays <= 0 {
		c.PaymentTermDays = 30
	}
	return c
}
