package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de producto.
const (
	ProductTypeGood    = "good"    // bien físico: descuenta stock por lote
	ProductTypeService = "service" // servicio: no toca inventario
)

// Product representa un ítem del catálogo de la empresa.
// El stock agregado NO se persiste: se deriva siempre de la suma de sus lotes.
type Product struct {
	ID                 string
	CompanyID          string
	Code               string // único por empresa
	Name               string
	ProductType        string
	Currency           string          // DOP | USD
	Price              decimal.Decimal // precio de venta de catálogo
	Cost               decimal.Decimal // costo de referencia (servicios y lotes sin costo)
	IsTaxExempt        bool
	AllowNegativeStock bool
	IsActive           bool
	Batches            []Batch // en orden de consumo (position ASC)
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Batch es un lote de un producto con su propio costo, precio y existencia.
type Batch struct {
	ID             string
	ProductID      string
	Position       int
	Cost           decimal.Decimal
	Price          decimal.Decimal
	Stock          int64
	ExpirationDate *time.Time
}

// IsGood indica si el producto mueve inventario.
func (p *Product) IsGood() bool {
	return p.ProductType != ProductTypeService
}

// Stock devuelve la existencia agregada (suma de lotes).
func (p *Product) Stock() int64 {
	var total int64
	for _, b := range p.Batches {
		total += b.Stock
	}
	return total
}
