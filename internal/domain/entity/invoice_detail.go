package entity

import "github.com/shopspring/decimal"

// LineItem representa una línea de factura o cotización.
// Precio, costo y exención quedan congelados al crearse el documento.
type LineItem struct {
	ID             string
	ProductID      string
	ProductName    string
	ProductType    string
	Quantity       int64
	UnitPrice      decimal.Decimal
	Discount       decimal.Decimal // porcentaje 0..100
	FinalPrice     decimal.Decimal // UnitPrice * (1 - Discount/100)
	UnitCost       decimal.Decimal
	IsTaxExempt    bool
	NumberOfPeople *int
}

// IsGood indica si la línea mueve inventario.
func (l LineItem) IsGood() bool {
	return l.ProductType != ProductTypeService
}
