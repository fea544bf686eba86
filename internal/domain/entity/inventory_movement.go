package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento de inventario.
const (
	MovementTypeOUT    = "OUT"    // salida por factura
	MovementTypeRETURN = "RETURN" // reversa de una salida al eliminar la factura
)

// InventoryMovement registra cuánto se tomó (o devolvió) de un lote concreto.
// TransactionID es el ID de la factura que originó la salida; la reversa se calcula a partir de estas filas.
type InventoryMovement struct {
	ID            string
	TransactionID string
	CompanyID     string
	ProductID     string
	BatchID       string
	Type          string
	Quantity      int64 // negativo en salidas, positivo en reversas
	UnitCost      decimal.Decimal
	CreatedAt     time.Time
	CreatedBy     string
}
