package inventory

import "github.com/shopspring/decimal"

// Consumption cantidad tomada de un lote a su costo.
type Consumption struct {
	Quantity int64
	UnitCost decimal.Decimal
}

// WeightedCost costo unitario promedio ponderado de lo consumido (servicio de dominio).
// Costo = Σ(Cantidad * CostoLote) / Σ Cantidad. Sin cantidad devuelve fallback.
func WeightedCost(parts []Consumption, fallback decimal.Decimal) decimal.Decimal {
	var qty int64
	num := decimal.Zero
	for _, p := range parts {
		if p.Quantity <= 0 {
			continue
		}
		qty += p.Quantity
		num = num.Add(p.UnitCost.Mul(decimal.NewFromInt(p.Quantity)))
	}
	if qty == 0 {
		return fallback
	}
	return num.Div(decimal.NewFromInt(qty)).Round(4)
}
