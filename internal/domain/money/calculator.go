// Package money contiene el cálculo puro de totales de facturas y cotizaciones.
// Todos los montos son decimales exactos; los resultados se redondean a 2 decimales (mitad hacia arriba).
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// DefaultTaxRate tasa ITBIS por defecto (18%).
var DefaultTaxRate = decimal.RequireFromString("0.18")

var (
	hundred = decimal.NewFromInt(100)

	// x/text/currency no exporta constante para el peso dominicano.
	dop = currency.MustParseISO("DOP")

	// Monedas aceptadas por el motor (sin conversión entre ellas).
	supportedCurrencies = map[currency.Unit]bool{
		dop:          true,
		currency.USD: true,
	}
)

// Line es la vista mínima de una línea que necesita el cálculo.
type Line struct {
	UnitPrice   decimal.Decimal
	Quantity    int64
	Discount    decimal.Decimal // porcentaje 0..100
	IsTaxExempt bool
}

// Totals resultado del cálculo, redondeado a 2 decimales.
type Totals struct {
	Subtotal        decimal.Decimal
	DiscountTotal   decimal.Decimal
	NetSubtotal     decimal.Decimal
	TaxableSubtotal decimal.Decimal
	ITBIS           decimal.Decimal
	Total           decimal.Decimal
}

// FinalPrice precio unitario luego del descuento porcentual (sin redondear).
func FinalPrice(unitPrice, discount decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(1).Sub(discount.Div(hundred)))
}

// Calculate aplica las reglas de ITBIS sobre las líneas. Es pura e idempotente.
// Un precio ausente (cero) cuenta como 0; la lista vacía debe rechazarse antes de llamar.
func Calculate(lines []Line, includeITBIS bool, taxRate decimal.Decimal) Totals {
	subtotal := decimal.Zero
	discountTotal := decimal.Zero
	taxable := decimal.Zero

	for _, l := range lines {
		qty := decimal.NewFromInt(l.Quantity)
		gross := l.UnitPrice.Mul(qty)
		subtotal = subtotal.Add(gross)
		discountTotal = discountTotal.Add(gross.Mul(l.Discount).Div(hundred))
		if !l.IsTaxExempt {
			taxable = taxable.Add(FinalPrice(l.UnitPrice, l.Discount).Mul(qty))
		}
	}

	itbis := decimal.Zero
	if includeITBIS {
		itbis = taxable.Mul(taxRate)
	}

	t := Totals{
		Subtotal:        Round(subtotal),
		DiscountTotal:   Round(discountTotal),
		NetSubtotal:     Round(subtotal.Sub(discountTotal)),
		TaxableSubtotal: Round(taxable),
		ITBIS:           Round(itbis),
	}
	t.Total = Round(t.NetSubtotal.Add(t.ITBIS))
	return t
}

// Round redondea a 2 decimales. decimal.Round redondea la mitad alejándose de cero,
// que para montos no negativos es mitad hacia arriba.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ValidateDiscount exige un porcentaje entre 0 y 100.
func ValidateDiscount(d decimal.Decimal) error {
	if d.IsNegative() || d.GreaterThan(hundred) {
		return fmt.Errorf("descuento fuera de rango: %s", d.String())
	}
	return nil
}

// ValidateCurrency normaliza y valida el código ISO 4217 contra las monedas soportadas.
func ValidateCurrency(code string) (string, error) {
	unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return "", fmt.Errorf("moneda inválida %q: %w", code, err)
	}
	if !supportedCurrencies[unit] {
		return "", fmt.Errorf("moneda no soportada: %s", unit.String())
	}
	return unit.String(), nil
}
