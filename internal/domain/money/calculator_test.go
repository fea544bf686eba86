package money_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Ventas-api/internal/domain/money"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertMoney(t *testing.T, want string, got decimal.Decimal, campo string) {
	t.Helper()
	assert.Truef(t, d(want).Equal(got), "%s: esperado %s, obtenido %s", campo, want, got.String())
}

// ── Calculate ────────────────────────────────────────────────────────────────

// Dos unidades a 100 con 10% de descuento, gravadas, ITBIS incluido.
func TestCalculate_DescuentoEITBIS(t *testing.T) {
	lines := []money.Line{{UnitPrice: d("100"), Quantity: 2, Discount: d("10")}}

	got := money.Calculate(lines, true, money.DefaultTaxRate)

	assertMoney(t, "200.00", got.Subtotal, "subtotal")
	assertMoney(t, "20.00", got.DiscountTotal, "discountTotal")
	assertMoney(t, "180.00", got.NetSubtotal, "netSubtotal")
	assertMoney(t, "32.40", got.ITBIS, "itbis")
	assertMoney(t, "212.40", got.Total, "total")
}

func TestCalculate_SinITBIS_ImpuestoCero(t *testing.T) {
	lines := []money.Line{{UnitPrice: d("50"), Quantity: 3}}

	got := money.Calculate(lines, false, money.DefaultTaxRate)

	assert.True(t, got.ITBIS.IsZero())
	assertMoney(t, "150.00", got.Total, "total")
}

func TestCalculate_ItemsExentosNoTributan(t *testing.T) {
	lines := []money.Line{
		{UnitPrice: d("100"), Quantity: 1},
		{UnitPrice: d("100"), Quantity: 1, IsTaxExempt: true},
	}

	got := money.Calculate(lines, true, money.DefaultTaxRate)

	assertMoney(t, "100.00", got.TaxableSubtotal, "taxableSubtotal")
	assertMoney(t, "18.00", got.ITBIS, "itbis")
	assertMoney(t, "218.00", got.Total, "total")
}

func TestCalculate_TodoExento_ITBISCero(t *testing.T) {
	lines := []money.Line{{UnitPrice: d("10"), Quantity: 5, IsTaxExempt: true}}

	got := money.Calculate(lines, true, money.DefaultTaxRate)

	assert.True(t, got.ITBIS.IsZero())
	assertMoney(t, "50.00", got.Total, "total")
}

func TestCalculate_RedondeoMitadArriba(t *testing.T) {
	// 0.125 * 1 -> 0.13 ; ITBIS 0.18 * 0.125 = 0.0225 -> 0.02
	lines := []money.Line{{UnitPrice: d("0.125"), Quantity: 1}}

	got := money.Calculate(lines, true, money.DefaultTaxRate)

	assertMoney(t, "0.13", got.Subtotal, "subtotal")
	assertMoney(t, "0.02", got.ITBIS, "itbis")
	assertMoney(t, "0.15", got.Total, "total")
}

func TestCalculate_TotalEsNetoMasITBIS(t *testing.T) {
	cases := [][]money.Line{
		{{UnitPrice: d("19.99"), Quantity: 3, Discount: d("7.5")}},
		{{UnitPrice: d("1234.56"), Quantity: 1, Discount: d("33.33")}, {UnitPrice: d("0.01"), Quantity: 999}},
		{{UnitPrice: d("5"), Quantity: 1, Discount: d("100")}},
	}
	for _, lines := range cases {
		got := money.Calculate(lines, true, money.DefaultTaxRate)
		assert.True(t, got.Total.Equal(got.NetSubtotal.Add(got.ITBIS).Round(2)))
		assert.True(t, got.NetSubtotal.Equal(got.Subtotal.Sub(got.DiscountTotal)) ||
			got.NetSubtotal.Sub(got.Subtotal.Sub(got.DiscountTotal)).Abs().LessThanOrEqual(d("0.01")))
	}
}

func TestCalculate_Idempotente(t *testing.T) {
	lines := []money.Line{{UnitPrice: d("33.33"), Quantity: 7, Discount: d("12.5")}}

	a := money.Calculate(lines, true, money.DefaultTaxRate)
	b := money.Calculate(lines, true, money.DefaultTaxRate)

	assert.Equal(t, a, b)
}

func TestCalculate_PrecioAusenteCuentaComoCero(t *testing.T) {
	lines := []money.Line{{Quantity: 4}}

	got := money.Calculate(lines, true, money.DefaultTaxRate)

	assert.True(t, got.Total.IsZero())
}

// ── FinalPrice / validaciones ────────────────────────────────────────────────

func TestFinalPrice(t *testing.T) {
	assertMoney(t, "90", money.FinalPrice(d("100"), d("10")), "finalPrice")
	assertMoney(t, "100", money.FinalPrice(d("100"), decimal.Zero), "finalPrice")
	assertMoney(t, "0", money.FinalPrice(d("100"), d("100")), "finalPrice")
}

func TestValidateDiscount(t *testing.T) {
	assert.NoError(t, money.ValidateDiscount(d("0")))
	assert.NoError(t, money.ValidateDiscount(d("100")))
	assert.Error(t, money.ValidateDiscount(d("-1")))
	assert.Error(t, money.ValidateDiscount(d("100.01")))
}

func TestValidateCurrency(t *testing.T) {
	code, err := money.ValidateCurrency(" dop ")
	require.NoError(t, err)
	assert.Equal(t, "DOP", code)

	code, err = money.ValidateCurrency("DOP")
	require.NoError(t, err)
	assert.Equal(t, "DOP", code)

	code, err = money.ValidateCurrency("USD")
	require.NoError(t, err)
	assert.Equal(t, "USD", code)

	_, err = money.ValidateCurrency("EUR")
	assert.Error(t, err, "EUR es ISO válido pero no soportado")

	_, err = money.ValidateCurrency("XXXX")
	assert.Error(t, err)
}
