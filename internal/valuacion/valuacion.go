// Package valuacion holds the pure pricing arithmetic used for kits:
// aggregate cost, suggested price from a target margin, and realized margin.
// Nothing here touches storage; every function is safe to call with zero values.
package valuacion

import "github.com/shopspring/decimal"

var cien = decimal.NewFromInt(100)

// PrecisionMargen is the number of decimal places kept by MargenRealizado.
// Exact margins have fewer; repeating fractions are rounded half-up at it.
const PrecisionMargen = 10

// Linea is the minimum a kit member needs to contribute to the cost.
// CostoUnitario is nil when the product has no known purchase cost.
type Linea struct {
	CostoUnitario *decimal.Decimal
	Cantidad      int
}

// CostoTotal sums costo_unitario × cantidad. A nil cost contributes 0.
func CostoTotal(lineas []Linea) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lineas {
		if l.CostoUnitario == nil {
			continue
		}
		total = total.Add(l.CostoUnitario.Mul(decimal.NewFromInt(int64(l.Cantidad))))
	}
	return total
}

// PrecioSugerido returns costo × (1 + margen/100). Negative margins are allowed.
func PrecioSugerido(costoTotal, margenPct decimal.Decimal) decimal.Decimal {
	return costoTotal.Mul(decimal.NewFromInt(1).Add(margenPct.Shift(-2)))
}

// MargenRealizado returns ((precio - costo) / costo) × 100 rounded to
// PrecisionMargen places, or 0 when costo is 0.
func MargenRealizado(costoTotal, precioVenta decimal.Decimal) decimal.Decimal {
	if costoTotal.IsZero() {
		return decimal.Zero
	}
	return precioVenta.Sub(costoTotal).Mul(cien).DivRound(costoTotal, PrecisionMargen)
}

// ParaMostrar rounds to two decimals. Only DTOs call it; aggregates stay exact.
func ParaMostrar(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Participacion returns parte/total × 100, or 0 when total is 0.
func Participacion(parte, total int) decimal.Decimal {
	if total == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(parte)).Mul(cien).Div(decimal.NewFromInt(int64(total)))
}
