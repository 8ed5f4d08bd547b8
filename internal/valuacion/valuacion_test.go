package valuacion_test

import (
	"math/rand"
	"testing"

	"sistemavendas/internal/valuacion"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func ptr(d decimal.Decimal) *decimal.Decimal { return &d }

func TestCostoTotalIgnoraCostoAusente(t *testing.T) {
	lineas := []valuacion.Linea{
		{CostoUnitario: ptr(decimal.NewFromFloat(10.00)), Cantidad: 2},
		{CostoUnitario: nil, Cantidad: 3},
	}
	assert.Equal(t, "20", valuacion.CostoTotal(lineas).String())
}

func TestCostoTotalVacio(t *testing.T) {
	assert.True(t, valuacion.CostoTotal(nil).IsZero())
}

func TestCostoTotalSumaTodasLasLineas(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		n := r.Intn(8)
		lineas := make([]valuacion.Linea, 0, n)
		esperado := decimal.Zero
		for j := 0; j < n; j++ {
			qty := r.Intn(20) + 1
			if r.Intn(4) == 0 {
				lineas = append(lineas, valuacion.Linea{Cantidad: qty})
				continue
			}
			costo := decimal.New(int64(r.Intn(100000)), -2)
			lineas = append(lineas, valuacion.Linea{CostoUnitario: &costo, Cantidad: qty})
			esperado = esperado.Add(costo.Mul(decimal.NewFromInt(int64(qty))))
		}
		assert.True(t, esperado.Equal(valuacion.CostoTotal(lineas)), "iteration %d", i)
	}
}

func TestPrecioSugerido(t *testing.T) {
	got := valuacion.PrecioSugerido(decimal.NewFromInt(50), decimal.NewFromInt(30))
	assert.Equal(t, "65", got.String())

	assert.True(t, valuacion.PrecioSugerido(decimal.Zero, decimal.NewFromInt(80)).IsZero())

	neg := valuacion.PrecioSugerido(decimal.NewFromInt(100), decimal.NewFromInt(-25))
	assert.Equal(t, "75", neg.String())
}

func TestMargenRealizado(t *testing.T) {
	got := valuacion.MargenRealizado(decimal.NewFromInt(50), decimal.NewFromInt(65))
	assert.Equal(t, "30", got.String())
}

func TestMargenRealizadoFraccionPeriodica(t *testing.T) {
	got := valuacion.MargenRealizado(decimal.NewFromInt(3), decimal.NewFromInt(4))
	assert.Equal(t, "33.3333333333", got.String())

	got = valuacion.MargenRealizado(decimal.NewFromInt(3), decimal.NewFromInt(2))
	assert.Equal(t, "-33.3333333333", got.String())
}

func TestMargenRealizadoCostoCero(t *testing.T) {
	for _, precio := range []float64{0, 1, 99.99, -5, 1e9} {
		got := valuacion.MargenRealizado(decimal.Zero, decimal.NewFromFloat(precio))
		assert.True(t, got.IsZero(), "precio %v", precio)
	}
}

func TestPrecioYMargenSonInversos(t *testing.T) {
	tol := decimal.New(1, -9)
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		costo := decimal.New(int64(r.Intn(1000000)+1), -2)
		margen := decimal.New(int64(r.Intn(40000)-10000), -2)

		precio := valuacion.PrecioSugerido(costo, margen)
		back := valuacion.MargenRealizado(costo, precio)

		assert.True(t, back.Sub(margen).Abs().LessThanOrEqual(tol),
			"costo=%s margen=%s back=%s", costo, margen, back)
	}
}

func TestParaMostrar(t *testing.T) {
	assert.Equal(t, "33.33", valuacion.ParaMostrar(decimal.RequireFromString("33.3333")).String())
}

func TestParticipacion(t *testing.T) {
	assert.Equal(t, "25", valuacion.Participacion(5, 20).String())
	assert.True(t, valuacion.Participacion(5, 0).IsZero())
}
