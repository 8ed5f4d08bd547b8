package service

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"

	"sistemavendas/internal/model"
	"sistemavendas/internal/valuacion"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProductoLookup resolves a member product id. ProductoRepository satisfies it.
type ProductoLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Producto, error)
}

// Motivos for an unresolved member.
const (
	MotivoNoEncontrado = "no_encontrado"
	MotivoOtraEmpresa  = "otra_empresa"
	MotivoEsKit        = "es_kit"
)

// ItemResuelto is a member joined with the product snapshot used for valuation.
type ItemResuelto struct {
	ItemID   uuid.UUID
	Producto model.Producto
	Cantidad int
	Subtotal decimal.Decimal
}

// ReferenciaFaltante is a member whose product could not be used.
type ReferenciaFaltante struct {
	ItemID     uuid.UUID
	ProductoID uuid.UUID
	Motivo     string
}

// Composicion is the read-time view of a kit. Unresolved members are listed
// in Faltantes and do not contribute to CostoTotal.
type Composicion struct {
	Kit         model.Producto
	Items       []ItemResuelto
	Faltantes   []ReferenciaFaltante
	CostoTotal  decimal.Decimal
	PrecioVenta decimal.Decimal
	MargenPct   decimal.Decimal
}

// Err reports the unresolved members as a *ReferenciaColganteError, or nil.
func (c *Composicion) Err() error {
	if len(c.Faltantes) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(c.Faltantes))
	for _, f := range c.Faltantes {
		ids = append(ids, f.ProductoID)
	}
	return &ReferenciaColganteError{ProductoIDs: ids}
}

// ConstruirComposicion resolves every item of kit and derives the aggregates.
// A preloaded item.Producto is used as-is; otherwise lookup is consulted.
// Only store failures other than not-found abort the build.
func ConstruirComposicion(ctx context.Context, kit *model.Producto, items []model.KitItem, lookup ProductoLookup) (*Composicion, error) {
	if !kit.EsKit {
		return nil, ErrNoEsKit
	}

	ordenados := make([]model.KitItem, len(items))
	copy(ordenados, items)
	sort.SliceStable(ordenados, func(i, j int) bool {
		if ordenados[i].Posicion != ordenados[j].Posicion {
			return ordenados[i].Posicion < ordenados[j].Posicion
		}
		return ordenados[i].CreatedAt.Before(ordenados[j].CreatedAt)
	})

	comp := &Composicion{
		Kit:         *kit,
		Items:       make([]ItemResuelto, 0, len(ordenados)),
		Faltantes:   []ReferenciaFaltante{},
		PrecioVenta: kit.PrecioVenta,
	}
	lineas := make([]valuacion.Linea, 0, len(ordenados))

	for _, it := range ordenados {
		p, err := resolver(ctx, it, lookup)
		if err != nil {
			return nil, err
		}
		motivo := ""
		switch {
		case p == nil:
			motivo = MotivoNoEncontrado
		case p.EmpresaID != kit.EmpresaID:
			motivo = MotivoOtraEmpresa
		case p.EsKit:
			motivo = MotivoEsKit
		}
		if motivo != "" {
			comp.Faltantes = append(comp.Faltantes, ReferenciaFaltante{ItemID: it.ID, ProductoID: it.ProductoID, Motivo: motivo})
			continue
		}

		linea := valuacion.Linea{CostoUnitario: p.PrecioCosto, Cantidad: it.Cantidad}
		lineas = append(lineas, linea)
		comp.Items = append(comp.Items, ItemResuelto{
			ItemID:   it.ID,
			Producto: *p,
			Cantidad: it.Cantidad,
			Subtotal: valuacion.CostoTotal([]valuacion.Linea{linea}),
		})
	}

	comp.CostoTotal = valuacion.CostoTotal(lineas)
	comp.MargenPct = valuacion.MargenRealizado(comp.CostoTotal, comp.PrecioVenta)
	return comp, nil
}

// resolver returns nil, nil when the product does not exist.
func resolver(ctx context.Context, it model.KitItem, lookup ProductoLookup) (*model.Producto, error) {
	if it.Producto != nil && it.Producto.ID == it.ProductoID {
		return it.Producto, nil
	}
	if lookup == nil {
		return nil, nil
	}
	p, err := lookup.FindByID(ctx, it.ProductoID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, ErrNoEncontrado) {
			return nil, nil
		}
		return nil, traducir("buscar producto del kit", err)
	}
	return p, nil
}

// ── Validators ────────────────────────────────────────────────────────────────
// Pure checks run by KitService before any write.

// ValidarCantidad accepts integral values >= 1.
func ValidarCantidad(c decimal.Decimal) (int, error) {
	if !c.IsInteger() || c.LessThan(decimal.NewFromInt(1)) || c.GreaterThan(decimal.NewFromInt(math.MaxInt32)) {
		return 0, ErrCantidadInvalida
	}
	return int(c.IntPart()), nil
}

// ValidarPrecio accepts values >= 0.
func ValidarPrecio(p decimal.Decimal) error {
	if p.IsNegative() {
		return ErrPrecioInvalido
	}
	return nil
}

// ValidarNombreKit returns the trimmed name.
func ValidarNombreKit(nombre string) (string, error) {
	n := strings.TrimSpace(nombre)
	if n == "" {
		return "", ErrNombreInvalido
	}
	return n, nil
}

// ValidarCandidato checks that candidato can be a member of kit.
// A product of another empresa is reported as not found.
func ValidarCandidato(kit, candidato *model.Producto) error {
	if candidato.EmpresaID != kit.EmpresaID {
		return ErrNoEncontrado
	}
	if candidato.EsKit || candidato.ID == kit.ID {
		return ErrProductoEsKit
	}
	return nil
}

// ValidarNuevoItem rejects a product already present in actuales and an
// invalid quantity. It returns the validated quantity.
func ValidarNuevoItem(actuales []model.KitItem, productoID uuid.UUID, cantidad decimal.Decimal) (int, error) {
	if err := verificarDuplicado(actuales, productoID, uuid.Nil); err != nil {
		return 0, err
	}
	return ValidarCantidad(cantidad)
}

// ValidarEdicionItem finds itemID in actuales and, when the product changes,
// re-runs the duplicate check against every other item.
func ValidarEdicionItem(actuales []model.KitItem, itemID, nuevoProductoID uuid.UUID, cantidad decimal.Decimal) (*model.KitItem, int, error) {
	var actual *model.KitItem
	for i := range actuales {
		if actuales[i].ID == itemID {
			actual = &actuales[i]
			break
		}
	}
	if actual == nil {
		return nil, 0, ErrNoEncontrado
	}
	if nuevoProductoID != actual.ProductoID {
		if err := verificarDuplicado(actuales, nuevoProductoID, itemID); err != nil {
			return nil, 0, err
		}
	}
	n, err := ValidarCantidad(cantidad)
	if err != nil {
		return nil, 0, err
	}
	return actual, n, nil
}

// verificarDuplicado looks for productoID among actuales, skipping the item
// whose id is excluir. uuid.Nil excludes nothing: items not yet persisted
// carry a nil id and must still be compared.
func verificarDuplicado(actuales []model.KitItem, productoID, excluir uuid.UUID) error {
	for _, it := range actuales {
		if it.ProductoID != productoID || (excluir != uuid.Nil && it.ID == excluir) {
			continue
		}
		e := &MiembroDuplicadoError{ProductoID: productoID}
		if it.Producto != nil {
			e.Nombre = it.Producto.Nombre
		}
		return e
	}
	return nil
}

// siguientePosicion returns one past the highest Posicion in items.
func siguientePosicion(items []model.KitItem) int {
	ultima := -1
	for _, it := range items {
		if it.Posicion > ultima {
			ultima = it.Posicion
		}
	}
	return ultima + 1
}
