package service

import (
	"context"

	"sistemavendas/internal/dto"
	"sistemavendas/internal/repository"
	"sistemavendas/internal/valuacion"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InventarioService defines the contract for the stock panel and movement log.
type InventarioService interface {
	Panel(ctx context.Context, empresaID uuid.UUID) (*dto.PanelResponse, error)
	ListarMovimientos(ctx context.Context, empresaID uuid.UUID, filter dto.MovimientoStockFilter) ([]dto.MovimientoStockResponse, error)
}

type inventarioService struct {
	productos   repository.ProductoRepository
	movimientos repository.MovimientoStockRepository
}

func NewInventarioService(productos repository.ProductoRepository, movimientos repository.MovimientoStockRepository) InventarioService {
	return &inventarioService{productos: productos, movimientos: movimientos}
}

// Panel lists every leaf product with its share of the total units and its
// stock value at cost. The share is 0 for every row when the total is 0.
func (s *inventarioService) Panel(ctx context.Context, empresaID uuid.UUID) (*dto.PanelResponse, error) {
	esKit := false
	rows, err := s.productos.ListByEmpresa(ctx, empresaID, &esKit)
	if err != nil {
		return nil, traducir("listar productos", err)
	}

	total := 0
	for _, p := range rows {
		total += p.StockActual
	}

	resp := &dto.PanelResponse{
		Productos:     make([]dto.PanelItem, 0, len(rows)),
		CantidadTotal: total,
		ValorTotal:    decimal.Zero,
	}
	for _, p := range rows {
		valor := valuacion.CostoTotal([]valuacion.Linea{{CostoUnitario: p.PrecioCosto, Cantidad: p.StockActual}})
		resp.ValorTotal = resp.ValorTotal.Add(valor)
		resp.Productos = append(resp.Productos, dto.PanelItem{
			ProductoID:  p.ID.String(),
			Nombre:      p.Nombre,
			Cantidad:    p.StockActual,
			Porcentaje:  valuacion.Participacion(p.StockActual, total),
			ValorTotal:  valor,
			StockMinimo: p.StockMinimo,
			StockBajo:   p.StockActual <= p.StockMinimo,
		})
	}
	return resp, nil
}

func (s *inventarioService) ListarMovimientos(ctx context.Context, empresaID uuid.UUID, filter dto.MovimientoStockFilter) ([]dto.MovimientoStockResponse, error) {
	f := repository.MovimientoStockFilter{EmpresaID: empresaID, Limit: filter.Limit}
	if filter.ProductoID != "" {
		id, err := uuid.Parse(filter.ProductoID)
		if err != nil {
			return nil, ErrNoEncontrado
		}
		f.ProductoID = &id
	}

	rows, err := s.movimientos.List(ctx, f)
	if err != nil {
		return nil, traducir("listar movimientos", err)
	}
	out := make([]dto.MovimientoStockResponse, 0, len(rows))
	for i := range rows {
		out = append(out, movimientoToResponse(&rows[i]))
	}
	return out, nil
}
