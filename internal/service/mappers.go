package service

import (
	"time"

	"sistemavendas/internal/dto"
	"sistemavendas/internal/model"
	"sistemavendas/internal/valuacion"
)

func productoToResponse(p *model.Producto) dto.ProductoResponse {
	return dto.ProductoResponse{
		ID:           p.ID.String(),
		Nombre:       p.Nombre,
		Descripcion:  p.Descripcion,
		CodigoBarras: p.CodigoBarras,
		PrecioCosto:  p.PrecioCosto,
		PrecioVenta:  p.PrecioVenta,
		EsKit:        p.EsKit,
		StockActual:  p.StockActual,
		StockMinimo:  p.StockMinimo,
	}
}

func composicionToResponse(c *Composicion) *dto.ComposicionResponse {
	resp := &dto.ComposicionResponse{
		ID:                 c.Kit.ID.String(),
		Nombre:             c.Kit.Nombre,
		Descripcion:        c.Kit.Descripcion,
		Items:              make([]dto.ItemKitResponse, 0, len(c.Items)),
		Faltantes:          make([]dto.ReferenciaFaltanteResponse, 0, len(c.Faltantes)),
		CostoTotal:         c.CostoTotal,
		PrecioVenta:        c.PrecioVenta,
		MargenPct:          c.MargenPct,
		CostoTotalMostrado: valuacion.ParaMostrar(c.CostoTotal),
		MargenMostrado:     valuacion.ParaMostrar(c.MargenPct),
	}
	for _, it := range c.Items {
		resp.Items = append(resp.Items, dto.ItemKitResponse{
			ID:               it.ItemID.String(),
			ProductoID:       it.Producto.ID.String(),
			Nombre:           it.Producto.Nombre,
			Cantidad:         it.Cantidad,
			CostoUnitario:    it.Producto.PrecioCosto,
			PrecioUnitario:   it.Producto.PrecioVenta,
			Subtotal:         it.Subtotal,
			SubtotalMostrado: valuacion.ParaMostrar(it.Subtotal),
		})
	}
	for _, f := range c.Faltantes {
		resp.Faltantes = append(resp.Faltantes, dto.ReferenciaFaltanteResponse{
			ItemID:     f.ItemID.String(),
			ProductoID: f.ProductoID.String(),
			Motivo:     f.Motivo,
		})
	}
	return resp
}

func composicionToResumen(c *Composicion) dto.KitResumenResponse {
	return dto.KitResumenResponse{
		ID:            c.Kit.ID.String(),
		Nombre:        c.Kit.Nombre,
		PrecioVenta:   c.PrecioVenta,
		CostoTotal:    c.CostoTotal,
		MargenPct:     c.MargenPct,
		CantidadItems: len(c.Items),
		Incompleto:    len(c.Faltantes) > 0,
	}
}

func historialToItem(h *model.HistorialPrecio) dto.HistorialPrecioItem {
	return dto.HistorialPrecioItem{
		ID:           h.ID.String(),
		ProductoID:   h.ProductoID.String(),
		VentaAntes:   h.VentaAntes,
		VentaDespues: h.VentaDespues,
		CostoTotal:   h.CostoTotal,
		MargenPct:    h.MargenPct,
		Motivo:       h.Motivo,
		CreatedAt:    h.CreatedAt.Format(time.RFC3339),
	}
}

func movimientoToResponse(m *model.MovimientoStock) dto.MovimientoStockResponse {
	resp := dto.MovimientoStockResponse{
		ID:            m.ID.String(),
		ProductoID:    m.ProductoID.String(),
		Tipo:          m.Tipo,
		Cantidad:      m.Cantidad,
		StockAnterior: m.StockAnterior,
		StockNuevo:    m.StockNuevo,
		Motivo:        m.Motivo,
		CreatedAt:     m.CreatedAt.Format(time.RFC3339),
	}
	if m.Producto != nil {
		resp.ProductoNombre = m.Producto.Nombre
	}
	return resp
}
