package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CrearProductoRequest struct {
	Nombre       string           `json:"nombre"        validate:"required,max=120"`
	Descripcion  *string          `json:"descripcion"`
	CodigoBarras *string          `json:"codigo_barras" validate:"omitempty,max=32"`
	PrecioCosto  *decimal.Decimal `json:"precio_costo"`
	PrecioVenta  decimal.Decimal  `json:"precio_venta"`
	StockActual  int              `json:"stock_actual"  validate:"min=0"`
	StockMinimo  int              `json:"stock_minimo"  validate:"min=0"`
}

// ActualizarProductoRequest is a partial update: nil fields are left untouched.
type ActualizarProductoRequest struct {
	Nombre       *string          `json:"nombre"        validate:"omitempty,max=120"`
	Descripcion  *string          `json:"descripcion"`
	CodigoBarras *string          `json:"codigo_barras" validate:"omitempty,max=32"`
	PrecioCosto  *decimal.Decimal `json:"precio_costo"`
	PrecioVenta  *decimal.Decimal `json:"precio_venta"`
	StockMinimo  *int             `json:"stock_minimo"  validate:"omitempty,min=0"`
}

type AjustarStockRequest struct {
	Delta  int    `json:"delta"  validate:"required"`
	Motivo string `json:"motivo" validate:"max=200"`
}

// ─── Filter ──────────────────────────────────────────────────────────────────

type ProductoFilter struct {
	// EsKit: "true" = kits, "all" = todos, anything else = productos simples (default)
	EsKit string `form:"es_kit"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ProductoResponse struct {
	ID           string           `json:"id"`
	Nombre       string           `json:"nombre"`
	Descripcion  *string          `json:"descripcion"`
	CodigoBarras *string          `json:"codigo_barras"`
	PrecioCosto  *decimal.Decimal `json:"precio_costo"`
	PrecioVenta  decimal.Decimal  `json:"precio_venta"`
	EsKit        bool             `json:"es_kit"`
	StockActual  int              `json:"stock_actual"`
	StockMinimo  int              `json:"stock_minimo"`
}

type AjustarStockResponse struct {
	ProductoID    string `json:"producto_id"`
	StockAnterior int    `json:"stock_anterior"`
	StockNuevo    int    `json:"stock_nuevo"`
}
