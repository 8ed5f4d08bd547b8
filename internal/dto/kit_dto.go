package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// ItemKitRequest carries one member. Cantidad is decimal so that a fractional
// value reaches the service and is rejected as an invalid quantity, instead
// of failing JSON binding with a generic message.
type ItemKitRequest struct {
	ProductoID string          `json:"producto_id" validate:"required,uuid"`
	Cantidad   decimal.Decimal `json:"cantidad"`
}

type CrearKitRequest struct {
	Nombre      string           `json:"nombre"       validate:"max=120"`
	Descripcion *string          `json:"descripcion"`
	PrecioVenta decimal.Decimal  `json:"precio_venta"`
	Items       []ItemKitRequest `json:"items"        validate:"dive"`
}

type ActualizarKitRequest struct {
	Nombre      string          `json:"nombre"       validate:"max=120"`
	PrecioVenta decimal.Decimal `json:"precio_venta"`
}

type PrecioSugeridoRequest struct {
	MargenPct decimal.Decimal `form:"margen" json:"margen_pct"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ItemKitResponse struct {
	ID               string           `json:"id"`
	ProductoID       string           `json:"producto_id"`
	Nombre           string           `json:"nombre"`
	Cantidad         int              `json:"cantidad"`
	CostoUnitario    *decimal.Decimal `json:"costo_unitario"`
	PrecioUnitario   decimal.Decimal  `json:"precio_unitario"`
	Subtotal         decimal.Decimal  `json:"subtotal"`
	SubtotalMostrado decimal.Decimal  `json:"subtotal_mostrado"`
}

type ReferenciaFaltanteResponse struct {
	ItemID     string `json:"item_id"`
	ProductoID string `json:"producto_id"`
	Motivo     string `json:"motivo"`
}

// ComposicionResponse is the resolved view of a kit. The *_mostrado fields
// are rounded to two decimals; the others are exact.
type ComposicionResponse struct {
	ID                 string                       `json:"id"`
	Nombre             string                       `json:"nombre"`
	Descripcion        *string                      `json:"descripcion"`
	Items              []ItemKitResponse            `json:"items"`
	Faltantes          []ReferenciaFaltanteResponse `json:"faltantes"`
	CostoTotal         decimal.Decimal              `json:"costo_total"`
	PrecioVenta        decimal.Decimal              `json:"precio_venta"`
	MargenPct          decimal.Decimal              `json:"margen_pct"`
	CostoTotalMostrado decimal.Decimal              `json:"costo_total_mostrado"`
	MargenMostrado     decimal.Decimal              `json:"margen_mostrado"`
}

// KitResumenResponse is one row of the kit list (nombre, precio, costo, margen, items).
type KitResumenResponse struct {
	ID            string          `json:"id"`
	Nombre        string          `json:"nombre"`
	PrecioVenta   decimal.Decimal `json:"precio_venta"`
	CostoTotal    decimal.Decimal `json:"costo_total"`
	MargenPct     decimal.Decimal `json:"margen_pct"`
	CantidadItems int             `json:"cantidad_items"`
	Incompleto    bool            `json:"incompleto"`
}

type PrecioSugeridoResponse struct {
	KitID          string          `json:"kit_id"`
	CostoTotal     decimal.Decimal `json:"costo_total"`
	MargenPct      decimal.Decimal `json:"margen_pct"`
	PrecioSugerido decimal.Decimal `json:"precio_sugerido"`
	PrecioMostrado decimal.Decimal `json:"precio_mostrado"`
}
