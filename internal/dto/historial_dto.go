package dto

import "github.com/shopspring/decimal"

// HistorialPrecioItem is one row in a kit's price-history list.
type HistorialPrecioItem struct {
	ID           string          `json:"id"`
	ProductoID   string          `json:"producto_id"`
	VentaAntes   decimal.Decimal `json:"venta_antes"`
	VentaDespues decimal.Decimal `json:"venta_despues"`
	CostoTotal   decimal.Decimal `json:"costo_total"`
	MargenPct    decimal.Decimal `json:"margen_pct"`
	Motivo       string          `json:"motivo"`
	CreatedAt    string          `json:"created_at"`
}

// HistorialPrecioListResponse is returned by GET /v1/kits/:id/historial-precios.
type HistorialPrecioListResponse struct {
	Data  []HistorialPrecioItem `json:"data"`
	Total int64                 `json:"total"`
	Page  int                   `json:"page"`
	Limit int                   `json:"limit"`
}
