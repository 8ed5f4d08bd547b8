package dto

import "github.com/shopspring/decimal"

// PanelItem is one product row of the stock panel.
type PanelItem struct {
	ProductoID  string          `json:"producto_id"`
	Nombre      string          `json:"nombre"`
	Cantidad    int             `json:"cantidad"`
	Porcentaje  decimal.Decimal `json:"porcentaje"`
	ValorTotal  decimal.Decimal `json:"valor_total"`
	StockMinimo int             `json:"stock_minimo"`
	StockBajo   bool            `json:"stock_bajo"`
}

type PanelResponse struct {
	Productos     []PanelItem     `json:"productos"`
	CantidadTotal int             `json:"cantidad_total"`
	ValorTotal    decimal.Decimal `json:"valor_total"`
}

type MovimientoStockResponse struct {
	ID             string `json:"id"`
	ProductoID     string `json:"producto_id"`
	ProductoNombre string `json:"producto_nombre"`
	Tipo           string `json:"tipo"`
	Cantidad       int    `json:"cantidad"`
	StockAnterior  int    `json:"stock_anterior"`
	StockNuevo     int    `json:"stock_nuevo"`
	Motivo         string `json:"motivo"`
	CreatedAt      string `json:"created_at"`
}

type MovimientoStockFilter struct {
	ProductoID string `form:"producto_id" validate:"omitempty,uuid"`
	Limit      int    `form:"limit,default=10" validate:"min=1,max=100"`
}
