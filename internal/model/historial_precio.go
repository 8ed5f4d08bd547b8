package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// HistorialPrecio registra cada cambio de precio de venta de un kit.
// Los registros son inmutables.
type HistorialPrecio struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EmpresaID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductoID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	VentaAntes   decimal.Decimal `gorm:"type:decimal(12,4);not null"`
	VentaDespues decimal.Decimal `gorm:"type:decimal(12,4);not null"`
	// Costo and margin of the composition at the moment of the change
	CostoTotal decimal.Decimal `gorm:"type:decimal(12,4);not null"`
	MargenPct  decimal.Decimal `gorm:"type:decimal(12,4);not null"`
	Motivo     string          `gorm:"not null;default:'manual'"`
	CreatedAt  time.Time
}
