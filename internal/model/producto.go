package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Producto represents both leaf products and kits.
// EsKit=true means the product is sold as a bundle of leaf products linked via KitItem.
// Kits are flat: a kit never contains another kit.
type Producto struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EmpresaID    uuid.UUID `gorm:"type:uuid;index;not null"`
	Nombre       string    `gorm:"index;not null"`
	Descripcion  *string
	CodigoBarras *string
	// PrecioCosto is nil for kits and for products with unknown purchase cost
	PrecioCosto *decimal.Decimal `gorm:"type:decimal(12,4)"`
	PrecioVenta decimal.Decimal  `gorm:"type:decimal(12,4);not null;default:0"`
	EsKit       bool             `gorm:"not null;default:false;index"`
	StockActual int              `gorm:"not null;default:0"`
	StockMinimo int              `gorm:"not null;default:0"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
