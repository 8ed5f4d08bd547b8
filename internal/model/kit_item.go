package model

import (
	"time"

	"github.com/google/uuid"
)

// KitItem is one membership row: Cantidad units of a leaf product inside a kit.
// A kit references a given product at most once (idx_kit_producto).
type KitItem struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	KitID      uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_kit_producto;not null"`
	ProductoID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_kit_producto;index;not null"`
	Cantidad   int       `gorm:"not null"`
	// Posicion preserves insertion order; composition output is sorted by it
	Posicion  int `gorm:"not null;default:0"`
	CreatedAt time.Time

	// RESTRICT: a referenced leaf product cannot be deleted
	Producto *Producto `gorm:"foreignKey:ProductoID;constraint:OnDelete:RESTRICT"`
}
