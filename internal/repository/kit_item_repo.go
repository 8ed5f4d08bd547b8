package repository

import (
	"context"

	"sistemavendas/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// KitItemRepository is the data access contract for kit membership rows.
// The (kit_id, producto_id) unique index makes a concurrent duplicate insert
// fail with gorm.ErrDuplicatedKey (the DB is opened with TranslateError).
type KitItemRepository interface {
	// ListByKit returns the kit's rows in insertion order, pre-joined with Producto.
	ListByKit(ctx context.Context, kitID uuid.UUID) ([]model.KitItem, error)
	ListByKits(ctx context.Context, kitIDs []uuid.UUID) ([]model.KitItem, error)
	Create(ctx context.Context, it *model.KitItem) error
	Update(ctx context.Context, id uuid.UUID, campos map[string]interface{}) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountByProducto(ctx context.Context, productoID uuid.UUID) (int64, error)

	CreateTx(tx *gorm.DB, it *model.KitItem) error
	DeleteByKitTx(tx *gorm.DB, kitID uuid.UUID) error

	// Maintenance queries used by the cleanup worker.
	ListHuerfanos(ctx context.Context, limit int) ([]model.KitItem, error)
	CountReferenciasRotas(ctx context.Context) (int64, error)
	DeleteByKit(ctx context.Context, kitID uuid.UUID) (int64, error)

	DB() *gorm.DB
}

type kitItemRepo struct{ db *gorm.DB }

func NewKitItemRepository(db *gorm.DB) KitItemRepository { return &kitItemRepo{db: db} }

func (r *kitItemRepo) ListByKit(ctx context.Context, kitID uuid.UUID) ([]model.KitItem, error) {
	var items []model.KitItem
	err := r.db.WithContext(ctx).
		Preload("Producto").
		Where("kit_id = ?", kitID).
		Order("posicion ASC, created_at ASC").
		Find(&items).Error
	return items, err
}

func (r *kitItemRepo) ListByKits(ctx context.Context, kitIDs []uuid.UUID) ([]model.KitItem, error) {
	var items []model.KitItem
	if len(kitIDs) == 0 {
		return items, nil
	}
	err := r.db.WithContext(ctx).
		Preload("Producto").
		Where("kit_id IN ?", kitIDs).
		Order("kit_id, posicion ASC, created_at ASC").
		Find(&items).Error
	return items, err
}

func (r *kitItemRepo) Create(ctx context.Context, it *model.KitItem) error {
	return r.CreateTx(r.db.WithContext(ctx), it)
}

func (r *kitItemRepo) Update(ctx context.Context, id uuid.UUID, campos map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&model.KitItem{}).Where("id = ?", id).Updates(campos)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *kitItemRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.KitItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *kitItemRepo) CountByProducto(ctx context.Context, productoID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.KitItem{}).Where("producto_id = ?", productoID).Count(&n).Error
	return n, err
}

func (r *kitItemRepo) CreateTx(tx *gorm.DB, it *model.KitItem) error {
	// Omit the association so a preloaded Producto is never upserted.
	return tx.Omit("Producto").Create(it).Error
}

func (r *kitItemRepo) DeleteByKitTx(tx *gorm.DB, kitID uuid.UUID) error {
	return tx.Where("kit_id = ?", kitID).Delete(&model.KitItem{}).Error
}

// ListHuerfanos returns rows whose kit product no longer exists.
func (r *kitItemRepo) ListHuerfanos(ctx context.Context, limit int) ([]model.KitItem, error) {
	var items []model.KitItem
	err := r.db.WithContext(ctx).
		Model(&model.KitItem{}).
		Joins("LEFT JOIN productos k ON k.id = kit_items.kit_id").
		Where("k.id IS NULL").
		Limit(limit).
		Find(&items).Error
	return items, err
}

// CountReferenciasRotas counts rows whose member product no longer exists.
func (r *kitItemRepo) CountReferenciasRotas(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.KitItem{}).
		Joins("LEFT JOIN productos p ON p.id = kit_items.producto_id").
		Where("p.id IS NULL").
		Count(&n).Error
	return n, err
}

func (r *kitItemRepo) DeleteByKit(ctx context.Context, kitID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Where("kit_id = ?", kitID).Delete(&model.KitItem{})
	return res.RowsAffected, res.Error
}

func (r *kitItemRepo) DB() *gorm.DB { return r.db }
