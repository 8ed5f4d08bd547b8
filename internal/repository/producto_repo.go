package repository

import (
	"context"

	"sistemavendas/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductoRepository defines the data access contract for products and kits.
// Every listing is scoped by empresa; single-row lookups return the row and
// leave the tenant check to the service, which knows the caller's empresa.
type ProductoRepository interface {
	Create(ctx context.Context, p *model.Producto) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Producto, error)
	// ListByEmpresa filters by kind when esKit is non-nil.
	ListByEmpresa(ctx context.Context, empresaID uuid.UUID, esKit *bool) ([]model.Producto, error)
	// FindKitsByNombre matches the trimmed name exactly (case-sensitive).
	FindKitsByNombre(ctx context.Context, empresaID uuid.UUID, nombre string) ([]model.Producto, error)
	// Update applies a partial update; gorm.ErrRecordNotFound when no row matched.
	Update(ctx context.Context, id uuid.UUID, campos map[string]interface{}) error
	Delete(ctx context.Context, id uuid.UUID) error

	// Used inside transactions; callers must pass the tx instance
	CreateTx(tx *gorm.DB, p *model.Producto) error
	UpdateTx(tx *gorm.DB, id uuid.UUID, campos map[string]interface{}) error
	DeleteTx(tx *gorm.DB, id uuid.UUID) error
	// FindByIDTx locks the row (SELECT ... FOR UPDATE) for the rest of the tx.
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Producto, error)
	UpdateStockTx(tx *gorm.DB, id uuid.UUID, delta int) error

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type productoRepo struct{ db *gorm.DB }

func NewProductoRepository(db *gorm.DB) ProductoRepository { return &productoRepo{db: db} }

func (r *productoRepo) Create(ctx context.Context, p *model.Producto) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *productoRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Producto, error) {
	var p model.Producto
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productoRepo) ListByEmpresa(ctx context.Context, empresaID uuid.UUID, esKit *bool) ([]model.Producto, error) {
	var productos []model.Producto
	q := r.db.WithContext(ctx).Where("empresa_id = ?", empresaID)
	if esKit != nil {
		q = q.Where("es_kit = ?", *esKit)
	}
	err := q.Order("nombre ASC").Find(&productos).Error
	return productos, err
}

func (r *productoRepo) FindKitsByNombre(ctx context.Context, empresaID uuid.UUID, nombre string) ([]model.Producto, error) {
	var kits []model.Producto
	err := r.db.WithContext(ctx).
		Where("empresa_id = ? AND es_kit = true AND nombre = ?", empresaID, nombre).
		Find(&kits).Error
	return kits, err
}

func (r *productoRepo) Update(ctx context.Context, id uuid.UUID, campos map[string]interface{}) error {
	return r.UpdateTx(r.db.WithContext(ctx), id, campos)
}

func (r *productoRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.DeleteTx(r.db.WithContext(ctx), id)
}

func (r *productoRepo) CreateTx(tx *gorm.DB, p *model.Producto) error {
	return tx.Create(p).Error
}

func (r *productoRepo) UpdateTx(tx *gorm.DB, id uuid.UUID, campos map[string]interface{}) error {
	res := tx.Model(&model.Producto{}).Where("id = ?", id).Updates(campos)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *productoRepo) DeleteTx(tx *gorm.DB, id uuid.UUID) error {
	res := tx.Where("id = ?", id).Delete(&model.Producto{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *productoRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Producto, error) {
	var p model.Producto
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productoRepo) UpdateStockTx(tx *gorm.DB, id uuid.UUID, delta int) error {
	return tx.Model(&model.Producto{}).Where("id = ?", id).
		Update("stock_actual", gorm.Expr("stock_actual + ?", delta)).Error
}

func (r *productoRepo) DB() *gorm.DB { return r.db }
