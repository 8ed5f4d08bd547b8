package infra

import (
	"fmt"

	"sistemavendas/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx. TranslateError is
// on so unique and foreign key violations surface as gorm.ErrDuplicatedKey
// and gorm.ErrForeignKeyViolated.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations creates or updates every table, then applies the patches
// AutoMigrate cannot express. Safe to run on every start.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Producto{},
		&model.KitItem{},
		&model.MovimientoStock{},
		&model.HistorialPrecio{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	if err := applySchemaPatches(db); err != nil {
		return fmt.Errorf("schema patches: %w", err)
	}
	return nil
}

// applySchemaPatches runs idempotent DDL that GORM tags cannot describe
// (partial and composite indexes). Each statement is guarded by IF NOT EXISTS.
func applySchemaPatches(db *gorm.DB) error {
	patches := []string{
		// kit names are unique per empresa; leaf products may repeat them
		`DROP INDEX IF EXISTS idx_productos_kit_nombre`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_productos_kit_nombre_unico
		    ON productos (empresa_id, nombre)
		    WHERE es_kit = true`,
		`CREATE INDEX IF NOT EXISTS idx_historial_precios_producto
		    ON historial_precios (producto_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_movimientos_stock_empresa
		    ON movimientos_stock (empresa_id, created_at DESC)`,
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_kit_items_cantidad') THEN
		    ALTER TABLE kit_items ADD CONSTRAINT chk_kit_items_cantidad CHECK (cantidad >= 1);
		  END IF;
		END $$`,
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_productos_stock') THEN
		    ALTER TABLE productos ADD CONSTRAINT chk_productos_stock CHECK (stock_actual >= 0);
		  END IF;
		END $$`,
	}

	for _, sql := range patches {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", sql[:min(len(sql), 60)], err)
		}
	}
	return nil
}
