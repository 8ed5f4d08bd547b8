package router

import (
	"time"

	"sistemavendas/internal/config"
	"sistemavendas/internal/handler"
	"sistemavendas/internal/infra"
	"sistemavendas/internal/middleware"
	"sistemavendas/internal/repository"
	"sistemavendas/internal/service"
	"sistemavendas/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
// rdb may be nil; cache, locks and the cleanup queue then become no-ops.
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, redisCB *infra.CircuitBreaker) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Infrastructure ───────────────────────────────────────────────────────
	kitCache := infra.NewKitCache(rdb, cfg.KitCacheTTL, redisCB)
	kitLocker := infra.NewKitLocker(rdb, cfg.KitLockTTL, redisCB)
	dispatcher := worker.NewDispatcher(rdb)

	// ── Repositories ─────────────────────────────────────────────────────────
	productoRepo := repository.NewProductoRepository(db)
	kitItemRepo := repository.NewKitItemRepository(db)
	historialPrecioRepo := repository.NewHistorialPrecioRepository(db)
	movimientoStockRepo := repository.NewMovimientoStockRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	kitSvc := service.NewKitService(productoRepo, kitItemRepo, historialPrecioRepo, kitCache, kitLocker, dispatcher)
	productoSvc := service.NewProductoService(productoRepo, kitItemRepo, movimientoStockRepo, kitCache)
	inventarioSvc := service.NewInventarioService(productoRepo, movimientoStockRepo)

	// ── Handlers ─────────────────────────────────────────────────────────────
	kitsH := handler.NewKitsHandler(kitSvc)
	productosH := handler.NewProductosHandler(productoSvc)
	inventarioH := handler.NewInventarioHandler(inventarioSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, redisCB))

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		lectura := middleware.RequireRole("cajero", "supervisor", "administrador")
		escritura := middleware.RequireRole("supervisor", "administrador")

		v1.GET("/productos", lectura, productosH.Listar)
		v1.GET("/productos/:id", lectura, productosH.ObtenerPorID)
		v1.PATCH("/productos/:id/stock", escritura, productosH.AjustarStock)
		prods := v1.Group("/productos", middleware.RequireRole("administrador"))
		{
			prods.POST("", productosH.Crear)
			prods.PUT("/:id", productosH.Actualizar)
			prods.DELETE("/:id", productosH.Eliminar)
		}

		v1.GET("/kits", lectura, kitsH.Listar)
		v1.GET("/kits/:id", lectura, kitsH.ObtenerComposicion)
		v1.GET("/kits/:id/precio-sugerido", lectura, kitsH.PrecioSugerido)
		v1.GET("/kits/:id/historial-precios", lectura, kitsH.HistorialPrecios)
		kits := v1.Group("/kits", escritura)
		{
			kits.POST("", kitsH.Crear)
			kits.PUT("/:id", kitsH.RenombrarORepreciar)
			kits.DELETE("/:id", kitsH.Eliminar)
			kits.POST("/:id/items", kitsH.AgregarItem)
			kits.PUT("/:id/items/:item_id", kitsH.EditarItem)
			kits.DELETE("/:id/items/:item_id", kitsH.QuitarItem)
		}

		inv := v1.Group("/inventario", escritura)
		{
			inv.GET("/panel", inventarioH.Panel)
			inv.GET("/movimientos", inventarioH.ListarMovimientos)
		}
	}

	// Swagger UI, only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
