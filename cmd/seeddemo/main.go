// cmd/seeddemo/main.go: creates demo products and one kit for a new empresa
// and prints a bearer token scoped to it.
// Uso: go run ./cmd/seeddemo
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"sistemavendas/internal/config"
	"sistemavendas/internal/dto"
	"sistemavendas/internal/infra"
	"sistemavendas/internal/middleware"
	"sistemavendas/internal/repository"
	"sistemavendas/internal/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET is required to sign the demo token")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	productoRepo := repository.NewProductoRepository(db)
	kitItemRepo := repository.NewKitItemRepository(db)
	productoSvc := service.NewProductoService(productoRepo, kitItemRepo, repository.NewMovimientoStockRepository(db), nil)
	kitSvc := service.NewKitService(productoRepo, kitItemRepo, repository.NewHistorialPrecioRepository(db), nil, nil, nil)

	ctx := context.Background()
	empresaID := uuid.New()

	demo := []struct {
		nombre string
		costo  string
		venta  string
		stock  int
	}{
		{"Shampoo 400ml", "12.50", "19.90", 30},
		{"Acondicionador 400ml", "13.10", "21.90", 24},
		{"Jabón líquido 250ml", "6.40", "9.90", 50},
	}

	items := make([]dto.ItemKitRequest, 0, len(demo))
	for _, d := range demo {
		costo := decimal.RequireFromString(d.costo)
		p, err := productoSvc.Crear(ctx, empresaID, dto.CrearProductoRequest{
			Nombre:      d.nombre,
			PrecioCosto: &costo,
			PrecioVenta: decimal.RequireFromString(d.venta),
			StockActual: d.stock,
			StockMinimo: 5,
		})
		if err != nil {
			log.Fatal().Err(err).Str("producto", d.nombre).Msg("seed failed")
		}
		items = append(items, dto.ItemKitRequest{ProductoID: p.ID, Cantidad: decimal.NewFromInt(1)})
	}

	kit, err := kitSvc.Crear(ctx, empresaID, dto.CrearKitRequest{
		Nombre:      "Kit Baño",
		PrecioVenta: decimal.RequireFromString("45.00"),
		Items:       items,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("seed kit failed")
	}

	claims := middleware.JWTClaims{
		UserID:    uuid.NewString(),
		EmpresaID: empresaID.String(),
		Rol:       "administrador",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		log.Fatal().Err(err).Msg("sign token")
	}

	fmt.Printf("empresa_id: %s\nkit_id:     %s (costo %s, margen %s%%)\ntoken:      %s\n",
		empresaID, kit.ID, kit.CostoTotalMostrado, kit.MargenMostrado, token)
}
