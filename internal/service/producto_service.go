package service

import (
	"context"
	"errors"
	"strings"

	"sistemavendas/internal/dto"
	"sistemavendas/internal/model"
	"sistemavendas/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ProductoService defines the business logic contract for leaf products.
// Kits are read through this service but only mutated through KitService.
type ProductoService interface {
	Crear(ctx context.Context, empresaID uuid.UUID, req dto.CrearProductoRequest) (*dto.ProductoResponse, error)
	ObtenerPorID(ctx context.Context, empresaID, id uuid.UUID) (*dto.ProductoResponse, error)
	Listar(ctx context.Context, empresaID uuid.UUID, filter dto.ProductoFilter) ([]dto.ProductoResponse, error)
	Actualizar(ctx context.Context, empresaID, id uuid.UUID, req dto.ActualizarProductoRequest) (*dto.ProductoResponse, error)
	Eliminar(ctx context.Context, empresaID, id uuid.UUID) error
	AjustarStock(ctx context.Context, empresaID, id uuid.UUID, req dto.AjustarStockRequest) (*dto.AjustarStockResponse, error)
}

type productoService struct {
	repo        repository.ProductoRepository
	items       repository.KitItemRepository
	movimientos repository.MovimientoStockRepository
	cache       ComposicionCache
}

// NewProductoService wires the product service. cache may be nil.
func NewProductoService(
	repo repository.ProductoRepository,
	items repository.KitItemRepository,
	movimientos repository.MovimientoStockRepository,
	cache ComposicionCache,
) ProductoService {
	return &productoService{repo: repo, items: items, movimientos: movimientos, cache: cache}
}

func (s *productoService) Crear(ctx context.Context, empresaID uuid.UUID, req dto.CrearProductoRequest) (*dto.ProductoResponse, error) {
	nombre := strings.TrimSpace(req.Nombre)
	if nombre == "" {
		return nil, ErrNombreInvalido
	}
	if err := ValidarPrecio(req.PrecioVenta); err != nil {
		return nil, err
	}
	if req.PrecioCosto != nil {
		if err := ValidarPrecio(*req.PrecioCosto); err != nil {
			return nil, err
		}
	}
	if req.StockActual < 0 || req.StockMinimo < 0 {
		return nil, ErrCantidadInvalida
	}

	p := &model.Producto{
		EmpresaID:    empresaID,
		Nombre:       nombre,
		Descripcion:  req.Descripcion,
		CodigoBarras: req.CodigoBarras,
		PrecioCosto:  req.PrecioCosto,
		PrecioVenta:  req.PrecioVenta,
		StockActual:  req.StockActual,
		StockMinimo:  req.StockMinimo,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, traducir("crear producto", err)
	}
	resp := productoToResponse(p)
	return &resp, nil
}

func (s *productoService) ObtenerPorID(ctx context.Context, empresaID, id uuid.UUID) (*dto.ProductoResponse, error) {
	p, err := s.cargar(ctx, empresaID, id)
	if err != nil {
		return nil, err
	}
	resp := productoToResponse(p)
	return &resp, nil
}

func (s *productoService) Listar(ctx context.Context, empresaID uuid.UUID, filter dto.ProductoFilter) ([]dto.ProductoResponse, error) {
	var esKit *bool
	switch filter.EsKit {
	case "all":
	case "true":
		v := true
		esKit = &v
	default:
		v := false
		esKit = &v
	}

	rows, err := s.repo.ListByEmpresa(ctx, empresaID, esKit)
	if err != nil {
		return nil, traducir("listar productos", err)
	}
	out := make([]dto.ProductoResponse, 0, len(rows))
	for i := range rows {
		out = append(out, productoToResponse(&rows[i]))
	}
	return out, nil
}

// Actualizar applies a partial update; nil fields are left untouched.
// Compositions of the empresa are invalidated because any kit may use p.
func (s *productoService) Actualizar(ctx context.Context, empresaID, id uuid.UUID, req dto.ActualizarProductoRequest) (*dto.ProductoResponse, error) {
	p, err := s.cargar(ctx, empresaID, id)
	if err != nil {
		return nil, err
	}
	if p.EsKit {
		return nil, ErrEsKit
	}

	campos := map[string]interface{}{}
	if req.Nombre != nil {
		nombre := strings.TrimSpace(*req.Nombre)
		if nombre == "" {
			return nil, ErrNombreInvalido
		}
		campos["nombre"] = nombre
		p.Nombre = nombre
	}
	if req.Descripcion != nil {
		campos["descripcion"] = *req.Descripcion
		p.Descripcion = req.Descripcion
	}
	if req.CodigoBarras != nil {
		campos["codigo_barras"] = *req.CodigoBarras
		p.CodigoBarras = req.CodigoBarras
	}
	if req.PrecioCosto != nil {
		if err := ValidarPrecio(*req.PrecioCosto); err != nil {
			return nil, err
		}
		campos["precio_costo"] = *req.PrecioCosto
		p.PrecioCosto = req.PrecioCosto
	}
	if req.PrecioVenta != nil {
		if err := ValidarPrecio(*req.PrecioVenta); err != nil {
			return nil, err
		}
		campos["precio_venta"] = *req.PrecioVenta
		p.PrecioVenta = *req.PrecioVenta
	}
	if req.StockMinimo != nil {
		if *req.StockMinimo < 0 {
			return nil, ErrCantidadInvalida
		}
		campos["stock_minimo"] = *req.StockMinimo
		p.StockMinimo = *req.StockMinimo
	}

	if len(campos) > 0 {
		if err := s.repo.Update(ctx, id, campos); err != nil {
			return nil, traducir("actualizar producto", err)
		}
		s.invalidarEmpresa(ctx, empresaID)
	}
	resp := productoToResponse(p)
	return &resp, nil
}

// Eliminar removes a leaf product. It refuses while any kit references it.
func (s *productoService) Eliminar(ctx context.Context, empresaID, id uuid.UUID) error {
	p, err := s.cargar(ctx, empresaID, id)
	if err != nil {
		return err
	}
	if p.EsKit {
		return ErrEsKit
	}

	n, err := s.items.CountByProducto(ctx, id)
	if err != nil {
		return traducir("contar referencias del producto", err)
	}
	if n > 0 {
		return ErrProductoEnUso
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return ErrProductoEnUso
		}
		return traducir("eliminar producto", err)
	}
	s.invalidarEmpresa(ctx, empresaID)
	return nil
}

// AjustarStock adds delta to the stock and records the movement in one
// transaction. The resulting stock may not be negative.
func (s *productoService) AjustarStock(ctx context.Context, empresaID, id uuid.UUID, req dto.AjustarStockRequest) (*dto.AjustarStockResponse, error) {
	if req.Delta == 0 {
		return nil, ErrCantidadInvalida
	}
	p, err := s.cargar(ctx, empresaID, id)
	if err != nil {
		return nil, err
	}
	if p.EsKit {
		return nil, ErrEsKit
	}

	var resp dto.AjustarStockResponse
	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		actual, err := s.repo.FindByIDTx(tx, id)
		if err != nil {
			return err
		}
		nuevo := actual.StockActual + req.Delta
		if nuevo < 0 {
			return ErrStockInsuficiente
		}
		if err := s.repo.UpdateStockTx(tx, id, req.Delta); err != nil {
			return err
		}

		tipo := "entrada"
		cantidad := req.Delta
		if req.Delta < 0 {
			tipo = "salida"
			cantidad = -req.Delta
		}
		motivo := strings.TrimSpace(req.Motivo)
		if motivo == "" {
			motivo = "ajuste manual"
		}
		mov := &model.MovimientoStock{
			EmpresaID:     empresaID,
			ProductoID:    id,
			Tipo:          tipo,
			Cantidad:      cantidad,
			StockAnterior: actual.StockActual,
			StockNuevo:    nuevo,
			Motivo:        motivo,
		}
		if err := s.movimientos.CreateTx(tx, mov); err != nil {
			return err
		}

		resp = dto.AjustarStockResponse{
			ProductoID:    id.String(),
			StockAnterior: actual.StockActual,
			StockNuevo:    nuevo,
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrStockInsuficiente) {
			return nil, err
		}
		return nil, traducir("ajustar stock", err)
	}

	log.Info().Str("producto_id", id.String()).Int("delta", req.Delta).
		Int("stock_nuevo", resp.StockNuevo).Msg("stock ajustado")
	return &resp, nil
}

func (s *productoService) cargar(ctx context.Context, empresaID, id uuid.UUID) (*model.Producto, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, traducir("buscar producto", err)
	}
	if p.EmpresaID != empresaID {
		return nil, ErrNoEncontrado
	}
	return p, nil
}

func (s *productoService) invalidarEmpresa(ctx context.Context, empresaID uuid.UUID) {
	if s.cache != nil {
		s.cache.InvalidarEmpresa(ctx, empresaID)
	}
}
