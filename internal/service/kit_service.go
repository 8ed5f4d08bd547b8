package service

import (
	"context"
	"errors"

	"sistemavendas/internal/dto"
	"sistemavendas/internal/model"
	"sistemavendas/internal/repository"
	"sistemavendas/internal/valuacion"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ComposicionCache stores rendered compositions per empresa and kit.
// Implementations must tolerate a missing backend.
type ComposicionCache interface {
	Get(ctx context.Context, empresaID, kitID uuid.UUID) (*dto.ComposicionResponse, bool)
	Set(ctx context.Context, empresaID, kitID uuid.UUID, c *dto.ComposicionResponse)
	Invalidar(ctx context.Context, empresaID uuid.UUID, kitIDs ...uuid.UUID)
	InvalidarEmpresa(ctx context.Context, empresaID uuid.UUID)
}

// KitLocker guards a kit against two concurrent mutations.
// ok is false when another holder owns the lock.
type KitLocker interface {
	Adquirir(ctx context.Context, kitID uuid.UUID) (liberar func(), ok bool, err error)
}

// LimpiezaDispatcher queues the removal of items left behind by a kit delete.
type LimpiezaDispatcher interface {
	EnqueueLimpiezaKit(ctx context.Context, kitID uuid.UUID) error
}

// KitService is the membership editor for kits. Every call is scoped by the
// caller's empresa; a kit of another empresa is reported as not found.
type KitService interface {
	Crear(ctx context.Context, empresaID uuid.UUID, req dto.CrearKitRequest) (*dto.ComposicionResponse, error)
	Listar(ctx context.Context, empresaID uuid.UUID) ([]dto.KitResumenResponse, error)
	ObtenerComposicion(ctx context.Context, empresaID, kitID uuid.UUID) (*dto.ComposicionResponse, error)
	PrecioSugerido(ctx context.Context, empresaID, kitID uuid.UUID, margenPct decimal.Decimal) (*dto.PrecioSugeridoResponse, error)
	AgregarItem(ctx context.Context, empresaID, kitID uuid.UUID, req dto.ItemKitRequest) (*dto.ComposicionResponse, error)
	EditarItem(ctx context.Context, empresaID, kitID, itemID uuid.UUID, req dto.ItemKitRequest) (*dto.ComposicionResponse, error)
	QuitarItem(ctx context.Context, empresaID, kitID, itemID uuid.UUID) (*dto.ComposicionResponse, error)
	RenombrarORepreciar(ctx context.Context, empresaID, kitID uuid.UUID, req dto.ActualizarKitRequest) (*dto.ComposicionResponse, error)
	Eliminar(ctx context.Context, empresaID, kitID uuid.UUID) error
	HistorialPrecios(ctx context.Context, empresaID, kitID uuid.UUID, page, limit int) (*dto.HistorialPrecioListResponse, error)
}

type kitService struct {
	productos repository.ProductoRepository
	items     repository.KitItemRepository
	historial repository.HistorialPrecioRepository
	cache     ComposicionCache
	locker    KitLocker
	limpieza  LimpiezaDispatcher
}

// NewKitService wires the editor. cache, locker and limpieza may be nil.
func NewKitService(
	productos repository.ProductoRepository,
	items repository.KitItemRepository,
	historial repository.HistorialPrecioRepository,
	cache ComposicionCache,
	locker KitLocker,
	limpieza LimpiezaDispatcher,
) KitService {
	return &kitService{
		productos: productos,
		items:     items,
		historial: historial,
		cache:     cache,
		locker:    locker,
		limpieza:  limpieza,
	}
}

// ── Reads ────────────────────────────────────────────────────────────────────

func (s *kitService) ObtenerComposicion(ctx context.Context, empresaID, kitID uuid.UUID) (*dto.ComposicionResponse, error) {
	if s.cache != nil {
		if c, ok := s.cache.Get(ctx, empresaID, kitID); ok {
			return c, nil
		}
	}
	kit, err := s.cargarKit(ctx, empresaID, kitID)
	if err != nil {
		return nil, err
	}
	return s.componer(ctx, kit)
}

func (s *kitService) Listar(ctx context.Context, empresaID uuid.UUID) ([]dto.KitResumenResponse, error) {
	esKit := true
	kits, err := s.productos.ListByEmpresa(ctx, empresaID, &esKit)
	if err != nil {
		return nil, traducir("listar kits", err)
	}
	if len(kits) == 0 {
		return []dto.KitResumenResponse{}, nil
	}

	ids := make([]uuid.UUID, 0, len(kits))
	for _, k := range kits {
		ids = append(ids, k.ID)
	}
	items, err := s.items.ListByKits(ctx, ids)
	if err != nil {
		return nil, traducir("listar items de kits", err)
	}
	porKit := make(map[uuid.UUID][]model.KitItem, len(kits))
	for _, it := range items {
		porKit[it.KitID] = append(porKit[it.KitID], it)
	}

	out := make([]dto.KitResumenResponse, 0, len(kits))
	for i := range kits {
		comp, err := ConstruirComposicion(ctx, &kits[i], porKit[kits[i].ID], s.productos)
		if err != nil {
			return nil, err
		}
		out = append(out, composicionToResumen(comp))
	}
	return out, nil
}

func (s *kitService) PrecioSugerido(ctx context.Context, empresaID, kitID uuid.UUID, margenPct decimal.Decimal) (*dto.PrecioSugeridoResponse, error) {
	comp, err := s.ObtenerComposicion(ctx, empresaID, kitID)
	if err != nil {
		return nil, err
	}
	precio := valuacion.PrecioSugerido(comp.CostoTotal, margenPct)
	return &dto.PrecioSugeridoResponse{
		KitID:          comp.ID,
		CostoTotal:     comp.CostoTotal,
		MargenPct:      margenPct,
		PrecioSugerido: precio,
		PrecioMostrado: valuacion.ParaMostrar(precio),
	}, nil
}

func (s *kitService) HistorialPrecios(ctx context.Context, empresaID, kitID uuid.UUID, page, limit int) (*dto.HistorialPrecioListResponse, error) {
	if _, err := s.cargarKit(ctx, empresaID, kitID); err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	rows, total, err := s.historial.ListByProducto(ctx, kitID, page, limit)
	if err != nil {
		return nil, traducir("listar historial de precios", err)
	}
	data := make([]dto.HistorialPrecioItem, 0, len(rows))
	for i := range rows {
		data = append(data, historialToItem(&rows[i]))
	}
	return &dto.HistorialPrecioListResponse{Data: data, Total: total, Page: page, Limit: limit}, nil
}

// ── Mutations ────────────────────────────────────────────────────────────────

func (s *kitService) Crear(ctx context.Context, empresaID uuid.UUID, req dto.CrearKitRequest) (*dto.ComposicionResponse, error) {
	nombre, err := ValidarNombreKit(req.Nombre)
	if err != nil {
		return nil, err
	}
	if err := ValidarPrecio(req.PrecioVenta); err != nil {
		return nil, err
	}
	if err := s.verificarNombreLibre(ctx, empresaID, nombre, uuid.Nil); err != nil {
		return nil, err
	}

	kit := &model.Producto{
		EmpresaID:   empresaID,
		Nombre:      nombre,
		Descripcion: req.Descripcion,
		PrecioVenta: req.PrecioVenta,
		EsKit:       true,
	}

	nuevos := make([]model.KitItem, 0, len(req.Items))
	for _, r := range req.Items {
		candidato, cantidad, err := s.validarMiembro(ctx, kit, nuevos, r)
		if err != nil {
			return nil, err
		}
		nuevos = append(nuevos, model.KitItem{
			ProductoID: candidato.ID,
			Cantidad:   cantidad,
			Posicion:   len(nuevos),
			Producto:   candidato,
		})
	}

	// the unique indexes still reject what a concurrent request slipped in
	// between the checks above and the commit
	err = runTx(ctx, s.productos.DB(), func(tx *gorm.DB) error {
		if err := s.productos.CreateTx(tx, kit); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return &NombreDuplicadoError{Nombre: nombre}
			}
			return err
		}
		for i := range nuevos {
			nuevos[i].KitID = kit.ID
			if err := s.items.CreateTx(tx, &nuevos[i]); err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return &MiembroDuplicadoError{ProductoID: nuevos[i].ProductoID, Nombre: nuevos[i].Producto.Nombre}
				}
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNombreDuplicado) || errors.Is(err, ErrMiembroDuplicado) {
			return nil, err
		}
		return nil, traducir("crear kit", err)
	}

	log.Info().Str("empresa_id", empresaID.String()).Str("kit_id", kit.ID.String()).
		Int("items", len(nuevos)).Msg("kit creado")
	return s.componer(ctx, kit)
}

func (s *kitService) AgregarItem(ctx context.Context, empresaID, kitID uuid.UUID, req dto.ItemKitRequest) (*dto.ComposicionResponse, error) {
	liberar, err := s.bloquear(ctx, kitID)
	if err != nil {
		return nil, err
	}
	defer liberar()

	kit, err := s.cargarKit(ctx, empresaID, kitID)
	if err != nil {
		return nil, err
	}
	actuales, err := s.items.ListByKit(ctx, kit.ID)
	if err != nil {
		return nil, traducir("listar items del kit", err)
	}

	candidato, cantidad, err := s.validarMiembro(ctx, kit, actuales, req)
	if err != nil {
		return nil, err
	}

	item := &model.KitItem{
		KitID:      kit.ID,
		ProductoID: candidato.ID,
		Cantidad:   cantidad,
		Posicion:   siguientePosicion(actuales),
	}
	if err := s.items.Create(ctx, item); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, &MiembroDuplicadoError{ProductoID: candidato.ID, Nombre: candidato.Nombre}
		}
		return nil, traducir("agregar item al kit", err)
	}

	s.invalidar(ctx, empresaID, kit.ID)
	return s.componer(ctx, kit)
}

func (s *kitService) EditarItem(ctx context.Context, empresaID, kitID, itemID uuid.UUID, req dto.ItemKitRequest) (*dto.ComposicionResponse, error) {
	liberar, err := s.bloquear(ctx, kitID)
	if err != nil {
		return nil, err
	}
	defer liberar()

	kit, err := s.cargarKit(ctx, empresaID, kitID)
	if err != nil {
		return nil, err
	}
	actuales, err := s.items.ListByKit(ctx, kit.ID)
	if err != nil {
		return nil, traducir("listar items del kit", err)
	}

	productoID, err := uuid.Parse(req.ProductoID)
	if err != nil {
		return nil, ErrNoEncontrado
	}
	actual, cantidad, err := ValidarEdicionItem(actuales, itemID, productoID, req.Cantidad)
	if err != nil {
		return nil, err
	}

	nombre := ""
	campos := map[string]interface{}{"cantidad": cantidad}
	if productoID != actual.ProductoID {
		candidato, err := s.buscarCandidato(ctx, kit, productoID)
		if err != nil {
			return nil, err
		}
		nombre = candidato.Nombre
		campos["producto_id"] = productoID
	}

	if err := s.items.Update(ctx, actual.ID, campos); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, &MiembroDuplicadoError{ProductoID: productoID, Nombre: nombre}
		}
		return nil, traducir("editar item del kit", err)
	}

	s.invalidar(ctx, empresaID, kit.ID)
	return s.componer(ctx, kit)
}

func (s *kitService) QuitarItem(ctx context.Context, empresaID, kitID, itemID uuid.UUID) (*dto.ComposicionResponse, error) {
	liberar, err := s.bloquear(ctx, kitID)
	if err != nil {
		return nil, err
	}
	defer liberar()

	kit, err := s.cargarKit(ctx, empresaID, kitID)
	if err != nil {
		return nil, err
	}
	actuales, err := s.items.ListByKit(ctx, kit.ID)
	if err != nil {
		return nil, traducir("listar items del kit", err)
	}

	encontrado := false
	for _, it := range actuales {
		if it.ID == itemID {
			encontrado = true
			break
		}
	}
	if !encontrado {
		return nil, ErrNoEncontrado
	}

	if err := s.items.Delete(ctx, itemID); err != nil {
		return nil, traducir("quitar item del kit", err)
	}

	s.invalidar(ctx, empresaID, kit.ID)
	return s.componer(ctx, kit)
}

func (s *kitService) RenombrarORepreciar(ctx context.Context, empresaID, kitID uuid.UUID, req dto.ActualizarKitRequest) (*dto.ComposicionResponse, error) {
	nombre, err := ValidarNombreKit(req.Nombre)
	if err != nil {
		return nil, err
	}
	if err := ValidarPrecio(req.PrecioVenta); err != nil {
		return nil, err
	}

	liberar, err := s.bloquear(ctx, kitID)
	if err != nil {
		return nil, err
	}
	defer liberar()

	kit, err := s.cargarKit(ctx, empresaID, kitID)
	if err != nil {
		return nil, err
	}
	if err := s.verificarNombreLibre(ctx, empresaID, nombre, kit.ID); err != nil {
		return nil, err
	}

	repreciado := !kit.PrecioVenta.Equal(req.PrecioVenta)
	var historial *model.HistorialPrecio
	if repreciado {
		actuales, err := s.items.ListByKit(ctx, kit.ID)
		if err != nil {
			return nil, traducir("listar items del kit", err)
		}
		comp, err := ConstruirComposicion(ctx, kit, actuales, s.productos)
		if err != nil {
			return nil, err
		}
		historial = &model.HistorialPrecio{
			EmpresaID:    empresaID,
			ProductoID:   kit.ID,
			VentaAntes:   kit.PrecioVenta,
			VentaDespues: req.PrecioVenta,
			CostoTotal:   comp.CostoTotal,
			MargenPct:    valuacion.MargenRealizado(comp.CostoTotal, req.PrecioVenta),
			Motivo:       "manual",
		}
	}

	campos := map[string]interface{}{"nombre": nombre, "precio_venta": req.PrecioVenta}
	err = runTx(ctx, s.productos.DB(), func(tx *gorm.DB) error {
		if err := s.productos.UpdateTx(tx, kit.ID, campos); err != nil {
			return err
		}
		if historial != nil {
			return s.historial.CreateTx(tx, historial)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, &NombreDuplicadoError{Nombre: nombre}
		}
		return nil, traducir("actualizar kit", err)
	}

	kit.Nombre = nombre
	kit.PrecioVenta = req.PrecioVenta
	s.invalidar(ctx, empresaID, kit.ID)
	return s.componer(ctx, kit)
}

func (s *kitService) Eliminar(ctx context.Context, empresaID, kitID uuid.UUID) error {
	liberar, err := s.bloquear(ctx, kitID)
	if err != nil {
		return err
	}
	defer liberar()

	kit, err := s.cargarKit(ctx, empresaID, kitID)
	if err != nil {
		return err
	}

	err = runTx(ctx, s.productos.DB(), func(tx *gorm.DB) error {
		if err := s.items.DeleteByKitTx(tx, kit.ID); err != nil {
			return err
		}
		return s.productos.DeleteTx(tx, kit.ID)
	})
	if err != nil {
		s.programarLimpieza(ctx, kit.ID)
		return traducir("eliminar kit", err)
	}

	s.invalidar(ctx, empresaID, kit.ID)
	log.Info().Str("empresa_id", empresaID.String()).Str("kit_id", kit.ID.String()).Msg("kit eliminado")
	return nil
}

// ── Helpers ──────────────────────────────────────────────────────────────────

func (s *kitService) cargarKit(ctx context.Context, empresaID, kitID uuid.UUID) (*model.Producto, error) {
	kit, err := s.productos.FindByID(ctx, kitID)
	if err != nil {
		return nil, traducir("buscar kit", err)
	}
	if kit.EmpresaID != empresaID {
		return nil, ErrNoEncontrado
	}
	if !kit.EsKit {
		return nil, ErrNoEsKit
	}
	return kit, nil
}

// componer rebuilds the composition from storage and refreshes the cache.
func (s *kitService) componer(ctx context.Context, kit *model.Producto) (*dto.ComposicionResponse, error) {
	items, err := s.items.ListByKit(ctx, kit.ID)
	if err != nil {
		return nil, traducir("listar items del kit", err)
	}
	comp, err := ConstruirComposicion(ctx, kit, items, s.productos)
	if err != nil {
		return nil, err
	}
	if len(comp.Faltantes) > 0 {
		log.Warn().Str("kit_id", kit.ID.String()).Err(comp.Err()).Msg("composición con referencias colgantes")
	}
	resp := composicionToResponse(comp)
	if s.cache != nil {
		s.cache.Set(ctx, kit.EmpresaID, kit.ID, resp)
	}
	return resp, nil
}

// validarMiembro checks a requested member against the current items, then
// resolves the product. Duplicate and quantity checks run before the lookup.
func (s *kitService) validarMiembro(ctx context.Context, kit *model.Producto, actuales []model.KitItem, r dto.ItemKitRequest) (*model.Producto, int, error) {
	productoID, err := uuid.Parse(r.ProductoID)
	if err != nil {
		return nil, 0, ErrNoEncontrado
	}
	cantidad, err := ValidarNuevoItem(actuales, productoID, r.Cantidad)
	if err != nil {
		return nil, 0, err
	}
	candidato, err := s.buscarCandidato(ctx, kit, productoID)
	if err != nil {
		return nil, 0, err
	}
	return candidato, cantidad, nil
}

func (s *kitService) buscarCandidato(ctx context.Context, kit *model.Producto, productoID uuid.UUID) (*model.Producto, error) {
	candidato, err := s.productos.FindByID(ctx, productoID)
	if err != nil {
		return nil, traducir("buscar producto", err)
	}
	if err := ValidarCandidato(kit, candidato); err != nil {
		return nil, err
	}
	return candidato, nil
}

func (s *kitService) verificarNombreLibre(ctx context.Context, empresaID uuid.UUID, nombre string, propio uuid.UUID) error {
	kits, err := s.productos.FindKitsByNombre(ctx, empresaID, nombre)
	if err != nil {
		return traducir("buscar kits por nombre", err)
	}
	for _, k := range kits {
		if k.ID != propio {
			return &NombreDuplicadoError{Nombre: nombre, KitID: k.ID}
		}
	}
	return nil
}

// bloquear takes the per-kit lock. A failing lock backend is logged and
// ignored; the unique index still rejects duplicate members.
func (s *kitService) bloquear(ctx context.Context, kitID uuid.UUID) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	liberar, ok, err := s.locker.Adquirir(ctx, kitID)
	if err != nil {
		log.Warn().Err(err).Str("kit_id", kitID.String()).Msg("lock de kit no disponible")
		return func() {}, nil
	}
	if !ok {
		return nil, ErrOperacionEnCurso
	}
	return liberar, nil
}

func (s *kitService) invalidar(ctx context.Context, empresaID, kitID uuid.UUID) {
	if s.cache != nil {
		s.cache.Invalidar(ctx, empresaID, kitID)
	}
}

func (s *kitService) programarLimpieza(ctx context.Context, kitID uuid.UUID) {
	if s.limpieza == nil {
		return
	}
	if err := s.limpieza.EnqueueLimpiezaKit(ctx, kitID); err != nil {
		log.Error().Err(err).Str("kit_id", kitID.String()).Msg("no se pudo encolar la limpieza del kit")
	}
}
