package service_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"sistemavendas/internal/dto"
	"sistemavendas/internal/model"
	"sistemavendas/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ── In-memory store shared by the repository stubs ──────────────────────────

type memStore struct {
	mu          sync.Mutex
	productos   map[uuid.UUID]*model.Producto
	items       map[uuid.UUID]*model.KitItem
	historial   []model.HistorialPrecio
	movimientos []model.MovimientoStock
	clock       time.Time

	// failures injected by tests
	failDeleteProducto error
	failFindProducto   error
	// kitsSinConfirmar hides kits from FindKitsByNombre, like rows another
	// transaction has not committed yet; the unique index still sees them
	kitsSinConfirmar bool
}

// nombreKitTomado mirrors idx_productos_kit_nombre_unico. Caller holds mu.
func (s *memStore) nombreKitTomado(empresaID uuid.UUID, nombre string, propio uuid.UUID) bool {
	for _, p := range s.productos {
		if p.EsKit && p.EmpresaID == empresaID && p.Nombre == nombre && p.ID != propio {
			return true
		}
	}
	return false
}

func newMemStore() *memStore {
	return &memStore{
		productos: make(map[uuid.UUID]*model.Producto),
		items:     make(map[uuid.UUID]*model.KitItem),
		clock:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (s *memStore) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *memStore) itemsDeKit(kitID uuid.UUID) []model.KitItem {
	var out []model.KitItem
	for _, it := range s.items {
		if it.KitID != kitID {
			continue
		}
		cp := *it
		if p, ok := s.productos[it.ProductoID]; ok {
			pc := *p
			cp.Producto = &pc
		}
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Posicion != out[j].Posicion {
			return out[i].Posicion < out[j].Posicion
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// ── ProductoRepository stub ──────────────────────────────────────────────────

type stubProductoRepo struct{ s *memStore }

var _ repository.ProductoRepository = (*stubProductoRepo)(nil)

func (r *stubProductoRepo) Create(_ context.Context, p *model.Producto) error {
	return r.CreateTx(nil, p)
}

func (r *stubProductoRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Producto, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failFindProducto != nil {
		return nil, r.s.failFindProducto
	}
	p, ok := r.s.productos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *stubProductoRepo) ListByEmpresa(_ context.Context, empresaID uuid.UUID, esKit *bool) ([]model.Producto, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Producto
	for _, p := range r.s.productos {
		if p.EmpresaID != empresaID {
			continue
		}
		if esKit != nil && p.EsKit != *esKit {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Nombre < out[j].Nombre })
	return out, nil
}

func (r *stubProductoRepo) FindKitsByNombre(_ context.Context, empresaID uuid.UUID, nombre string) ([]model.Producto, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.kitsSinConfirmar {
		return nil, nil
	}
	var out []model.Producto
	for _, p := range r.s.productos {
		if p.EmpresaID == empresaID && p.EsKit && p.Nombre == nombre {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *stubProductoRepo) Update(_ context.Context, id uuid.UUID, campos map[string]interface{}) error {
	return r.UpdateTx(nil, id, campos)
}

func (r *stubProductoRepo) Delete(_ context.Context, id uuid.UUID) error {
	return r.DeleteTx(nil, id)
}

func (r *stubProductoRepo) CreateTx(_ *gorm.DB, p *model.Producto) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if p.EsKit && r.s.nombreKitTomado(p.EmpresaID, p.Nombre, p.ID) {
		return gorm.ErrDuplicatedKey
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = r.s.tick()
	cp := *p
	r.s.productos[p.ID] = &cp
	return nil
}

func (r *stubProductoRepo) UpdateTx(_ *gorm.DB, id uuid.UUID, campos map[string]interface{}) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.productos[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for k, v := range campos {
		switch k {
		case "nombre":
			if p.EsKit && r.s.nombreKitTomado(p.EmpresaID, v.(string), p.ID) {
				return gorm.ErrDuplicatedKey
			}
			p.Nombre = v.(string)
		case "precio_venta":
			p.PrecioVenta = v.(decimal.Decimal)
		case "precio_costo":
			d := v.(decimal.Decimal)
			p.PrecioCosto = &d
		case "stock_minimo":
			p.StockMinimo = v.(int)
		case "descripcion":
			s := v.(string)
			p.Descripcion = &s
		case "codigo_barras":
			s := v.(string)
			p.CodigoBarras = &s
		}
	}
	return nil
}

func (r *stubProductoRepo) DeleteTx(_ *gorm.DB, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failDeleteProducto != nil {
		return r.s.failDeleteProducto
	}
	if _, ok := r.s.productos[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.s.productos, id)
	return nil
}

func (r *stubProductoRepo) FindByIDTx(_ *gorm.DB, id uuid.UUID) (*model.Producto, error) {
	return r.FindByID(context.Background(), id)
}

func (r *stubProductoRepo) UpdateStockTx(_ *gorm.DB, id uuid.UUID, delta int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.productos[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.StockActual += delta
	return nil
}

func (r *stubProductoRepo) DB() *gorm.DB { return nil }

// ── KitItemRepository stub ───────────────────────────────────────────────────
// Enforces the (kit_id, producto_id) unique index like Postgres does.

type stubKitItemRepo struct{ s *memStore }

var _ repository.KitItemRepository = (*stubKitItemRepo)(nil)

func (r *stubKitItemRepo) ListByKit(_ context.Context, kitID uuid.UUID) ([]model.KitItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.itemsDeKit(kitID), nil
}

func (r *stubKitItemRepo) ListByKits(_ context.Context, kitIDs []uuid.UUID) ([]model.KitItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.KitItem
	for _, id := range kitIDs {
		out = append(out, r.s.itemsDeKit(id)...)
	}
	return out, nil
}

func (r *stubKitItemRepo) Create(_ context.Context, it *model.KitItem) error {
	return r.CreateTx(nil, it)
}

func (r *stubKitItemRepo) Update(_ context.Context, id uuid.UUID, campos map[string]interface{}) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	it, ok := r.s.items[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if pid, ok := campos["producto_id"].(uuid.UUID); ok {
		for _, o := range r.s.items {
			if o.ID != id && o.KitID == it.KitID && o.ProductoID == pid {
				return gorm.ErrDuplicatedKey
			}
		}
		it.ProductoID = pid
	}
	if n, ok := campos["cantidad"].(int); ok {
		it.Cantidad = n
	}
	return nil
}

func (r *stubKitItemRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.items[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.s.items, id)
	return nil
}

func (r *stubKitItemRepo) CountByProducto(_ context.Context, productoID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, it := range r.s.items {
		if it.ProductoID == productoID {
			n++
		}
	}
	return n, nil
}

func (r *stubKitItemRepo) CreateTx(_ *gorm.DB, it *model.KitItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, o := range r.s.items {
		if o.KitID == it.KitID && o.ProductoID == it.ProductoID {
			return gorm.ErrDuplicatedKey
		}
	}
	if it.ID == uuid.Nil {
		it.ID = uuid.New()
	}
	it.CreatedAt = r.s.tick()
	cp := *it
	cp.Producto = nil
	r.s.items[it.ID] = &cp
	return nil
}

func (r *stubKitItemRepo) DeleteByKitTx(_ *gorm.DB, kitID uuid.UUID) error {
	_, err := r.DeleteByKit(context.Background(), kitID)
	return err
}

func (r *stubKitItemRepo) ListHuerfanos(_ context.Context, limit int) ([]model.KitItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.KitItem
	for _, it := range r.s.items {
		if _, ok := r.s.productos[it.KitID]; !ok {
			out = append(out, *it)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (r *stubKitItemRepo) CountReferenciasRotas(_ context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, it := range r.s.items {
		if _, ok := r.s.productos[it.ProductoID]; !ok {
			n++
		}
	}
	return n, nil
}

func (r *stubKitItemRepo) DeleteByKit(_ context.Context, kitID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, it := range r.s.items {
		if it.KitID == kitID {
			delete(r.s.items, id)
			n++
		}
	}
	return n, nil
}

func (r *stubKitItemRepo) DB() *gorm.DB { return nil }

// ── HistorialPrecioRepository stub ───────────────────────────────────────────

type stubHistorialRepo struct{ s *memStore }

func (r *stubHistorialRepo) CreateTx(_ *gorm.DB, h *model.HistorialPrecio) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	h.ID = uuid.New()
	h.CreatedAt = r.s.tick()
	r.s.historial = append(r.s.historial, *h)
	return nil
}

func (r *stubHistorialRepo) ListByProducto(_ context.Context, productoID uuid.UUID, page, limit int) ([]model.HistorialPrecio, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var rows []model.HistorialPrecio
	for i := len(r.s.historial) - 1; i >= 0; i-- {
		if r.s.historial[i].ProductoID == productoID {
			rows = append(rows, r.s.historial[i])
		}
	}
	total := int64(len(rows))
	start := (page - 1) * limit
	if start >= len(rows) {
		return []model.HistorialPrecio{}, total, nil
	}
	end := start + limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end], total, nil
}

// ── MovimientoStockRepository stub ───────────────────────────────────────────

type stubMovimientoRepo struct{ s *memStore }

func (r *stubMovimientoRepo) CreateTx(_ *gorm.DB, m *model.MovimientoStock) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m.ID = uuid.New()
	m.CreatedAt = r.s.tick()
	r.s.movimientos = append(r.s.movimientos, *m)
	return nil
}

func (r *stubMovimientoRepo) List(_ context.Context, f repository.MovimientoStockFilter) ([]model.MovimientoStock, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.MovimientoStock
	for i := len(r.s.movimientos) - 1; i >= 0; i-- {
		m := r.s.movimientos[i]
		if m.EmpresaID != f.EmpresaID {
			continue
		}
		if f.ProductoID != nil && m.ProductoID != *f.ProductoID {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

// ── Optional collaborators ───────────────────────────────────────────────────

type fakeLocker struct {
	mu       sync.Mutex
	tomados  map[uuid.UUID]bool
	failWith error
}

func newFakeLocker() *fakeLocker { return &fakeLocker{tomados: map[uuid.UUID]bool{}} }

func (l *fakeLocker) Adquirir(_ context.Context, kitID uuid.UUID) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failWith != nil {
		return nil, false, l.failWith
	}
	if l.tomados[kitID] {
		return nil, false, nil
	}
	l.tomados[kitID] = true
	return func() {
		l.mu.Lock()
		delete(l.tomados, kitID)
		l.mu.Unlock()
	}, true, nil
}

type fakeCache struct {
	entradas       map[uuid.UUID]*dto.ComposicionResponse
	invalidaciones int
	empresas       int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entradas: map[uuid.UUID]*dto.ComposicionResponse{}}
}

func (c *fakeCache) Get(_ context.Context, _, kitID uuid.UUID) (*dto.ComposicionResponse, bool) {
	v, ok := c.entradas[kitID]
	return v, ok
}

func (c *fakeCache) Set(_ context.Context, _, kitID uuid.UUID, r *dto.ComposicionResponse) {
	c.entradas[kitID] = r
}

func (c *fakeCache) Invalidar(_ context.Context, _ uuid.UUID, kitIDs ...uuid.UUID) {
	c.invalidaciones++
	for _, id := range kitIDs {
		delete(c.entradas, id)
	}
}

func (c *fakeCache) InvalidarEmpresa(_ context.Context, _ uuid.UUID) {
	c.empresas++
	c.entradas = map[uuid.UUID]*dto.ComposicionResponse{}
}

type fakeLimpieza struct{ kits []uuid.UUID }

func (f *fakeLimpieza) EnqueueLimpiezaKit(_ context.Context, kitID uuid.UUID) error {
	f.kits = append(f.kits, kitID)
	return nil
}

var errAlmacen = errors.New("connection reset by peer")
