package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"sistemavendas/internal/model"
	"sistemavendas/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── Stubs ─────────────────────────────────────────────────────────────────────
// Only the methods Limpiador calls are implemented; the embedded interface
// panics on anything else.

type stubProductos struct {
	repository.ProductoRepository
	existentes map[uuid.UUID]bool
	err        error
}

func (s *stubProductos) FindByID(_ context.Context, id uuid.UUID) (*model.Producto, error) {
	if s.err != nil {
		return nil, s.err
	}
	if !s.existentes[id] {
		return nil, gorm.ErrRecordNotFound
	}
	return &model.Producto{ID: id, EsKit: true}, nil
}

type stubItems struct {
	repository.KitItemRepository
	kitsVivos map[uuid.UUID]bool
	rows      []model.KitItem
	rotas     int64
	listados  int
}

func (s *stubItems) ListHuerfanos(_ context.Context, limit int) ([]model.KitItem, error) {
	s.listados++
	var out []model.KitItem
	for _, it := range s.rows {
		if s.kitsVivos[it.KitID] {
			continue
		}
		out = append(out, it)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *stubItems) DeleteByKit(_ context.Context, kitID uuid.UUID) (int64, error) {
	var n int64
	kept := s.rows[:0]
	for _, it := range s.rows {
		if it.KitID == kitID {
			n++
			continue
		}
		kept = append(kept, it)
	}
	s.rows = kept
	return n, nil
}

func (s *stubItems) CountReferenciasRotas(context.Context) (int64, error) { return s.rotas, nil }

func itemsDe(kitID uuid.UUID, n int) []model.KitItem {
	out := make([]model.KitItem, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, model.KitItem{ID: uuid.New(), KitID: kitID, ProductoID: uuid.New(), Cantidad: 1})
	}
	return out
}

// ── Barrer ────────────────────────────────────────────────────────────────────

func TestBarrer_BorraItemsDeKitsInexistentes(t *testing.T) {
	vivo, muertoA, muertoB := uuid.New(), uuid.New(), uuid.New()
	items := &stubItems{kitsVivos: map[uuid.UUID]bool{vivo: true}, rotas: 2}
	items.rows = append(items.rows, itemsDe(vivo, 2)...)
	items.rows = append(items.rows, itemsDe(muertoA, 3)...)
	items.rows = append(items.rows, itemsDe(muertoB, 2)...)

	l := NewLimpiador(&stubProductos{}, items)
	l.lote = 2

	res, err := l.Barrer(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, res.KitsLimpiados)
	assert.Equal(t, int64(5), res.ItemsBorrados)
	assert.Equal(t, int64(2), res.ReferenciasRotas)
	assert.Len(t, items.rows, 2)
	assert.Greater(t, items.listados, 1)
}

func TestBarrer_SinHuerfanos(t *testing.T) {
	vivo := uuid.New()
	items := &stubItems{kitsVivos: map[uuid.UUID]bool{vivo: true}, rows: itemsDe(vivo, 3)}

	res, err := NewLimpiador(&stubProductos{}, items).Barrer(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.KitsLimpiados)
	assert.Len(t, items.rows, 3)
}

// ── LimpiarKit ────────────────────────────────────────────────────────────────

func TestLimpiarKit_KitExistenteNoBorra(t *testing.T) {
	kit := uuid.New()
	items := &stubItems{rows: itemsDe(kit, 2)}
	l := NewLimpiador(&stubProductos{existentes: map[uuid.UUID]bool{kit: true}}, items)

	n, err := l.LimpiarKit(context.Background(), kit)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Len(t, items.rows, 2)
}

func TestLimpiarKit_KitBorrado(t *testing.T) {
	kit := uuid.New()
	items := &stubItems{rows: itemsDe(kit, 2)}
	l := NewLimpiador(&stubProductos{}, items)

	n, err := l.LimpiarKit(context.Background(), kit)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Empty(t, items.rows)
}

func TestLimpiarKit_ErrorDeStoreNoBorra(t *testing.T) {
	kit := uuid.New()
	items := &stubItems{rows: itemsDe(kit, 2)}
	l := NewLimpiador(&stubProductos{err: errors.New("connection refused")}, items)

	_, err := l.LimpiarKit(context.Background(), kit)
	assert.Error(t, err)
	assert.Len(t, items.rows, 2)
}

func TestHandleLimpiezaKit(t *testing.T) {
	kit := uuid.New()
	items := &stubItems{rows: itemsDe(kit, 1)}
	l := NewLimpiador(&stubProductos{}, items)

	payload, _ := json.Marshal(LimpiezaPayload{KitID: kit.String()})
	require.NoError(t, l.HandleLimpiezaKit(context.Background(), payload))
	assert.Empty(t, items.rows)

	assert.Error(t, l.HandleLimpiezaKit(context.Background(), json.RawMessage(`{"kit_id":"x"}`)))
	assert.Error(t, l.HandleLimpiezaKit(context.Background(), json.RawMessage(`nope`)))
}

// ── Cron / queue plumbing ─────────────────────────────────────────────────────

func TestStartLimpiezaCron_SpecInvalido(t *testing.T) {
	_, err := StartLimpiezaCron(context.Background(), NewLimpiador(&stubProductos{}, &stubItems{}), "cada tanto")
	assert.Error(t, err)
}

func TestStartLimpiezaCron_SeDetieneConContexto(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c, err := StartLimpiezaCron(ctx, NewLimpiador(&stubProductos{}, &stubItems{}), "@every 1h")
	require.NoError(t, err)
	assert.Len(t, c.Entries(), 1)
	cancel()
}

func TestDispatcherSinRedis(t *testing.T) {
	err := NewDispatcher(nil).EnqueueLimpiezaKit(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrSinCola)
}

func TestWithRetry_ReintentaHastaExito(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), 2, func(int) error {
		calls++
		if calls == 1 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestWithRetry_ContextoCancelado(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := withRetry(ctx, 3, func(int) error { return errors.New("falla") })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

// ── DLQ ───────────────────────────────────────────────────────────────────────

func TestNuevoJobFallido_ExtraeKit(t *testing.T) {
	kit := uuid.New()
	payload, _ := json.Marshal(LimpiezaPayload{KitID: kit.String()})
	ahora := time.Date(2024, 3, 1, 12, 0, 0, 0, time.FixedZone("ART", -3*3600))

	f := nuevoJobFallido(QueueLimpiezaKit, Job{Type: JobLimpiezaKit, Payload: payload}, "connection refused", 3, ahora)
	assert.Equal(t, QueueLimpiezaKit, f.Cola)
	assert.Equal(t, JobLimpiezaKit, f.Tipo)
	assert.Equal(t, kit.String(), f.KitID)
	assert.Equal(t, 3, f.Intentos)
	assert.Equal(t, time.UTC, f.FallidoEn.Location())

	f = nuevoJobFallido(QueueLimpiezaKit, Job{Type: "otro", Payload: json.RawMessage(`nope`)}, "no handler registered", 0, ahora)
	assert.Empty(t, f.KitID)
}

func TestDLQSinRedis(t *testing.T) {
	n, err := DLQLength(context.Background(), nil, QueueLimpiezaKit)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = UltimosFallidos(context.Background(), nil, QueueLimpiezaKit, 10)
	assert.ErrorIs(t, err, ErrSinCola)
	assert.ErrorIs(t, pushDLQ(context.Background(), nil, JobFallido{Cola: QueueLimpiezaKit}), ErrSinCola)
}
