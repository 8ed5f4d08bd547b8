package worker

// limpieza.go
// Removes kit_items rows left behind when a kit is gone. Runs on a cron
// schedule (sweep) and on demand from the jobs:limpieza_kit queue, which
// KitService feeds when a kit delete fails halfway.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"sistemavendas/internal/repository"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const limpiezaBatchSize = 200

// LimpiezaPayload is the body of a limpieza_kit job.
type LimpiezaPayload struct {
	KitID string `json:"kit_id"`
}

// EnqueueLimpiezaKit pushes a cleanup job for kitID.
func (d *Dispatcher) EnqueueLimpiezaKit(ctx context.Context, kitID uuid.UUID) error {
	return d.enqueue(ctx, QueueLimpiezaKit, JobLimpiezaKit, LimpiezaPayload{KitID: kitID.String()})
}

// ResultadoBarrido summarizes one sweep.
type ResultadoBarrido struct {
	KitsLimpiados    int
	ItemsBorrados    int64
	ReferenciasRotas int64
}

type Limpiador struct {
	productos repository.ProductoRepository
	items     repository.KitItemRepository
	lote      int
}

func NewLimpiador(productos repository.ProductoRepository, items repository.KitItemRepository) *Limpiador {
	return &Limpiador{productos: productos, items: items, lote: limpiezaBatchSize}
}

// Barrer deletes the items of every kit that no longer exists, in batches,
// and counts items whose member product vanished. Those are only reported:
// the composition view already flags them.
func (l *Limpiador) Barrer(ctx context.Context) (ResultadoBarrido, error) {
	var res ResultadoBarrido
	for {
		huerfanos, err := l.items.ListHuerfanos(ctx, l.lote)
		if err != nil {
			return res, fmt.Errorf("listar items huérfanos: %w", err)
		}
		if len(huerfanos) == 0 {
			break
		}

		vistos := map[uuid.UUID]bool{}
		for _, it := range huerfanos {
			if vistos[it.KitID] {
				continue
			}
			vistos[it.KitID] = true
			n, err := l.items.DeleteByKit(ctx, it.KitID)
			if err != nil {
				return res, fmt.Errorf("borrar items del kit %s: %w", it.KitID, err)
			}
			res.KitsLimpiados++
			res.ItemsBorrados += n
		}
		if len(huerfanos) < l.lote {
			break
		}
	}

	rotas, err := l.items.CountReferenciasRotas(ctx)
	if err != nil {
		return res, fmt.Errorf("contar referencias rotas: %w", err)
	}
	res.ReferenciasRotas = rotas
	return res, nil
}

// LimpiarKit deletes the items of kitID only when the kit itself is gone.
func (l *Limpiador) LimpiarKit(ctx context.Context, kitID uuid.UUID) (int64, error) {
	_, err := l.productos.FindByID(ctx, kitID)
	if err == nil {
		log.Info().Str("kit_id", kitID.String()).Msg("limpieza: kit still exists, nothing to do")
		return 0, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}
	return l.items.DeleteByKit(ctx, kitID)
}

// HandleLimpiezaKit is the JobHandler for JobLimpiezaKit.
func (l *Limpiador) HandleLimpiezaKit(ctx context.Context, payload json.RawMessage) error {
	var p LimpiezaPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("payload inválido: %w", err)
	}
	kitID, err := uuid.Parse(p.KitID)
	if err != nil {
		return fmt.Errorf("kit_id inválido: %w", err)
	}
	n, err := l.LimpiarKit(ctx, kitID)
	if err != nil {
		return err
	}
	log.Info().Str("kit_id", kitID.String()).Int64("items_borrados", n).Msg("limpieza: kit cleaned")
	return nil
}

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// StartLimpiezaCron schedules Barrer with spec (e.g. "@every 1h") and stops
// the scheduler when ctx is cancelled.
func StartLimpiezaCron(ctx context.Context, l *Limpiador, spec string) (*cron.Cron, error) {
	c := cron.New(cron.WithParser(cronParser))
	_, err := c.AddFunc(spec, func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Msg("limpieza_cron: recovered")
			}
		}()
		res, err := l.Barrer(ctx)
		if err != nil {
			log.Error().Err(err).Msg("limpieza_cron: sweep failed")
			return
		}
		if res.ItemsBorrados > 0 || res.ReferenciasRotas > 0 {
			log.Warn().
				Int("kits", res.KitsLimpiados).
				Int64("items_borrados", res.ItemsBorrados).
				Int64("referencias_rotas", res.ReferenciasRotas).
				Msg("limpieza_cron: inconsistencies found")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("limpieza cron %q: %w", spec, err)
	}

	c.Start()
	log.Info().Str("spec", spec).Msg("limpieza_cron: started")
	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
		log.Info().Msg("limpieza_cron: shutting down")
	}()
	return c, nil
}
