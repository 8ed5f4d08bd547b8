package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Jobs that exhaust their attempts are parked in dlq:<queue>, newest at the
// head, until someone inspects them.
func dlqKey(queue string) string { return "dlq:" + queue }

// JobFallido is a parked job. KitID is lifted from the payload so a stuck
// cleanup can be traced to its kit without decoding the job by hand.
type JobFallido struct {
	Cola      string          `json:"cola"`
	Tipo      string          `json:"tipo"`
	KitID     string          `json:"kit_id,omitempty"`
	Payload   json.RawMessage `json:"payload"`
	Motivo    string          `json:"motivo"`
	Intentos  int             `json:"intentos"`
	FallidoEn time.Time       `json:"fallido_en"`
}

func nuevoJobFallido(queue string, job Job, motivo string, intentos int, ahora time.Time) JobFallido {
	f := JobFallido{
		Cola:      queue,
		Tipo:      job.Type,
		Payload:   job.Payload,
		Motivo:    motivo,
		Intentos:  intentos,
		FallidoEn: ahora.UTC(),
	}
	var p LimpiezaPayload
	if json.Unmarshal(job.Payload, &p) == nil {
		f.KitID = p.KitID
	}
	return f
}

// pushDLQ pushes f onto the dead letter list of its queue.
func pushDLQ(ctx context.Context, rdb *redis.Client, f JobFallido) error {
	if rdb == nil {
		return ErrSinCola
	}
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("dlq: %w", err)
	}
	if err := rdb.LPush(ctx, dlqKey(f.Cola), data).Err(); err != nil {
		return fmt.Errorf("dlq %s: %w", dlqKey(f.Cola), err)
	}
	log.Warn().
		Str("queue", f.Cola).
		Str("job_type", f.Tipo).
		Str("kit_id", f.KitID).
		Str("motivo", f.Motivo).
		Int("intentos", f.Intentos).
		Msg("job aparcado en dlq")
	return nil
}

// DLQLength returns the number of parked jobs of queue, 0 without Redis.
func DLQLength(ctx context.Context, rdb *redis.Client, queue string) (int64, error) {
	if rdb == nil {
		return 0, nil
	}
	return rdb.LLen(ctx, dlqKey(queue)).Result()
}

// UltimosFallidos returns up to n parked jobs of queue, newest first.
// Entries that no longer decode are skipped.
func UltimosFallidos(ctx context.Context, rdb *redis.Client, queue string, n int64) ([]JobFallido, error) {
	if rdb == nil {
		return nil, ErrSinCola
	}
	raws, err := rdb.LRange(ctx, dlqKey(queue), 0, n-1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]JobFallido, 0, len(raws))
	for _, raw := range raws {
		var f JobFallido
		if err := json.Unmarshal([]byte(raw), &f); err != nil {
			log.Warn().Err(err).Str("queue", queue).Msg("entrada de dlq ilegible")
			continue
		}
		out = append(out, f)
	}
	return out, nil
}
