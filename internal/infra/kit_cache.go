package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"sistemavendas/internal/dto"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// KitCache keeps rendered kit compositions in Redis.
//
//	kit:composicion:<empresa>:<kit>  JSON of dto.ComposicionResponse, TTL-bound
//	kit:composicion:idx:<empresa>    set of the keys above, for bulk invalidation
//
// Every method is a no-op on a nil client or while the breaker is open.
type KitCache struct {
	rdb *redis.Client
	ttl time.Duration
	cb  *CircuitBreaker
}

func NewKitCache(rdb *redis.Client, ttl time.Duration, cb *CircuitBreaker) *KitCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &KitCache{rdb: rdb, ttl: ttl, cb: cb}
}

func composicionKey(empresaID, kitID uuid.UUID) string {
	return fmt.Sprintf("kit:composicion:%s:%s", empresaID, kitID)
}

func composicionIdxKey(empresaID uuid.UUID) string {
	return "kit:composicion:idx:" + empresaID.String()
}

func (c *KitCache) Get(ctx context.Context, empresaID, kitID uuid.UUID) (*dto.ComposicionResponse, bool) {
	if c.rdb == nil {
		return nil, false
	}
	var raw []byte
	err := c.cb.Execute(func() error {
		b, err := c.rdb.Get(ctx, composicionKey(empresaID, kitID)).Bytes()
		if err == redis.Nil {
			return nil
		}
		raw = b
		return err
	})
	if err != nil || raw == nil {
		if err != nil && err != ErrCircuitOpen {
			log.Warn().Err(err).Str("kit_id", kitID.String()).Msg("kit_cache: get failed")
		}
		return nil, false
	}

	var resp dto.ComposicionResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		log.Warn().Err(err).Str("kit_id", kitID.String()).Msg("kit_cache: corrupt entry")
		return nil, false
	}
	return &resp, true
}

func (c *KitCache) Set(ctx context.Context, empresaID, kitID uuid.UUID, resp *dto.ComposicionResponse) {
	if c.rdb == nil || resp == nil {
		return
	}
	data, err := json.Marshal(resp)
	if err != nil {
		return
	}
	key := composicionKey(empresaID, kitID)
	err = c.cb.Execute(func() error {
		_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, c.ttl)
			pipe.SAdd(ctx, composicionIdxKey(empresaID), key)
			return nil
		})
		return err
	})
	if err != nil && err != ErrCircuitOpen {
		log.Warn().Err(err).Str("kit_id", kitID.String()).Msg("kit_cache: set failed")
	}
}

func (c *KitCache) Invalidar(ctx context.Context, empresaID uuid.UUID, kitIDs ...uuid.UUID) {
	if c.rdb == nil || len(kitIDs) == 0 {
		return
	}
	keys := make([]string, 0, len(kitIDs))
	members := make([]interface{}, 0, len(kitIDs))
	for _, id := range kitIDs {
		k := composicionKey(empresaID, id)
		keys = append(keys, k)
		members = append(members, k)
	}
	err := c.cb.Execute(func() error {
		_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, keys...)
			pipe.SRem(ctx, composicionIdxKey(empresaID), members...)
			return nil
		})
		return err
	})
	if err != nil && err != ErrCircuitOpen {
		log.Warn().Err(err).Str("empresa_id", empresaID.String()).Msg("kit_cache: invalidate failed")
	}
}

// InvalidarEmpresa drops every cached composition of the empresa. Called when
// a leaf product changes, since any kit may contain it.
func (c *KitCache) InvalidarEmpresa(ctx context.Context, empresaID uuid.UUID) {
	if c.rdb == nil {
		return
	}
	idx := composicionIdxKey(empresaID)
	err := c.cb.Execute(func() error {
		keys, err := c.rdb.SMembers(ctx, idx).Result()
		if err != nil {
			return err
		}
		return c.rdb.Del(ctx, append(keys, idx)...).Err()
	})
	if err != nil && err != ErrCircuitOpen {
		log.Warn().Err(err).Str("empresa_id", empresaID.String()).Msg("kit_cache: invalidate empresa failed")
	}
}
