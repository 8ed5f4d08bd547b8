package infra

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// liberarScript deletes the lock only if it still holds our token, so an
// expired lock re-acquired by someone else is never released by us.
var liberarScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0`)

// KitLocker takes kit:lock:<id> with SET NX PX around a kit mutation.
// With a nil client every acquire succeeds.
type KitLocker struct {
	rdb *redis.Client
	ttl time.Duration
	cb  *CircuitBreaker
}

func NewKitLocker(rdb *redis.Client, ttl time.Duration, cb *CircuitBreaker) *KitLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &KitLocker{rdb: rdb, ttl: ttl, cb: cb}
}

func kitLockKey(kitID uuid.UUID) string { return "kit:lock:" + kitID.String() }

// Adquirir returns ok=false when the lock is held by another operation.
// A Redis failure is returned as err and the caller decides whether to proceed.
func (l *KitLocker) Adquirir(ctx context.Context, kitID uuid.UUID) (func(), bool, error) {
	if l.rdb == nil {
		return func() {}, true, nil
	}
	key := kitLockKey(kitID)
	token := uuid.NewString()

	var ok bool
	err := l.cb.Execute(func() error {
		set, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
		ok = set
		return err
	})
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}

	liberar := func() {
		// the request context may already be cancelled
		c, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := liberarScript.Run(c, l.rdb, []string{key}, token).Err(); err != nil && err != redis.Nil {
			log.Warn().Err(err).Str("kit_id", kitID.String()).Msg("kit_lock: release failed")
		}
	}
	return liberar, true, nil
}
