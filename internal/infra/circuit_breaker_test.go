package infra

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

var errRedis = errors.New("dial tcp 127.0.0.1:6379: connect: connection refused")

func newTestCB(now *time.Time) *CircuitBreaker {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 2, SuccessThreshold: 1, OpenTimeout: 10 * time.Second})
	cb.now = func() time.Time { return *now }
	return cb
}

func TestCircuitBreaker_AbreTrasFallos(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := newTestCB(&now)

	assert.ErrorIs(t, cb.Execute(func() error { return errRedis }), errRedis)
	assert.Equal(t, CBClosed, cb.State())
	assert.ErrorIs(t, cb.Execute(func() error { return errRedis }), errRedis)
	assert.Equal(t, CBOpen, cb.State())

	called := false
	err := cb.Execute(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestCircuitBreaker_SemiAbiertoCierraConExito(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := newTestCB(&now)
	_ = cb.Execute(func() error { return errRedis })
	_ = cb.Execute(func() error { return errRedis })

	now = now.Add(11 * time.Second)
	assert.Equal(t, CBHalfOpen, cb.State())
	assert.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, CBClosed, cb.State())
}

func TestCircuitBreaker_SemiAbiertoVuelveAAbrir(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := newTestCB(&now)
	_ = cb.Execute(func() error { return errRedis })
	_ = cb.Execute(func() error { return errRedis })

	now = now.Add(11 * time.Second)
	_ = cb.Execute(func() error { return errRedis })
	assert.Equal(t, CBOpen, cb.State())
	assert.Equal(t, "open", cb.State().String())
}

func TestCircuitBreaker_ExitoReiniciaFallos(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := newTestCB(&now)

	_ = cb.Execute(func() error { return errRedis })
	_ = cb.Execute(func() error { return nil })
	_ = cb.Execute(func() error { return errRedis })
	assert.Equal(t, CBClosed, cb.State())
}

func TestCircuitBreaker_NilEjecuta(t *testing.T) {
	var cb *CircuitBreaker
	called := false
	assert.NoError(t, cb.Execute(func() error { called = true; return nil }))
	assert.True(t, called)
}

func TestRedisDeshabilitado(t *testing.T) {
	rdb, err := NewRedis("")
	assert.NoError(t, err)
	assert.Nil(t, rdb)

	ctx := context.Background()
	cache := NewKitCache(nil, 0, nil)
	cache.Set(ctx, uuid.New(), uuid.New(), nil)
	_, ok := cache.Get(ctx, uuid.New(), uuid.New())
	assert.False(t, ok)

	liberar, ok, err := NewKitLocker(nil, 0, nil).Adquirir(ctx, uuid.New())
	assert.NoError(t, err)
	assert.True(t, ok)
	liberar()
}
