//go:build integration

package infra_test

import (
	"context"
	"testing"
	"time"

	"sistemavendas/internal/dto"
	"sistemavendas/internal/infra"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	rdC, err := tcRedis.RunContainer(ctx, testcontainers.WithImage("redis:7-alpine"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	url, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)
	rdb, err := infra.NewRedis(url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestKitCache_SetGetInvalidar(t *testing.T) {
	rdb := setupRedis(t)
	ctx := context.Background()
	cache := infra.NewKitCache(rdb, time.Minute, infra.NewCircuitBreaker(infra.DefaultCBConfig()))
	empresa, kitA, kitB := uuid.New(), uuid.New(), uuid.New()

	cache.Set(ctx, empresa, kitA, &dto.ComposicionResponse{ID: kitA.String(), Nombre: "Kit A"})
	cache.Set(ctx, empresa, kitB, &dto.ComposicionResponse{ID: kitB.String(), Nombre: "Kit B"})

	got, ok := cache.Get(ctx, empresa, kitA)
	require.True(t, ok)
	assert.Equal(t, "Kit A", got.Nombre)

	// same kit id under another empresa is a different key
	_, ok = cache.Get(ctx, uuid.New(), kitA)
	assert.False(t, ok)

	cache.Invalidar(ctx, empresa, kitA)
	_, ok = cache.Get(ctx, empresa, kitA)
	assert.False(t, ok)
	_, ok = cache.Get(ctx, empresa, kitB)
	assert.True(t, ok)

	cache.InvalidarEmpresa(ctx, empresa)
	_, ok = cache.Get(ctx, empresa, kitB)
	assert.False(t, ok)
}

func TestKitLocker_Exclusion(t *testing.T) {
	rdb := setupRedis(t)
	ctx := context.Background()
	locker := infra.NewKitLocker(rdb, 5*time.Second, nil)
	kit := uuid.New()

	liberar, ok, err := locker.Adquirir(ctx, kit)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = locker.Adquirir(ctx, kit)
	require.NoError(t, err)
	assert.False(t, ok)

	liberar()
	liberar2, ok, err := locker.Adquirir(ctx, kit)
	require.NoError(t, err)
	assert.True(t, ok)
	liberar2()
}

func TestKitLocker_NoLiberaLockAjeno(t *testing.T) {
	rdb := setupRedis(t)
	ctx := context.Background()
	locker := infra.NewKitLocker(rdb, 100*time.Millisecond, nil)
	kit := uuid.New()

	liberar, ok, err := locker.Adquirir(ctx, kit)
	require.NoError(t, err)
	require.True(t, ok)

	time.Sleep(200 * time.Millisecond)
	_, ok, err = locker.Adquirir(ctx, kit)
	require.NoError(t, err)
	require.True(t, ok)

	// the first holder's token expired; releasing must not drop the new lock
	liberar()
	_, ok, err = locker.Adquirir(ctx, kit)
	require.NoError(t, err)
	assert.False(t, ok)
}
