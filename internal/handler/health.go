package handler

import (
	"context"
	"net/http"
	"time"

	"sistemavendas/internal/infra"
	"sistemavendas/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Health returns a JSON health check response.
// The DB is required; Redis is optional and reported as "disabled" when absent.
// Never exposes credentials or internals.
func Health(db *gorm.DB, rdb *redis.Client, redisCB *infra.CircuitBreaker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		dbStatus := "connected"
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(ctx) != nil {
			dbStatus = "error"
		}

		redisStatus := "disabled"
		var dlq int64
		if rdb != nil {
			redisStatus = "connected"
			if rdb.Ping(ctx).Err() != nil {
				redisStatus = "error"
			}
			dlq, _ = worker.DLQLength(ctx, rdb, worker.QueueLimpiezaKit)
		}

		status := http.StatusOK
		if dbStatus != "connected" {
			status = http.StatusServiceUnavailable
		}

		body := gin.H{
			"ok":           status == http.StatusOK,
			"db":           dbStatus,
			"redis":        redisStatus,
			"limpieza_dlq": dlq,
		}
		if redisCB != nil {
			body["redis_circuit"] = redisCB.State().String()
		}
		c.JSON(status, body)
	}
}
