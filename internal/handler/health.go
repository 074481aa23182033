package handler

import (
	"context"
	"net/http"
	"time"

	"livraria/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Health checks DB and Redis connectivity; never exposes credentials or internals.
// Redis is reported as "disabled" when the service runs without it.
func Health(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		dbStatus := "connected"
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(ctx) != nil {
			dbStatus = "error"
		}

		body := gin.H{"db": dbStatus}
		redisStatus := "disabled"
		if rdb != nil {
			redisStatus = "connected"
			if rdb.Ping(ctx).Err() != nil {
				redisStatus = "error"
			} else if n, err := worker.DLQLength(ctx, rdb, worker.QueueEstoque); err == nil {
				body["dlq_estoque"] = n
			}
		}
		body["redis"] = redisStatus

		status := http.StatusOK
		if dbStatus != "connected" || redisStatus == "error" {
			status = http.StatusServiceUnavailable
		}
		body["ok"] = status == http.StatusOK

		c.JSON(status, body)
	}
}
