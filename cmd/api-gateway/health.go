package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// registerHealthRoutes mounts liveness and readiness probes.
func registerHealthRoutes(r *gin.Engine, db *gorm.DB, redisClient *redis.Client) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	// Readiness checks the backing stores so a broken dependency takes
	// the instance out of rotation.
	r.GET("/ready", func(c *gin.Context) {
		ctx := c.Request.Context()

		checks := gin.H{"database": "ok", "redis": "ok"}
		status := http.StatusOK

		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(ctx) != nil {
			checks["database"] = "unreachable"
			status = http.StatusServiceUnavailable
		}

		if redisClient != nil {
			if err := redisClient.Ping(ctx).Err(); err != nil {
				checks["redis"] = "unreachable"
				status = http.StatusServiceUnavailable
			}
		}

		state := "ready"
		if status != http.StatusOK {
			state = "degraded"
		}

		c.JSON(status, gin.H{
			"status": state,
			"checks": checks,
			"time":   time.Now().Format(time.RFC3339),
		})
	})
}
