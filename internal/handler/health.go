package handler

import (
	"context"
	"net/http"
	"time"

	"taquilla/internal/cache"
	"taquilla/internal/infra"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Health returns a JSON health check response.
// Checks DB and, when configured, Redis; never exposes credentials or internals.
// breaker may be nil when the cache runs in memory.
func Health(db *gorm.DB, rdb *redis.Client, breaker *infra.CircuitBreaker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		dbStatus := "connected"
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(ctx) != nil {
			dbStatus = "error"
		}

		body := gin.H{"db": dbStatus}
		status := http.StatusOK
		if dbStatus != "connected" {
			status = http.StatusServiceUnavailable
		}

		// Redis only backs the cache, so a failure degrades instead of failing.
		if rdb != nil {
			redisStatus := "connected"
			if rdb.Ping(ctx).Err() != nil {
				redisStatus = "error"
			}
			body["redis"] = redisStatus
		}
		if breaker != nil {
			body["cacheBreaker"] = breaker.State().String()
		}

		body["ok"] = status == http.StatusOK
		c.JSON(status, body)
	}
}

// CacheHandler exposes pool sizes and a manual flush to the jefe.
type CacheHandler struct{ pools *cache.Pools }

func NewCacheHandler(pools *cache.Pools) *CacheHandler { return &CacheHandler{pools: pools} }

func (h *CacheHandler) Stats(c *gin.Context) {
	stats, err := h.pools.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, "", stats)
}

func (h *CacheHandler) Flush(c *gin.Context) {
	if err := h.pools.FlushAll(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, "Caché vaciada exitosamente", nil)
}
