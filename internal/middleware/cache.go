package middleware

import (
	"bytes"
	"net/http"
	"sync"
	"time"

	"taquilla/internal/cache"
	"taquilla/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const CacheHeader = "X-Cache"

const jsonContentType = "application/json; charset=utf-8"

// bodyWriter tees the response body so it can be stored after the handler runs.
type bodyWriter struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *bodyWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyWriter) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

func cacheUser(c *gin.Context) string {
	if actor, ok := GetActor(c); ok {
		return actor.ID.String()
	}
	return ""
}

// Cache memoizes 200 GET responses for ttl in the pool serving that ttl.
// Cache failures are logged and the request proceeds uncached.
func Cache(pools *cache.Pools, ttl time.Duration) gin.HandlerFunc {
	store, pool := pools.For(ttl)
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}
		ctx := c.Request.Context()
		key := cache.Key(c.Request.URL.RequestURI(), cacheUser(c))

		body, ok, err := store.Get(ctx, key)
		switch {
		case err != nil:
			metrics.CacheLookups.WithLabelValues(pool, "error").Inc()
			log.Warn().Err(err).Str("pool", pool).Str("key", key).Msg("cache: get failed")
		case ok:
			metrics.CacheLookups.WithLabelValues(pool, "hit").Inc()
			c.Header(CacheHeader, "HIT")
			c.Data(http.StatusOK, jsonContentType, body)
			c.Abort()
			return
		default:
			metrics.CacheLookups.WithLabelValues(pool, "miss").Inc()
		}

		c.Header(CacheHeader, "MISS")
		w := &bodyWriter{ResponseWriter: c.Writer}
		c.Writer = w
		c.Next()

		if w.Status() != http.StatusOK || w.buf.Len() == 0 {
			return
		}
		if err := store.Set(ctx, key, w.buf.Bytes(), ttl); err != nil {
			log.Warn().Err(err).Str("pool", pool).Str("key", key).Msg("cache: set failed")
		}
	}
}

// invalidatingWriter runs before once, right before the first byte of the
// response goes out.
type invalidatingWriter struct {
	gin.ResponseWriter
	once   sync.Once
	before func()
}

func (w *invalidatingWriter) Write(b []byte) (int, error) {
	w.once.Do(w.before)
	return w.ResponseWriter.Write(b)
}

func (w *invalidatingWriter) WriteString(s string) (int, error) {
	w.once.Do(w.before)
	return w.ResponseWriter.WriteString(s)
}

func (w *invalidatingWriter) WriteHeaderNow() {
	w.once.Do(w.before)
	w.ResponseWriter.WriteHeaderNow()
}

// InvalidateCache evicts every cached key containing one of patterns, in both
// pools, when the handler answers 200 or 201. Eviction happens before the
// response is flushed so a follow-up read never sees the stale entry.
func InvalidateCache(pools *cache.Pools, patterns ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		w := &invalidatingWriter{ResponseWriter: c.Writer}
		w.before = func() {
			switch w.ResponseWriter.Status() {
			case http.StatusOK, http.StatusCreated:
				n := pools.Invalidate(c.Request.Context(), patterns...)
				log.Debug().Int("keys", n).Strs("patterns", patterns).Msg("cache: invalidated")
			}
		}
		c.Writer = w
		c.Next()
		w.once.Do(w.before)
	}
}
