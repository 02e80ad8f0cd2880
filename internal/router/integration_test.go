//go:build integration

package router

// End-to-end tests against real Postgres + Redis via testcontainers.
// Run with: go test -tags integration ./internal/router/... -v

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"taquilla/internal/cache"
	"taquilla/internal/config"
	"taquilla/internal/infra"
	"taquilla/internal/repository"
	"taquilla/internal/service"
	"taquilla/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func newContainerEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()
	terminate := func(c testcontainers.Container) {
		t.Cleanup(func() { _ = c.Terminate(ctx) })
	}

	pgC, err := tcPostgres.Run(ctx, "postgres:15-alpine",
		tcPostgres.WithDatabase("taquilla_test"),
		tcPostgres.WithUsername("taquilla"),
		tcPostgres.WithPassword("taquilla"),
		tcPostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	terminate(pgC)

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	terminate(rdC)

	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	db, err := infra.NewDatabase(pgURL)
	require.NoError(t, err)
	require.NoError(t, infra.RunMigrations(ctx, db, false))

	rdb, err := infra.NewRedis(ctx, rdURL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := &config.Config{
		Env:                     "test",
		CORSOrigin:              "*",
		DatabaseURL:             pgURL,
		RedisURL:                rdURL,
		JWTSecret:               "integration-secret",
		JWTExpirationHours:      1,
		DefaultPassword:         "FTT2025",
		RateLimitPerMinute:      10000,
		LoginRateLimitPerMinute: 1000,
	}

	cb := infra.NewCircuitBreaker(infra.DefaultCBConfig("cache-redis"))
	pools := cache.NewPools(
		cache.NewRedisStore(rdb, "cache:quick:", time.Minute, cb),
		cache.NewRedisStore(rdb, "cache:general:", 5*time.Minute, cb),
	)
	pool := worker.NewPool(worker.PoolConfig{Queue: "audit", Workers: 2},
		service.AuditHandler(repository.NewAuditRepository(db)), worker.NewRedisDeadLetter(rdb))
	pctx, cancel := context.WithCancel(ctx)
	pool.Start(pctx)
	t.Cleanup(func() {
		sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer scancel()
		_ = pool.Shutdown(sctx)
		cancel()
	})

	e := &env{t: t, db: db, pools: pools}
	e.engine = New(cfg, Deps{DB: db, Redis: rdb, Breaker: cb, Cache: pools, Audit: pool})
	return e
}

func TestIntegration_PostgresAndRedis(t *testing.T) {
	e := newContainerEnv(t)
	e.seedJefe()
	e.seedTickets()

	jefe := e.login("jefe", "secreto1")

	t.Run("health reports both backends", func(t *testing.T) {
		w, _ := e.do(http.MethodGet, "/health", nil, "")
		require.Equal(t, http.StatusOK, w.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "connected", body["db"])
		assert.Equal(t, "connected", body["redis"])
		assert.Equal(t, "closed", body["cacheBreaker"])
	})

	t.Run("full-text search matches names", func(t *testing.T) {
		w, body := e.do(http.MethodGet, "/api/tickets?search=mendez", nil, jefe)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var page ticketPage
		require.NoError(t, json.Unmarshal(body.Data, &page))
		require.Len(t, page.Tickets, 1)
		assert.Equal(t, "TK-3", page.Tickets[0].TicketID)
	})

	t.Run("print request lifecycle with redis cache", func(t *testing.T) {
		w, _ := e.do(http.MethodPost, "/api/puntos-venta", map[string]any{
			"nombre": "Norte", "localidades": []string{"GENERAL"},
		}, jefe)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		e.crearUsuario(jefe, "staff.norte", "staff", "Norte")
		e.crearUsuario(jefe, "imp.norte", "impresor", "Norte")
		staff := e.login("staff.norte", "FTT2025")
		imp := e.login("imp.norte", "FTT2025")

		w, body := e.do(http.MethodPost, "/api/impresion/request", map[string]any{
			"ticketId": "TK-1", "transactionId": "TX1", "nombreCliente": "Ana Zapata",
			"asiento": "G-1", "quienRetira": "Titular", "celular": "3001234567",
		}, staff)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var creada peticion
		require.NoError(t, json.Unmarshal(body.Data, &creada))

		w, _ = e.do(http.MethodGet, "/api/impresion/queue?estado=pendiente", nil, imp)
		assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
		w, _ = e.do(http.MethodGet, "/api/impresion/queue?estado=pendiente", nil, imp)
		assert.Equal(t, "HIT", w.Header().Get("X-Cache"))

		w, _ = e.do(http.MethodPut, "/api/impresion/"+creada.ID+"/status", map[string]string{"estado": "completada"}, imp)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w, body = e.do(http.MethodGet, "/api/impresion/stats", nil, imp)
		assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
		var stats struct {
			Pendientes  int64 `json:"pendientes"`
			Completadas int64 `json:"completadas"`
		}
		require.NoError(t, json.Unmarshal(body.Data, &stats))
		assert.Equal(t, int64(1), stats.Completadas)
		assert.Zero(t, stats.Pendientes)
	})

	t.Run("cache admin flush", func(t *testing.T) {
		w, _ := e.do(http.MethodDelete, "/api/cache", nil, jefe)
		require.Equal(t, http.StatusOK, w.Code)

		w, _ = e.do(http.MethodGet, "/api/cache/stats", nil, jefe)
		require.Equal(t, http.StatusOK, w.Code)
	})
}
