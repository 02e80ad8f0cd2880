package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"taquilla/internal/cache"
	"taquilla/internal/config"
	"taquilla/internal/infra"
	"taquilla/internal/model"
	"taquilla/internal/repository"
	"taquilla/internal/service"
	"taquilla/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ── Helpers ──────────────────────────────────────────────────────────────────

type env struct {
	t      *testing.T
	engine *gin.Engine
	db     *gorm.DB
	pools  *cache.Pools
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Token   string          `json:"token"`
	Data    json.RawMessage `json:"data"`
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One connection keeps the audit workers from racing request writes.
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, infra.AutoMigrate(db))

	cfg := &config.Config{
		Env:                     "test",
		CORSOrigin:              "*",
		JWTSecret:               "router-test-secret",
		JWTExpirationHours:      1,
		DefaultPassword:         "FTT2025",
		RateLimitPerMinute:      10000,
		LoginRateLimitPerMinute: 1000,
	}

	pools := cache.NewPools(cache.NewMemoryStore(time.Minute, 0), cache.NewMemoryStore(5*time.Minute, 0))
	pool := worker.NewPool(worker.PoolConfig{Queue: "audit-test", Workers: 1, Backoff: time.Millisecond},
		service.AuditHandler(repository.NewAuditRepository(db)), nil)
	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)

	t.Cleanup(func() {
		sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer scancel()
		_ = pool.Shutdown(sctx)
		cancel()
		_ = sqlDB.Close()
	})

	e := &env{t: t, db: db, pools: pools}
	e.engine = New(cfg, Deps{DB: db, Cache: pools, Audit: pool})
	return e
}

func (e *env) do(method, path string, body any, token string) (*httptest.ResponseRecorder, envelope) {
	e.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(e.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)

	var out envelope
	if bytes.HasPrefix(bytes.TrimSpace(w.Body.Bytes()), []byte("{")) {
		require.NoError(e.t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w, out
}

func (e *env) seedJefe() {
	e.t.Helper()
	hash, err := service.HashPassword("secreto1")
	require.NoError(e.t, err)
	require.NoError(e.t, repository.NewUsuarioRepository(e.db).Create(context.Background(), &model.Usuario{
		Nombre: "Jefa", Usuario: "jefe", PasswordHash: hash, Rol: model.RolJefe, Activo: true,
	}))
}

func (e *env) seedTickets() {
	e.t.Helper()
	repo := repository.NewTicketRepository(e.db)
	for _, tk := range []model.Ticket{
		{TicketID: "TK-1", TransactionID: "TX1", FirstName: "Ana", LastName: "Zapata", Email: "ana@mail.com", Localidad: "GENERAL", Asiento: "G-1"},
		{TicketID: "TK-2", TransactionID: "TX1", FirstName: "Beto", LastName: "Alvarez", Email: "beto@mail.com", Localidad: "General Norte", Asiento: "G-2"},
		{TicketID: "TK-3", TransactionID: "TX2", FirstName: "Caro", LastName: "Mendez", Email: "caro@mail.com", Localidad: "PALCO", Asiento: "P-1"},
		{TicketID: "TK-4", TransactionID: "TX3", FirstName: "Dani", LastName: "Ruiz", Email: "dani@mail.com", Localidad: "TRIBUNA", Asiento: "T-9"},
	} {
		tk := tk
		require.NoError(e.t, repo.Create(context.Background(), &tk))
	}
}

func (e *env) login(usuario, password string) string {
	e.t.Helper()
	w, body := e.do(http.MethodPost, "/api/auth/login", map[string]string{"usuario": usuario, "password": password}, "")
	require.Equal(e.t, http.StatusOK, w.Code, w.Body.String())
	require.NotEmpty(e.t, body.Token)
	return body.Token
}

func (e *env) crearUsuario(jefeToken, usuario, rol, punto string) {
	e.t.Helper()
	w, _ := e.do(http.MethodPost, "/api/users", map[string]any{
		"nombre": "Usuario " + usuario, "usuario": usuario, "rol": rol, "puntoTrabajo": punto,
	}, jefeToken)
	require.Equal(e.t, http.StatusCreated, w.Code, w.Body.String())
}

type ticketPage struct {
	Tickets []struct {
		TicketID  string `json:"Ticket ID"`
		Localidad string `json:"Ticket"`
	} `json:"tickets"`
	Pagination struct {
		TotalItems int64 `json:"totalItems"`
	} `json:"pagination"`
	LocalidadesAsignadas []string `json:"localidadesAsignadas"`
}

type peticion struct {
	ID           string `json:"id"`
	Estado       string `json:"estado"`
	PuntoTrabajo string `json:"puntoTrabajo"`
	AsignadoA    *struct {
		Usuario string `json:"usuario"`
	} `json:"asignadoA"`
}

type peticionPage struct {
	Peticiones []struct {
		TransactionID string `json:"transactionId"`
	} `json:"peticiones"`
}

// setupNorte runs the shared preamble: jefe, "Norte" with GENERAL, staff and
// impresor at Norte, impresor at Sur.
func setupNorte(t *testing.T) (e *env, jefe, staff, impNorte, impSur string) {
	e = newEnv(t)
	e.seedJefe()
	e.seedTickets()

	jefe = e.login("jefe", "secreto1")
	w, _ := e.do(http.MethodPost, "/api/puntos-venta", map[string]any{
		"nombre": "Norte", "localidades": []string{"GENERAL"},
	}, jefe)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	e.crearUsuario(jefe, "staff.norte", model.RolStaff, "Norte")
	e.crearUsuario(jefe, "imp.norte", model.RolImpresor, "Norte")
	e.crearUsuario(jefe, "imp.sur", model.RolImpresor, "Sur")

	staff = e.login("staff.norte", "FTT2025")
	impNorte = e.login("imp.norte", "FTT2025")
	impSur = e.login("imp.sur", "FTT2025")
	return
}

// ── Scenarios ────────────────────────────────────────────────────────────────

func TestStaffSeesOnlyTheirSalesPointLocalities(t *testing.T) {
	e, _, staff, _, _ := setupNorte(t)

	w, body := e.do(http.MethodGet, "/api/tickets", nil, staff)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var page ticketPage
	require.NoError(t, json.Unmarshal(body.Data, &page))
	assert.Equal(t, int64(2), page.Pagination.TotalItems)
	assert.Equal(t, []string{"GENERAL"}, page.LocalidadesAsignadas)
	for _, tk := range page.Tickets {
		assert.Contains(t, []string{"TK-1", "TK-2"}, tk.TicketID)
	}
}

func TestPrintRequestLifecycle(t *testing.T) {
	e, _, staff, impNorte, _ := setupNorte(t)

	crear := map[string]any{
		"ticketId": "TK-1", "transactionId": "TX1", "nombreCliente": "Ana Zapata",
		"asiento": "G-1", "quienRetira": model.RetiraTitular, "celular": "3001234567",
	}
	w, body := e.do(http.MethodPost, "/api/impresion/request", crear, staff)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var creada peticion
	require.NoError(t, json.Unmarshal(body.Data, &creada))
	assert.Equal(t, "Norte", creada.PuntoTrabajo)
	require.NotNil(t, creada.AsignadoA)
	assert.Equal(t, "imp.norte", creada.AsignadoA.Usuario)

	// Same transaction and location again: rejected with the existing record.
	w, body = e.do(http.MethodPost, "/api/impresion/request", crear, staff)
	require.Equal(t, http.StatusBadRequest, w.Code)
	var existente peticion
	require.NoError(t, json.Unmarshal(body.Data, &existente))
	assert.Equal(t, creada.ID, existente.ID)

	w, body = e.do(http.MethodGet, "/api/impresion/queue?estado=pendiente", nil, impNorte)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	var cola peticionPage
	require.NoError(t, json.Unmarshal(body.Data, &cola))
	require.Len(t, cola.Peticiones, 1)
	assert.Equal(t, "TX1", cola.Peticiones[0].TransactionID)

	w, _ = e.do(http.MethodGet, "/api/impresion/queue?estado=pendiente", nil, impNorte)
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))

	w, body = e.do(http.MethodPut, "/api/impresion/"+creada.ID+"/status", map[string]string{"estado": "completado"}, impNorte)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var actualizada peticion
	require.NoError(t, json.Unmarshal(body.Data, &actualizada))
	assert.Equal(t, model.EstadoCompletada, actualizada.Estado)

	// The update evicted the cached queue.
	w, body = e.do(http.MethodGet, "/api/impresion/queue?estado=pendiente", nil, impNorte)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	require.NoError(t, json.Unmarshal(body.Data, &cola))
	assert.Empty(t, cola.Peticiones)

	w, body = e.do(http.MethodGet, "/api/impresion/stats", nil, impNorte)
	require.Equal(t, http.StatusOK, w.Code)
	var stats struct {
		Pendientes   int64  `json:"pendientes"`
		Completadas  int64  `json:"completadas"`
		PuntoTrabajo string `json:"puntoTrabajo"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &stats))
	assert.Equal(t, int64(1), stats.Completadas)
	assert.Zero(t, stats.Pendientes)
	assert.Equal(t, "Norte", stats.PuntoTrabajo)

	// Cached stats are byte-identical within the TTL.
	first := w.Body.String()
	w, _ = e.do(http.MethodGet, "/api/impresion/stats", nil, impNorte)
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))
	assert.Equal(t, first, w.Body.String())
}

func TestImpresorFromAnotherLocationCannotUpdate(t *testing.T) {
	e, _, staff, _, impSur := setupNorte(t)

	w, body := e.do(http.MethodPost, "/api/impresion/request", map[string]any{
		"ticketId": "TK-1", "transactionId": "TX1", "nombreCliente": "Ana Zapata",
		"asiento": "G-1", "quienRetira": model.RetiraTitular, "celular": "3001234567",
	}, staff)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var creada peticion
	require.NoError(t, json.Unmarshal(body.Data, &creada))

	w, body = e.do(http.MethodPut, "/api/impresion/"+creada.ID+"/status", map[string]string{"estado": model.EstadoEnProceso}, impSur)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.False(t, body.Success)
	assert.Equal(t, "No tiene permisos para procesar esta petición", body.Message)
}

// ── Surface checks ───────────────────────────────────────────────────────────

func TestAuthAndRoleGates(t *testing.T) {
	e, _, staff, impNorte, _ := setupNorte(t)

	w, body := e.do(http.MethodGet, "/api/tickets", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "No token, autorización denegada", body.Message)

	w, _ = e.do(http.MethodGet, "/api/users", nil, staff)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = e.do(http.MethodGet, "/api/impresion/queue", nil, staff)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = e.do(http.MethodPost, "/api/tickets/TK-1/print", map[string]string{"quienRetira": "Titular", "celular": "1"}, impNorte)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, body = e.do(http.MethodPost, "/api/auth/login", map[string]string{"usuario": "staff.norte", "password": "mala"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, body.Success)
}

func TestPrintThenReprintTicket(t *testing.T) {
	e, jefe, staff, impNorte, _ := setupNorte(t)

	w, body := e.do(http.MethodPost, "/api/tickets/TK-1/print", map[string]string{"quienRetira": "Otro", "celular": "555"}, staff)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, body.Message, "Otro")

	w, _ = e.do(http.MethodPost, "/api/tickets/TK-1/reprint", map[string]string{"motivo": "papel"}, impNorte)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body = e.do(http.MethodPost, "/api/tickets/TK-1/print", map[string]string{"quienRetira": "Titular", "celular": "555"}, staff)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Ticket impreso exitosamente", body.Message)

	w, body = e.do(http.MethodPost, "/api/tickets/TK-1/print", map[string]string{"quienRetira": "Titular", "celular": "555"}, staff)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Este ticket ya fue impreso", body.Message)

	w, _ = e.do(http.MethodPost, "/api/tickets/TK-1/reprint", map[string]string{"motivo": "papel trabado"}, impNorte)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, _ = e.do(http.MethodGet, "/api/tickets/TK-1/pdf", nil, impNorte)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))

	w, body = e.do(http.MethodGet, "/api/tickets/stats", nil, jefe)
	require.Equal(t, http.StatusOK, w.Code)
	var stats struct {
		TotalTickets    int64   `json:"totalTickets"`
		TicketsImpresos int64   `json:"ticketsImpresos"`
		Porcentaje      float64 `json:"porcentajeEntregados"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &stats))
	assert.Equal(t, int64(4), stats.TotalTickets)
	assert.Equal(t, int64(1), stats.TicketsImpresos)
	assert.Equal(t, 25.0, stats.Porcentaje)
}

func TestTransactionLookupReturnsNullWhenMissing(t *testing.T) {
	e, _, staff, _, _ := setupNorte(t)

	w, _ := e.do(http.MethodGet, "/api/impresion/transaction/NOPE", nil, staff)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"data":null}`, w.Body.String())
}

func TestAuditTrailIsWrittenInBackground(t *testing.T) {
	e, jefe, _, _, _ := setupNorte(t)

	// Logins and user creations are queued; wait for the worker to flush them.
	require.Eventually(t, func() bool {
		var n int64
		e.db.Model(&model.AuditLog{}).Where("tipo = ?", model.TipoCreacionUsuario).Count(&n)
		return n == 3
	}, 5*time.Second, 20*time.Millisecond)

	w, body := e.do(http.MethodGet, "/api/audit?tipo="+model.TipoCreacionUsuario, nil, jefe)
	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		Logs []struct {
			Tipo string `json:"tipo"`
		} `json:"logs"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &page))
	assert.Len(t, page.Logs, 3)

	w, _ = e.do(http.MethodGet, "/api/audit/export", nil, jefe)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")
}

func TestHealthAndLocalidades(t *testing.T) {
	e, _, staff, _, _ := setupNorte(t)

	w, _ := e.do(http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true,"db":"connected"}`, w.Body.String())

	w, body := e.do(http.MethodGet, "/api/puntos-venta/localidades", nil, staff)
	require.Equal(t, http.StatusOK, w.Code)
	var locs []string
	require.NoError(t, json.Unmarshal(body.Data, &locs))
	assert.Equal(t, model.KnownLocalidades, locs)
}
