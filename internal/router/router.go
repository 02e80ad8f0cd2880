package router

import (
	"time"

	"taquilla/internal/authz"
	"taquilla/internal/cache"
	"taquilla/internal/config"
	"taquilla/internal/handler"
	"taquilla/internal/infra"
	"taquilla/internal/middleware"
	"taquilla/internal/model"
	"taquilla/internal/repository"
	"taquilla/internal/service"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	ttlFrecuente = 30 * time.Second
	ttlStats     = 60 * time.Second
)

// Mutations on print requests evict every cached read that may show them.
var impresionReads = []string{
	"/api/impresion/queue",
	"/api/impresion/stats",
	"/api/impresion/my-requests",
	"/api/impresion/transaction",
}

// Deps are the long-lived resources built by the composition root.
// Redis and Breaker are nil when the cache runs in memory.
type Deps struct {
	DB      *gorm.DB
	Redis   *redis.Client
	Breaker *infra.CircuitBreaker
	Cache   *cache.Pools
	Audit   service.Submitter
}

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB
func New(cfg *config.Config, d Deps) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Origen())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.CORSOrigin))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.Metrics())
	r.Use(middleware.RateLimiter(cfg.RateLimitPerMinute, time.Minute))

	// ── Repositories ─────────────────────────────────────────────────────────
	usuarioRepo := repository.NewUsuarioRepository(d.DB)
	puntoVentaRepo := repository.NewPuntoVentaRepository(d.DB)
	ticketRepo := repository.NewTicketRepository(d.DB)
	impresionRepo := repository.NewImpresionRepository(d.DB)
	auditRepo := repository.NewAuditRepository(d.DB)

	// ── Services ─────────────────────────────────────────────────────────────
	resolver := authz.NewResolver(puntoVentaRepo, repository.IsNotFound)
	auditSvc := service.NewAuditService(auditRepo, d.Audit)
	authSvc := service.NewAuthService(usuarioRepo, auditSvc, cfg)
	usuarioSvc := service.NewUsuarioService(usuarioRepo, auditSvc, cfg)
	ticketSvc := service.NewTicketService(ticketRepo, impresionRepo, resolver, auditSvc)
	puntoVentaSvc := service.NewPuntoVentaService(puntoVentaRepo, ticketRepo, ticketSvc, auditSvc)
	impresionSvc := service.NewImpresionService(impresionRepo, usuarioRepo, auditSvc)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usuariosH := handler.NewUsuariosHandler(usuarioSvc)
	ticketsH := handler.NewTicketsHandler(ticketSvc)
	puntosH := handler.NewPuntosVentaHandler(puntoVentaSvc)
	impresionH := handler.NewImpresionHandler(impresionSvc)
	auditH := handler.NewAuditHandler(auditSvc)
	cacheH := handler.NewCacheHandler(d.Cache)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(d.DB, d.Redis, d.Breaker))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	jwtMW := middleware.JWTAuth(authSvc)
	jefe := middleware.RequireRole(model.RolJefe)

	api := r.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(cfg.LoginRateLimitPerMinute), authH.Login)
		auth.POST("/change-password", jwtMW, authH.CambiarPassword)
		auth.POST("/logout", jwtMW, authH.Logout)
		auth.GET("/profile", jwtMW, authH.Perfil)
	}

	users := api.Group("/users", jwtMW, jefe)
	{
		users.GET("", usuariosH.Listar)
		users.POST("", usuariosH.Crear)
		users.PUT("/:id", usuariosH.Actualizar)
		users.DELETE("/:id", usuariosH.Eliminar)
	}

	tickets := api.Group("/tickets", jwtMW)
	{
		tickets.GET("", ticketsH.Listar)
		tickets.GET("/stats", jefe, ticketsH.Estadisticas)
		tickets.GET("/transaction/:id", middleware.RequireRole(model.RolJefe, model.RolImpresor), ticketsH.PorTransaccion)
		tickets.POST("/:id/print", middleware.RequireRole(model.RolJefe, model.RolStaff), ticketsH.Imprimir)
		tickets.POST("/:id/reprint", middleware.RequireRole(model.RolJefe, model.RolImpresor), ticketsH.Reimprimir)
		tickets.GET("/:id/pdf", middleware.RequireRole(model.RolJefe, model.RolImpresor), ticketsH.PDF)
	}

	puntos := api.Group("/puntos-venta", jwtMW)
	{
		puntos.GET("", puntosH.Listar)
		puntos.GET("/localidades", puntosH.Localidades)
		puntos.GET("/staff/tickets", middleware.RequireRole(model.RolStaff, model.RolImpresor), puntosH.StaffTickets)
		puntos.POST("", jefe, puntosH.Crear)
		puntos.PUT("/:id", jefe, puntosH.Actualizar)
		puntos.DELETE("/:id", jefe, puntosH.Eliminar)
		puntos.GET("/:id/tickets", jefe, puntosH.Tickets)
		puntos.GET("/:id/estadisticas", jefe, puntosH.Estadisticas)
	}

	imp := api.Group("/impresion", jwtMW)
	{
		imp.POST("/request",
			middleware.RequireRole(model.RolStaff, model.RolJefe),
			middleware.InvalidateCache(d.Cache, impresionReads...),
			impresionH.Crear)
		imp.GET("/queue",
			middleware.RequireRole(model.RolImpresor),
			middleware.Cache(d.Cache, ttlFrecuente),
			impresionH.Cola)
		imp.GET("/my-requests",
			middleware.RequireRole(model.RolStaff, model.RolJefe),
			middleware.Cache(d.Cache, ttlFrecuente),
			impresionH.MisPeticiones)
		imp.PUT("/:id/status",
			middleware.RequireRole(model.RolImpresor),
			middleware.InvalidateCache(d.Cache, impresionReads...),
			impresionH.ActualizarEstado)
		imp.GET("/stats",
			middleware.RequireRole(model.RolImpresor, model.RolJefe),
			middleware.Cache(d.Cache, ttlStats),
			impresionH.Estadisticas)

		byTx := []gin.HandlerFunc{
			middleware.RequireRole(model.RolStaff, model.RolImpresor, model.RolJefe),
			middleware.Cache(d.Cache, ttlFrecuente),
			impresionH.PorTransaccion,
		}
		imp.GET("/transaction/:transactionId", byTx...)
		imp.GET("/transaction/:transactionId/:puntoTrabajo", byTx...)
	}

	audit := api.Group("/audit", jwtMW, jefe)
	{
		audit.GET("", auditH.Listar)
		audit.GET("/summary", auditH.Resumen)
		audit.GET("/export", auditH.Exportar)
	}

	cacheAdmin := api.Group("/cache", jwtMW, jefe)
	{
		cacheAdmin.GET("/stats", cacheH.Stats)
		cacheAdmin.DELETE("", cacheH.Flush)
	}

	// Swagger UI, only outside production
	if !cfg.IsProduction() {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
