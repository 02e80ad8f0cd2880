package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"taquilla/internal/authz"
	"taquilla/internal/config"
	"taquilla/internal/dto"
	"taquilla/internal/model"
	"taquilla/internal/repository"
	"taquilla/internal/worker"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ── In-memory Repository Stubs ────────────────────────────────────────────────

type stubUsuarios struct {
	byID map[uuid.UUID]*model.Usuario
}

func newStubUsuarios() *stubUsuarios {
	return &stubUsuarios{byID: map[uuid.UUID]*model.Usuario{}}
}

func (r *stubUsuarios) Create(_ context.Context, u *model.Usuario) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	r.byID[u.ID] = u
	return nil
}

func (r *stubUsuarios) FindByUsuario(_ context.Context, usuario string) (*model.Usuario, error) {
	for _, u := range r.byID {
		if u.Usuario == usuario {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUsuarios) FindByID(_ context.Context, id uuid.UUID) (*model.Usuario, error) {
	if u, ok := r.byID[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUsuarios) FindImpresorActivo(_ context.Context, punto string) (*model.Usuario, error) {
	for _, u := range r.byID {
		if u.Rol == model.RolImpresor && u.Activo && u.Punto() == punto {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUsuarios) ExisteJefe(_ context.Context) (bool, error) {
	for _, u := range r.byID {
		if u.Rol == model.RolJefe {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubUsuarios) List(_ context.Context) ([]model.Usuario, error) {
	out := make([]model.Usuario, 0, len(r.byID))
	for _, u := range r.byID {
		if u.Activo {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *stubUsuarios) Update(_ context.Context, u *model.Usuario) error {
	r.byID[u.ID] = u
	return nil
}

func (r *stubUsuarios) SoftDelete(_ context.Context, id uuid.UUID) error {
	u, ok := r.byID[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Activo = false
	return nil
}

type stubPuntos struct {
	list []*model.PuntoVenta
}

func (r *stubPuntos) Create(_ context.Context, p *model.PuntoVenta) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.list = append(r.list, p)
	return nil
}

func (r *stubPuntos) FindByID(_ context.Context, id uuid.UUID) (*model.PuntoVenta, error) {
	for _, p := range r.list {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubPuntos) FindByNombre(_ context.Context, nombre string) (*model.PuntoVenta, error) {
	for _, p := range r.list {
		if p.Nombre == nombre {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubPuntos) FindActivoByNombre(ctx context.Context, nombre string) (*model.PuntoVenta, error) {
	p, err := r.FindByNombre(ctx, nombre)
	if err != nil || !p.Activo {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (r *stubPuntos) ListActivos(_ context.Context) ([]model.PuntoVenta, error) {
	var out []model.PuntoVenta
	for _, p := range r.list {
		if p.Activo {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *stubPuntos) Update(_ context.Context, _ *model.PuntoVenta) error { return nil }

func (r *stubPuntos) SoftDelete(_ context.Context, id uuid.UUID) error {
	for _, p := range r.list {
		if p.ID == id {
			p.Activo = false
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

// stubTickets filters in memory. With fullText set it reports index support
// but never matches, so callers must fall back to substring search.
type stubTickets struct {
	tickets       []*model.Ticket
	fullText      bool
	queries       []repository.TicketQuery
	reimpresiones []model.Reimpresion

	impresos   int64
	porDia     []repository.ConteoClave
	porPunto   []repository.ConteoClave
	statsQuery repository.TicketStatsQuery
}

func (r *stubTickets) SupportsFullText() bool { return r.fullText }

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func enLocalidades(t *model.Ticket, locs []string) bool {
	if locs == nil {
		return true
	}
	for _, l := range locs {
		if containsFold(t.Localidad, l) {
			return true
		}
	}
	return false
}

func (r *stubTickets) Search(_ context.Context, q repository.TicketQuery) ([]model.Ticket, int64, error) {
	r.queries = append(r.queries, q)
	if q.FullText {
		return nil, 0, nil
	}
	var out []model.Ticket
	for _, t := range r.tickets {
		if !enLocalidades(t, q.Localidades) {
			continue
		}
		if q.Search != "" && !containsFold(t.FirstName+" "+t.LastName+" "+t.Email+" "+t.TicketID+" "+t.TransactionID+" "+t.Cedula, q.Search) {
			continue
		}
		if q.SeatSearch != "" && !containsFold(t.Asiento, q.SeatSearch) {
			continue
		}
		if q.Impreso != nil && t.Impreso != *q.Impreso {
			continue
		}
		out = append(out, *t)
	}
	return out, int64(len(out)), nil
}

func (r *stubTickets) FindByRef(_ context.Context, ref string) (*model.Ticket, error) {
	for _, t := range r.tickets {
		if t.TicketID == ref || t.ID.String() == ref {
			return t, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubTickets) ListByTransaction(_ context.Context, tx string) ([]model.Ticket, error) {
	var out []model.Ticket
	for _, t := range r.tickets {
		if t.TransactionID == tx {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *stubTickets) MarcarImpreso(_ context.Context, _ *model.Ticket) error { return nil }

func (r *stubTickets) AgregarReimpresion(_ context.Context, re *model.Reimpresion) error {
	r.reimpresiones = append(r.reimpresiones, *re)
	return nil
}

func (r *stubTickets) CountByLocalidades(_ context.Context, locs []string) (int64, error) {
	var n int64
	for _, t := range r.tickets {
		if enLocalidades(t, locs) {
			n++
		}
	}
	return n, nil
}

func (r *stubTickets) CountAll(_ context.Context) (int64, error) { return int64(len(r.tickets)), nil }

func (r *stubTickets) CountImpresos(_ context.Context, q repository.TicketStatsQuery) (int64, error) {
	r.statsQuery = q
	return r.impresos, nil
}

func (r *stubTickets) ImpresosPorDia(_ context.Context, _ repository.TicketStatsQuery) ([]repository.ConteoClave, error) {
	return r.porDia, nil
}

func (r *stubTickets) ImpresosPorPunto(_ context.Context) ([]repository.ConteoClave, error) {
	return r.porPunto, nil
}

func (r *stubTickets) Create(_ context.Context, t *model.Ticket) error {
	r.tickets = append(r.tickets, t)
	return nil
}

type stubPeticiones struct {
	list      []*model.PeticionImpresion
	lastQuery repository.PeticionQuery
	stats     *repository.ImpresionStats
	statsArgs struct {
		punto *string
		desde time.Time
	}

	completadas int64
	porDia      []repository.ConteoClave
	porPunto    []repository.ConteoClave
}

func (r *stubPeticiones) Create(_ context.Context, p *model.PeticionImpresion) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.list = append(r.list, p)
	return nil
}

func (r *stubPeticiones) FindByID(_ context.Context, id uuid.UUID) (*model.PeticionImpresion, error) {
	for _, p := range r.list {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubPeticiones) FindDuplicada(_ context.Context, tx, punto string) (*model.PeticionImpresion, error) {
	for _, p := range r.list {
		if p.TransactionID == tx && p.PuntoTrabajo == punto {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubPeticiones) FindByTransaction(_ context.Context, tx string, punto *string) (*model.PeticionImpresion, error) {
	for _, p := range r.list {
		if p.TransactionID == tx && (punto == nil || p.PuntoTrabajo == *punto) {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubPeticiones) List(_ context.Context, q repository.PeticionQuery) ([]model.PeticionImpresion, int64, error) {
	r.lastQuery = q
	var out []model.PeticionImpresion
	for _, p := range r.list {
		if q.PuntoTrabajo != nil && p.PuntoTrabajo != *q.PuntoTrabajo {
			continue
		}
		if q.Estado != "" && p.Estado != q.Estado {
			continue
		}
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (r *stubPeticiones) Update(_ context.Context, _ *model.PeticionImpresion) error { return nil }

func (r *stubPeticiones) Stats(_ context.Context, punto *string, desde time.Time) (*repository.ImpresionStats, error) {
	r.statsArgs.punto, r.statsArgs.desde = punto, desde
	return r.stats, nil
}

func (r *stubPeticiones) CountCompletadas(_ context.Context, _ repository.CompletadasQuery) (int64, error) {
	return r.completadas, nil
}

func (r *stubPeticiones) CompletadasPorDia(_ context.Context, _ repository.CompletadasQuery) ([]repository.ConteoClave, error) {
	return r.porDia, nil
}

func (r *stubPeticiones) CompletadasPorPunto(_ context.Context) ([]repository.ConteoClave, error) {
	return r.porPunto, nil
}

// recordingAudit captures events instead of queueing them.
type recordingAudit struct {
	mu      sync.Mutex
	eventos []Evento
}

func (a *recordingAudit) Registrar(_ context.Context, ev Evento) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.eventos = append(a.eventos, ev)
}

func (a *recordingAudit) Listar(context.Context, dto.AuditFilter) (*dto.AuditPage, error) {
	return nil, nil
}

func (a *recordingAudit) Resumen(context.Context, dto.DateRange) (*dto.AuditSummaryResponse, error) {
	return nil, nil
}

func (a *recordingAudit) Exportar(context.Context, dto.AuditFilter) ([]byte, error) {
	return nil, nil
}

func (a *recordingAudit) last() Evento {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.eventos[len(a.eventos)-1]
}

type captureQueue struct {
	jobs []worker.Job
	err  error
}

func (q *captureQueue) Submit(job worker.Job) error {
	q.jobs = append(q.jobs, job)
	return q.err
}

// ── Helpers ───────────────────────────────────────────────────────────────────

const testSecret = "test_jwt_secret_32_chars_minimum!"

func newTestCfg() *config.Config {
	return &config.Config{
		JWTSecret:          testSecret,
		JWTExpirationHours: 8,
		DefaultPassword:    "FTT2025",
	}
}

func strPtr(s string) *string { return &s }

func jefe() authz.Actor {
	return authz.Actor{ID: uuid.New(), Nombre: "Jefe", Usuario: "jefe", Rol: model.RolJefe}
}

func staffEn(punto string) authz.Actor {
	return authz.Actor{ID: uuid.New(), Nombre: "Staff " + punto, Usuario: "staff", Rol: model.RolStaff, PuntoTrabajo: punto}
}

func impresorEn(punto string) authz.Actor {
	return authz.Actor{ID: uuid.New(), Nombre: "Impresor " + punto, Usuario: "impresor", Rol: model.RolImpresor, PuntoTrabajo: punto}
}
