package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"taquilla/internal/authz"
	"taquilla/internal/dto"
	"taquilla/internal/infra"
	"taquilla/internal/model"
	"taquilla/internal/repository"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const sinAsignar = "Sin asignar"

// ScopeResolver turns a caller into the localities it may browse.
type ScopeResolver interface {
	Resolve(ctx context.Context, actor authz.Actor, override string) (authz.Alcance, error)
}

type TicketService interface {
	// Buscar runs a ticket search restricted to alcance.
	Buscar(ctx context.Context, alcance authz.Alcance, f dto.TicketFilter) (*dto.TicketPage, error)
	// Listar resolves the caller's scope (honouring the jefe override) and searches.
	Listar(ctx context.Context, actor authz.Actor, f dto.TicketFilter) (*dto.TicketPage, error)
	Imprimir(ctx context.Context, actor authz.Actor, ref string, req dto.ImprimirTicketRequest) (*dto.TicketResponse, error)
	Reimprimir(ctx context.Context, actor authz.Actor, ref string, req dto.ReimprimirTicketRequest) (*dto.TicketResponse, error)
	PorTransaccion(ctx context.Context, transactionID string) ([]dto.TicketResponse, error)
	Estadisticas(ctx context.Context, f dto.TicketStatsFilter) (*dto.TicketStatsResponse, error)
	// PDF renders the pickup slip and returns it with its ticket id.
	PDF(ctx context.Context, ref string) ([]byte, string, error)
}

type ticketService struct {
	tickets    repository.TicketRepository
	peticiones repository.ImpresionRepository
	scopes     ScopeResolver
	audit      AuditService
}

func NewTicketService(
	tickets repository.TicketRepository,
	peticiones repository.ImpresionRepository,
	scopes ScopeResolver,
	audit AuditService,
) TicketService {
	return &ticketService{tickets: tickets, peticiones: peticiones, scopes: scopes, audit: audit}
}

// ── Search ────────────────────────────────────────────────────────────────────

func (s *ticketService) Buscar(ctx context.Context, alcance authz.Alcance, f dto.TicketFilter) (*dto.TicketPage, error) {
	page, limit := dto.ClampPage(f.Page, f.Limit)
	q := repository.TicketQuery{
		Localidades: alcance.Filtro(),
		Search:      strings.TrimSpace(f.Search),
		SeatSearch:  strings.TrimSpace(f.SeatSearch),
		SortBy:      f.SortBy,
		SortDesc:    strings.EqualFold(f.SortOrder, "desc"),
		Page:        page,
		Limit:       limit,
	}
	switch f.Impreso {
	case "true":
		v := true
		q.Impreso = &v
	case "false":
		v := false
		q.Impreso = &v
	}

	tickets, total, err := s.search(ctx, q)
	if err != nil {
		return nil, err
	}
	return &dto.TicketPage{
		Tickets:              mapTickets(tickets),
		Pagination:           dto.NewPagination(page, limit, total),
		PuntoTrabajo:         alcance.PuntoTrabajo,
		LocalidadesAsignadas: alcance.Localidades,
	}, nil
}

// search tries the full-text index first and falls back to substring
// matching when it finds nothing, since tokens miss partial words.
func (s *ticketService) search(ctx context.Context, q repository.TicketQuery) ([]model.Ticket, int64, error) {
	if q.Search != "" && s.tickets.SupportsFullText() {
		ft := q
		ft.FullText = true
		tickets, total, err := s.tickets.Search(ctx, ft)
		if err != nil {
			log.Warn().Err(err).Str("search", q.Search).Msg("ticket: full-text search failed, using substring match")
		} else if total > 0 {
			return tickets, total, nil
		}
	}
	q.FullText = false
	return s.tickets.Search(ctx, q)
}

func (s *ticketService) Listar(ctx context.Context, actor authz.Actor, f dto.TicketFilter) (*dto.TicketPage, error) {
	alcance, err := s.scopes.Resolve(ctx, actor, strings.TrimSpace(f.PuntoTrabajo))
	if err != nil {
		if errors.Is(err, authz.ErrSinPuntoTrabajo) {
			return nil, validacion(err.Error())
		}
		return nil, err
	}
	return s.Buscar(ctx, alcance, f)
}

// ── Print / reprint ───────────────────────────────────────────────────────────

func nonEmpty(p *string) bool {
	return p != nil && strings.TrimSpace(*p) != ""
}

func trimmed(p *string) *string {
	if !nonEmpty(p) {
		return nil
	}
	v := strings.TrimSpace(*p)
	return &v
}

// validarRetiro enforces the companion fields of the "Otro" pickup category.
func validarRetiro(quienRetira string, parentesco, quienOtro *string) error {
	if quienRetira == model.RetiraOtro && (!nonEmpty(parentesco) || !nonEmpty(quienOtro)) {
		return validacion(`Debe especificar quién retira y su parentesco cuando selecciona "Otro"`)
	}
	return nil
}

func (s *ticketService) findTicket(ctx context.Context, ref string) (*model.Ticket, error) {
	t, err := s.tickets.FindByRef(ctx, ref)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, noEncontrado("Ticket no encontrado")
		}
		return nil, err
	}
	return t, nil
}

func actorUsuario(a authz.Actor) *model.Usuario {
	return &model.Usuario{ID: a.ID, Nombre: a.Nombre, Usuario: a.Usuario, Rol: a.Rol}
}

// aplicarRetiro copies the pickup fields onto t; the companions only survive for "Otro".
func aplicarRetiro(t *model.Ticket, quienRetira string, parentesco, quienOtro *string, celular string) {
	t.QuienRetira = &quienRetira
	t.Parentesco, t.QuienOtro = nil, nil
	if quienRetira == model.RetiraOtro {
		t.Parentesco = trimmed(parentesco)
		t.QuienOtro = trimmed(quienOtro)
	}
	cel := strings.TrimSpace(celular)
	t.Celular = &cel
}

func (s *ticketService) Imprimir(ctx context.Context, actor authz.Actor, ref string, req dto.ImprimirTicketRequest) (*dto.TicketResponse, error) {
	if !model.ValidQuienRetira(req.QuienRetira) || strings.TrimSpace(req.Celular) == "" {
		return nil, validacion("Quien retira y celular son campos obligatorios")
	}
	if err := validarRetiro(req.QuienRetira, req.Parentesco, req.QuienOtro); err != nil {
		return nil, err
	}

	t, err := s.findTicket(ctx, ref)
	if err != nil {
		return nil, err
	}
	if t.Impreso && !actor.EsJefe() {
		return nil, validacion("Este ticket ya fue impreso")
	}

	now := time.Now()
	t.Impreso = true
	t.FechaImpresion = &now
	t.UsuarioResponsableID = &actor.ID
	t.UsuarioResponsable = actorUsuario(actor)
	t.PuntoTrabajo = optional(actor.PuntoTrabajo)
	aplicarRetiro(t, req.QuienRetira, req.Parentesco, req.QuienOtro, req.Celular)

	if err := s.tickets.MarcarImpreso(ctx, t); err != nil {
		return nil, err
	}

	s.audit.Registrar(ctx, Evento{
		UsuarioID:     actor.ID,
		Accion:        AccionImprimir,
		Recurso:       RecursoTicket,
		RecursoID:     t.TicketID,
		Detalle:       "Ticket impreso",
		TransactionID: t.TransactionID,
		PuntoTrabajo:  actor.PuntoTrabajo,
		Metadata:      map[string]any{"quienRetira": req.QuienRetira, "celular": *t.Celular},
	})

	resp := mapTicket(t)
	return &resp, nil
}

func (s *ticketService) Reimprimir(ctx context.Context, actor authz.Actor, ref string, req dto.ReimprimirTicketRequest) (*dto.TicketResponse, error) {
	motivo := strings.TrimSpace(req.Motivo)
	if motivo == "" {
		return nil, validacion("Motivo de reimpresión es obligatorio")
	}
	if req.QuienRetira != nil {
		if !model.ValidQuienRetira(*req.QuienRetira) {
			return nil, validacion("Quien retira no es válido")
		}
		if err := validarRetiro(*req.QuienRetira, req.Parentesco, req.QuienOtro); err != nil {
			return nil, err
		}
	}

	t, err := s.findTicket(ctx, ref)
	if err != nil {
		return nil, err
	}
	if !t.Impreso {
		return nil, validacion("No se puede reimprimir un ticket que no ha sido impreso")
	}

	if req.QuienRetira != nil {
		celular := ""
		if req.Celular != nil {
			celular = *req.Celular
		} else if t.Celular != nil {
			celular = *t.Celular
		}
		aplicarRetiro(t, *req.QuienRetira, req.Parentesco, req.QuienOtro, celular)
		if err := s.tickets.MarcarImpreso(ctx, t); err != nil {
			return nil, err
		}
	}

	re := &model.Reimpresion{
		TicketRefID:  t.ID,
		Fecha:        time.Now(),
		Motivo:       motivo,
		UsuarioID:    actor.ID,
		PuntoTrabajo: actor.PuntoTrabajo,
	}
	if err := s.tickets.AgregarReimpresion(ctx, re); err != nil {
		return nil, err
	}
	re.Usuario = actorUsuario(actor)
	t.Reimpresiones = append(t.Reimpresiones, *re)

	s.audit.Registrar(ctx, Evento{
		UsuarioID:     actor.ID,
		Accion:        AccionReimprimir,
		Recurso:       RecursoTicket,
		RecursoID:     t.TicketID,
		Detalle:       "Ticket reimpreso",
		TransactionID: t.TransactionID,
		PuntoTrabajo:  actor.PuntoTrabajo,
		Metadata:      map[string]any{"motivo": motivo, "reimpresiones": len(t.Reimpresiones)},
	})

	resp := mapTicket(t)
	return &resp, nil
}

func (s *ticketService) PorTransaccion(ctx context.Context, transactionID string) ([]dto.TicketResponse, error) {
	tickets, err := s.tickets.ListByTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if len(tickets) == 0 {
		return nil, noEncontrado("No se encontraron tickets para esta transacción")
	}
	return mapTickets(tickets), nil
}

func (s *ticketService) PDF(ctx context.Context, ref string) ([]byte, string, error) {
	t, err := s.findTicket(ctx, ref)
	if err != nil {
		return nil, "", err
	}
	out, err := infra.GenerateTicketPDF(t)
	if err != nil {
		return nil, "", err
	}
	return out, t.TicketID, nil
}

// ── Stats ─────────────────────────────────────────────────────────────────────

// Estadisticas merges direct prints with completed print requests.
func (s *ticketService) Estadisticas(ctx context.Context, f dto.TicketStatsFilter) (*dto.TicketStatsResponse, error) {
	tq := repository.TicketStatsQuery{PuntoTrabajo: f.PuntoTrabajo, Desde: f.Rango.Desde, Hasta: f.Rango.Hasta}
	cq := repository.CompletadasQuery{PuntoTrabajo: f.PuntoTrabajo, Desde: f.Rango.Desde, Hasta: f.Rango.Hasta}

	total, err := s.tickets.CountAll(ctx)
	if err != nil {
		return nil, err
	}
	directos, err := s.tickets.CountImpresos(ctx, tq)
	if err != nil {
		return nil, err
	}
	completadas, err := s.peticiones.CountCompletadas(ctx, cq)
	if err != nil {
		return nil, err
	}
	diaTickets, err := s.tickets.ImpresosPorDia(ctx, tq)
	if err != nil {
		return nil, err
	}
	diaPeticiones, err := s.peticiones.CompletadasPorDia(ctx, cq)
	if err != nil {
		return nil, err
	}
	puntoTickets, err := s.tickets.ImpresosPorPunto(ctx)
	if err != nil {
		return nil, err
	}
	puntoPeticiones, err := s.peticiones.CompletadasPorPunto(ctx)
	if err != nil {
		return nil, err
	}

	impresos := directos + completadas
	porcentaje := 0.0
	if total > 0 {
		porcentaje = decimal.NewFromInt(impresos).
			Mul(decimal.NewFromInt(100)).
			Div(decimal.NewFromInt(total)).
			Round(2).
			InexactFloat64()
	}

	return &dto.TicketStatsResponse{
		TotalTickets:         total,
		TicketsImpresos:      impresos,
		TicketsRestantes:     total - impresos,
		PorcentajeEntregados: porcentaje,
		EvolucionDiaria:      mergePorDia(diaTickets, diaPeticiones),
		TicketsPorPunto:      mergePorPunto(puntoTickets, puntoPeticiones),
		Detalles: dto.TicketStatsDetalle{
			TicketsTradicionales: directos,
			ImpresionRequests:    completadas,
		},
	}, nil
}

func mergePorDia(series ...[]repository.ConteoClave) []dto.ConteoDia {
	acc := map[string]int64{}
	for _, serie := range series {
		for _, c := range serie {
			acc[c.Clave] += c.Count
		}
	}
	out := make([]dto.ConteoDia, 0, len(acc))
	for dia, n := range acc {
		out = append(out, dto.ConteoDia{Fecha: dia, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Fecha < out[j].Fecha })
	return out
}

func mergePorPunto(series ...[]repository.ConteoClave) []dto.ConteoPunto {
	acc := map[string]int64{}
	for _, serie := range series {
		for _, c := range serie {
			punto := c.Clave
			if punto == "" {
				punto = sinAsignar
			}
			acc[punto] += c.Count
		}
	}
	out := make([]dto.ConteoPunto, 0, len(acc))
	for punto, n := range acc {
		out = append(out, dto.ConteoPunto{Punto: punto, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Punto < out[j].Punto
	})
	return out
}
