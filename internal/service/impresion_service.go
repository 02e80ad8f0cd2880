package service

import (
	"context"
	"strings"
	"time"

	"taquilla/internal/authz"
	"taquilla/internal/dto"
	"taquilla/internal/model"
	"taquilla/internal/repository"

	"github.com/google/uuid"
)

type ImpresionService interface {
	Crear(ctx context.Context, actor authz.Actor, req dto.CrearPeticionRequest) (*dto.PeticionResponse, error)
	// Cola is the impresor's queue: own location, priority first.
	Cola(ctx context.Context, actor authz.Actor, f dto.PeticionFilter) (*dto.PeticionPage, error)
	MisPeticiones(ctx context.Context, actor authz.Actor, f dto.PeticionFilter) (*dto.PeticionPage, error)
	ActualizarEstado(ctx context.Context, actor authz.Actor, id uuid.UUID, req dto.ActualizarEstadoRequest) (*dto.PeticionResponse, error)
	// PorTransaccion returns nil without error when nothing matches.
	PorTransaccion(ctx context.Context, transactionID, punto string) (*dto.PeticionResponse, error)
	Estadisticas(ctx context.Context, actor authz.Actor, punto string) (*dto.ImpresionStatsResponse, error)
}

type impresionService struct {
	repo     repository.ImpresionRepository
	usuarios repository.UsuarioRepository
	audit    AuditService
	now      func() time.Time
}

func NewImpresionService(repo repository.ImpresionRepository, usuarios repository.UsuarioRepository, audit AuditService) ImpresionService {
	return &impresionService{repo: repo, usuarios: usuarios, audit: audit, now: time.Now}
}

// notasRetiro summarizes who picks the tickets up.
func notasRetiro(req dto.CrearPeticionRequest) string {
	parts := []string{"Quien retira: " + req.QuienRetira}
	if req.QuienRetira == model.RetiraOtro {
		parts = append(parts, "Parentesco: "+strings.TrimSpace(*req.Parentesco), "Nombre: "+strings.TrimSpace(*req.QuienOtro))
	}
	parts = append(parts, "Celular: "+strings.TrimSpace(req.Celular))
	return strings.Join(parts, " | ")
}

func (s *impresionService) Crear(ctx context.Context, actor authz.Actor, req dto.CrearPeticionRequest) (*dto.PeticionResponse, error) {
	for _, v := range []string{req.TicketID, req.TransactionID, req.NombreCliente, req.Asiento, req.Celular} {
		if strings.TrimSpace(v) == "" {
			return nil, validacion("Todos los campos son requeridos")
		}
	}
	if !model.ValidQuienRetira(req.QuienRetira) {
		return nil, validacion("Quien retira no es válido")
	}
	if err := validarRetiro(req.QuienRetira, req.Parentesco, req.QuienOtro); err != nil {
		return nil, err
	}
	if !actor.EsJefe() && actor.PuntoTrabajo == "" {
		return nil, validacion(authz.ErrSinPuntoTrabajo.Error())
	}
	punto := actor.PuntoTrabajo
	txID := strings.TrimSpace(req.TransactionID)

	// Read-then-write: two concurrent creates for the same pair can both pass.
	existente, err := s.repo.FindDuplicada(ctx, txID, punto)
	if err == nil {
		return nil, conflicto("Ya existe una petición de impresión para esta transacción", mapPeticion(existente))
	}
	if !repository.IsNotFound(err) {
		return nil, err
	}

	notas := notasRetiro(req)
	p := &model.PeticionImpresion{
		TicketID:          strings.TrimSpace(req.TicketID),
		TransactionID:     txID,
		NombreCliente:     strings.TrimSpace(req.NombreCliente),
		Asiento:           strings.TrimSpace(req.Asiento),
		QuienRetira:       req.QuienRetira,
		Celular:           strings.TrimSpace(req.Celular),
		SolicitadoPorID:   actor.ID,
		SolicitadoPor:     actorUsuario(actor),
		NombreSolicitante: actor.Nombre,
		PuntoTrabajo:      punto,
		Estado:            model.EstadoPendiente,
		Prioridad:         model.PrioridadNormal,
		Notas:             &notas,
	}
	if req.QuienRetira == model.RetiraOtro {
		p.Parentesco = trimmed(req.Parentesco)
		p.QuienOtro = trimmed(req.QuienOtro)
	}

	if punto != "" {
		impresor, err := s.usuarios.FindImpresorActivo(ctx, punto)
		switch {
		case err == nil:
			p.AsignadoAID = &impresor.ID
			p.AsignadoA = impresor
		case !repository.IsNotFound(err):
			return nil, err
		}
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	s.audit.Registrar(ctx, Evento{
		UsuarioID:     actor.ID,
		Accion:        AccionCrear,
		Recurso:       RecursoPeticion,
		RecursoID:     p.ID.String(),
		Detalle:       "Petición de impresión creada",
		TicketID:      p.TicketID,
		TransactionID: p.TransactionID,
		PuntoTrabajo:  punto,
		Metadata:      map[string]any{"nombreCliente": p.NombreCliente, "asiento": p.Asiento},
	})

	resp := mapPeticion(p)
	return &resp, nil
}

// filtroEstado maps the estado query value; def applies when it is empty.
func filtroEstado(estado, def string) (string, error) {
	switch estado {
	case "":
		return def, nil
	case dto.EstadoTodos:
		return "", nil
	}
	e := model.NormalizarEstado(estado)
	if !model.ValidEstado(e) {
		return "", validacion("Estado no válido")
	}
	return e, nil
}

func (s *impresionService) listar(ctx context.Context, q repository.PeticionQuery) (*dto.PeticionPage, error) {
	list, total, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, err
	}
	out := make([]dto.PeticionResponse, len(list))
	for i := range list {
		out[i] = mapPeticion(&list[i])
	}
	return &dto.PeticionPage{Peticiones: out, Pagination: dto.NewPagination(q.Page, q.Limit, total)}, nil
}

func (s *impresionService) Cola(ctx context.Context, actor authz.Actor, f dto.PeticionFilter) (*dto.PeticionPage, error) {
	if actor.PuntoTrabajo == "" {
		return nil, validacion(authz.ErrSinPuntoTrabajo.Error())
	}
	estado, err := filtroEstado(f.Estado, model.EstadoPendiente)
	if err != nil {
		return nil, err
	}
	page, limit := dto.ClampPage(f.Page, f.Limit)
	punto := actor.PuntoTrabajo
	return s.listar(ctx, repository.PeticionQuery{
		PuntoTrabajo: &punto,
		Estado:       estado,
		PorPrioridad: true,
		Page:         page,
		Limit:        limit,
	})
}

func (s *impresionService) MisPeticiones(ctx context.Context, actor authz.Actor, f dto.PeticionFilter) (*dto.PeticionPage, error) {
	var punto *string
	if actor.EsJefe() {
		punto = optional(strings.TrimSpace(f.PuntoTrabajo))
	} else {
		if actor.PuntoTrabajo == "" {
			return nil, validacion(authz.ErrSinPuntoTrabajo.Error())
		}
		p := actor.PuntoTrabajo
		punto = &p
	}
	estado, err := filtroEstado(f.Estado, "")
	if err != nil {
		return nil, err
	}
	page, limit := dto.ClampPage(f.Page, f.Limit)
	return s.listar(ctx, repository.PeticionQuery{
		PuntoTrabajo: punto,
		Estado:       estado,
		Page:         page,
		Limit:        limit,
	})
}

func (s *impresionService) ActualizarEstado(ctx context.Context, actor authz.Actor, id uuid.UUID, req dto.ActualizarEstadoRequest) (*dto.PeticionResponse, error) {
	estado := model.NormalizarEstado(strings.TrimSpace(req.Estado))
	if !model.ValidEstado(estado) {
		return nil, validacion("Estado no válido")
	}
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, noEncontrado("Petición de impresión no encontrada")
		}
		return nil, err
	}
	if p.PuntoTrabajo != actor.PuntoTrabajo {
		return nil, prohibido("No tiene permisos para procesar esta petición")
	}

	anterior := p.Estado
	p.Estado = estado
	// Going back to pendiente or cancelling leaves the previous processor stamp.
	if estado == model.EstadoEnProceso || estado == model.EstadoCompletada {
		now := s.now()
		p.ProcesadoPorID = &actor.ID
		p.ProcesadoPor = actorUsuario(actor)
		p.FechaProcesado = &now
	}
	if nonEmpty(req.Notas) {
		p.Notas = req.Notas
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	s.audit.Registrar(ctx, Evento{
		UsuarioID:     actor.ID,
		Accion:        AccionActualizar,
		Recurso:       RecursoPeticion,
		RecursoID:     p.ID.String(),
		Detalle:       "Estado de petición actualizado a " + estado,
		TicketID:      p.TicketID,
		TransactionID: p.TransactionID,
		PuntoTrabajo:  p.PuntoTrabajo,
		Metadata:      map[string]any{"estadoAnterior": anterior, "estadoNuevo": estado},
	})

	resp := mapPeticion(p)
	return &resp, nil
}

func (s *impresionService) PorTransaccion(ctx context.Context, transactionID, punto string) (*dto.PeticionResponse, error) {
	p, err := s.repo.FindByTransaction(ctx, transactionID, optional(punto))
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	resp := mapPeticion(p)
	return &resp, nil
}

func inicioDelDia(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Estadisticas scopes impresores to their own location; a jefe sees every
// location unless punto names one.
func (s *impresionService) Estadisticas(ctx context.Context, actor authz.Actor, punto string) (*dto.ImpresionStatsResponse, error) {
	var scope *string
	if actor.EsJefe() {
		scope = optional(strings.TrimSpace(punto))
	} else {
		if actor.PuntoTrabajo == "" {
			return nil, validacion(authz.ErrSinPuntoTrabajo.Error())
		}
		p := actor.PuntoTrabajo
		scope = &p
	}

	st, err := s.repo.Stats(ctx, scope, inicioDelDia(s.now()))
	if err != nil {
		return nil, err
	}

	resp := &dto.ImpresionStatsResponse{
		Pendientes:  st.PorEstado[model.EstadoPendiente],
		EnProceso:   st.PorEstado[model.EstadoEnProceso],
		Completadas: st.PorEstado[model.EstadoCompletada],
		Canceladas:  st.PorEstado[model.EstadoCancelada],
		TotalHoy:    st.CreadasDesde,
		PorPrioridad: dto.ConteoPrioridad{
			Normal:  st.PorPrioridad[model.PrioridadNormal],
			Alta:    st.PorPrioridad[model.PrioridadAlta],
			Urgente: st.PorPrioridad[model.PrioridadUrgente],
		},
		EsJefe: actor.EsJefe(),
	}
	if scope != nil {
		resp.PuntoTrabajo = *scope
	}
	if actor.EsJefe() {
		resp.PorPuntoTrabajo = make([]dto.ConteoPuntoTrabajo, 0, len(st.PorPunto))
		for _, c := range st.PorPunto {
			resp.PorPuntoTrabajo = append(resp.PorPuntoTrabajo, dto.ConteoPuntoTrabajo{PuntoTrabajo: c.Clave, Total: c.Count})
		}
	}
	return resp, nil
}
