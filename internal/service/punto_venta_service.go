package service

import (
	"context"
	"strings"

	"taquilla/internal/authz"
	"taquilla/internal/dto"
	"taquilla/internal/model"
	"taquilla/internal/repository"

	"github.com/google/uuid"
)

type PuntoVentaService interface {
	Listar(ctx context.Context) ([]dto.PuntoVentaResponse, error)
	Crear(ctx context.Context, actor authz.Actor, req dto.CrearPuntoVentaRequest) (*dto.PuntoVentaResponse, error)
	Actualizar(ctx context.Context, actor authz.Actor, id uuid.UUID, req dto.ActualizarPuntoVentaRequest) (*dto.PuntoVentaResponse, error)
	Eliminar(ctx context.Context, actor authz.Actor, id uuid.UUID) error
	// Tickets browses the tickets of one sales point's localities.
	Tickets(ctx context.Context, id uuid.UUID, f dto.TicketFilter) (*dto.TicketPage, error)
	Estadisticas(ctx context.Context, id uuid.UUID) (*dto.EstadisticasPuntoVenta, error)
	// StaffTickets browses with the caller's own work-location.
	StaffTickets(ctx context.Context, actor authz.Actor, f dto.TicketFilter) (*dto.TicketPage, error)
	Localidades() []string
}

type puntoVentaService struct {
	repo    repository.PuntoVentaRepository
	tickets repository.TicketRepository
	search  TicketService
	audit   AuditService
}

func NewPuntoVentaService(
	repo repository.PuntoVentaRepository,
	tickets repository.TicketRepository,
	search TicketService,
	audit AuditService,
) PuntoVentaService {
	return &puntoVentaService{repo: repo, tickets: tickets, search: search, audit: audit}
}

func (s *puntoVentaService) Listar(ctx context.Context) ([]dto.PuntoVentaResponse, error) {
	list, err := s.repo.ListActivos(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.PuntoVentaResponse, len(list))
	for i := range list {
		out[i] = mapPuntoVenta(&list[i])
	}
	return out, nil
}

func validarLocalidades(locs []string) ([]string, error) {
	out := make([]string, 0, len(locs))
	for _, l := range locs {
		l = strings.TrimSpace(l)
		if !model.ValidLocalidad(l) {
			return nil, validacion("Localidad no válida: " + l)
		}
		out = append(out, l)
	}
	return out, nil
}

// nombreOcupado reports whether another sales point (active or not) already uses nombre.
func (s *puntoVentaService) nombreOcupado(ctx context.Context, nombre string, excluir uuid.UUID) (bool, error) {
	pv, err := s.repo.FindByNombre(ctx, nombre)
	if err != nil {
		if repository.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return pv.ID != excluir, nil
}

func (s *puntoVentaService) find(ctx context.Context, id uuid.UUID) (*model.PuntoVenta, error) {
	pv, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, noEncontrado("Punto de venta no encontrado")
		}
		return nil, err
	}
	return pv, nil
}

func (s *puntoVentaService) Crear(ctx context.Context, actor authz.Actor, req dto.CrearPuntoVentaRequest) (*dto.PuntoVentaResponse, error) {
	nombre := strings.TrimSpace(req.Nombre)
	if nombre == "" || len(req.Localidades) == 0 {
		return nil, validacion("Nombre y al menos una localidad son requeridos")
	}
	locs, err := validarLocalidades(req.Localidades)
	if err != nil {
		return nil, err
	}
	ocupado, err := s.nombreOcupado(ctx, nombre, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if ocupado {
		return nil, conflicto("Ya existe un punto de venta con ese nombre", nil)
	}

	pv := &model.PuntoVenta{
		Nombre:      nombre,
		Descripcion: trimmed(req.Descripcion),
		Localidades: locs,
		Activo:      true,
		CreadoPorID: actor.ID,
	}
	if err := s.repo.Create(ctx, pv); err != nil {
		return nil, err
	}
	pv.CreadoPor = actorUsuario(actor)

	s.audit.Registrar(ctx, Evento{
		UsuarioID: actor.ID,
		Accion:    AccionCrear,
		Recurso:   RecursoPuntoVenta,
		RecursoID: pv.ID.String(),
		Detalle:   "Punto de venta creado: " + pv.Nombre,
		Metadata:  map[string]any{"localidades": pv.Localidades},
	})

	resp := mapPuntoVenta(pv)
	return &resp, nil
}

func (s *puntoVentaService) Actualizar(ctx context.Context, actor authz.Actor, id uuid.UUID, req dto.ActualizarPuntoVentaRequest) (*dto.PuntoVentaResponse, error) {
	pv, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Nombre != nil {
		nombre := strings.TrimSpace(*req.Nombre)
		if nombre == "" {
			return nil, validacion("Nombre y al menos una localidad son requeridos")
		}
		if nombre != pv.Nombre {
			ocupado, err := s.nombreOcupado(ctx, nombre, pv.ID)
			if err != nil {
				return nil, err
			}
			if ocupado {
				return nil, conflicto("Ya existe un punto de venta con ese nombre", nil)
			}
			pv.Nombre = nombre
		}
	}
	if req.Localidades != nil {
		if len(req.Localidades) == 0 {
			return nil, validacion("Nombre y al menos una localidad son requeridos")
		}
		locs, err := validarLocalidades(req.Localidades)
		if err != nil {
			return nil, err
		}
		pv.Localidades = locs
	}
	if req.Descripcion != nil {
		pv.Descripcion = trimmed(req.Descripcion)
	}
	if req.Activo != nil {
		pv.Activo = *req.Activo
	}

	if err := s.repo.Update(ctx, pv); err != nil {
		return nil, err
	}

	s.audit.Registrar(ctx, Evento{
		UsuarioID: actor.ID,
		Accion:    AccionActualizar,
		Recurso:   RecursoPuntoVenta,
		RecursoID: pv.ID.String(),
		Detalle:   "Punto de venta actualizado: " + pv.Nombre,
	})

	resp := mapPuntoVenta(pv)
	return &resp, nil
}

func (s *puntoVentaService) Eliminar(ctx context.Context, actor authz.Actor, id uuid.UUID) error {
	pv, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		if repository.IsNotFound(err) {
			return noEncontrado("Punto de venta no encontrado")
		}
		return err
	}

	s.audit.Registrar(ctx, Evento{
		UsuarioID: actor.ID,
		Accion:    AccionEliminar,
		Recurso:   RecursoPuntoVenta,
		RecursoID: id.String(),
		Detalle:   "Punto de venta desactivado: " + pv.Nombre,
	})
	return nil
}

func (s *puntoVentaService) Tickets(ctx context.Context, id uuid.UUID, f dto.TicketFilter) (*dto.TicketPage, error) {
	pv, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	page, err := s.search.Buscar(ctx, authz.ForPuntoVenta(pv), f)
	if err != nil {
		return nil, err
	}
	page.PuntoTrabajo = ""
	page.PuntoVenta = pv.Nombre
	return page, nil
}

func (s *puntoVentaService) Estadisticas(ctx context.Context, id uuid.UUID) (*dto.EstadisticasPuntoVenta, error) {
	pv, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	total, err := s.tickets.CountByLocalidades(ctx, pv.Localidades)
	if err != nil {
		return nil, err
	}
	porLocalidad := make([]dto.ConteoLocalidad, 0, len(pv.Localidades))
	for _, l := range pv.Localidades {
		n, err := s.tickets.CountByLocalidades(ctx, []string{l})
		if err != nil {
			return nil, err
		}
		porLocalidad = append(porLocalidad, dto.ConteoLocalidad{Localidad: l, Cantidad: n})
	}
	return &dto.EstadisticasPuntoVenta{
		PuntoVenta:               pv.Nombre,
		TotalTickets:             total,
		Localidades:              append([]string{}, pv.Localidades...),
		EstadisticasPorLocalidad: porLocalidad,
	}, nil
}

func (s *puntoVentaService) StaffTickets(ctx context.Context, actor authz.Actor, f dto.TicketFilter) (*dto.TicketPage, error) {
	f.PuntoTrabajo = ""
	return s.search.Listar(ctx, actor, f)
}

func (s *puntoVentaService) Localidades() []string {
	return append([]string(nil), model.KnownLocalidades...)
}
