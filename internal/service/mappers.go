package service

import (
	"taquilla/internal/dto"
	"taquilla/internal/model"
)

func usuarioRef(u *model.Usuario) *dto.UsuarioRef {
	if u == nil {
		return nil
	}
	return &dto.UsuarioRef{ID: u.ID, Nombre: u.Nombre, Usuario: u.Usuario, Rol: u.Rol}
}

func mapUsuario(u *model.Usuario) dto.UsuarioResponse {
	return dto.UsuarioResponse{
		ID:           u.ID,
		Nombre:       u.Nombre,
		Usuario:      u.Usuario,
		Rol:          u.Rol,
		PuntoTrabajo: u.PuntoTrabajo,
		PrimerAcceso: u.PrimerAcceso,
		Activo:       u.Activo,
		CreadoPor:    usuarioRef(u.CreadoPor),
		CreatedAt:    u.CreatedAt,
	}
}

func mapPuntoVenta(p *model.PuntoVenta) dto.PuntoVentaResponse {
	locs := p.Localidades
	if locs == nil {
		locs = []string{}
	}
	return dto.PuntoVentaResponse{
		ID:          p.ID,
		Nombre:      p.Nombre,
		Descripcion: p.Descripcion,
		Localidades: locs,
		Activo:      p.Activo,
		CreadoPor:   usuarioRef(p.CreadoPor),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func mapTicket(t *model.Ticket) dto.TicketResponse {
	r := dto.TicketResponse{
		ID:                 t.ID,
		FirstName:          t.FirstName,
		LastName:           t.LastName,
		Email:              t.Email,
		Localidad:          t.Localidad,
		Asiento:            t.Asiento,
		TransactionID:      t.TransactionID,
		TicketID:           t.TicketID,
		Cedula:             t.Cedula,
		Impreso:            t.Impreso,
		FechaImpresion:     t.FechaImpresion,
		UsuarioResponsable: usuarioRef(t.UsuarioResponsable),
		PuntoTrabajo:       t.PuntoTrabajo,
		QuienRetira:        t.QuienRetira,
		Parentesco:         t.Parentesco,
		QuienOtro:          t.QuienOtro,
		Celular:            t.Celular,
		Reimpresiones:      make([]dto.ReimpresionResponse, len(t.Reimpresiones)),
		CreatedAt:          t.CreatedAt,
		UpdatedAt:          t.UpdatedAt,
	}
	for i, re := range t.Reimpresiones {
		r.Reimpresiones[i] = dto.ReimpresionResponse{
			Fecha:        re.Fecha,
			Motivo:       re.Motivo,
			Usuario:      usuarioRef(re.Usuario),
			PuntoTrabajo: re.PuntoTrabajo,
		}
	}
	return r
}

func mapTickets(ts []model.Ticket) []dto.TicketResponse {
	out := make([]dto.TicketResponse, len(ts))
	for i := range ts {
		out[i] = mapTicket(&ts[i])
	}
	return out
}

func mapPeticion(p *model.PeticionImpresion) dto.PeticionResponse {
	return dto.PeticionResponse{
		ID:                p.ID,
		TicketID:          p.TicketID,
		TransactionID:     p.TransactionID,
		NombreCliente:     p.NombreCliente,
		Asiento:           p.Asiento,
		QuienRetira:       p.QuienRetira,
		Parentesco:        p.Parentesco,
		QuienOtro:         p.QuienOtro,
		Celular:           p.Celular,
		SolicitadoPor:     usuarioRef(p.SolicitadoPor),
		NombreSolicitante: p.NombreSolicitante,
		PuntoTrabajo:      p.PuntoTrabajo,
		AsignadoA:         usuarioRef(p.AsignadoA),
		Estado:            p.Estado,
		ProcesadoPor:      usuarioRef(p.ProcesadoPor),
		FechaProcesado:    p.FechaProcesado,
		Notas:             p.Notas,
		Prioridad:         p.Prioridad,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}
