package dto

import (
	"time"

	"github.com/google/uuid"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CrearPeticionRequest struct {
	TicketID      string  `json:"ticketId"      validate:"required"`
	TransactionID string  `json:"transactionId" validate:"required"`
	NombreCliente string  `json:"nombreCliente" validate:"required"`
	Asiento       string  `json:"asiento"       validate:"required"`
	QuienRetira   string  `json:"quienRetira"   validate:"required"`
	Parentesco    *string `json:"parentesco"`
	QuienOtro     *string `json:"quienOtro"`
	Celular       string  `json:"celular"       validate:"required"`
}

// ActualizarEstadoRequest: Estado is validated after alias normalization.
type ActualizarEstadoRequest struct {
	Estado string  `json:"estado" validate:"required"`
	Notas  *string `json:"notas"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

// PeticionFilter is shared by the queue and my-requests listings.
// Estado "todos" disables the state filter.
type PeticionFilter struct {
	Estado       string `form:"estado"`
	PuntoTrabajo string `form:"puntoTrabajo"`
	Page         int    `form:"-"`
	Limit        int    `form:"-"`
}

const EstadoTodos = "todos"

// ─── Response DTOs ───────────────────────────────────────────────────────────

type PeticionResponse struct {
	ID                uuid.UUID   `json:"id"`
	TicketID          string      `json:"ticketId"`
	TransactionID     string      `json:"transactionId"`
	NombreCliente     string      `json:"nombreCliente"`
	Asiento           string      `json:"asiento"`
	QuienRetira       string      `json:"quienRetira"`
	Parentesco        *string     `json:"parentesco,omitempty"`
	QuienOtro         *string     `json:"quienOtro,omitempty"`
	Celular           string      `json:"celular"`
	SolicitadoPor     *UsuarioRef `json:"solicitadoPor,omitempty"`
	NombreSolicitante string      `json:"nombreSolicitante"`
	PuntoTrabajo      string      `json:"puntoTrabajo"`
	AsignadoA         *UsuarioRef `json:"asignadoA,omitempty"`
	Estado            string      `json:"estado"`
	ProcesadoPor      *UsuarioRef `json:"procesadoPor,omitempty"`
	FechaProcesado    *time.Time  `json:"fechaProcesado,omitempty"`
	Notas             *string     `json:"notas,omitempty"`
	Prioridad         string      `json:"prioridad"`
	CreatedAt         time.Time   `json:"createdAt"`
	UpdatedAt         time.Time   `json:"updatedAt"`
}

type PeticionPage struct {
	Peticiones []PeticionResponse `json:"peticiones"`
	Pagination Pagination         `json:"pagination"`
}

type ConteoPrioridad struct {
	Normal  int64 `json:"normal"`
	Alta    int64 `json:"alta"`
	Urgente int64 `json:"urgente"`
}

type ConteoPuntoTrabajo struct {
	PuntoTrabajo string `json:"puntoTrabajo"`
	Total        int64  `json:"total"`
}

type ImpresionStatsResponse struct {
	Pendientes      int64                `json:"pendientes"`
	EnProceso       int64                `json:"enProceso"`
	Completadas     int64                `json:"completadas"`
	Canceladas      int64                `json:"canceladas"`
	TotalHoy        int64                `json:"totalHoy"`
	PorPrioridad    ConteoPrioridad      `json:"porPrioridad"`
	PuntoTrabajo    string               `json:"puntoTrabajo"`
	PorPuntoTrabajo []ConteoPuntoTrabajo `json:"porPuntoTrabajo,omitempty"`
	EsJefe          bool                 `json:"esJefe"`
}
