package dto

import (
	"time"

	"github.com/google/uuid"
)

type AuditFilter struct {
	Tipo     string    `form:"tipo"`
	Usuario  string    `form:"usuario"` // user id
	TicketID string    `form:"ticketId"`
	Rango    DateRange `form:"-"`
	Page     int       `form:"-"`
	Limit    int       `form:"-"`
}

type AuditLogResponse struct {
	ID            uuid.UUID      `json:"id"`
	Tipo          string         `json:"tipo"`
	Usuario       *UsuarioRef    `json:"usuario,omitempty"`
	TicketID      *string        `json:"ticketId,omitempty"`
	TransactionID *string        `json:"transactionId,omitempty"`
	PuntoTrabajo  *string        `json:"puntoTrabajo,omitempty"`
	Detalles      map[string]any `json:"detalles,omitempty"`
	IP            string         `json:"ip"`
	UserAgent     string         `json:"userAgent"`
	CreatedAt     time.Time      `json:"createdAt"`
}

type AuditPage struct {
	Logs       []AuditLogResponse `json:"logs"`
	Pagination Pagination         `json:"pagination"`
}

type ConteoTipo struct {
	Tipo  string `json:"_id"`
	Count int64  `json:"count"`
}

type ConteoUsuario struct {
	UsuarioID uuid.UUID `json:"_id"`
	Count     int64     `json:"count"`
	Nombre    string    `json:"nombre"`
	Rol       string    `json:"rol"`
}

type AuditSummaryResponse struct {
	LogsPorTipo    []ConteoTipo    `json:"logsPorTipo"`
	LogsPorUsuario []ConteoUsuario `json:"logsPorUsuario"`
	LogsPorDia     []ConteoDia     `json:"logsPorDia"`
}
