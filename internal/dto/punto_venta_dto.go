package dto

import (
	"time"

	"github.com/google/uuid"
)

// ── Request DTOs ──────────────────────────────────────────────────────────────

type CrearPuntoVentaRequest struct {
	Nombre      string   `json:"nombre"      validate:"required,max=100"`
	Descripcion *string  `json:"descripcion" validate:"omitempty,max=500"`
	Localidades []string `json:"localidades" validate:"required,min=1,dive,required"`
}

type ActualizarPuntoVentaRequest struct {
	Nombre      *string  `json:"nombre"      validate:"omitempty,max=100"`
	Descripcion *string  `json:"descripcion" validate:"omitempty,max=500"`
	Localidades []string `json:"localidades" validate:"omitempty,min=1,dive,required"`
	Activo      *bool    `json:"activo"`
}

// ── Response DTOs ─────────────────────────────────────────────────────────────

type PuntoVentaResponse struct {
	ID          uuid.UUID   `json:"id"`
	Nombre      string      `json:"nombre"`
	Descripcion *string     `json:"descripcion,omitempty"`
	Localidades []string    `json:"localidades"`
	Activo      bool        `json:"activo"`
	CreadoPor   *UsuarioRef `json:"creadoPor,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

type ConteoLocalidad struct {
	Localidad string `json:"localidad"`
	Cantidad  int64  `json:"cantidad"`
}

type EstadisticasPuntoVenta struct {
	PuntoVenta               string            `json:"puntoVenta"`
	TotalTickets             int64             `json:"totalTickets"`
	Localidades              []string          `json:"localidades"`
	EstadisticasPorLocalidad []ConteoLocalidad `json:"estadisticasPorLocalidad"`
}
