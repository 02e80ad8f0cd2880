package dto

import (
	"time"

	"github.com/google/uuid"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type LoginRequest struct {
	Usuario  string `json:"usuario"  validate:"required"`
	Password string `json:"password" validate:"required"`
}

type CambiarPasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
}

type CrearUsuarioRequest struct {
	Nombre       string  `json:"nombre"  validate:"required,min=2,max=100"`
	Usuario      string  `json:"usuario" validate:"required,min=3,max=50"`
	Rol          string  `json:"rol"     validate:"required,oneof=jefe staff impresor"`
	PuntoTrabajo *string `json:"puntoTrabajo"`
}

type ActualizarUsuarioRequest struct {
	Nombre       *string `json:"nombre" validate:"omitempty,min=2,max=100"`
	PuntoTrabajo *string `json:"puntoTrabajo"`
	Activo       *bool   `json:"activo"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

// UsuarioResponse never carries the password hash.
type UsuarioResponse struct {
	ID           uuid.UUID   `json:"id"`
	Nombre       string      `json:"nombre"`
	Usuario      string      `json:"usuario"`
	Rol          string      `json:"rol"`
	PuntoTrabajo *string     `json:"puntoTrabajo"`
	PrimerAcceso bool        `json:"primerAcceso"`
	Activo       bool        `json:"activo"`
	CreadoPor    *UsuarioRef `json:"creadoPor,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`
}

type LoginResponse struct {
	Success bool            `json:"success"`
	Token   string          `json:"token"`
	User    UsuarioResponse `json:"user"`
}
