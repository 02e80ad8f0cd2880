package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Estado: "pendiente" | "en_proceso" | "completada" | "cancelada"
const (
	EstadoPendiente  = "pendiente"
	EstadoEnProceso  = "en_proceso"
	EstadoCompletada = "completada"
	EstadoCancelada  = "cancelada"
)

// Prioridad: "normal" | "alta" | "urgente"
const (
	PrioridadNormal  = "normal"
	PrioridadAlta    = "alta"
	PrioridadUrgente = "urgente"
)

// NormalizarEstado maps the legacy masculine labels onto the stored ones.
func NormalizarEstado(e string) string {
	switch e {
	case "completado":
		return EstadoCompletada
	case "cancelado":
		return EstadoCancelada
	}
	return e
}

func ValidEstado(e string) bool {
	switch e {
	case EstadoPendiente, EstadoEnProceso, EstadoCompletada, EstadoCancelada:
		return true
	}
	return false
}

// PeticionImpresion is a print request covering every ticket of one transaction,
// routed to the impresores of PuntoTrabajo. An empty PuntoTrabajo means the
// request was filed by a jefe without a location.
type PeticionImpresion struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	TicketID      string    `gorm:"index;not null"`
	TransactionID string    `gorm:"index;not null"`
	NombreCliente string    `gorm:"not null"`
	Asiento       string    `gorm:"not null"`
	QuienRetira   string    `gorm:"not null"`
	Parentesco    *string
	QuienOtro     *string
	Celular       string `gorm:"not null"`

	SolicitadoPorID   uuid.UUID  `gorm:"type:uuid;not null"`
	SolicitadoPor     *Usuario   `gorm:"foreignKey:SolicitadoPorID"`
	NombreSolicitante string     `gorm:"not null"`
	PuntoTrabajo      string     `gorm:"not null"`
	AsignadoAID       *uuid.UUID `gorm:"type:uuid"`
	AsignadoA         *Usuario   `gorm:"foreignKey:AsignadoAID"`

	Estado         string     `gorm:"type:varchar(20);not null"`
	ProcesadoPorID *uuid.UUID `gorm:"type:uuid"`
	ProcesadoPor   *Usuario   `gorm:"foreignKey:ProcesadoPorID"`
	FechaProcesado *time.Time
	Notas          *string
	Prioridad      string `gorm:"type:varchar(20);not null"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (PeticionImpresion) TableName() string { return "peticiones_impresion" }

func (p *PeticionImpresion) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
