package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Audit categories.
const (
	TipoLogin                = "login"
	TipoLogout               = "logout"
	TipoCambioPassword       = "cambio_password"
	TipoImpresion            = "impresion"
	TipoReimpresion          = "reimpresion"
	TipoCreacionUsuario      = "creacion_usuario"
	TipoActualizacionUsuario = "actualizacion_usuario"
	TipoEliminacionUsuario   = "eliminacion_usuario"
	TipoPeticionCreada       = "peticion_impresion_creada"
	TipoPeticionActualizada  = "peticion_impresion_actualizada"
	// Generic wrappers, used for sales-point changes.
	TipoCreacion      = "creacion"
	TipoActualizacion = "actualizacion"
	TipoEliminacion   = "eliminacion"
)

var TiposAuditoria = []string{
	TipoLogin, TipoLogout, TipoCambioPassword, TipoImpresion, TipoReimpresion,
	TipoCreacionUsuario, TipoActualizacionUsuario, TipoEliminacionUsuario,
	TipoPeticionCreada, TipoPeticionActualizada,
	TipoCreacion, TipoActualizacion, TipoEliminacion,
}

// AuditLog is append-only.
type AuditLog struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	Tipo          string    `gorm:"type:varchar(40);index;not null"`
	UsuarioID     uuid.UUID `gorm:"type:uuid;index;not null"`
	Usuario       *Usuario  `gorm:"foreignKey:UsuarioID"`
	TicketID      *string   `gorm:"index"`
	TransactionID *string   `gorm:"index"`
	PuntoTrabajo  *string
	Detalles      map[string]any `gorm:"serializer:json;type:text"`
	IP            string
	UserAgent     string
	CreatedAt     time.Time `gorm:"index"`
}

func (AuditLog) TableName() string { return "audit_logs" }

func (a *AuditLog) BeforeCreate(_ *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
