package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Localidades conocidas. The list is closed but meant to grow with each event.
var KnownLocalidades = []string{
	"GENERAL",
	"PREFERENCIA",
	"TRIBUNA",
	"SOLTERA FAN ZONE",
	"SOLTERA FANZONE #3 LC",
	"PALCO",
	"Antología GOLDEN",
	"Hips Don't Lie PLATINUM",
	"Las Mujeres Facturan BOX",
	"FAN ZONE",
	"FANZONE",
	"GOLDEN",
	"PLATINUM",
	"BOX",
}

// LocalidadGeneral is the fallback locality for unknown work-locations.
const LocalidadGeneral = "GENERAL"

// ValidLocalidad reports whether l is a known locality tag.
func ValidLocalidad(l string) bool {
	for _, k := range KnownLocalidades {
		if k == l {
			return true
		}
	}
	return false
}

// PuntoVenta groups localities under a named sales point. Deactivated, never deleted.
type PuntoVenta struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Nombre      string    `gorm:"uniqueIndex;not null"`
	Descripcion *string
	Localidades []string  `gorm:"serializer:json;type:text;not null"`
	Activo      bool      `gorm:"not null"`
	CreadoPorID uuid.UUID `gorm:"type:uuid;not null"`
	CreadoPor   *Usuario  `gorm:"foreignKey:CreadoPorID"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (PuntoVenta) TableName() string { return "puntos_venta" }

func (p *PuntoVenta) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
