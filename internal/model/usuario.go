package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RolJefe     = "jefe"
	RolStaff    = "staff"
	RolImpresor = "impresor"
)

// Usuario stores system users with role-based access.
// Rol: "jefe" | "staff" | "impresor"
type Usuario struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`
	// Usuario is the login identifier, stored lowercase and trimmed.
	Usuario      string `gorm:"uniqueIndex;not null"`
	Nombre       string `gorm:"not null"`
	PasswordHash string `gorm:"not null" json:"-"`
	Rol          string `gorm:"type:varchar(20);not null"`
	// PuntoTrabajo is nil for jefe and required for staff / impresor.
	PuntoTrabajo *string
	PrimerAcceso bool       `gorm:"not null"`
	Activo       bool       `gorm:"not null"`
	CreadoPorID  *uuid.UUID `gorm:"type:uuid"`
	CreadoPor    *Usuario   `gorm:"foreignKey:CreadoPorID"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u *Usuario) BeforeCreate(_ *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// ValidRol reports whether r is one of the three known roles.
func ValidRol(r string) bool {
	return r == RolJefe || r == RolStaff || r == RolImpresor
}

// Punto returns the work-location or "" when unassigned.
func (u *Usuario) Punto() string {
	if u.PuntoTrabajo == nil {
		return ""
	}
	return *u.PuntoTrabajo
}
