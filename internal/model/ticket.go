package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// QuienRetira: "Titular" | "Titular Compra" | "Otro"
const (
	RetiraTitular       = "Titular"
	RetiraTitularCompra = "Titular Compra"
	RetiraOtro          = "Otro"
)

// ValidQuienRetira reports whether q is a known pickup-person category.
func ValidQuienRetira(q string) bool {
	return q == RetiraTitular || q == RetiraTitularCompra || q == RetiraOtro
}

// Ticket is imported in bulk from the ticketing platform export and only
// annotated here (print / reprint). Localidad holds the export's "Ticket" column.
type Ticket struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	TicketID      string    `gorm:"uniqueIndex;not null"`
	TransactionID string    `gorm:"index;not null"`
	FirstName     string    `gorm:"not null"`
	LastName      string    `gorm:"not null"`
	Email         string    `gorm:"not null"`
	Localidad     string    `gorm:"not null"`
	Asiento       string    `gorm:"not null"`
	Cedula        string

	Impreso              bool `gorm:"not null"`
	FechaImpresion       *time.Time
	UsuarioResponsableID *uuid.UUID `gorm:"type:uuid"`
	UsuarioResponsable   *Usuario   `gorm:"foreignKey:UsuarioResponsableID"`
	PuntoTrabajo         *string
	QuienRetira          *string
	Parentesco           *string
	QuienOtro            *string
	Celular              *string

	Reimpresiones []Reimpresion `gorm:"foreignKey:TicketRefID"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (t *Ticket) BeforeCreate(_ *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// Reimpresion is one entry of a ticket's append-only reprint history.
type Reimpresion struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	TicketRefID  uuid.UUID `gorm:"type:uuid;index;not null"`
	Fecha        time.Time `gorm:"not null"`
	Motivo       string    `gorm:"not null"`
	UsuarioID    uuid.UUID `gorm:"type:uuid;not null"`
	Usuario      *Usuario  `gorm:"foreignKey:UsuarioID"`
	PuntoTrabajo string
}

func (Reimpresion) TableName() string { return "ticket_reimpresiones" }

func (r *Reimpresion) BeforeCreate(_ *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
