package dto

import (
	"time"

	"github.com/google/uuid"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type ImprimirTicketRequest struct {
	QuienRetira string  `json:"quienRetira" validate:"required,oneof=Titular 'Titular Compra' Otro"`
	Parentesco  *string `json:"parentesco"`
	QuienOtro   *string `json:"quienOtro"`
	Celular     string  `json:"celular"     validate:"required"`
}

// ReimprimirTicketRequest: pickup fields are optional, but when QuienRetira
// is "Otro" the companion fields are still mandatory.
type ReimprimirTicketRequest struct {
	Motivo      string  `json:"motivo"      validate:"required"`
	QuienRetira *string `json:"quienRetira" validate:"omitempty,oneof=Titular 'Titular Compra' Otro"`
	Parentesco  *string `json:"parentesco"`
	QuienOtro   *string `json:"quienOtro"`
	Celular     *string `json:"celular"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

// TicketFilter drives ticket search. Page and Limit are parsed leniently by the
// handler and clamped by the service.
type TicketFilter struct {
	Search       string `form:"search"`
	SeatSearch   string `form:"seatSearch"`
	SortBy       string `form:"sortBy"`
	SortOrder    string `form:"sortOrder"`
	Impreso      string `form:"impreso"`      // "true" | "false" | ""
	PuntoTrabajo string `form:"puntoTrabajo"` // jefe override
	Page         int    `form:"-"`
	Limit        int    `form:"-"`
}

type TicketStatsFilter struct {
	PuntoTrabajo string    `form:"puntoTrabajo"`
	Rango        DateRange `form:"-"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ReimpresionResponse struct {
	Fecha        time.Time   `json:"fecha"`
	Motivo       string      `json:"motivo"`
	Usuario      *UsuarioRef `json:"usuario,omitempty"`
	PuntoTrabajo string      `json:"puntoTrabajo"`
}

// TicketResponse keeps the column names of the ticketing platform export.
type TicketResponse struct {
	ID                 uuid.UUID             `json:"id"`
	FirstName          string                `json:"First Name"`
	LastName           string                `json:"Last Name"`
	Email              string                `json:"Email"`
	Localidad          string                `json:"Ticket"`
	Asiento            string                `json:"Seat"`
	TransactionID      string                `json:"Transaction ID"`
	TicketID           string                `json:"Ticket ID"`
	Cedula             string                `json:"Numero de Cedula:"`
	Impreso            bool                  `json:"impreso"`
	FechaImpresion     *time.Time            `json:"fechaImpresion,omitempty"`
	UsuarioResponsable *UsuarioRef           `json:"usuarioResponsable,omitempty"`
	PuntoTrabajo       *string               `json:"puntoTrabajo,omitempty"`
	QuienRetira        *string               `json:"quienRetira,omitempty"`
	Parentesco         *string               `json:"parentesco,omitempty"`
	QuienOtro          *string               `json:"quienOtro,omitempty"`
	Celular            *string               `json:"celular,omitempty"`
	Reimpresiones      []ReimpresionResponse `json:"reimpresiones"`
	CreatedAt          time.Time             `json:"createdAt"`
	UpdatedAt          time.Time             `json:"updatedAt"`
}

// TicketPage is the search result. The scope fields are filled depending on
// which endpoint produced it.
type TicketPage struct {
	Tickets              []TicketResponse `json:"tickets"`
	Pagination           Pagination       `json:"pagination"`
	PuntoTrabajo         string           `json:"puntoTrabajo,omitempty"`
	PuntoVenta           string           `json:"puntoVenta,omitempty"`
	LocalidadesAsignadas []string         `json:"localidadesAsignadas,omitempty"`
}

type ConteoDia struct {
	Fecha string `json:"_id"`
	Count int64  `json:"count"`
}

type ConteoPunto struct {
	Punto string `json:"_id"`
	Count int64  `json:"count"`
}

type TicketStatsDetalle struct {
	TicketsTradicionales int64 `json:"ticketsTradicionales"`
	ImpresionRequests    int64 `json:"impresionRequests"`
}

type TicketStatsResponse struct {
	TotalTickets         int64              `json:"totalTickets"`
	TicketsImpresos      int64              `json:"ticketsImpresos"`
	TicketsRestantes     int64              `json:"ticketsRestantes"`
	PorcentajeEntregados float64            `json:"porcentajeEntregados"`
	EvolucionDiaria      []ConteoDia        `json:"evolucionDiaria"`
	TicketsPorPunto      []ConteoPunto      `json:"ticketsPorPunto"`
	Detalles             TicketStatsDetalle `json:"detalles"`
}
