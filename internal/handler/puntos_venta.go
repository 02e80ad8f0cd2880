package handler

import (
	"net/http"

	"taquilla/internal/dto"
	"taquilla/internal/service"

	"github.com/gin-gonic/gin"
)

type PuntosVentaHandler struct{ svc service.PuntoVentaService }

func NewPuntosVentaHandler(svc service.PuntoVentaService) *PuntosVentaHandler {
	return &PuntosVentaHandler{svc: svc}
}

func (h *PuntosVentaHandler) Listar(c *gin.Context) {
	list, err := h.svc.Listar(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, "", list)
}

// Crear godoc
// @Summary Crea un punto de venta
// @Tags puntos-venta
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CrearPuntoVentaRequest true "Punto de venta"
// @Success 201 {object} dto.APIResponse{data=dto.PuntoVentaResponse}
// @Failure 400 {object} apierror.APIError
// @Router /api/puntos-venta [post]
func (h *PuntosVentaHandler) Crear(c *gin.Context) {
	a, found := actor(c)
	if !found {
		return
	}
	var req dto.CrearPuntoVentaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Crear(c.Request.Context(), a, req)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusCreated, "Punto de venta creado exitosamente", resp)
}

func (h *PuntosVentaHandler) Actualizar(c *gin.Context) {
	a, found := actor(c)
	if !found {
		return
	}
	id, valid := paramUUID(c, "id")
	if !valid {
		return
	}
	var req dto.ActualizarPuntoVentaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Actualizar(c.Request.Context(), a, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, "Punto de venta actualizado exitosamente", resp)
}

func (h *PuntosVentaHandler) Eliminar(c *gin.Context) {
	a, found := actor(c)
	if !found {
		return
	}
	id, valid := paramUUID(c, "id")
	if !valid {
		return
	}
	if err := h.svc.Eliminar(c.Request.Context(), a, id); err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, "Punto de venta eliminado exitosamente", nil)
}

// Tickets godoc
// @Summary Tickets de las localidades de un punto de venta
// @Tags puntos-venta
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID del punto de venta"
// @Success 200 {object} dto.APIResponse{data=dto.TicketPage}
// @Failure 404 {object} apierror.APIError
// @Router /api/puntos-venta/{id}/tickets [get]
func (h *PuntosVentaHandler) Tickets(c *gin.Context) {
	id, valid := paramUUID(c, "id")
	if !valid {
		return
	}
	f, valid := bindTicketFilter(c)
	if !valid {
		return
	}
	page, err := h.svc.Tickets(c.Request.Context(), id, f)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, "", page)
}

func (h *PuntosVentaHandler) Estadisticas(c *gin.Context) {
	id, valid := paramUUID(c, "id")
	if !valid {
		return
	}
	stats, err := h.svc.Estadisticas(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, "", stats)
}

// StaffTickets browses with the caller's own work-location.
func (h *PuntosVentaHandler) StaffTickets(c *gin.Context) {
	a, found := actor(c)
	if !found {
		return
	}
	f, valid := bindTicketFilter(c)
	if !valid {
		return
	}
	page, err := h.svc.StaffTickets(c.Request.Context(), a, f)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, "", page)
}

func (h *PuntosVentaHandler) Localidades(c *gin.Context) {
	ok(c, http.StatusOK, "", h.svc.Localidades())
}
