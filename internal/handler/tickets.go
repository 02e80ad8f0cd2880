package handler

import (
	"fmt"
	"net/http"

	"taquilla/internal/apierror"
	"taquilla/internal/dto"
	"taquilla/internal/service"

	"github.com/gin-gonic/gin"
)

type TicketsHandler struct{ svc service.TicketService }

func NewTicketsHandler(svc service.TicketService) *TicketsHandler { return &TicketsHandler{svc: svc} }

func bindTicketFilter(c *gin.Context) (dto.TicketFilter, bool) {
	var f dto.TicketFilter
	if err := c.ShouldBindQuery(&f); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Parámetros inválidos"))
		return f, false
	}
	f.Page, f.Limit = pageParams(c)
	return f, true
}

// Listar godoc
// @Summary Busca tickets visibles para el usuario
// @Tags tickets
// @Produce json
// @Security BearerAuth
// @Param search query string false "Nombre, email, cédula, ticket o transacción"
// @Param seatSearch query string false "Asiento"
// @Param sortBy query string false "Columna de orden"
// @Param sortOrder query string false "asc | desc"
// @Param puntoTrabajo query string false "Sólo jefe: filtra como ese punto"
// @Param page query int false "Página"
// @Param limit query int false "Tamaño de página (máx. 100)"
// @Success 200 {object} dto.APIResponse{data=dto.TicketPage}
// @Router /api/tickets [get]
func (h *TicketsHandler) Listar(c *gin.Context) {
	a, found := actor(c)
	if !found {
		return
	}
	f, valid := bindTicketFilter(c)
	if !valid {
		return
	}
	page, err := h.svc.Listar(c.Request.Context(), a, f)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, "", page)
}

// Imprimir godoc
// @Summary Marca un ticket como impreso y registra quién lo retira
// @Tags tickets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID interno o Ticket ID"
// @Param body body dto.ImprimirTicketRequest true "Datos de retiro"
// @Success 200 {object} dto.APIResponse{data=dto.TicketResponse}
// @Failure 400 {object} apierror.APIError
// @Router /api/tickets/{id}/print [post]
func (h *TicketsHandler) Imprimir(c *gin.Context) {
	a, found := actor(c)
	if !found {
		return
	}
	var req dto.ImprimirTicketRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Imprimir(c.Request.Context(), a, c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, "Ticket impreso exitosamente", resp)
}

// Reimprimir godoc
// @Summary Reimprime un ticket ya impreso
// @Tags tickets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID interno o Ticket ID"
// @Param body body dto.ReimprimirTicketRequest true "Motivo y datos de retiro"
// @Success 200 {object} dto.APIResponse{data=dto.TicketResponse}
// @Failure 400 {object} apierror.APIError
// @Router /api/tickets/{id}/reprint [post]
func (h *TicketsHandler) Reimprimir(c *gin.Context) {
	a, found := actor(c)
	if !found {
		return
	}
	var req dto.ReimprimirTicketRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Reimprimir(c.Request.Context(), a, c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, "Ticket reimpreso exitosamente", resp)
}

func (h *TicketsHandler) PorTransaccion(c *gin.Context) {
	list, err := h.svc.PorTransaccion(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, "", list)
}

// Estadisticas godoc
// @Summary Avance de entrega de tickets
// @Tags tickets
// @Produce json
// @Security BearerAuth
// @Param puntoTrabajo query string false "Punto de trabajo"
// @Param fechaInicio query string false "YYYY-MM-DD"
// @Param fechaFin query string false "YYYY-MM-DD"
// @Success 200 {object} dto.APIResponse{data=dto.TicketStatsResponse}
// @Router /api/tickets/stats [get]
func (h *TicketsHandler) Estadisticas(c *gin.Context) {
	rango, valid := dateRange(c)
	if !valid {
		return
	}
	f := dto.TicketStatsFilter{PuntoTrabajo: c.Query("puntoTrabajo"), Rango: rango}
	stats, err := h.svc.Estadisticas(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, "", stats)
}

// PDF godoc
// @Summary Comprobante de retiro en PDF
// @Tags tickets
// @Produce application/pdf
// @Security BearerAuth
// @Param id path string true "ID interno o Ticket ID"
// @Success 200 {file} binary
// @Failure 404 {object} apierror.APIError
// @Router /api/tickets/{id}/pdf [get]
func (h *TicketsHandler) PDF(c *gin.Context) {
	data, ticketID, err := h.svc.PDF(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="ticket-%s.pdf"`, ticketID))
	c.Data(http.StatusOK, "application/pdf", data)
}
