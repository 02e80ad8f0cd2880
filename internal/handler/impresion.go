package handler

import (
	"net/http"

	"taquilla/internal/apierror"
	"taquilla/internal/dto"
	"taquilla/internal/service"

	"github.com/gin-gonic/gin"
)

type ImpresionHandler struct{ svc service.ImpresionService }

func NewImpresionHandler(svc service.ImpresionService) *ImpresionHandler {
	return &ImpresionHandler{svc: svc}
}

func bindPeticionFilter(c *gin.Context) (dto.PeticionFilter, bool) {
	var f dto.PeticionFilter
	if err := c.ShouldBindQuery(&f); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Parámetros inválidos"))
		return f, false
	}
	f.Page, f.Limit = pageParams(c)
	return f, true
}

// Crear godoc
// @Summary Solicita la impresión de todos los tickets de una transacción
// @Tags impresion
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CrearPeticionRequest true "Petición"
// @Success 201 {object} dto.APIResponse{data=dto.PeticionResponse}
// @Failure 400 {object} apierror.APIError "Datos inválidos o petición existente (data = petición previa)"
// @Router /api/impresion/request [post]
func (h *ImpresionHandler) Crear(c *gin.Context) {
	a, found := actor(c)
	if !found {
		return
	}
	var req dto.CrearPeticionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Crear(c.Request.Context(), a, req)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusCreated, "Petición de impresión enviada exitosamente para todos los tickets de la transacción", resp)
}

// Cola godoc
// @Summary Cola de impresión del punto del impresor
// @Tags impresion
// @Produce json
// @Security BearerAuth
// @Param estado query string false "pendiente (por defecto) | en_proceso | completada | cancelada | todos"
// @Param page query int false "Página"
// @Param limit query int false "Tamaño de página (máx. 100)"
// @Success 200 {object} dto.APIResponse{data=dto.PeticionPage}
// @Router /api/impresion/queue [get]
func (h *ImpresionHandler) Cola(c *gin.Context) {
	a, found := actor(c)
	if !found {
		return
	}
	f, valid := bindPeticionFilter(c)
	if !valid {
		return
	}
	page, err := h.svc.Cola(c.Request.Context(), a, f)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, "", page)
}

func (h *ImpresionHandler) MisPeticiones(c *gin.Context) {
	a, found := actor(c)
	if !found {
		return
	}
	f, valid := bindPeticionFilter(c)
	if !valid {
		return
	}
	page, err := h.svc.MisPeticiones(c.Request.Context(), a, f)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, "", page)
}

// ActualizarEstado godoc
// @Summary Cambia el estado de una petición
// @Tags impresion
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de la petición"
// @Param body body dto.ActualizarEstadoRequest true "Nuevo estado"
// @Success 200 {object} dto.APIResponse{data=dto.PeticionResponse}
// @Failure 403 {object} apierror.APIError
// @Failure 404 {object} apierror.APIError
// @Router /api/impresion/{id}/status [put]
func (h *ImpresionHandler) ActualizarEstado(c *gin.Context) {
	a, found := actor(c)
	if !found {
		return
	}
	id, valid := paramUUID(c, "id")
	if !valid {
		return
	}
	var req dto.ActualizarEstadoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.ActualizarEstado(c.Request.Context(), a, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, "Estado actualizado exitosamente", resp)
}

func (h *ImpresionHandler) Estadisticas(c *gin.Context) {
	a, found := actor(c)
	if !found {
		return
	}
	stats, err := h.svc.Estadisticas(c.Request.Context(), a, c.Query("puntoTrabajo"))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, "", stats)
}

// PorTransaccion answers {success:true, data:null} when nothing matches.
func (h *ImpresionHandler) PorTransaccion(c *gin.Context) {
	p, err := h.svc.PorTransaccion(c.Request.Context(), c.Param("transactionId"), c.Param("puntoTrabajo"))
	if err != nil {
		respondError(c, err)
		return
	}
	if p == nil {
		c.JSON(http.StatusOK, gin.H{"success": true, "data": nil})
		return
	}
	ok(c, http.StatusOK, "", p)
}
