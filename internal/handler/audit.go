package handler

import (
	"fmt"
	"net/http"
	"time"

	"taquilla/internal/apierror"
	"taquilla/internal/dto"
	"taquilla/internal/service"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type AuditHandler struct{ svc service.AuditService }

func NewAuditHandler(svc service.AuditService) *AuditHandler { return &AuditHandler{svc: svc} }

func bindAuditFilter(c *gin.Context) (dto.AuditFilter, bool) {
	var f dto.AuditFilter
	if err := c.ShouldBindQuery(&f); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Parámetros inválidos"))
		return f, false
	}
	rango, valid := dateRange(c)
	if !valid {
		return f, false
	}
	f.Rango = rango
	f.Page, f.Limit = pageParams(c)
	return f, true
}

// Listar godoc
// @Summary Registros de auditoría
// @Tags audit
// @Produce json
// @Security BearerAuth
// @Param tipo query string false "Tipo de evento"
// @Param usuario query string false "ID de usuario"
// @Param ticketId query string false "Ticket ID"
// @Param fechaInicio query string false "YYYY-MM-DD"
// @Param fechaFin query string false "YYYY-MM-DD"
// @Param page query int false "Página"
// @Param limit query int false "Tamaño de página (máx. 100)"
// @Success 200 {object} dto.APIResponse{data=dto.AuditPage}
// @Router /api/audit [get]
func (h *AuditHandler) Listar(c *gin.Context) {
	f, valid := bindAuditFilter(c)
	if !valid {
		return
	}
	page, err := h.svc.Listar(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, "", page)
}

func (h *AuditHandler) Resumen(c *gin.Context) {
	rango, valid := dateRange(c)
	if !valid {
		return
	}
	resp, err := h.svc.Resumen(c.Request.Context(), rango)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, "", resp)
}

// Exportar godoc
// @Summary Exporta los registros filtrados a Excel
// @Tags audit
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Success 200 {file} binary
// @Router /api/audit/export [get]
func (h *AuditHandler) Exportar(c *gin.Context) {
	f, valid := bindAuditFilter(c)
	if !valid {
		return
	}
	data, err := h.svc.Exportar(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	name := fmt.Sprintf("auditoria-%s.xlsx", time.Now().Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, xlsxContentType, data)
}
