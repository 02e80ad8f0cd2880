package handler

import (
	"net/http"

	"taquilla/internal/dto"
	"taquilla/internal/service"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct{ svc service.AuthService }

func NewAuthHandler(svc service.AuthService) *AuthHandler { return &AuthHandler{svc: svc} }

// Login godoc
// @Summary Login de usuario
// @Tags auth
// @Accept json
// @Produce json
// @Param body body dto.LoginRequest true "Credenciales"
// @Success 200 {object} dto.LoginResponse
// @Failure 401 {object} apierror.APIError
// @Router /api/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	resp, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CambiarPassword godoc
// @Summary Cambia la contraseña del usuario autenticado
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CambiarPasswordRequest true "Contraseñas"
// @Success 200 {object} dto.APIResponse
// @Failure 400 {object} apierror.APIError
// @Router /api/auth/change-password [post]
func (h *AuthHandler) CambiarPassword(c *gin.Context) {
	a, found := actor(c)
	if !found {
		return
	}
	var req dto.CambiarPasswordRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.svc.CambiarPassword(c.Request.Context(), a, req); err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, "Contraseña actualizada exitosamente", nil)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	a, found := actor(c)
	if !found {
		return
	}
	h.svc.Logout(c.Request.Context(), a)
	ok(c, http.StatusOK, "Sesión cerrada exitosamente", nil)
}

func (h *AuthHandler) Perfil(c *gin.Context) {
	a, found := actor(c)
	if !found {
		return
	}
	resp, err := h.svc.Perfil(c.Request.Context(), a.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, "", resp)
}

// ── Usuarios Handler ─────────────────────────────────────────────────────────

type UsuariosHandler struct{ svc service.UsuarioService }

func NewUsuariosHandler(svc service.UsuarioService) *UsuariosHandler {
	return &UsuariosHandler{svc: svc}
}

// Crear godoc
// @Summary Crea un usuario con la contraseña por defecto
// @Tags usuarios
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CrearUsuarioRequest true "Usuario"
// @Success 201 {object} dto.APIResponse
// @Failure 400 {object} apierror.APIError
// @Router /api/users [post]
func (h *UsuariosHandler) Crear(c *gin.Context) {
	a, found := actor(c)
	if !found {
		return
	}
	var req dto.CrearUsuarioRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Crear(c.Request.Context(), a, req)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusCreated, "Usuario creado exitosamente", resp)
}

func (h *UsuariosHandler) Listar(c *gin.Context) {
	resp, err := h.svc.Listar(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, "", resp)
}

func (h *UsuariosHandler) Actualizar(c *gin.Context) {
	a, found := actor(c)
	if !found {
		return
	}
	id, valid := paramUUID(c, "id")
	if !valid {
		return
	}
	var req dto.ActualizarUsuarioRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Actualizar(c.Request.Context(), a, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, "Usuario actualizado exitosamente", resp)
}

func (h *UsuariosHandler) Eliminar(c *gin.Context) {
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
	ok(c, http.StatusOK, "Usuario eliminado exitosamente", nil)
}
