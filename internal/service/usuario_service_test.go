package service

import (
	"context"
	"errors"
	"testing"

	"taquilla/internal/dto"
	"taquilla/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestCrearUsuario(t *testing.T) {
	repo := newStubUsuarios()
	audit := &recordingAudit{}
	svc := NewUsuarioService(repo, audit, newTestCfg())
	actor := jefe()
	ctx := context.Background()

	t.Run("staff sin punto", func(t *testing.T) {
		_, err := svc.Crear(ctx, actor, dto.CrearUsuarioRequest{Nombre: "Ana", Usuario: "ana", Rol: model.RolStaff})
		assert.EqualError(t, err, "Punto de trabajo es requerido para staff e impresor")
	})

	t.Run("crea con password por defecto", func(t *testing.T) {
		resp, err := svc.Crear(ctx, actor, dto.CrearUsuarioRequest{
			Nombre: " Ana ", Usuario: " ANA ", Rol: model.RolStaff, PuntoTrabajo: strPtr("Norte"),
		})
		require.NoError(t, err)
		assert.Equal(t, "ana", resp.Usuario)
		assert.Equal(t, "Ana", resp.Nombre)
		assert.True(t, resp.PrimerAcceso)

		u := repo.byID[resp.ID]
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("FTT2025")))
		assert.Equal(t, actor.ID, *u.CreadoPorID)
		assert.Equal(t, AccionCrear, audit.last().Accion)
		assert.Equal(t, RecursoUsuario, audit.last().Recurso)
	})

	t.Run("duplicado", func(t *testing.T) {
		_, err := svc.Crear(ctx, actor, dto.CrearUsuarioRequest{Nombre: "Otra", Usuario: "ana", Rol: model.RolJefe})
		assert.True(t, errors.Is(err, ErrConflicto))
	})
}

func TestActualizarUsuario(t *testing.T) {
	repo := newStubUsuarios()
	svc := NewUsuarioService(repo, &recordingAudit{}, newTestCfg())
	ctx := context.Background()
	actor := jefe()
	repo.byID[actor.ID] = &model.Usuario{ID: actor.ID, Usuario: "jefe", Rol: model.RolJefe, Activo: true}
	staff := seedUsuario(t, repo, "staff1", "x", model.RolStaff)

	off := false
	_, err := svc.Actualizar(ctx, actor, actor.ID, dto.ActualizarUsuarioRequest{Activo: &off})
	assert.EqualError(t, err, "No puedes desactivar tu propia cuenta")

	// puntoTrabajo is ignored for jefe
	resp, err := svc.Actualizar(ctx, actor, actor.ID, dto.ActualizarUsuarioRequest{PuntoTrabajo: strPtr("Sur")})
	require.NoError(t, err)
	assert.Nil(t, resp.PuntoTrabajo)

	resp, err = svc.Actualizar(ctx, actor, staff.ID, dto.ActualizarUsuarioRequest{PuntoTrabajo: strPtr(" Sur "), Activo: &off})
	require.NoError(t, err)
	assert.Equal(t, "Sur", *resp.PuntoTrabajo)
	assert.False(t, resp.Activo)
}

func TestEliminarUsuario(t *testing.T) {
	repo := newStubUsuarios()
	svc := NewUsuarioService(repo, &recordingAudit{}, newTestCfg())
	ctx := context.Background()
	actor := jefe()
	staff := seedUsuario(t, repo, "staff1", "x", model.RolStaff)

	assert.EqualError(t, svc.Eliminar(ctx, actor, actor.ID), "No puedes eliminar tu propia cuenta")
	require.NoError(t, svc.Eliminar(ctx, actor, staff.ID))
	assert.False(t, staff.Activo)

	other := jefe()
	err := svc.Eliminar(ctx, actor, other.ID)
	assert.True(t, errors.Is(err, ErrNoEncontrado))
}

func TestCrearJefeInicial(t *testing.T) {
	repo := newStubUsuarios()
	svc := NewUsuarioService(repo, &recordingAudit{}, newTestCfg())
	ctx := context.Background()

	resp, err := svc.CrearJefeInicial(ctx, "Dueño", "admin", "")
	require.NoError(t, err)
	assert.Equal(t, model.RolJefe, resp.Rol)

	_, err = svc.CrearJefeInicial(ctx, "Otro", "admin2", "clave123")
	assert.True(t, errors.Is(err, ErrConflicto))
}
