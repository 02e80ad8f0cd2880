package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"taquilla/internal/authz"
	"taquilla/internal/dto"
	"taquilla/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func seedUsuario(t *testing.T, repo *stubUsuarios, usuario, password, rol string) *model.Usuario {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u := &model.Usuario{
		ID: uuid.New(), Usuario: usuario, Nombre: "Test User",
		PasswordHash: string(hash), Rol: rol, Activo: true,
	}
	if rol != model.RolJefe {
		u.PuntoTrabajo = strPtr("Norte")
	}
	repo.byID[u.ID] = u
	return u
}

func signToken(t *testing.T, userID string, dur time.Duration) string {
	t.Helper()
	claims := jwt.MapClaims{
		"user_id": userID, "usuario": "testuser", "rol": model.RolStaff,
		"exp": time.Now().Add(dur).Unix(), "iat": time.Now().Unix(),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := tok.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func TestLogin_Success(t *testing.T) {
	repo := newStubUsuarios()
	audit := &recordingAudit{}
	u := seedUsuario(t, repo, "cajero", "secreto1", model.RolStaff)
	svc := NewAuthService(repo, audit, newTestCfg())

	resp, err := svc.Login(context.Background(), dto.LoginRequest{Usuario: "  CAJERO ", Password: "secreto1"})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, u.ID, resp.User.ID)

	ev := audit.last()
	assert.Equal(t, AccionLogin, ev.Accion)
	assert.Equal(t, "Norte", ev.PuntoTrabajo)

	// the issued token authenticates back to the same user
	got, err := svc.Autenticar(context.Background(), resp.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
}

func TestLogin_Rejections(t *testing.T) {
	repo := newStubUsuarios()
	seedUsuario(t, repo, "cajero", "secreto1", model.RolStaff)
	inactivo := seedUsuario(t, repo, "viejo", "secreto1", model.RolStaff)
	inactivo.Activo = false
	svc := NewAuthService(repo, &recordingAudit{}, newTestCfg())

	cases := []dto.LoginRequest{
		{Usuario: "cajero", Password: "incorrecta"},
		{Usuario: "nadie", Password: "secreto1"},
		{Usuario: "viejo", Password: "secreto1"},
	}
	for _, req := range cases {
		_, err := svc.Login(context.Background(), req)
		assert.True(t, errors.Is(err, ErrNoAutorizado), req.Usuario)
		assert.Equal(t, msgCredenciales, err.Error())
	}
}

func TestAutenticar(t *testing.T) {
	repo := newStubUsuarios()
	u := seedUsuario(t, repo, "cajero", "secreto1", model.RolStaff)
	svc := NewAuthService(repo, &recordingAudit{}, newTestCfg())
	ctx := context.Background()

	_, err := svc.Autenticar(ctx, signToken(t, u.ID.String(), -time.Hour))
	assert.EqualError(t, err, "Token no válido")

	_, err = svc.Autenticar(ctx, "basura")
	assert.EqualError(t, err, "Token no válido")

	_, err = svc.Autenticar(ctx, signToken(t, uuid.NewString(), time.Hour))
	assert.EqualError(t, err, "Usuario no válido")

	u.Activo = false
	_, err = svc.Autenticar(ctx, signToken(t, u.ID.String(), time.Hour))
	assert.EqualError(t, err, "Usuario no válido")
}

func TestCambiarPassword(t *testing.T) {
	repo := newStubUsuarios()
	audit := &recordingAudit{}
	u := seedUsuario(t, repo, "cajero", "secreto1", model.RolStaff)
	svc := NewAuthService(repo, audit, newTestCfg())
	actor := authz.FromUsuario(u)
	ctx := context.Background()

	err := svc.CambiarPassword(ctx, actor, dto.CambiarPasswordRequest{NewPassword: "abc"})
	assert.True(t, errors.Is(err, ErrValidacion))

	err = svc.CambiarPassword(ctx, actor, dto.CambiarPasswordRequest{NewPassword: "nuevo123"})
	assert.EqualError(t, err, "Contraseña actual es requerida")

	err = svc.CambiarPassword(ctx, actor, dto.CambiarPasswordRequest{CurrentPassword: "mal", NewPassword: "nuevo123"})
	assert.EqualError(t, err, "Contraseña actual incorrecta")

	require.NoError(t, svc.CambiarPassword(ctx, actor, dto.CambiarPasswordRequest{CurrentPassword: "secreto1", NewPassword: "nuevo123"}))
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("nuevo123")))
	assert.Equal(t, AccionCambioPassword, audit.last().Accion)
}

func TestCambiarPassword_PrimerAccesoSinActual(t *testing.T) {
	repo := newStubUsuarios()
	u := seedUsuario(t, repo, "nuevo", "FTT2025", model.RolImpresor)
	u.PrimerAcceso = true
	svc := NewAuthService(repo, &recordingAudit{}, newTestCfg())

	require.NoError(t, svc.CambiarPassword(context.Background(), authz.FromUsuario(u), dto.CambiarPasswordRequest{NewPassword: "propia99"}))
	assert.False(t, u.PrimerAcceso)
}
