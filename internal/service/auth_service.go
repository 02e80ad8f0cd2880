package service

import (
	"context"
	"strings"
	"time"

	"taquilla/internal/authz"
	"taquilla/internal/config"
	"taquilla/internal/dto"
	"taquilla/internal/model"
	"taquilla/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

const msgCredenciales = "Credenciales inválidas"

// HashPassword bcrypts a plaintext password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// NormalizarUsuario is how login identifiers are stored and looked up.
func NormalizarUsuario(u string) string {
	return strings.ToLower(strings.TrimSpace(u))
}

type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	CambiarPassword(ctx context.Context, actor authz.Actor, req dto.CambiarPasswordRequest) error
	Logout(ctx context.Context, actor authz.Actor)
	Perfil(ctx context.Context, id uuid.UUID) (*dto.UsuarioResponse, error)
	// Autenticar validates a bearer token and returns the active user behind it.
	Autenticar(ctx context.Context, token string) (*model.Usuario, error)
}

type authService struct {
	repo  repository.UsuarioRepository
	audit AuditService
	cfg   *config.Config
}

func NewAuthService(repo repository.UsuarioRepository, audit AuditService, cfg *config.Config) AuthService {
	return &authService{repo: repo, audit: audit, cfg: cfg}
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.repo.FindByUsuario(ctx, NormalizarUsuario(req.Usuario))
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, noAutorizado(msgCredenciales)
		}
		return nil, err
	}
	if !user.Activo {
		return nil, noAutorizado(msgCredenciales)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, noAutorizado(msgCredenciales)
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, err
	}

	s.audit.Registrar(ctx, Evento{
		UsuarioID:    user.ID,
		Accion:       AccionLogin,
		Recurso:      RecursoAuth,
		RecursoID:    user.ID.String(),
		Detalle:      "Inicio de sesión",
		PuntoTrabajo: user.Punto(),
	})

	return &dto.LoginResponse{Success: true, Token: token, User: mapUsuario(user)}, nil
}

func (s *authService) CambiarPassword(ctx context.Context, actor authz.Actor, req dto.CambiarPasswordRequest) error {
	if len(req.NewPassword) < 6 {
		return validacion("La nueva contraseña debe tener al menos 6 caracteres")
	}
	user, err := s.repo.FindByID(ctx, actor.ID)
	if err != nil {
		if repository.IsNotFound(err) {
			return noEncontrado("Usuario no encontrado")
		}
		return err
	}

	primerAcceso := user.PrimerAcceso
	if !primerAcceso {
		if req.CurrentPassword == "" {
			return validacion("Contraseña actual es requerida")
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
			return validacion("Contraseña actual incorrecta")
		}
	}

	hash, err := HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	user.PrimerAcceso = false
	if err := s.repo.Update(ctx, user); err != nil {
		return err
	}

	s.audit.Registrar(ctx, Evento{
		UsuarioID: user.ID,
		Accion:    AccionCambioPassword,
		Recurso:   RecursoAuth,
		RecursoID: user.ID.String(),
		Detalle:   "Cambio de contraseña",
		Metadata:  map[string]any{"primerAcceso": primerAcceso},
	})
	return nil
}

func (s *authService) Logout(ctx context.Context, actor authz.Actor) {
	s.audit.Registrar(ctx, Evento{
		UsuarioID:    actor.ID,
		Accion:       AccionLogout,
		Recurso:      RecursoAuth,
		RecursoID:    actor.ID.String(),
		Detalle:      "Cierre de sesión",
		PuntoTrabajo: actor.PuntoTrabajo,
	})
}

func (s *authService) Perfil(ctx context.Context, id uuid.UUID) (*dto.UsuarioResponse, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, noEncontrado("Usuario no encontrado")
		}
		return nil, err
	}
	resp := mapUsuario(user)
	return &resp, nil
}

func (s *authService) Autenticar(ctx context.Context, tokenStr string) (*model.Usuario, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, noAutorizado("Token no válido")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, noAutorizado("Token no válido")
	}
	idStr, _ := claims["user_id"].(string)
	uid, err := uuid.Parse(idStr)
	if err != nil {
		return nil, noAutorizado("Token no válido")
	}

	user, err := s.repo.FindByID(ctx, uid)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, noAutorizado("Usuario no válido")
		}
		return nil, err
	}
	if !user.Activo {
		return nil, noAutorizado("Usuario no válido")
	}
	return user, nil
}

func (s *authService) generateToken(user *model.Usuario) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": user.ID.String(),
		"usuario": user.Usuario,
		"rol":     user.Rol,
		"exp":     now.Add(time.Duration(s.cfg.JWTExpirationHours) * time.Hour).Unix(),
		"iat":     now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}
