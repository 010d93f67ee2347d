package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tiendapos/internal/apierror"
	"tiendapos/internal/config"
	"tiendapos/internal/dto"
	"tiendapos/internal/model"
	"tiendapos/internal/repository"
	"tiendapos/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

const verifyEmailTTL = 24 * time.Hour

type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error)
	Register(ctx context.Context, req dto.RegisterCustomerRequest) (*dto.UserResponse, error)
	VerifyEmail(ctx context.Context, token string) (*dto.UserResponse, error)
	Me(ctx context.Context, actor Actor) (*dto.UserResponse, error)
	CreateUser(ctx context.Context, req dto.CreateUserRequest) (*dto.UserResponse, error)
	ListUsers(ctx context.Context, q dto.ListQuery) ([]dto.UserResponse, int64, error)
}

type authService struct {
	repo repository.UserRepository
	cfg  *config.Config
	jobs JobQueue
	now  func() time.Time
}

func NewAuthService(repo repository.UserRepository, cfg *config.Config, jobs JobQueue) AuthService {
	return &authService{repo: repo, cfg: cfg, jobs: jobs, now: time.Now}
}

var errBadCredentials = apierror.New(apierror.KindUnauthorized, "Credenciales invalidas")

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.repo.FindByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, errBadCredentials
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, errBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, errBadCredentials
	}
	return s.issuePair(user)
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error) {
	claims, err := ParseToken(s.cfg.JWTSecret, refreshToken, TokenRefresh)
	if err != nil {
		return nil, apierror.New(apierror.KindUnauthorized, "Refresh token invalido o expirado")
	}
	uid, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, apierror.New(apierror.KindUnauthorized, "Token mal formado")
	}
	user, err := s.repo.FindByID(ctx, uid)
	if err != nil || !user.IsActive {
		return nil, apierror.New(apierror.KindUnauthorized, "Usuario no encontrado o inactivo")
	}
	return s.issuePair(user)
}

// Register creates a customer account and queues the verification email.
func (s *authService) Register(ctx context.Context, req dto.RegisterCustomerRequest) (*dto.UserResponse, error) {
	user, err := s.createUser(ctx, req.CI, req.Name, req.Phone, req.Email, req.Password, model.RoleCustomer)
	if err != nil {
		return nil, err
	}

	token, err := signToken(s.cfg.JWTSecret, Claims{
		UserID: user.ID.String(), Email: user.Email, Role: user.Role, Type: TokenVerifyEmail,
	}, verifyEmailTTL, s.now())
	if err != nil {
		return nil, err
	}
	if s.jobs != nil {
		link := fmt.Sprintf("%s/v1/auth/verify-email?token=%s", strings.TrimRight(s.cfg.PublicURL, "/"), token)
		payload := worker.EmailJobPayload{
			ToEmail: user.Email,
			Subject: "Verifica tu correo en " + s.cfg.StoreName,
			Body:    fmt.Sprintf("Hola %s,\n\nConfirma tu correo abriendo este enlace:\n%s\n", user.Name, link),
		}
		if err := s.jobs.EnqueueEmail(ctx, payload); err != nil {
			log.Error().Err(err).Str("user_id", user.ID.String()).Msg("failed to enqueue verification email")
		}
	}
	resp := userToResponse(user)
	return &resp, nil
}

func (s *authService) VerifyEmail(ctx context.Context, token string) (*dto.UserResponse, error) {
	claims, err := ParseToken(s.cfg.JWTSecret, token, TokenVerifyEmail)
	if err != nil {
		return nil, apierror.Validation("Enlace de verificacion invalido o expirado", nil)
	}
	uid, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, apierror.Validation("Enlace de verificacion invalido o expirado", nil)
	}
	user, err := s.repo.FindByID(ctx, uid)
	if err != nil {
		return nil, notFound(err, "Usuario")
	}
	if !user.EmailVerified {
		if err := s.repo.MarkEmailVerified(ctx, uid); err != nil {
			return nil, err
		}
		user.EmailVerified = true
	}
	resp := userToResponse(user)
	return &resp, nil
}

func (s *authService) Me(ctx context.Context, actor Actor) (*dto.UserResponse, error) {
	user, err := s.repo.FindByID(ctx, actor.UserID)
	if err != nil {
		return nil, notFound(err, "Usuario")
	}
	resp := userToResponse(user)
	return &resp, nil
}

func (s *authService) CreateUser(ctx context.Context, req dto.CreateUserRequest) (*dto.UserResponse, error) {
	user, err := s.createUser(ctx, req.CI, req.Name, req.Phone, req.Email, req.Password, req.Role)
	if err != nil {
		return nil, err
	}
	// Staff accounts are created by an administrator and need no verification.
	if user.IsStaff() {
		if err := s.repo.MarkEmailVerified(ctx, user.ID); err != nil {
			return nil, err
		}
		user.EmailVerified = true
	}
	resp := userToResponse(user)
	return &resp, nil
}

func (s *authService) ListUsers(ctx context.Context, q dto.ListQuery) ([]dto.UserResponse, int64, error) {
	rows, total, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	out := make([]dto.UserResponse, len(rows))
	for i := range rows {
		out[i] = userToResponse(&rows[i])
	}
	return out, total, nil
}

func (s *authService) createUser(ctx context.Context, ci, name, phone, email, password, role string) (*model.User, error) {
	switch role {
	case model.RoleAdministrator, model.RoleCashier, model.RoleCustomer:
	default:
		return nil, apierror.Validation("", map[string]string{"role": "rol invalido"})
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		ID:           uuid.New(),
		CI:           strings.TrimSpace(ci),
		Name:         strings.TrimSpace(name),
		Phone:        strings.TrimSpace(phone),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		Role:         role,
		PasswordHash: string(hash),
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if repository.IsUniqueViolation(err, "") {
			return nil, apierror.Validation("El correo o CI ya estan registrados", map[string]string{"email": "duplicado"})
		}
		return nil, err
	}
	return user, nil
}

func (s *authService) issuePair(user *model.User) (*dto.LoginResponse, error) {
	now := s.now()
	base := Claims{UserID: user.ID.String(), Email: user.Email, Role: user.Role}

	access := base
	access.Type = TokenAccess
	accessToken, err := signToken(s.cfg.JWTSecret, access, time.Duration(s.cfg.JWTExpirationHours)*time.Hour, now)
	if err != nil {
		return nil, err
	}
	refresh := base
	refresh.Type = TokenRefresh
	refreshToken, err := signToken(s.cfg.JWTSecret, refresh, time.Duration(s.cfg.JWTRefreshHours)*time.Hour, now)
	if err != nil {
		return nil, err
	}

	return &dto.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresIn:    s.cfg.JWTExpirationHours * 3600,
		User:         userToResponse(user),
	}, nil
}
