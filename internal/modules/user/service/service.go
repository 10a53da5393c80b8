package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"anoa.com/linkbio/internal/entity"
	"anoa.com/linkbio/internal/modules/user/dto"
	"anoa.com/linkbio/internal/modules/user/repository"
	"anoa.com/linkbio/pkg/apperror"
	"anoa.com/linkbio/pkg/ratelimiter"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// PasswordChecker verifies a password for an already looked-up user. The
// verifier treats it as a black box returning a verdict or an error.
type PasswordChecker interface {
	CheckPassword(ctx context.Context, user *entity.User, password string) (bool, error)
}

// SessionIssuer persists the authenticated user id into a session token.
type SessionIssuer interface {
	Issue(userID uuid.UUID) (string, time.Time, error)
}

type bcryptChecker struct{}

func NewBcryptChecker() PasswordChecker {
	return bcryptChecker{}
}

func (bcryptChecker) CheckPassword(_ context.Context, user *entity.User, password string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, err
}

type AuthService interface {
	// Login authenticates username/password for the caller identified by
	// identity (its client address), throttling failed attempts.
	Login(ctx context.Context, identity string, input dto.LoginInput) (*dto.AuthResponse, error)
	CurrentUser(ctx context.Context, userID string) (*entity.User, error)
}

type authService struct {
	repo     repository.UserRepository
	checker  PasswordChecker
	throttle *ratelimiter.LoginThrottle
	sessions SessionIssuer
}

func NewAuthService(repo repository.UserRepository, checker PasswordChecker, throttle *ratelimiter.LoginThrottle, sessions SessionIssuer) AuthService {
	return &authService{
		repo:     repo,
		checker:  checker,
		throttle: throttle,
		sessions: sessions,
	}
}

func (s *authService) Login(ctx context.Context, identity string, input dto.LoginInput) (*dto.AuthResponse, error) {
	username := strings.TrimSpace(input.Username)
	password := strings.TrimSpace(input.Password)
	if username == "" || password == "" {
		return nil, apperror.Invalid("Usuário e senha são obrigatórios")
	}

	if _, err := s.throttle.Check(ctx, identity); err != nil {
		var rlErr *ratelimiter.RateLimitError
		if errors.As(err, &rlErr) {
			return nil, rlErr
		}
		return nil, apperror.Internal(err)
	}

	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return nil, s.fail(ctx, identity, "Usuário ou senha inválidos", err)
	}

	ok, err := s.checker.CheckPassword(ctx, user, password)
	if err != nil {
		return nil, s.fail(ctx, identity, "Não foi possível verificar as credenciais", err)
	}
	if !ok {
		return nil, s.fail(ctx, identity, "Usuário ou senha inválidos", nil)
	}

	if err := s.throttle.Reset(ctx, identity); err != nil {
		log.Printf("failed to reset login attempts for %s: %v", identity, err)
	}

	token, expiresAt, err := s.sessions.Issue(user.ID)
	if err != nil {
		return nil, apperror.Internal(fmt.Errorf("issue session: %w", err))
	}

	return &dto.AuthResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt.Unix(),
		User:        user,
	}, nil
}

// fail counts the failed attempt and builds the error shown to the caller.
// The cause is kept for logs only.
func (s *authService) fail(ctx context.Context, identity, message string, cause error) error {
	if cause != nil {
		log.Printf("login attempt from %s failed: %v", identity, cause)
	}

	status, err := s.throttle.RecordFailure(ctx, identity)
	if err != nil {
		return apperror.Internal(err)
	}
	if status.State == ratelimiter.StateBlocked {
		return s.throttle.LockoutError(status)
	}

	return apperror.Unauthorized(fmt.Sprintf("%s. %d tentativa(s) restante(s).", message, status.RemainingAttempts))
}

func (s *authService) CurrentUser(ctx context.Context, userID string) (*entity.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, apperror.NotFound("usuário não encontrado")
	}
	return user, nil
}
