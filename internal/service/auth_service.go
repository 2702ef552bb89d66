package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"sweetshop/internal/auth"
	apperrors "sweetshop/internal/errors"
	"sweetshop/internal/model"
	"sweetshop/internal/repository"
)

// minBcryptCost is the lowest accepted work factor.
const minBcryptCost = 10

const minPasswordLength = 6

// timingPassword is hashed once per service, on first use, so a login for an
// unknown email pays for a bcrypt comparison too.
const timingPassword = "sweetshop-unknown-account"

// AuthResult is returned by register and login.
type AuthResult struct {
	Token string            `json:"token"`
	User  model.AccountView `json:"user"`
}

// AuthService handles authentication operations.
type AuthService interface {
	Register(ctx context.Context, email, password string, isAdmin bool) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	// EnsureAdmin promotes an existing account or creates a new administrator.
	// It reports whether an account was created.
	EnsureAdmin(ctx context.Context, email, password string) (bool, error)
	// Current reloads the account behind a session.
	Current(ctx context.Context, id uuid.UUID) (*model.AccountView, error)
}

type authService struct {
	accountRepo repository.AccountRepository
	jwtService  *auth.JWTService
	throttle    auth.LoginThrottle
	bcryptCost  int

	dummyOnce sync.Once
	dummyHash []byte
}

// NewAuthService creates a new authentication service. Costs below 10 are
// raised to 10.
func NewAuthService(accountRepo repository.AccountRepository, jwtService *auth.JWTService, throttle auth.LoginThrottle, bcryptCost int) AuthService {
	if bcryptCost < minBcryptCost {
		bcryptCost = minBcryptCost
	}
	if bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.MaxCost
	}
	return &authService{
		accountRepo: accountRepo,
		jwtService:  jwtService,
		throttle:    throttle,
		bcryptCost:  bcryptCost,
	}
}

// NormalizeEmail lower-cases and trims an email so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a new account with hashed password.
func (s *authService) Register(ctx context.Context, email, password string, isAdmin bool) (*AuthResult, error) {
	email = NormalizeEmail(email)

	existing, err := s.accountRepo.FindByEmail(ctx, email)
	if err == nil && existing != nil {
		return nil, apperrors.ErrDuplicateIdentity
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check account existence: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, apperrors.FieldError("password", "password must be at most 72 bytes")
	}
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account := &model.Account{
		Email:        email,
		PasswordHash: string(hashedPassword),
		IsAdmin:      isAdmin,
	}

	if err := s.accountRepo.Create(ctx, account); err != nil {
		// lost a race with a concurrent registration
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrDuplicateIdentity
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	log.Info().Str("account_id", account.ID.String()).Bool("admin", account.IsAdmin).Msg("account registered")
	return s.issue(account)
}

// Login authenticates an account and returns a session token.
func (s *authService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = NormalizeEmail(email)

	if s.throttle.Locked(ctx, email) {
		return nil, apperrors.ErrTooManyAttempts
	}

	account, err := s.accountRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.timingHash(), []byte(password))
			s.throttle.RecordFailure(ctx, email)
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find account: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		s.throttle.RecordFailure(ctx, email)
		return nil, apperrors.ErrInvalidCredentials
	}

	s.throttle.Reset(ctx, email)
	return s.issue(account)
}

// EnsureAdmin grants the administrator role, creating the account if needed.
func (s *authService) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	email = NormalizeEmail(email)

	account, err := s.accountRepo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if account.IsAdmin {
			return false, nil
		}
		if err := s.accountRepo.SetAdmin(ctx, account.ID, true); err != nil {
			return false, fmt.Errorf("promote account: %w", err)
		}
		log.Info().Str("account_id", account.ID.String()).Msg("account promoted to admin")
		return false, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		if len(password) < minPasswordLength {
			return false, apperrors.FieldError("password", "password must be at least 6 characters")
		}
		if _, err := s.Register(ctx, email, password, true); err != nil {
			return false, err
		}
		return true, nil
	default:
		return false, fmt.Errorf("find account: %w", err)
	}
}

// Current returns the stored account for a session. A deleted account no
// longer authenticates.
func (s *authService) Current(ctx context.Context, id uuid.UUID) (*model.AccountView, error) {
	account, err := s.accountRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUnauthenticated
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	view := account.View()
	return &view, nil
}

func (s *authService) timingHash() []byte {
	s.dummyOnce.Do(func() {
		hash, err := bcrypt.GenerateFromPassword([]byte(timingPassword), s.bcryptCost)
		if err != nil {
			log.Warn().Err(err).Msg("failed to prepare timing hash")
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

func (s *authService) issue(account *model.Account) (*AuthResult, error) {
	token, err := s.jwtService.GenerateSessionToken(account.ID, account.Email, account.IsAdmin)
	if err != nil {
		return nil, fmt.Errorf("generate session token: %w", err)
	}
	return &AuthResult{Token: token, User: account.View()}, nil
}
