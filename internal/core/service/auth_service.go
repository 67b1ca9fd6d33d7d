package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/bookshelf/bookapp/internal/core/domain"
	"github.com/bookshelf/bookapp/internal/core/ports"
)

// Claim names carried by issued tokens.
const (
	ClaimSubject = "sub"
	ClaimRoles   = "roles"
	ClaimName    = "name"
)

// AuthService implements registration and login.
type AuthService struct {
	repo      ports.UserRepository
	jwtSecret string
	tokenTTL  time.Duration
	logger    zerolog.Logger
	now       func() time.Time
}

func NewAuthService(repo ports.UserRepository, jwtSecret string, tokenTTL time.Duration, logger zerolog.Logger) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{repo: repo, jwtSecret: jwtSecret, tokenTTL: tokenTTL, logger: logger, now: time.Now}
}

// Register creates a User-role account and signs it in.
func (s *AuthService) Register(ctx context.Context, input ports.RegisterInput) (*domain.AuthResult, error) {
	userName := strings.TrimSpace(input.UserName)
	if userName == "" || input.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.createUser(ctx, userName, input.Email, input.Password, input.FullName, []string{domain.RoleUser})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("user", user.UserName).Msg("user registered")
	return s.issue(user)
}

// Login checks the password and returns a fresh token. Unknown users and
// wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, userName, password string) (*domain.AuthResult, error) {
	if userName == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByUserName(ctx, userName)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return s.issue(user)
}

// EnsureAdmin creates the Admin account if no user of that name exists yet.
// An existing account is left untouched.
func (s *AuthService) EnsureAdmin(ctx context.Context, userName, password string) error {
	if userName == "" || password == "" {
		return domain.ErrInvalidCredentials
	}
	if _, err := s.repo.FindByUserName(ctx, userName); err == nil {
		return nil
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return err
	}

	_, err := s.createUser(ctx, userName, "", password, nil, []string{domain.RoleUser, domain.RoleAdmin})
	if errors.Is(err, domain.ErrUserExists) {
		return nil
	}
	if err == nil {
		s.logger.Info().Str("user", userName).Msg("admin account seeded")
	}
	return err
}

func (s *AuthService) createUser(ctx context.Context, userName, email, password string, fullName *string, roles []string) (*domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	return s.repo.Create(ctx, &domain.User{
		UserName:     userName,
		Email:        email,
		FullName:     fullName,
		PasswordHash: string(hash),
		Roles:        roles,
		CreatedAt:    s.now().UTC(),
	})
}

func (s *AuthService) issue(user *domain.User) (*domain.AuthResult, error) {
	expires := s.now().Add(s.tokenTTL).UTC()
	claims := jwt.MapClaims{
		ClaimSubject: user.UserName,
		ClaimRoles:   user.Roles,
		"exp":        expires.Unix(),
	}
	if user.FullName != nil {
		claims[ClaimName] = *user.FullName
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.jwtSecret))
	if err != nil {
		return nil, err
	}

	roles := user.Roles
	if roles == nil {
		roles = []string{}
	}
	return &domain.AuthResult{
		Token:        token,
		ExpiresAtUTC: domain.Timestamp{Time: expires},
		UserName:     user.UserName,
		FullName:     user.FullName,
		Roles:        roles,
	}, nil
}
