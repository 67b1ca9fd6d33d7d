package service

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/bookshelf/bookapp/internal/core/domain"
	"github.com/bookshelf/bookapp/internal/core/ports"
)

type stubUserRepo struct {
	users map[string]*domain.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	clone.Roles = slices.Clone(u.Roles)
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	if _, exists := r.users[user.UserName]; exists {
		return nil, domain.ErrUserExists
	}
	copy := cloneUser(user)
	if copy.ID == "" {
		copy.ID = user.UserName
	}
	r.users[copy.UserName] = cloneUser(copy)
	return cloneUser(copy), nil
}

func (r *stubUserRepo) FindByUserName(_ context.Context, userName string) (*domain.User, error) {
	u, ok := r.users[userName]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func newAuthService(repo ports.UserRepository) *AuthService {
	return NewAuthService(repo, "secret", time.Hour, zerolog.Nop())
}

func parseClaims(t *testing.T, token string) jwt.MapClaims {
	t.Helper()
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("token invalid: %v", err)
	}
	return claims
}

func TestAuthService_Register_Success(t *testing.T) {
	repo := newStubUserRepo()
	svc := newAuthService(repo)
	name := "Alice Liddell"

	res, err := svc.Register(context.Background(), ports.RegisterInput{
		UserName: "alice", Email: "alice@example.com", Password: "pass123", FullName: &name,
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if res.Token == "" || res.UserName != "alice" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if !slices.Equal(res.Roles, []string{domain.RoleUser}) {
		t.Fatalf("expected User role only, got %v", res.Roles)
	}
	if res.FullName == nil || *res.FullName != name {
		t.Fatalf("full name not carried: %v", res.FullName)
	}

	stored := repo.users["alice"]
	if stored.PasswordHash == "pass123" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("pass123")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
}

func TestAuthService_Register_Validation(t *testing.T) {
	svc := newAuthService(newStubUserRepo())

	if _, err := svc.Register(context.Background(), ports.RegisterInput{UserName: "  ", Password: "pass123"}); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Register(context.Background(), ports.RegisterInput{UserName: "bob"}); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials for empty password, got %v", err)
	}
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	svc := newAuthService(newStubUserRepo())

	_, _ = svc.Register(context.Background(), ports.RegisterInput{UserName: "bob", Password: "pass123"})
	if _, err := svc.Register(context.Background(), ports.RegisterInput{UserName: "bob", Password: "other12"}); err != domain.ErrUserExists {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	svc := newAuthService(newStubUserRepo())
	if err := svc.EnsureAdmin(context.Background(), "carol", "s3cret"); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	res, err := svc.Login(context.Background(), "carol", "s3cret")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if res.Token == "" {
		t.Fatalf("expected token, got empty")
	}
	if !slices.Contains(res.Roles, domain.RoleAdmin) {
		t.Fatalf("expected Admin role, got %v", res.Roles)
	}
	if time.Until(res.ExpiresAtUTC.Time) <= 0 {
		t.Fatalf("expiry should be in the future: %v", res.ExpiresAtUTC)
	}

	claims := parseClaims(t, res.Token)
	if claims[ClaimSubject] != "carol" {
		t.Fatalf("expected sub carol, got %v", claims[ClaimSubject])
	}
	roles, _ := claims[ClaimRoles].([]any)
	if len(roles) != 2 || roles[1] != domain.RoleAdmin {
		t.Fatalf("unexpected roles claim: %v", claims[ClaimRoles])
	}
}

func TestAuthService_Login_InvalidPassword(t *testing.T) {
	svc := newAuthService(newStubUserRepo())

	_, _ = svc.Register(context.Background(), ports.RegisterInput{UserName: "dave", Password: "goodpass"})
	if _, err := svc.Login(context.Background(), "dave", "badpass"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Login_UserNotFound(t *testing.T) {
	svc := newAuthService(newStubUserRepo())

	if _, err := svc.Login(context.Background(), "ghost", "pass"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_EnsureAdmin_Idempotent(t *testing.T) {
	repo := newStubUserRepo()
	svc := newAuthService(repo)

	if _, err := svc.Register(context.Background(), ports.RegisterInput{UserName: "admin", Password: "userpass"}); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := svc.EnsureAdmin(context.Background(), "admin", "admin123"); err != nil {
		t.Fatalf("EnsureAdmin returned error: %v", err)
	}
	if repo.users["admin"].HasRole(domain.RoleAdmin) {
		t.Fatalf("existing account must not be promoted")
	}
	if _, err := svc.Login(context.Background(), "admin", "userpass"); err != nil {
		t.Fatalf("existing password must still work: %v", err)
	}
}

type failingUserRepo struct{ err error }

func (r failingUserRepo) Create(context.Context, *domain.User) (*domain.User, error) {
	return nil, r.err
}
func (r failingUserRepo) FindByUserName(context.Context, string) (*domain.User, error) {
	return nil, r.err
}

func TestAuthService_RepositoryErrorsPropagate(t *testing.T) {
	boom := errors.New("connection reset")
	svc := newAuthService(failingUserRepo{err: boom})

	if _, err := svc.Login(context.Background(), "eve", "pass"); !errors.Is(err, boom) {
		t.Fatalf("expected repository error, got %v", err)
	}
	if err := svc.EnsureAdmin(context.Background(), "admin", "admin123"); !errors.Is(err, boom) {
		t.Fatalf("expected repository error, got %v", err)
	}
}
