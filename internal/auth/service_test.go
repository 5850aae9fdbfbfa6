package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/martinquesada/tienda-backend/internal/users"
	"github.com/martinquesada/tienda-backend/pkg/config"
	"github.com/martinquesada/tienda-backend/pkg/db/models"
	pkgerrors "github.com/martinquesada/tienda-backend/pkg/errors"
	"github.com/martinquesada/tienda-backend/pkg/security"
)

type fakeUserRepo struct {
	createFn      func(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
	findByEmailFn func(ctx context.Context, email string) (*models.User, error)
}

func (f *fakeUserRepo) Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error) {
	return f.createFn(ctx, dto)
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return f.findByEmailFn(ctx, email)
}

type fakeSessionManager struct {
	created []string
	revoked []string
	fail    error
}

func (f *fakeSessionManager) Create(_ context.Context, accessID string, _ uuid.UUID) error {
	if f.fail != nil {
		return f.fail
	}
	f.created = append(f.created, accessID)
	return nil
}

func (f *fakeSessionManager) Revoke(_ context.Context, accessID string) error {
	if f.fail != nil {
		return f.fail
	}
	f.revoked = append(f.revoked, accessID)
	return nil
}

func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    8,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     8,
		ArgonKeyLen:      16,
	}
}

func newTestService(t *testing.T, repo userRepository, sessions sessionManager) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		SessionManager: sessions,
		JWTConfig: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "tienda-test",
			ExpirationMinutes: 15,
		},
		PasswordConfig: testPasswordConfig(),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestRegisterCreatesUserAndSession(t *testing.T) {
	sessions := &fakeSessionManager{}
	repo := &fakeUserRepo{
		createFn: func(_ context.Context, dto users.CreateUserDTO) (*models.User, error) {
			user := dto.ToModel()
			user.ID = uuid.New()
			if user.PasswordHash == "" {
				t.Fatalf("expected hashed password")
			}
			return user, nil
		},
	}
	svc := newTestService(t, repo, sessions)

	resp, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "Cliente@Example.com",
		Name:     "Cliente",
		Password: "super-secreta",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if resp.AccessToken == "" {
		t.Fatalf("expected access token")
	}
	if resp.User.Email != "cliente@example.com" {
		t.Fatalf("expected normalized email, got %q", resp.User.Email)
	}
	if len(sessions.created) != 1 {
		t.Fatalf("expected one session, got %d", len(sessions.created))
	}
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	repo := &fakeUserRepo{
		createFn: func(context.Context, users.CreateUserDTO) (*models.User, error) {
			return nil, errors.New(`duplicate key value violates unique constraint "idx_users_email"`)
		},
	}
	svc := newTestService(t, repo, &fakeSessionManager{})

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "cliente@example.com",
		Name:     "Cliente",
		Password: "super-secreta",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestLoginSuccess(t *testing.T) {
	hash, err := security.HashPassword("super-secreta", testPasswordConfig())
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	userID := uuid.New()
	repo := &fakeUserRepo{
		findByEmailFn: func(_ context.Context, email string) (*models.User, error) {
			if email != "cliente@example.com" {
				return nil, gorm.ErrRecordNotFound
			}
			return &models.User{ID: userID, Email: email, Name: "Cliente", PasswordHash: hash}, nil
		},
	}
	sessions := &fakeSessionManager{}
	svc := newTestService(t, repo, sessions)

	resp, err := svc.Login(context.Background(), LoginRequest{Email: "cliente@example.com", Password: "super-secreta"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.User.ID != userID {
		t.Fatalf("unexpected user id")
	}
	if len(sessions.created) != 1 {
		t.Fatalf("expected session created")
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	hash, err := security.HashPassword("super-secreta", testPasswordConfig())
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	repo := &fakeUserRepo{
		findByEmailFn: func(_ context.Context, email string) (*models.User, error) {
			if email == "cliente@example.com" {
				return &models.User{ID: uuid.New(), Email: email, PasswordHash: hash}, nil
			}
			return nil, gorm.ErrRecordNotFound
		},
	}
	svc := newTestService(t, repo, &fakeSessionManager{})

	cases := []LoginRequest{
		{Email: "cliente@example.com", Password: "incorrecta"},
		{Email: "otro@example.com", Password: "super-secreta"},
		{Email: "", Password: "super-secreta"},
	}
	for _, req := range cases {
		_, err := svc.Login(context.Background(), req)
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
			t.Fatalf("login %q: expected unauthorized, got %v", req.Email, err)
		}
		if typed.Message() != invalidCredentialsMessage {
			t.Fatalf("expected generic message, got %q", typed.Message())
		}
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	sessions := &fakeSessionManager{}
	svc := newTestService(t, &fakeUserRepo{}, sessions)

	if err := svc.Logout(context.Background(), "jti-123"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if len(sessions.revoked) != 1 || sessions.revoked[0] != "jti-123" {
		t.Fatalf("expected revoked session, got %v", sessions.revoked)
	}

	err := svc.Logout(context.Background(), " ")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized for blank jti, got %v", err)
	}
}
