package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/municipia/apoios/internal/auth/domain"
	"github.com/municipia/apoios/internal/auth/repository"
	"github.com/municipia/apoios/internal/clock"
	"github.com/municipia/apoios/internal/config"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (domain.Service, *clock.FakeClock, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	dbConn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	if err := dbConn.AutoMigrate(&domain.User{}, &domain.Session{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(4)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}
	clk := clock.NewFakeClock(time.Date(2026, 1, 15, 8, 0, 0, 0, time.UTC))
	userRepo, sessionRepo := repository.New(dbConn)

	svc := New(Params{
		Log:         zap.NewNop(),
		Config:      config.Config{SessionTTLHours: 2},
		Repo:        userRepo,
		SessionRepo: sessionRepo,
		GenID:       node,
		Clock:       clk,
	})
	return svc, clk, dbConn
}

func createTechUser(t *testing.T, svc domain.Service) *domain.User {
	t.Helper()
	user, err := svc.CreateUser(context.Background(), domain.CreateUserRequest{
		Email:    "tech@municipio.pt",
		Password: "correct-horse",
		Role:     domain.RoleTech,
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func TestCreateUser(t *testing.T) {
	svc, clk, _ := newTestService(t)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, domain.CreateUserRequest{
		Email:    "  Tech@Municipio.PT ",
		Password: "correct-horse",
		Role:     "tech",
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if user.Email != "tech@municipio.pt" {
		t.Errorf("email = %q, want normalized lowercase", user.Email)
	}
	if user.Role != domain.RoleTech {
		t.Errorf("role = %q", user.Role)
	}
	if user.DisplayName != "tech" {
		t.Errorf("display name = %q, want local part fallback", user.DisplayName)
	}
	if !user.IsActive {
		t.Error("new users start active")
	}
	if user.LastPasswordChanged == nil || !user.LastPasswordChanged.Equal(clk.Now()) {
		t.Errorf("last_password_changed = %v", user.LastPasswordChanged)
	}
	if user.PasswordHash == nil || *user.PasswordHash == "correct-horse" {
		t.Error("password must be stored hashed")
	}
}

func TestCreateUserValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	entityID := snowflake.ID(42)
	tests := []struct {
		name    string
		req     domain.CreateUserRequest
		wantErr error
	}{
		{
			name:    "bad email",
			req:     domain.CreateUserRequest{Email: "not-an-email", Password: "correct-horse", Role: domain.RoleTech},
			wantErr: domain.ErrInvalidEmail,
		},
		{
			name:    "short password",
			req:     domain.CreateUserRequest{Email: "a@b.pt", Password: "short", Role: domain.RoleTech},
			wantErr: domain.ErrWeakPassword,
		},
		{
			name:    "unknown role",
			req:     domain.CreateUserRequest{Email: "a@b.pt", Password: "correct-horse", Role: "SUPERUSER"},
			wantErr: domain.ErrInvalidRole,
		},
		{
			name:    "entity role without entity",
			req:     domain.CreateUserRequest{Email: "a@b.pt", Password: "correct-horse", Role: domain.RoleEntity},
			wantErr: domain.ErrInvalidRole,
		},
		{
			name: "entity role with entity",
			req: domain.CreateUserRequest{
				Email: "a@b.pt", Password: "correct-horse", Role: domain.RoleEntity, EntityID: &entityID,
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateUser(ctx, tc.req)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("err = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	svc, _, _ := newTestService(t)
	createTechUser(t, svc)

	_, err := svc.CreateUser(context.Background(), domain.CreateUserRequest{
		Email:    "TECH@municipio.pt",
		Password: "another-pass",
		Role:     domain.RoleAdmin,
	})
	if !errors.Is(err, domain.ErrUserExists) {
		t.Errorf("err = %v, want %v", err, domain.ErrUserExists)
	}
}

func TestLogin(t *testing.T) {
	svc, clk, _ := newTestService(t)
	user := createTechUser(t, svc)
	ctx := context.Background()

	result, err := svc.Login(ctx, domain.LoginRequest{
		Email:    "tech@municipio.pt",
		Password: "correct-horse",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if result.User.ID != user.ID {
		t.Errorf("user = %s, want %s", result.User.ID, user.ID)
	}
	if result.RawToken == "" {
		t.Error("expected a session token")
	}
	if !result.ExpiresAt.Equal(clk.Now().Add(2 * time.Hour)) {
		t.Errorf("expires_at = %v", result.ExpiresAt)
	}

	if _, err := svc.Login(ctx, domain.LoginRequest{Email: "tech@municipio.pt", Password: "wrong"}); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("wrong password err = %v", err)
	}
	if _, err := svc.Login(ctx, domain.LoginRequest{Email: "nobody@municipio.pt", Password: "correct-horse"}); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("unknown user err = %v", err)
	}
}

func TestLoginInactiveUser(t *testing.T) {
	svc, _, _ := newTestService(t)
	user := createTechUser(t, svc)

	if err := svc.SetActive(context.Background(), user.ID, false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	_, err := svc.Login(context.Background(), domain.LoginRequest{
		Email:    "tech@municipio.pt",
		Password: "correct-horse",
	})
	if !errors.Is(err, domain.ErrUserInactive) {
		t.Errorf("err = %v, want %v", err, domain.ErrUserInactive)
	}
}

func TestAuthenticate(t *testing.T) {
	svc, clk, _ := newTestService(t)
	user := createTechUser(t, svc)
	ctx := context.Background()

	result, err := svc.Login(ctx, domain.LoginRequest{Email: "tech@municipio.pt", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	got, session, err := svc.Authenticate(ctx, result.RawToken)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if got.ID != user.ID || session.UserID != user.ID {
		t.Error("authenticate resolved the wrong user")
	}

	if _, _, err := svc.Authenticate(ctx, "bogus-token"); !errors.Is(err, domain.ErrInvalidSession) {
		t.Errorf("bogus token err = %v", err)
	}

	clk.Advance(3 * time.Hour)
	if _, _, err := svc.Authenticate(ctx, result.RawToken); !errors.Is(err, domain.ErrSessionExpired) {
		t.Errorf("expired session err = %v", err)
	}
}

func TestAuthenticateRevokedSession(t *testing.T) {
	svc, _, _ := newTestService(t)
	createTechUser(t, svc)
	ctx := context.Background()

	result, err := svc.Login(ctx, domain.LoginRequest{Email: "tech@municipio.pt", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := svc.Logout(ctx, result.RawToken); err != nil {
		t.Fatalf("logout: %v", err)
	}

	if _, _, err := svc.Authenticate(ctx, result.RawToken); !errors.Is(err, domain.ErrSessionRevoked) {
		t.Errorf("err = %v, want %v", err, domain.ErrSessionRevoked)
	}
}

func TestAuthenticateSeesRoleChanges(t *testing.T) {
	svc, _, dbConn := newTestService(t)
	user := createTechUser(t, svc)
	ctx := context.Background()

	result, err := svc.Login(ctx, domain.LoginRequest{Email: "tech@municipio.pt", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	err = dbConn.Model(&domain.User{}).Where("id = ?", user.ID).Update("role", domain.RoleAdmin).Error
	if err != nil {
		t.Fatalf("update role: %v", err)
	}

	got, _, err := svc.Authenticate(ctx, result.RawToken)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if got.Role != domain.RoleAdmin {
		t.Errorf("role = %s, want the fresh value", got.Role)
	}
}

func TestChangePassword(t *testing.T) {
	svc, _, _ := newTestService(t)
	user := createTechUser(t, svc)
	ctx := context.Background()

	if err := svc.ChangePassword(ctx, user.ID, "tiny"); !errors.Is(err, domain.ErrWeakPassword) {
		t.Errorf("err = %v, want %v", err, domain.ErrWeakPassword)
	}

	if err := svc.ChangePassword(ctx, user.ID, "battery-staple"); err != nil {
		t.Fatalf("change password: %v", err)
	}

	if _, err := svc.Login(ctx, domain.LoginRequest{Email: "tech@municipio.pt", Password: "correct-horse"}); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("old password still valid: %v", err)
	}
	if _, err := svc.Login(ctx, domain.LoginRequest{Email: "tech@municipio.pt", Password: "battery-staple"}); err != nil {
		t.Errorf("new password rejected: %v", err)
	}
}

func TestSetActiveUnknownUser(t *testing.T) {
	svc, _, _ := newTestService(t)

	err := svc.SetActive(context.Background(), snowflake.ID(99), true)
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("err = %v, want %v", err, domain.ErrUserNotFound)
	}
}
