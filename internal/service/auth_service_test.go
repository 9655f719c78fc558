package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/clinicdesk/clinicdesk/internal/config"
	"github.com/clinicdesk/clinicdesk/internal/domain"
	"github.com/clinicdesk/clinicdesk/pkg/auth"
)

func newAuthEnv(t *testing.T) (*AuthService, *memUsers) {
	t.Helper()
	log := zap.NewNop()
	users := newMemUsers()
	jwtManager := auth.NewJWTManager(config.JWTConfig{
		Secret:          "test-secret-not-for-production",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: time.Hour,
		Issuer:          "clinicdesk-test",
	})
	audit := NewAuditService(memAudit{}, collectorForTests(), log)
	return NewAuthService(users, jwtManager, audit, log), users
}

func seedUser(t *testing.T, users *memUsers, email, password string, role domain.Role) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	patientID := uuid.New()
	u := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		PatientID:    &patientID,
		IsActive:     true,
	}
	users.byID[u.ID] = u
	return u
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("valid credentials yield a token pair with linked claims", func(t *testing.T) {
		svc, users := newAuthEnv(t)
		u := seedUser(t, users, "ife.balogun@example.test", "correct-password", domain.RolePatient)

		pair, err := svc.Login(ctx, u.Email, "correct-password", "127.0.0.1")
		require.NoError(t, err)
		assert.NotEmpty(t, pair.AccessToken)
		assert.NotEmpty(t, pair.RefreshToken)
		assert.NotNil(t, u.LastLoginAt)
	})

	t.Run("wrong password", func(t *testing.T) {
		svc, users := newAuthEnv(t)
		u := seedUser(t, users, "ife.balogun@example.test", "correct-password", domain.RolePatient)

		_, err := svc.Login(ctx, u.Email, "wrong-password", "127.0.0.1")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		svc, _ := newAuthEnv(t)
		_, err := svc.Login(ctx, "nobody@example.test", "whatever", "127.0.0.1")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		// The storage-layer sentinel must not leak to the caller.
		assert.NotErrorIs(t, err, domain.ErrUserNotFound)
	})

	t.Run("inactive account", func(t *testing.T) {
		svc, users := newAuthEnv(t)
		u := seedUser(t, users, "ife.balogun@example.test", "correct-password", domain.RolePatient)
		u.IsActive = false

		_, err := svc.Login(ctx, u.Email, "correct-password", "127.0.0.1")
		assert.ErrorIs(t, err, ErrAccountInactive)
	})

	t.Run("unknown role is rejected", func(t *testing.T) {
		svc, users := newAuthEnv(t)
		u := seedUser(t, users, "ife.balogun@example.test", "correct-password", domain.Role("superuser"))

		_, err := svc.Login(ctx, u.Email, "correct-password", "127.0.0.1")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestAuthService_RefreshToken(t *testing.T) {
	ctx := context.Background()

	svc, users := newAuthEnv(t)
	u := seedUser(t, users, "ife.balogun@example.test", "correct-password", domain.RolePatient)

	pair, err := svc.Login(ctx, u.Email, "correct-password", "127.0.0.1")
	require.NoError(t, err)

	t.Run("valid refresh token issues a fresh pair", func(t *testing.T) {
		fresh, err := svc.RefreshToken(ctx, pair.RefreshToken)
		require.NoError(t, err)
		assert.NotEmpty(t, fresh.AccessToken)
	})

	t.Run("access token is not accepted as refresh token", func(t *testing.T) {
		_, err := svc.RefreshToken(ctx, pair.AccessToken)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("deactivated user cannot refresh", func(t *testing.T) {
		u.IsActive = false
		_, err := svc.RefreshToken(ctx, pair.RefreshToken)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}
