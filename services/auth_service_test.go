package services

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/amangirdhar210/order-processing-system/errors"
	"github.com/amangirdhar210/order-processing-system/models"
)

func TestLogin(t *testing.T) {
	ctx := context.Background()
	jwtService := NewJWTService("test-secret", 1)

	hashed, err := bcrypt.GenerateFromPassword([]byte("super-secret-1"), bcrypt.MinCost)
	require.NoError(t, err)

	storedUser := &models.User{
		UserID:    "u1",
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Password:  string(hashed),
		Role:      models.RoleUser,
	}

	t.Run("Success - returns token with identity claims", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		svc := NewAuthService(userRepo, jwtService, zap.NewNop())

		userRepo.On("GetByEmail", mock.Anything, "ada@example.com").Return(storedUser, nil).Once()

		resp, err := svc.Login(ctx, &models.LoginUserRequest{Email: "ada@example.com", Password: "super-secret-1"})

		require.NoError(t, err)
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, "u1", resp.User.ID)

		claims, err := jwtService.Validate(resp.Token)
		require.NoError(t, err)
		assert.Equal(t, "u1", claims["user_id"])
		assert.Equal(t, "Ada", claims["user_name"])
		assert.Equal(t, models.RoleUser, claims["role"])
	})

	t.Run("Failure - wrong password", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		svc := NewAuthService(userRepo, jwtService, zap.NewNop())

		userRepo.On("GetByEmail", mock.Anything, "ada@example.com").Return(storedUser, nil).Once()

		_, err := svc.Login(ctx, &models.LoginUserRequest{Email: "ada@example.com", Password: "wrong"})

		assertAppError(t, err, apperrors.CodeInvalidCredentials)
	})

	t.Run("Failure - unknown email indistinguishable from wrong password", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		svc := NewAuthService(userRepo, jwtService, zap.NewNop())

		userRepo.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, nil).Once()

		_, err := svc.Login(ctx, &models.LoginUserRequest{Email: "ghost@example.com", Password: "whatever"})

		assertAppError(t, err, apperrors.CodeInvalidCredentials)
	})
}

func TestJWTService(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		svc := NewJWTService("test-secret", 1)

		token, err := svc.Generate("u1", "Ada", models.RoleAdmin)
		require.NoError(t, err)

		claims, err := svc.Validate(token)
		require.NoError(t, err)
		assert.Equal(t, models.RoleAdmin, claims["role"])
	})

	t.Run("rejects token signed with another secret", func(t *testing.T) {
		other := NewJWTService("other-secret", 1)
		token, err := other.Generate("u1", "Ada", models.RoleUser)
		require.NoError(t, err)

		_, err = NewJWTService("test-secret", 1).Validate(token)
		assert.Error(t, err)
	})

	t.Run("rejects expired token", func(t *testing.T) {
		claims := jwt.MapClaims{
			"user_id":   "u1",
			"user_name": "Ada",
			"role":      models.RoleUser,
			"exp":       time.Now().Add(-time.Hour).Unix(),
			"iat":       time.Now().Add(-2 * time.Hour).Unix(),
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
		require.NoError(t, err)

		_, err = NewJWTService("test-secret", 1).Validate(token)
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	})

	t.Run("rejects unsigned token", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"user_id": "u1"}).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = NewJWTService("test-secret", 1).Validate(token)
		assert.Error(t, err)
	})
}
