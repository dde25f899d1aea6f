package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/amangirdhar210/order-processing-system/errors"
	"github.com/amangirdhar210/order-processing-system/models"
	"github.com/amangirdhar210/order-processing-system/repository"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, userID string) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetAll(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserRepository) Delete(ctx context.Context, userID, email string) error {
	args := m.Called(ctx, userID, email)
	return args.Error(0)
}

func TestRegisterUser(t *testing.T) {
	ctx := context.Background()

	req := &models.RegisterUserRequest{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Password:  "super-secret-1",
	}

	t.Run("Success - hashes password and assigns customer role", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		svc := NewUserService(userRepo, zap.NewNop())

		userRepo.On("GetByEmail", mock.Anything, "ada@example.com").Return(nil, nil).Once()
		userRepo.On("Create", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
			if u.Role != models.RoleUser || u.UserID == "" {
				return false
			}
			return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("super-secret-1")) == nil
		})).Return(nil).Once()

		err := svc.RegisterUser(ctx, req)

		require.NoError(t, err)
		userRepo.AssertExpectations(t)
	})

	t.Run("Failure - email already registered", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		svc := NewUserService(userRepo, zap.NewNop())

		userRepo.On("GetByEmail", mock.Anything, "ada@example.com").Return(&models.User{UserID: "u1"}, nil).Once()

		err := svc.RegisterUser(ctx, req)

		assertAppError(t, err, apperrors.CodeUserAlreadyExists)
		userRepo.AssertNotCalled(t, "Create")
	})

	t.Run("Failure - lost uniqueness race maps to already exists", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		svc := NewUserService(userRepo, zap.NewNop())

		userRepo.On("GetByEmail", mock.Anything, "ada@example.com").Return(nil, nil).Once()
		userRepo.On("Create", mock.Anything, mock.Anything).Return(repository.ErrAlreadyExists).Once()

		err := svc.RegisterUser(ctx, req)

		assertAppError(t, err, apperrors.CodeUserAlreadyExists)
	})
}

func TestRegisterStaff(t *testing.T) {
	ctx := context.Background()

	t.Run("Success - carries requested role", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		svc := NewUserService(userRepo, zap.NewNop())

		userRepo.On("GetByEmail", mock.Anything, "ops@example.com").Return(nil, nil).Once()
		userRepo.On("Create", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
			return u.Role == models.RoleStaff
		})).Return(nil).Once()

		err := svc.RegisterStaff(ctx, &models.CreateStaffRequest{
			FirstName: "Ops",
			LastName:  "Person",
			Email:     "ops@example.com",
			Password:  "super-secret-1",
			Role:      models.RoleStaff,
		})

		require.NoError(t, err)
		userRepo.AssertExpectations(t)
	})
}

func TestDeleteUser(t *testing.T) {
	ctx := context.Background()

	t.Run("Success - deletes both projections by id and email", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		svc := NewUserService(userRepo, zap.NewNop())

		userRepo.On("GetByID", mock.Anything, "u1").Return(&models.User{UserID: "u1", Email: "ada@example.com"}, nil).Once()
		userRepo.On("Delete", mock.Anything, "u1", "ada@example.com").Return(nil).Once()

		err := svc.DeleteUser(ctx, "u1")

		require.NoError(t, err)
		userRepo.AssertExpectations(t)
	})

	t.Run("Failure - unknown user", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		svc := NewUserService(userRepo, zap.NewNop())

		userRepo.On("GetByID", mock.Anything, "ghost").Return(nil, nil).Once()

		err := svc.DeleteUser(ctx, "ghost")

		assertAppError(t, err, apperrors.CodeUserNotFound)
		userRepo.AssertNotCalled(t, "Delete")
	})
}

func TestGetUserByID(t *testing.T) {
	userRepo := new(MockUserRepository)
	svc := NewUserService(userRepo, zap.NewNop())

	userRepo.On("GetByID", mock.Anything, "ghost").Return(nil, nil).Once()

	_, err := svc.GetUserByID(context.Background(), "ghost")

	assertAppError(t, err, apperrors.CodeUserNotFound)
}

func TestToUserDTO(t *testing.T) {
	dto := ToUserDTO(&models.User{
		UserID:    "u1",
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Password:  "hash",
		Role:      models.RoleUser,
	})

	assert.Equal(t, "u1", dto.ID)
	assert.Equal(t, "ada@example.com", dto.Email)
}
