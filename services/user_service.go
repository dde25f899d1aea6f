package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/amangirdhar210/order-processing-system/errors"
	"github.com/amangirdhar210/order-processing-system/models"
	"github.com/amangirdhar210/order-processing-system/repository"
)

// UserService handles account registration and admin user management.
type UserService struct {
	userRepo repository.UserRepository
	logger   *zap.Logger
}

func NewUserService(userRepo repository.UserRepository, logger *zap.Logger) *UserService {
	return &UserService{userRepo: userRepo, logger: logger}
}

// RegisterUser creates a customer account. Email uniqueness is checked up
// front and enforced again by the repository's guarded insert.
func (s *UserService) RegisterUser(ctx context.Context, req *models.RegisterUserRequest) error {
	return s.register(ctx, req.FirstName, req.LastName, req.Email, req.Password, models.RoleUser)
}

// RegisterStaff creates a staff or admin account (admin endpoint only).
func (s *UserService) RegisterStaff(ctx context.Context, req *models.CreateStaffRequest) error {
	return s.register(ctx, req.FirstName, req.LastName, req.Email, req.Password, req.Role)
}

func (s *UserService) register(ctx context.Context, firstName, lastName, email, password, role string) error {
	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil {
		return apperrors.New(apperrors.CodeUserAlreadyExists)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	now := time.Now().Unix()
	user := &models.User{
		UserID:    uuid.NewString(),
		FirstName: firstName,
		LastName:  lastName,
		Email:     email,
		Password:  string(hashed),
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return apperrors.New(apperrors.CodeUserAlreadyExists)
		}
		return err
	}

	s.logger.Info("User registered",
		zap.String("user_id", user.UserID),
		zap.String("role", role),
	)
	return nil
}

func (s *UserService) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.New(apperrors.CodeUserNotFound)
	}
	return user, nil
}

func (s *UserService) GetAllUsers(ctx context.Context) ([]models.User, error) {
	return s.userRepo.GetAll(ctx)
}

// ToUserDTO strips the password hash from a user for API responses.
func ToUserDTO(u *models.User) models.UserDTO {
	return models.UserDTO{
		ID:        u.UserID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// DeleteUser removes both account projections.
func (s *UserService) DeleteUser(ctx context.Context, userID string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return apperrors.New(apperrors.CodeUserNotFound)
	}
	return s.userRepo.Delete(ctx, userID, user.Email)
}
