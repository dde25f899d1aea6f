package services

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/amangirdhar210/order-processing-system/errors"
	"github.com/amangirdhar210/order-processing-system/models"
	"github.com/amangirdhar210/order-processing-system/repository"
)

// AuthService verifies credentials and issues tokens.
type AuthService struct {
	userRepo repository.UserRepository
	jwt      *JWTService
	logger   *zap.Logger
}

func NewAuthService(userRepo repository.UserRepository, jwt *JWTService, logger *zap.Logger) *AuthService {
	return &AuthService{userRepo: userRepo, jwt: jwt, logger: logger}
}

// Login checks the email/password pair and returns a signed token with the
// user's profile. A missing user and a bad password produce the same error
// so callers cannot probe for registered emails.
func (s *AuthService) Login(ctx context.Context, req *models.LoginUserRequest) (*models.LoginUserResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		s.logger.Error("login lookup failed", zap.Error(err))
		return nil, apperrors.Wrap(apperrors.CodeInternalError, err)
	}
	if user == nil {
		return nil, apperrors.New(apperrors.CodeInvalidCredentials)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, apperrors.New(apperrors.CodeInvalidCredentials)
	}

	token, err := s.jwt.Generate(user.UserID, user.FirstName, user.Role)
	if err != nil {
		s.logger.Error("token generation failed", zap.Error(err))
		return nil, apperrors.Wrap(apperrors.CodeInternalError, err)
	}

	return &models.LoginUserResponse{
		Token: token,
		User: ToUserDTO(user),
	}, nil
}
