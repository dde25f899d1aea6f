package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"

	apperrors "github.com/amangirdhar210/order-processing-system/errors"
	"github.com/amangirdhar210/order-processing-system/models"
	"github.com/amangirdhar210/order-processing-system/services"
)

const (
	UserIDKey   = "user_id"
	UserNameKey = "user_name"
	UserRoleKey = "user_role"
)

// Authenticate validates the bearer token and stores the caller's identity
// on the gin context.
func Authenticate(jwtService *services.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abortWith(c, apperrors.New(apperrors.CodeUnauthorized))
			return
		}

		if !strings.HasPrefix(header, "Bearer ") {
			abortWith(c, apperrors.New(apperrors.CodeInvalidToken))
			return
		}
		tokenString := strings.TrimPrefix(header, "Bearer ")

		claims, err := jwtService.Validate(tokenString)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				abortWith(c, apperrors.New(apperrors.CodeTokenExpired))
				return
			}
			abortWith(c, apperrors.New(apperrors.CodeInvalidToken))
			return
		}

		userID, _ := claims["user_id"].(string)
		role, _ := claims["role"].(string)
		if userID == "" || role == "" {
			abortWith(c, apperrors.New(apperrors.CodeInvalidToken))
			return
		}

		c.Set(UserIDKey, userID)
		if name, ok := claims["user_name"].(string); ok {
			c.Set(UserNameKey, name)
		}
		c.Set(UserRoleKey, role)
		c.Next()
	}
}

// RequireRole allows only callers whose role is in the given set.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		role := c.GetString(UserRoleKey)
		if _, ok := allowed[role]; !ok {
			abortWith(c, apperrors.New(apperrors.CodeInsufficientPermissions))
			return
		}
		c.Next()
	}
}

func RequireStaff() gin.HandlerFunc {
	return RequireRole(models.RoleStaff, models.RoleAdmin)
}

func RequireAdmin() gin.HandlerFunc {
	return RequireRole(models.RoleAdmin)
}

// CallerID returns the authenticated user's ID from the context.
func CallerID(c *gin.Context) (string, error) {
	id := c.GetString(UserIDKey)
	if id == "" {
		return "", errors.New("user ID not found in context")
	}
	return id, nil
}

func abortWith(c *gin.Context, err *apperrors.Error) {
	c.JSON(err.Status, err)
	c.Abort()
}
