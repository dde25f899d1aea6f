package services

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// JWTService issues and validates HS256 bearer tokens carrying the caller's
// identity and role.
type JWTService struct {
	secret []byte
	expiry time.Duration
}

func NewJWTService(secret string, expirationHours int) *JWTService {
	return &JWTService{
		secret: []byte(secret),
		expiry: time.Duration(expirationHours) * time.Hour,
	}
}

// Generate creates a token with user ID, display name, and role claims.
func (j *JWTService) Generate(userID, userName, role string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id":   userID,
		"user_name": userName,
		"role":      role,
		"exp":       now.Add(j.expiry).Unix(),
		"iat":       now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.secret)
}

// Validate parses and verifies a token, returning its claims.
func (j *JWTService) Validate(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return j.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
