package services

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	"secure-share-api/internal/application/ports"
	"secure-share-api/internal/domain/errs"
	"secure-share-api/internal/domain/user"
	"secure-share-api/internal/infrastructure/jwt"
)

var ErrFailedToGenerateToken = errors.New("failed to generate token")

type AuthService struct {
	jwtService *jwt.Service
}

func NewAuthService(
	jwtService *jwt.Service,
) ports.Auth {
	return &AuthService{
		jwtService: jwtService,
	}
}

// GenerateToken checks the password against u. A nil user fails exactly like a
// wrong password so callers cannot tell the two apart.
func (as *AuthService) GenerateToken(u *user.User, requestPassword string) (string, error) {
	if u == nil {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(requestPassword))
		return "", errs.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(requestPassword)); err != nil {
		return "", errs.ErrInvalidCredentials
	}

	token, err := as.jwtService.GenerateJWT(u.UUID.String(), u.Role, as.jwtService.TTL())
	if err != nil {
		return "", ErrFailedToGenerateToken
	}

	return token, nil
}

// dummyHash keeps unknown-email logins as slow as wrong-password ones.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("secure-share-timing-guard"), bcrypt.DefaultCost)
