package service

import (
	"errors"
	"strconv"

	"edupulse/config"
	"edupulse/internal/auth"
	"edupulse/internal/models"
	"edupulse/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

type AuthService struct {
	users *repository.UserRepository
	jwt   *config.JWTConfig
}

func NewAuthService(users *repository.UserRepository, jwtCfg *config.JWTConfig) *AuthService {
	return &AuthService{users: users, jwt: jwtCfg}
}

// Session is a token pair handed to a logged-in client.
type Session struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         *models.User `json:"user"`
}

func (s *AuthService) Login(email, password string) (*Session, error) {
	user, err := s.users.GetByEmail(email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.IssueSession(user)
}

// IssueSession mints a token pair for an already-authenticated user. Also
// used to auto-login a freshly provisioned account after payment.
func (s *AuthService) IssueSession(user *models.User) (*Session, error) {
	access, err := auth.GenerateAccessToken(s.jwt, user.ID, user.Email, user.Role)
	if err != nil {
		return nil, err
	}
	refresh, err := auth.GenerateRefreshToken(s.jwt, user.ID)
	if err != nil {
		return nil, err
	}
	return &Session{AccessToken: access, RefreshToken: refresh, User: user}, nil
}

func (s *AuthService) Refresh(refreshToken string) (*Session, error) {
	token, err := jwt.ParseWithClaims(refreshToken, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.jwt.RefreshSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, auth.ErrInvalidToken
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return nil, auth.ErrInvalidToken
	}
	userID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return nil, auth.ErrInvalidToken
	}
	user, err := s.users.GetByID(uint(userID))
	if err != nil {
		return nil, auth.ErrInvalidToken
	}
	return s.IssueSession(user)
}
