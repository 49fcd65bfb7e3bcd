package service

import (
	"errors"
	"fmt"
	"time"

	"anoa.com/learnhub/internal/entity"
	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid or expired token")

type sessionClaims struct {
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

type TokenService interface {
	Issue(user *entity.User) (string, int64, error)
	Parse(tokenString string) (Claims, error)
}

type tokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenService(secret string, ttl time.Duration) TokenService {
	return &tokenService{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a session token whose subject is the user's external identity reference.
func (s *tokenService) Issue(user *entity.User) (string, int64, error) {
	if user.ExternalID == nil || *user.ExternalID == "" {
		return "", 0, fmt.Errorf("user %s has no external identity", user.ID)
	}

	now := s.now()
	expiresAt := now.Add(s.ttl)

	claims := sessionClaims{
		Email: user.EmailOrEmpty(),
		Name:  user.FullName(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   *user.ExternalID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	if user.ImageURL != nil {
		claims.Picture = *user.ImageURL
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", 0, err
	}

	return signed, expiresAt.Unix(), nil
}

func (s *tokenService) Parse(tokenString string) (Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &sessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return Claims{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(*sessionClaims)
	if !ok || claims.Subject == "" {
		return Claims{}, ErrInvalidToken
	}

	return Claims{
		Subject: claims.Subject,
		Email:   claims.Email,
		Name:    claims.Name,
		Picture: claims.Picture,
	}, nil
}
