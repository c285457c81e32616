// Package services, iş mantığı katmanıdır.
// Repository'lerden okur/yazar, handler'lara ve ws katmanına hizmet eder.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/akinalp/hanek/models"
	"github.com/akinalp/hanek/pkg"
	"github.com/akinalp/hanek/repository"
)

// AuthService, kimlik doğrulama iş mantığı interface'i.
//
// ValidateAccessToken hem HTTP middleware hem WS handler tarafından
// kullanılır — WS tarafı bunu kendi TokenVerifier interface'i üzerinden
// görür (implicit interface).
type AuthService interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, req *models.LoginRequest) (string, *models.User, error)
	ValidateAccessToken(tokenString string) (*models.TokenClaims, error)
}

type authService struct {
	userRepo  repository.UserRepository
	jwtSecret []byte
	accessExp time.Duration
}

// NewAuthService, constructor.
// accessExpiryMinutes: access token yaşam süresi (dakika).
func NewAuthService(userRepo repository.UserRepository, jwtSecret string, accessExpiryMinutes int) AuthService {
	return &authService{
		userRepo:  userRepo,
		jwtSecret: []byte(jwtSecret),
		accessExp: time.Duration(accessExpiryMinutes) * time.Minute,
	}
}

// Register, yeni kullanıcı oluşturur.
func (s *authService) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), 12)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		PasswordHash: string(hash),
	}
	if req.Email != "" {
		user.Email = &req.Email
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	user.PasswordHash = ""
	return user, nil
}

// Login, kullanıcıyı doğrular ve access token üretir.
//
// Banlı kullanıcı login olamaz — durable store'daki ban flag'i burada da
// kontrol edilir; ban sadece WS katmanının değil tüm giriş yüzeyinin kuralıdır.
func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (string, *models.User, error) {
	if err := req.Validate(); err != nil {
		return "", nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err)
	}

	user, err := s.userRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return "", nil, fmt.Errorf("%w: invalid credentials", pkg.ErrUnauthorized)
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return "", nil, fmt.Errorf("%w: invalid credentials", pkg.ErrUnauthorized)
	}

	if user.IsBlocked {
		return "", nil, fmt.Errorf("%w: account suspended", pkg.ErrBanned)
	}

	token, err := s.generateAccessToken(user)
	if err != nil {
		return "", nil, err
	}

	user.PasswordHash = ""
	return token, user, nil
}

// ValidateAccessToken, JWT access token'ı doğrular ve claims'i döner.
func (s *authService) ValidateAccessToken(tokenString string) (*models.TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.TokenClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})

	if err != nil {
		return nil, fmt.Errorf("%w: invalid token", pkg.ErrUnauthorized)
	}

	claims, ok := token.Claims.(*models.TokenClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: invalid token claims", pkg.ErrUnauthorized)
	}

	return claims, nil
}

func (s *authService) generateAccessToken(user *models.User) (string, error) {
	now := time.Now()
	claims := &models.TokenClaims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessExp)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "hanek",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}

	return signed, nil
}
