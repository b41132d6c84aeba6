package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/tranqh/formintake/internal/domain"
	"github.com/tranqh/formintake/internal/logger"
)

// Auth errors surfaced to the HTTP layer.
var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrUserInactive       = errors.New("user account is inactive")
)

// UserStore is the account surface the auth service needs.
type UserStore interface {
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) error
}

// Claims is the JWT payload issued on login.
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// dummyHash is a throwaway bcrypt hash compared against when the username
// does not exist.
var dummyHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")

// AuthService issues and validates bearer tokens for operator accounts.
type AuthService struct {
	users  UserStore
	secret []byte
	expiry time.Duration
	log    *logger.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(users UserStore, secret string, expiry time.Duration, log *logger.Logger) *AuthService {
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	return &AuthService{
		users:  users,
		secret: []byte(secret),
		expiry: expiry,
		log:    log,
	}
}

// SeedAdmin creates the bootstrap admin account when it does not exist yet.
// Called at startup; a blank username disables seeding.
func (s *AuthService) SeedAdmin(ctx context.Context, username, password string) error {
	if username == "" {
		return nil
	}
	existing, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}
	if err := s.users.Create(ctx, &domain.User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: string(hash),
		Role:         "admin",
		Active:       true,
		CreatedAt:    time.Now().UTC(),
	}); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}
	s.log.WithField("username", username).Info("Seeded admin account")
	return nil
}

// Login verifies the credentials and returns a signed token plus the user.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, *domain.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return "", nil, err
	}
	if user == nil {
		// Burn a hash comparison so absent and wrong-password lookups take
		// comparable time.
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return "", nil, ErrInvalidCredentials
	}
	if !user.Active {
		return "", nil, ErrUserInactive
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	now := time.Now().UTC()
	claims := Claims{
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return token, user, nil
}

// Validate parses and verifies a bearer token, returning its claims.
func (s *AuthService) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
