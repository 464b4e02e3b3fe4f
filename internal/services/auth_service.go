package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sjperalta/sacco-api/internal/config"
)

// Staff roles
const (
	RoleAdmin   = "admin"
	RoleOfficer = "officer"
)

// ErrInvalidToken is returned for tokens that fail signature or claim checks
var ErrInvalidToken = errors.New("invalid token")

// ErrTokenExpired is returned for tokens past their expiry
var ErrTokenExpired = errors.New("token has expired")

// StaffClaims are the claims carried by a staff token
type StaffClaims struct {
	StaffID uint   `json:"staff_id"`
	Name    string `json:"name"`
	Role    string `json:"role"`
	jwt.RegisteredClaims
}

// IsValidRole reports whether role is a known staff role
func IsValidRole(role string) bool {
	return role == RoleAdmin || role == RoleOfficer
}

// AuthService mints and verifies staff tokens
type AuthService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(cfg *config.Config) *AuthService {
	return &AuthService{
		secret: []byte(cfg.JWTSecret),
		ttl:    time.Duration(cfg.JWTExpirationHours) * time.Hour,
		now:    time.Now,
	}
}

// IssueToken signs a token for a staff member. A zero ttl uses the
// configured expiration.
func (s *AuthService) IssueToken(staffID uint, name, role string, ttl time.Duration) (string, time.Time, error) {
	if len(s.secret) == 0 {
		return "", time.Time{}, errors.New("JWT_SECRET is not set")
	}
	role = strings.ToLower(strings.TrimSpace(role))
	if !IsValidRole(role) {
		return "", time.Time{}, invalid("role must be %s or %s", RoleAdmin, RoleOfficer)
	}
	if ttl <= 0 {
		ttl = s.ttl
	}

	now := s.now()
	expiresAt := now.Add(ttl)
	claims := StaffClaims{
		StaffID: staffID,
		Name:    name,
		Role:    role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("staff:%d", staffID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ParseToken validates a token and returns its claims
func (s *AuthService) ParseToken(tokenString string) (*StaffClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &StaffClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*StaffClaims)
	if !ok || !token.Valid || !IsValidRole(claims.Role) {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
