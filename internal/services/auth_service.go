package services

import (
	"context"
	"errors"
	"net/http"
	"time"

	"coaching-messenger/config"
	messenger_errors "coaching-messenger/pkg/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AuthService verifies access tokens issued by the platform's identity
// service. Issuing tokens happens elsewhere.
type AuthService struct {
	jwtSecret []byte
}

func NewAuthService(cfg *config.Config) *AuthService {
	return &AuthService{jwtSecret: []byte(cfg.JWTSecret)}
}

type AccessClaims struct {
	UserID    string `json:"sub"`
	SessionID string `json:"sid,omitempty"`
	jwt.RegisteredClaims
}

func (s *AuthService) ParseAccessToken(tokenString string) (AccessClaims, error) {
	if tokenString == "" {
		return AccessClaims{}, messenger_errors.ErrUnauthorized
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, messenger_errors.ErrUnauthorized
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return AccessClaims{}, messenger_errors.ErrUnauthorized
	}

	claims, ok := parsed.Claims.(*AccessClaims)
	if !ok || !parsed.Valid {
		return AccessClaims{}, messenger_errors.ErrUnauthorized
	}

	return *claims, nil
}

// Authenticate parses the token and returns the user id from its sub claim.
func (s *AuthService) Authenticate(tokenString string) (uuid.UUID, error) {
	claims, err := s.ParseAccessToken(tokenString)
	if err != nil {
		return uuid.Nil, err
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil || userID == uuid.Nil {
		return uuid.Nil, messenger_errors.ErrUnauthorized
	}
	return userID, nil
}

// SignAccessToken mints an HS256 token for userID. Used by tests and local
// tooling.
func (s *AuthService) SignAccessToken(userID uuid.UUID, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := AccessClaims{
		UserID: userID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
}

func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, messenger_errors.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, messenger_errors.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, messenger_errors.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, messenger_errors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, messenger_errors.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, messenger_errors.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, messenger_errors.ErrTransient):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

type ctxKey string

var userIDKey ctxKey = "user_id"

func WithUserContext(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	value := ctx.Value(userIDKey)
	if value == nil {
		return uuid.Nil, false
	}
	userID, ok := value.(uuid.UUID)
	return userID, ok
}
