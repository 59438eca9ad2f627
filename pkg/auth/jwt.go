package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// Ошибки разбора токенов
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token is expired")
	ErrNotWSTicket  = errors.New("token is not a websocket ticket")
)

// usageWSTicket помечает короткоживущий тикет для WebSocket-подключения
const usageWSTicket = "ws_ticket"

// JWTCustomClaims содержит пользовательские поля для токена
type JWTCustomClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
	// Usage отличает WS-тикеты от access-токенов
	Usage string `json:"usage,omitempty"`
}

// JWTService предоставляет методы для работы с JWT
type JWTService struct {
	secret         []byte
	tokenExpiry    time.Duration
	wsTicketExpiry time.Duration
}

// NewJWTService создает новый сервис JWT
func NewJWTService(secret string, expirationHrs int, wsTicketExpirySec int) (*JWTService, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT secret is required")
	}
	if expirationHrs <= 0 {
		expirationHrs = 24
	}
	wsExpiry := time.Duration(wsTicketExpirySec) * time.Second
	if wsExpiry <= 0 {
		wsExpiry = 60 * time.Second
	}

	return &JWTService{
		secret:         []byte(secret),
		tokenExpiry:    time.Duration(expirationHrs) * time.Hour,
		wsTicketExpiry: wsExpiry,
	}, nil
}

// GenerateToken выпускает access-токен для пользователя
func (s *JWTService) GenerateToken(userID uint, email string) (string, error) {
	return s.generate(userID, email, s.tokenExpiry, "")
}

// GenerateWSTicket выпускает короткоживущий тикет для WebSocket-подключения.
// Тикет передаётся в query-параметре, поэтому живёт секунды, а не часы.
func (s *JWTService) GenerateWSTicket(userID uint, email string) (string, error) {
	return s.generate(userID, email, s.wsTicketExpiry, usageWSTicket)
}

func (s *JWTService) generate(userID uint, email string, expiry time.Duration, usage string) (string, error) {
	now := time.Now()
	claims := JWTCustomClaims{
		UserID: userID,
		Email:  email,
		Usage:  usage,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ParseToken проверяет access-токен и возвращает его claims
func (s *JWTService) ParseToken(tokenString string) (*JWTCustomClaims, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Usage == usageWSTicket {
		// WS-тикет нельзя использовать как access-токен
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ParseWSTicket проверяет WS-тикет и возвращает его claims
func (s *JWTService) ParseWSTicket(ticket string) (*JWTCustomClaims, error) {
	claims, err := s.parse(ticket)
	if err != nil {
		return nil, err
	}
	if claims.Usage != usageWSTicket {
		return nil, ErrNotWSTicket
	}
	return claims, nil
}

func (s *JWTService) parse(tokenString string) (*JWTCustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTCustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*JWTCustomClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
