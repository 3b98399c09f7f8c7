package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Роли участников процесса перевозки
const (
	RoleAdmin    = "admin"    // Оператор логистики
	RoleClient   = "client"   // Клиент, владелец контейнера
	RoleCarrier  = "carrier"  // Перевозчик, водитель грузовика
	RoleInternal = "internal" // Другой сервис
)

// TokenClaims содержит данные пользователя и стандартные JWT claims
type TokenClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Config содержит настройки для JWT токенов
type Config struct {
	SigningKey     string
	TokenTTL       time.Duration
	SigningMethod  jwt.SigningMethod
	TokenIssuer    string
	TokenAudiences []string
}

func NewConfig(signingKey string) *Config {
	return &Config{
		SigningKey:     signingKey,
		TokenTTL:       24 * time.Hour,
		SigningMethod:  jwt.SigningMethodHS256,
		TokenIssuer:    "auth-service",
		TokenAudiences: []string{"logistics"},
	}
}

// JWTManager выпускает и проверяет JWT токены
type JWTManager struct {
	config *Config
}

func NewJWTManager(config *Config) *JWTManager {
	return &JWTManager{
		config: config,
	}
}

// GenerateToken создаёт подписанный токен с ролью и email пользователя
func (m *JWTManager) GenerateToken(userID uint, email, role string) (string, error) {
	if !IsKnownRole(role) {
		return "", fmt.Errorf("неизвестная роль: %q", role)
	}

	now := time.Now()
	claims := TokenClaims{
		UserID: userID,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    m.config.TokenIssuer,
			Audience:  m.config.TokenAudiences,
		},
	}

	token := jwt.NewWithClaims(m.config.SigningMethod, claims)
	return token.SignedString([]byte(m.config.SigningKey))
}

// ParseToken проверяет подпись, срок действия и аудиторию токена
func (m *JWTManager) ParseToken(tokenString string) (*TokenClaims, error) {
	opts := []jwt.ParserOption{jwt.WithExpirationRequired()}
	if len(m.config.TokenAudiences) > 0 {
		opts = append(opts, jwt.WithAudience(m.config.TokenAudiences[0]))
	}

	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("неожиданный метод подписи: %v", token.Header["alg"])
		}
		return []byte(m.config.SigningKey), nil
	}, opts...)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		return nil, errors.New("недействительный токен")
	}
	if !IsKnownRole(claims.Role) {
		return nil, fmt.Errorf("недопустимая роль в токене: %q", claims.Role)
	}
	return claims, nil
}

func IsKnownRole(role string) bool {
	switch strings.ToLower(role) {
	case RoleAdmin, RoleClient, RoleCarrier, RoleInternal:
		return true
	}
	return false
}
