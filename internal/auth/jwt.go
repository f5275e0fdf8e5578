package auth

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// Claims are the claims issued by the external identity provider.
type Claims struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Identity is the per-connection or per-request identity. Guests carry their
// connection ID as UserID and have no stable cross-session identity.
type Identity struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	IsGuest  bool   `json:"isGuest"`
}

// JWTManager JWT 토큰 검증기
type JWTManager struct {
	secretKey []byte
}

// NewJWTManager JWTManager 생성
func NewJWTManager(secretKey string) *JWTManager {
	return &JWTManager{secretKey: []byte(secretKey)}
}

// Validate 토큰 검증
func (m *JWTManager) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secretKey, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// Identify resolves a realtime connection's identity. An absent token yields a
// guest bound to the connection ID; an invalid token is a hard error and the
// connection must be refused.
func (m *JWTManager) Identify(token, connID string) (Identity, error) {
	if token == "" {
		return Identity{UserID: connID, Username: "Guest", IsGuest: true}, nil
	}

	claims, err := m.Validate(token)
	if err != nil {
		return Identity{}, err
	}

	return Identity{UserID: claims.UserID, Username: claims.Username}, nil
}
