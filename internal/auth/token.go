package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the payload of a session cookie. The registered ID (jti) is the
// session ID; the remaining fields mirror the session record.
type Claims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// TokenSigner signs and verifies session cookie values.
type TokenSigner struct {
	secret []byte
}

// NewTokenSigner creates a new signer with the given HMAC secret.
func NewTokenSigner(secret string) *TokenSigner {
	return &TokenSigner{
		secret: []byte(secret),
	}
}

// Sign issues a token bound to the session that expires at expiresAt.
func (s *TokenSigner) Sign(session *Session, expiresAt time.Time) (string, error) {
	claims := &Claims{
		UserID:   session.UserID,
		Username: session.Username,
		Role:     session.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        session.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(session.CreatedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Parse verifies the signature and expiry of a token and returns its claims.
func (s *TokenSigner) Parse(tokenString string) (*Claims, error) {
	return s.parse(tokenString)
}

// ParseIgnoringExpiry verifies only the signature. Logout uses it so an
// expired cookie can still name the record to delete.
func (s *TokenSigner) ParseIgnoringExpiry(tokenString string) (*Claims, error) {
	return s.parse(tokenString, jwt.WithoutClaimsValidation())
}

func (s *TokenSigner) parse(tokenString string, opts ...jwt.ParserOption) (*Claims, error) {
	opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.ID == "" {
		return nil, errors.New("session ID not found")
	}
	return claims, nil
}
