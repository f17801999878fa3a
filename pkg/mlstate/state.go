package mlstate

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Paquete mlstate firma y verifica el parámetro state del flujo OAuth de
// MercadoLibre: un JWT HS256 de vida corta que ata el callback al actor local
// que inició la autorización, sin estado del lado del servidor.

const purpose = "ml_oauth_state"

// Signer firma y verifica states OAuth.
type Signer struct {
	secret []byte
	ttl    time.Duration
}

// NewSigner construye el firmador con el secreto HMAC de la app.
func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret), ttl: 10 * time.Minute}
}

// Sign emite un state firmado para el actor que inicia la autorización.
func (s *Signer) Sign(userID string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": userID,
		"pur": purpose,
		"jti": uuid.New().String(),
		"iat": now.Unix(),
		"exp": now.Add(s.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("firmar state OAuth: %w", err)
	}
	return signed, nil
}

// Verify valida el state del callback y devuelve el actor que lo originó.
func (s *Signer) Verify(state string) (string, error) {
	token, err := jwt.Parse(state, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("método de firma inesperado: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("state OAuth inválido: %w", err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || claims["pur"] != purpose {
		return "", fmt.Errorf("state OAuth inválido: propósito incorrecto")
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", fmt.Errorf("state OAuth inválido: sin actor")
	}
	return sub, nil
}
