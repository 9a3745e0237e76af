// internal/auth/identity.go
package auth

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jason-s-yu/crazyeights/internal/models"
)

// ErrInvalidToken is returned for tokens that fail signature, expiry or claim checks.
var ErrInvalidToken = errors.New("invalid identity token")

// Issuer signs and verifies player identity tokens. A token binds one player id and display name
// to a WebSocket connection.
type Issuer struct {
	private ed25519.PrivateKey
	public  ed25519.PublicKey
	ttl     time.Duration
}

// NewIssuer generates a fresh ed25519 key pair. Tokens expire after ttl, or never when ttl is 0.
func NewIssuer(ttl time.Duration) (*Issuer, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate ed25519 key pair: %w", err)
	}
	return &Issuer{private: priv, public: pub, ttl: ttl}, nil
}

// NewIssuerFromFiles loads a raw ed25519 key pair from disk.
func NewIssuerFromFiles(privatePath, publicPath string, ttl time.Duration) (*Issuer, error) {
	priv, err := os.ReadFile(privatePath)
	if err != nil {
		return nil, fmt.Errorf("read private key file: %w", err)
	}
	pub, err := os.ReadFile(publicPath)
	if err != nil {
		return nil, fmt.Errorf("read public key file: %w", err)
	}
	if len(priv) != ed25519.PrivateKeySize || len(pub) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("key files are not raw ed25519 keys")
	}
	return &Issuer{private: priv, public: pub, ttl: ttl}, nil
}

// Issue creates a signed token with sub = player id and name = display name.
func (i *Issuer) Issue(p models.PlayerSnapshot) (string, error) {
	claims := jwt.MapClaims{
		"sub":  p.ID.String(),
		"name": p.Name,
		"iat":  time.Now().Unix(),
	}
	if i.ttl > 0 {
		claims["exp"] = time.Now().Add(i.ttl).Unix()
	}
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	return token.SignedString(i.private)
}

// Authenticate verifies a token and returns the identity it carries.
func (i *Issuer) Authenticate(tokenString string) (models.PlayerSnapshot, error) {
	t, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.public, nil
	})
	if err != nil {
		return models.PlayerSnapshot{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok || !t.Valid {
		return models.PlayerSnapshot{}, ErrInvalidToken
	}
	sub, ok := claims["sub"].(string)
	if !ok {
		return models.PlayerSnapshot{}, fmt.Errorf("%w: missing sub", ErrInvalidToken)
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return models.PlayerSnapshot{}, fmt.Errorf("%w: sub is not a uuid", ErrInvalidToken)
	}
	name, _ := claims["name"].(string)
	return models.PlayerSnapshot{ID: id, Name: name}, nil
}
