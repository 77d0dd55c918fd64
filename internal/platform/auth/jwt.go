package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/odonto/odonto/internal/platform/tenant"
)

const tokenIssuer = "odonto"

// Identity is what a verified token tells us about the caller.
type Identity struct {
	Subject   string
	Email     string
	EmpresaID tenant.ID
	Cargo     string
}

// TokenVerifier turns a bearer token into an Identity.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// Claims are the JWT claims issued by /auth/login.
type Claims struct {
	jwt.RegisteredClaims
	Email     string      `json:"email"`
	EmpresaID interface{} `json:"empresa_id,omitempty"`
	Cargo     string      `json:"cargo,omitempty"`
}

// JWTManager issues and verifies HS256 tokens.
type JWTManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewJWTManager(secret string, ttl time.Duration) *JWTManager {
	return &JWTManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for p and returns it with its expiry.
func (m *JWTManager) Issue(p *Principal) (string, time.Time, error) {
	if len(m.secret) == 0 {
		return "", time.Time{}, errors.New("jwt secret not configured")
	}
	subject := p.AuthUserID
	if subject == "" {
		subject = p.ID.String()
	}
	now := m.now()
	exp := now.Add(m.ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Email:     p.Email,
		EmpresaID: int64(p.EmpresaID),
		Cargo:     p.Cargo,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

func (m *JWTManager) Verify(_ context.Context, tokenStr string) (*Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if claims.Subject == "" {
		return nil, errors.New("invalid token: missing subject")
	}

	id := &Identity{Subject: claims.Subject, Email: claims.Email, Cargo: claims.Cargo}
	if claims.EmpresaID != nil {
		empresaID, err := tenant.Parse(claims.EmpresaID)
		if err != nil {
			return nil, fmt.Errorf("invalid token: %w", err)
		}
		id.EmpresaID = empresaID
	}
	return id, nil
}
