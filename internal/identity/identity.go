// Package identity issues and verifies the signed tokens that carry a
// user's id and admin flag. Credential checks live in a separate service.
package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"quiz-engine-service/internal/domain"
)

const (
	DefaultCookieName = "token"
	DefaultIssuer     = "quiz-engine"
	DefaultTokenTTL   = 7 * 24 * time.Hour
)

// Config controls token signing and where tokens are read from.
type Config struct {
	Secret         string
	Issuer         string
	TokenTTL       time.Duration
	CookieName     string
	CookieFallback bool
}

func (c Config) withDefaults() Config {
	if c.Issuer == "" {
		c.Issuer = DefaultIssuer
	}
	if c.TokenTTL <= 0 {
		c.TokenTTL = DefaultTokenTTL
	}
	if c.CookieName == "" {
		c.CookieName = DefaultCookieName
	}
	return c
}

// Claims is the token payload.
type Claims struct {
	UserID   int64  `json:"user_id"`
	Email    string `json:"email,omitempty"`
	FullName string `json:"full_name,omitempty"`
	IsAdmin  bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

// Identity is the authenticated caller of a request.
type Identity struct {
	UserID   int64
	Email    string
	FullName string
	IsAdmin  bool
}

type ctxKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}

// RequireAdmin returns ErrForbidden unless the identity carries the admin claim.
func RequireAdmin(id Identity) error {
	if !id.IsAdmin {
		return domain.ErrForbidden
	}
	return nil
}

// Issuer signs tokens with HS256.
type Issuer struct {
	cfg Config
	now func() time.Time
}

func NewIssuer(cfg Config) (*Issuer, error) {
	if cfg.Secret == "" {
		return nil, errors.New("identity: empty signing secret")
	}
	return &Issuer{cfg: cfg.withDefaults(), now: time.Now}, nil
}

// Issue returns a signed token for the user and its expiry.
func (i *Issuer) Issue(user domain.User) (string, time.Time, error) {
	now := i.now()
	exp := now.Add(i.cfg.TokenTTL)
	claims := &Claims{
		UserID:   user.ID,
		Email:    user.Email,
		FullName: user.FullName(),
		IsAdmin:  user.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    i.cfg.Issuer,
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(i.cfg.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Verifier extracts and validates tokens from requests.
type Verifier struct {
	cfg Config
}

func NewVerifier(cfg Config) *Verifier {
	return &Verifier{cfg: cfg.withDefaults()}
}

// Parse validates a raw token and returns its identity.
func (v *Verifier) Parse(raw string) (Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(v.cfg.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(v.cfg.Issuer))
	if err != nil || !token.Valid {
		return Identity{}, fmt.Errorf("%w: invalid token", domain.ErrUnauthenticated)
	}
	if claims.UserID <= 0 {
		return Identity{}, fmt.Errorf("%w: token has no user", domain.ErrUnauthenticated)
	}
	return Identity{
		UserID:   claims.UserID,
		Email:    claims.Email,
		FullName: claims.FullName,
		IsAdmin:  claims.IsAdmin,
	}, nil
}

// Authenticate reads the bearer header first and, when enabled, the token
// cookie as a fallback.
func (v *Verifier) Authenticate(r *http.Request) (Identity, error) {
	raw := bearerToken(r.Header.Get("Authorization"))
	if raw == "" && v.cfg.CookieFallback {
		if c, err := r.Cookie(v.cfg.CookieName); err == nil {
			raw = c.Value
		}
	}
	if raw == "" {
		return Identity{}, fmt.Errorf("%w: missing token", domain.ErrUnauthenticated)
	}
	return v.Parse(raw)
}

func bearerToken(header string) string {
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
