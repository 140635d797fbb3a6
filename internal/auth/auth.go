package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ArrzGeraldy/api-ecommerce/internal/apperr"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Principal adalah pemanggil yang sudah terautentikasi.
type Principal struct {
	ID   int64
	Role string
}

func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

// CanAccess: pemilik resource atau admin.
func (p Principal) CanAccess(ownerID int64) bool { return p.ID == ownerID || p.IsAdmin() }

type ctxKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(Principal)
	return p, ok
}

type Claims struct {
	ID   int64  `json:"id"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

var ErrInvalidToken = errors.New("invalid token")

type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier { return &Verifier{secret: []byte(secret)} }

// NewToken menerbitkan access token HS256; dipakai tooling & test.
func (v *Verifier) NewToken(p Principal, ttl time.Duration) (string, error) {
	claims := Claims{
		ID:   p.ID,
		Role: p.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

func (v *Verifier) Parse(token string) (Principal, error) {
	var c Claims
	_, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if c.ID == 0 {
		return Principal{}, ErrInvalidToken
	}
	role := c.Role
	if role != RoleAdmin {
		role = RoleUser
	}
	return Principal{ID: c.ID, Role: role}, nil
}

// Middleware mewajibkan header "Authorization: Bearer <token>".
func (v *Verifier) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(h, "Bearer ")
		if !ok || token == "" {
			deny(w, apperr.Unauthorized())
			return
		}
		p, err := v.Parse(token)
		if err != nil {
			deny(w, apperr.Unauthorized())
			return
		}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
	})
}

func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := FromContext(r.Context())
		if !ok {
			deny(w, apperr.Unauthorized())
			return
		}
		if !p.IsAdmin() {
			deny(w, apperr.Forbidden())
			return
		}
		next.ServeHTTP(w, r)
	})
}

func deny(w http.ResponseWriter, e *apperr.Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Status())
	_ = json.NewEncoder(w).Encode(map[string]string{"errors": e.Message})
}
