package auth

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/coursebuilder/assess/internal/rbac"
)

type AuthService struct {
	hmac    []byte
	xsrfTTL time.Duration
}

func NewAuthService(secret string, xsrfTTL time.Duration) *AuthService {
	if xsrfTTL <= 0 {
		xsrfTTL = 2 * time.Hour
	}
	return &AuthService{hmac: []byte(secret), xsrfTTL: xsrfTTL}
}

type Claims struct {
	Sub     string `json:"sub"`
	Role    string `json:"role"` // "student", "teacher" or "admin"
	Purpose string `json:"purpose,omitempty"`
	jwt.RegisteredClaims
}

func (a *AuthService) IssueJWT(sub, role string) (string, error) {
	now := time.Now()
	claims := &Claims{
		Sub:  sub,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "assess",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(8 * time.Hour)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(a.hmac)
}

// IssueXSRF issues a short-lived action token bound to the subject. The
// browser posts it back in the answer payload; VerifyXSRF checks it against
// the bearer identity.
func (a *AuthService) IssueXSRF(sub string) (string, error) {
	now := time.Now()
	claims := &Claims{
		Sub:     sub,
		Purpose: "xsrf",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "assess",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.xsrfTTL)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(a.hmac)
}

func (a *AuthService) VerifyXSRF(token, sub string) error {
	c, err := a.Parse(token)
	if err != nil {
		return errors.New("bad xsrf token")
	}
	if c.Purpose != "xsrf" || c.Sub != sub {
		return errors.New("xsrf token mismatch")
	}
	return nil
}

func (a *AuthService) Parse(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return a.hmac, nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}
	c, ok := token.Claims.(*Claims)
	if !ok {
		return nil, errors.New("invalid claims")
	}
	return c, nil
}

// AdminCreds is the env-configured fallback account used before any users
// exist.
type AdminCreds struct {
	User     string
	PassHash string // bcrypt
}

// POST /auth/login  { "username": "...", "password": "..." }
// Checks the users table first, then the admin fallback. db may be nil in
// memory mode, leaving only the admin account.
func LoginHandler(a *AuthService, db *sql.DB, admin AdminCreds) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		role, ok := checkPassword(r, db, admin, req.Username, req.Password)
		if !ok {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		tok, err := a.IssueJWT(req.Username, role)
		if err != nil {
			http.Error(w, "issue token", http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": tok})
	}
}

func checkPassword(r *http.Request, db *sql.DB, admin AdminCreds, username, password string) (string, bool) {
	if db != nil {
		var hash, role string
		err := db.QueryRowContext(r.Context(),
			`SELECT pass_hash, role FROM users WHERE username=$1`, username).Scan(&hash, &role)
		if err == nil {
			if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil {
				return role, true
			}
			return "", false
		}
	}
	if username == admin.User && admin.PassHash != "" &&
		bcrypt.CompareHashAndPassword([]byte(admin.PassHash), []byte(password)) == nil {
		return "admin", true
	}
	return "", false
}

// GET /xsrf — issues an action token for the authenticated subject.
func XSRFHandler(a *AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub := SubjectFromContext(r.Context())
		if sub == "" {
			http.Error(w, "unauthenticated", http.StatusUnauthorized)
			return
		}
		tok, err := a.IssueXSRF(sub)
		if err != nil {
			http.Error(w, "issue token", http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"xsrf_token": tok})
	}
}

// JWTMiddleware validates the bearer token and attaches subject and role to
// the request context.
func JWTMiddleware(a *AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if !strings.HasPrefix(h, "Bearer ") {
				http.Error(w, "missing bearer", http.StatusUnauthorized)
				return
			}
			c, err := a.Parse(strings.TrimPrefix(h, "Bearer "))
			if err != nil || c.Purpose != "" {
				http.Error(w, "bad token", http.StatusUnauthorized)
				return
			}
			ctx := WithSubject(r.Context(), c.Sub)
			ctx = rbac.WithRole(ctx, c.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
