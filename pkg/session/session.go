package session

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ACCESS_TOKEN_NAME is the cookie carrying the session token
const ACCESS_TOKEN_NAME = "access_token"

// DefaultSessionExpiry is how long an issued session stays valid
const DefaultSessionExpiry = 24 * time.Hour

// Claims carried by a session token
type Claims struct {
	Login string `json:"login,omitempty"`
	jwt.RegisteredClaims
}

// Manager issues HS256 session tokens and stores them in a cookie.
type Manager struct {
	secret   string
	issuer   string
	expiry   time.Duration
	httpOnly bool
	secure   bool
	now      func() time.Time
}

// ManagerOption configures a Manager
type ManagerOption func(*Manager)

// WithIssuer sets the iss claim
func WithIssuer(issuer string) ManagerOption {
	return func(m *Manager) {
		m.issuer = issuer
	}
}

// WithExpiry sets the session lifetime
func WithExpiry(expiry time.Duration) ManagerOption {
	return func(m *Manager) {
		if expiry > 0 {
			m.expiry = expiry
		}
	}
}

// WithCookieHttpOnly sets the HttpOnly flag for cookies
func WithCookieHttpOnly(httpOnly bool) ManagerOption {
	return func(m *Manager) {
		m.httpOnly = httpOnly
	}
}

// WithCookieSecure sets the Secure flag for cookies
func WithCookieSecure(secure bool) ManagerOption {
	return func(m *Manager) {
		m.secure = secure
	}
}

// NewManager creates a session manager signing with secret.
func NewManager(secret string, opts ...ManagerOption) *Manager {
	m := &Manager{
		secret:   secret,
		issuer:   "simple-verify",
		expiry:   DefaultSessionExpiry,
		httpOnly: true,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// GenerateToken signs a session token for the account.
func (m *Manager) GenerateToken(accountID int64, login string) (string, time.Time, error) {
	now := m.now().UTC()
	claims := Claims{
		Login: login,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now.Add(-1 * time.Minute)),
			Issuer:    m.issuer,
			Subject:   strconv.FormatInt(accountID, 10),
			ID:        uuid.New().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString([]byte(m.secret))
	if err != nil {
		slog.Error("Failed sign JWT Claim string!", "err", err)
		return "", time.Time{}, err
	}
	return ss, claims.ExpiresAt.Time, nil
}

// ParseToken validates a session token and returns its claims.
func (m *Manager) ParseToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(m.secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.now))
	if err != nil {
		return nil, fmt.Errorf("failed to parse session token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid session token")
	}
	return claims, nil
}

// StartSession issues a token for the account and sets the session cookie.
func (m *Manager) StartSession(w http.ResponseWriter, accountID int64, login string) error {
	token, expire, err := m.GenerateToken(accountID, login)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     ACCESS_TOKEN_NAME,
		Path:     "/",
		Value:    token,
		Expires:  expire,
		HttpOnly: m.httpOnly,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	slog.Info("Session started", "account_id", accountID)
	return nil
}

// EndSession clears the session cookie.
func (m *Manager) EndSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     ACCESS_TOKEN_NAME,
		Path:     "/",
		Value:    "",
		MaxAge:   -1,
		HttpOnly: m.httpOnly,
		Secure:   m.secure,
	})
}
