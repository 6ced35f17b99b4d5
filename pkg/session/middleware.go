package session

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/go-chi/render"
)

// NewJWTAuth returns the verifier matching tokens issued by Manager.
func NewJWTAuth(secret string) *jwtauth.JWTAuth {
	return jwtauth.New("HS256", []byte(secret), nil)
}

// Verifier returns a middleware that reads the session from the
// Authorization header or the session cookie.
func Verifier(ja *jwtauth.JWTAuth) func(http.Handler) http.Handler {
	return jwtauth.Verify(ja, jwtauth.TokenFromHeader, TokenFromCookie)
}

// TokenFromCookie extracts a JWT token from the session cookie
func TokenFromCookie(r *http.Request) string {
	cookie, err := r.Cookie(ACCESS_TOKEN_NAME)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// AccountIDFromContext returns the account id carried in the sub claim of a
// token verified by Verifier.
func AccountIDFromContext(ctx context.Context) (int64, bool) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return 0, false
	}
	sub, ok := claims["sub"].(string)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// MeResponse describes the authenticated session
type MeResponse struct {
	AccountID string `json:"account_id"`
	Login     string `json:"login,omitempty"`
}

// Me handles GET /me for an authenticated session.
func Me(w http.ResponseWriter, r *http.Request) {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, map[string]string{"error": "Unauthorized"})
		return
	}

	resp := MeResponse{}
	if sub, ok := claims["sub"].(string); ok {
		resp.AccountID = sub
	}
	if login, ok := claims["login"].(string); ok {
		resp.Login = login
	}
	render.JSON(w, r, resp)
}

// Routes mounts the authenticated session endpoints.
func Routes(r chi.Router, ja *jwtauth.JWTAuth) {
	r.Group(func(r chi.Router) {
		r.Use(Verifier(ja))
		r.Use(jwtauth.Authenticator(ja))
		r.Get("/me", Me)
	})
}
