package session

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-with-enough-length-123"

func TestManager_GenerateAndParse(t *testing.T) {
	m := NewManager(testSecret, WithIssuer("tests"))

	token, expire, err := m.GenerateToken(42, "alice@example.com")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(DefaultSessionExpiry), expire, time.Minute)

	claims, err := m.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, "alice@example.com", claims.Login)
	assert.Equal(t, "tests", claims.Issuer)
	assert.NotEmpty(t, claims.ID)

	other := NewManager("another-secret-with-enough-length")
	_, err = other.ParseToken(token)
	assert.Error(t, err)
}

func TestManager_ExpiredToken(t *testing.T) {
	m := NewManager(testSecret, WithExpiry(time.Minute))
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, _, err := m.GenerateToken(1, "bob")
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.ParseToken(token)
	assert.Error(t, err)
}

func TestManager_StartSession(t *testing.T) {
	m := NewManager(testSecret, WithCookieSecure(true))
	rec := httptest.NewRecorder()

	require.NoError(t, m.StartSession(rec, 7, "carol"))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, ACCESS_TOKEN_NAME, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)

	claims, err := m.ParseToken(cookies[0].Value)
	require.NoError(t, err)
	assert.Equal(t, "7", claims.Subject)
}

func TestRoutes_Me(t *testing.T) {
	m := NewManager(testSecret)
	r := chi.NewRouter()
	Routes(r, NewJWTAuth(testSecret))

	t.Run("WithCookie", func(t *testing.T) {
		token, _, err := m.GenerateToken(9, "dave")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.AddCookie(&http.Cookie{Name: ACCESS_TOKEN_NAME, Value: token})
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp MeResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "9", resp.AccountID)
		assert.Equal(t, "dave", resp.Login)
	})

	t.Run("WithoutToken", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("EndSessionClearsCookie", func(t *testing.T) {
		rec := httptest.NewRecorder()
		m.EndSession(rec)
		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, -1, cookies[0].MaxAge)
	})
}

func TestAccountIDFromContext(t *testing.T) {
	m := NewManager(testSecret)
	ja := NewJWTAuth(testSecret)

	r := chi.NewRouter()
	r.Use(Verifier(ja))
	r.Get("/whoami", func(w http.ResponseWriter, r *http.Request) {
		id, ok := AccountIDFromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(strconv.FormatInt(id, 10)))
	})

	t.Run("BearerToken", func(t *testing.T) {
		token, _, err := m.GenerateToken(42, "erin")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "42", rec.Body.String())
	})

	t.Run("NoToken", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/whoami", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
