package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/go-chi/render"
	idmerrors "github.com/tendant/simple-verify/pkg/errors"
	"github.com/tendant/simple-verify/pkg/session"
	"github.com/tendant/simple-verify/pkg/signup"
	"github.com/tendant/simple-verify/pkg/verifyaccount"
)

// SignupRequest represents the signup request body
type SignupRequest struct {
	Login    string `json:"login,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignupResponse represents the response for successful signup
type SignupResponse struct {
	AccountID int64  `json:"account_id"`
	Status    string `json:"status"`
	Message   string `json:"message"`
}

// SessionEnder clears the caller's session after the account is closed
type SessionEnder interface {
	EndSession(w http.ResponseWriter)
}

type Handle struct {
	signupService *signup.SignupService
	jwtAuth       *jwtauth.JWTAuth
	sessions      SessionEnder
}

type Option func(*Handle)

// WithSessionEnder logs the caller out once their account is closed
func WithSessionEnder(sessions SessionEnder) Option {
	return func(h *Handle) {
		h.sessions = sessions
	}
}

// NewHandle creates the signup handler. jwtAuth verifies the session that
// authorizes account closure.
func NewHandle(signupService *signup.SignupService, jwtAuth *jwtauth.JWTAuth, opts ...Option) *Handle {
	h := &Handle{
		signupService: signupService,
		jwtAuth:       jwtAuth,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes registers all signup routes. Closing an account requires a
// session for that same account.
func (h *Handle) RegisterRoutes(r chi.Router) {
	r.Post("/signup", h.Signup)
	r.Group(func(r chi.Router) {
		r.Use(session.Verifier(h.jwtAuth))
		r.Use(jwtauth.Authenticator(h.jwtAuth))
		r.Post("/accounts/{id}/close", h.CloseAccount)
	})
}

// Signup handles POST /signup
func (h *Handle) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode signup request", "error", err)
		writeError(w, r, http.StatusBadRequest, map[string]interface{}{"error": "Invalid request body"})
		return
	}

	result, err := h.signupService.RegisterAccount(r.Context(), signup.RegisterRequest{
		Login:    req.Login,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	message := "Registration successful"
	if result.VerificationEmailSent {
		message = verifyaccount.EmailSentNoticeMessage
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, SignupResponse{
		AccountID: result.Account.ID,
		Status:    string(result.Account.Status),
		Message:   message,
	})
}

// CloseAccount handles POST /accounts/{id}/close
func (h *Handle) CloseAccount(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		invalid := idmerrors.InvalidInput("account id", "must be a positive integer")
		writeError(w, r, invalid.HTTPStatusCode(), map[string]interface{}{"error": invalid.Message, "code": invalid.Code})
		return
	}

	sessionAccountID, ok := session.AccountIDFromContext(r.Context())
	if !ok || sessionAccountID != id {
		slog.Warn("Refused to close account of another session", "account_id", id, "session_account_id", sessionAccountID)
		writeError(w, r, http.StatusForbidden, map[string]interface{}{"error": "You can only close your own account"})
		return
	}

	if err := h.signupService.CloseAccount(r.Context(), id); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	if h.sessions != nil {
		h.sessions.EndSession(w)
	}
	render.JSON(w, r, map[string]string{"message": "Account closed"})
}

// handleServiceError converts service errors to HTTP responses
func (h *Handle) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var signupErr *signup.SignupError
	if !errors.As(err, &signupErr) {
		writeError(w, r, http.StatusInternalServerError, map[string]interface{}{"error": "An error occurred during registration"})
		return
	}

	errorBody := map[string]interface{}{
		"error": signupErr.Message,
		"code":  signupErr.Code,
	}
	if signupErr.Details != nil {
		errorBody["details"] = signupErr.Details
	}
	writeError(w, r, signupErr.HTTPStatus(), errorBody)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, body map[string]interface{}) {
	render.Status(r, code)
	render.JSON(w, r, body)
}
