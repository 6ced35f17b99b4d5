package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	idmerrors "github.com/tendant/simple-verify/pkg/errors"
	"github.com/tendant/simple-verify/pkg/login"
	"github.com/tendant/simple-verify/pkg/verifyaccount"
	verifyapi "github.com/tendant/simple-verify/pkg/verifyaccount/api"
)

// SessionStarter issues a session for an authenticated account
type SessionStarter interface {
	StartSession(w http.ResponseWriter, accountID int64, login string) error
}

type LoginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccountID int64  `json:"account_id"`
	Login     string `json:"login"`
}

// ErrorResponse carries an error and, for accounts awaiting verification,
// where to request a new email.
type ErrorResponse struct {
	Error      string `json:"error"`
	View       string `json:"view,omitempty"`
	ResendPath string `json:"resend_path,omitempty"`
}

type Handle struct {
	loginService *login.LoginService
	sessions     SessionStarter
}

func NewHandle(loginService *login.LoginService, sessions SessionStarter) *Handle {
	return &Handle{
		loginService: loginService,
		sessions:     sessions,
	}
}

func (h *Handle) Routes(r chi.Router) {
	r.Post("/login", h.PostLogin)
}

// PostLogin handles POST /login
func (h *Handle) PostLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, ErrorResponse{Error: "Invalid request body"})
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, ErrorResponse{Error: "Invalid request body"})
			return
		}
		req.Login = r.PostForm.Get("login")
		req.Password = r.PostForm.Get("password")
	}

	if req.Login == "" {
		invalid := idmerrors.InvalidInput("login", "required")
		render.Status(r, invalid.HTTPStatusCode())
		render.JSON(w, r, ErrorResponse{Error: invalid.Message})
		return
	}

	account, err := h.loginService.Login(r.Context(), req.Login, req.Password)
	if err != nil {
		h.renderLoginError(w, r, err)
		return
	}

	if h.sessions != nil {
		if err := h.sessions.StartSession(w, account.ID, account.Login); err != nil {
			slog.Error("Failed to start session", "account_id", account.ID, "error", err)
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, ErrorResponse{Error: "An error occurred while logging in"})
			return
		}
	}

	render.JSON(w, r, LoginResponse{AccountID: account.ID, Login: account.Login})
}

func (h *Handle) renderLoginError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	var apiErr *idmerrors.Error
	if errors.As(err, &apiErr) {
		status = apiErr.HTTPStatusCode()
	}
	render.Status(r, status)

	switch {
	case idmerrors.IsCode(err, idmerrors.ErrCodeEmailNotVerified):
		resendPath, _ := idmerrors.GetDetails(err)["resend_path"].(string)
		render.JSON(w, r, ErrorResponse{
			Error:      verifyaccount.UnverifiedLoginNoticeMessage,
			View:       verifyapi.ResendView,
			ResendPath: resendPath,
		})
	case idmerrors.IsCode(err, idmerrors.ErrCodeInvalidCredentials):
		render.JSON(w, r, ErrorResponse{Error: "Invalid login or password"})
	default:
		slog.Error("Login failed", "error", err)
		render.JSON(w, r, ErrorResponse{Error: "An error occurred while logging in"})
	}
}
