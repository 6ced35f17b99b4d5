package api

import (
	"encoding/json"
	"log/slog"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	idmerrors "github.com/tendant/simple-verify/pkg/errors"
	"github.com/tendant/simple-verify/pkg/verifyaccount"
)

// SessionStarter logs an account in after verification.
type SessionStarter interface {
	StartSession(w http.ResponseWriter, accountID int64, login string) error
}

// Handle serves the verify-account routes
type Handle struct {
	service        *verifyaccount.VerificationService
	sessions       SessionStarter
	autologin      bool
	loginParam     string
	loginPath      string
	verifyRedirect string
}

// Option configures a Handle
type Option func(*Handle)

// WithAutologin starts a session after a successful verification
func WithAutologin(autologin bool) Option {
	return func(h *Handle) {
		h.autologin = autologin
	}
}

// WithSessionStarter sets the session issuer used by autologin
func WithSessionStarter(s SessionStarter) Option {
	return func(h *Handle) {
		h.sessions = s
	}
}

// WithLoginParam sets the parameter carrying the login on resend requests
func WithLoginParam(param string) Option {
	return func(h *Handle) {
		if param != "" {
			h.loginParam = param
		}
	}
}

// WithLoginPath sets where clients are sent after an invalid key
func WithLoginPath(path string) Option {
	return func(h *Handle) {
		if path != "" {
			h.loginPath = path
		}
	}
}

// WithVerifyRedirect sets where clients are sent after verification
func WithVerifyRedirect(path string) Option {
	return func(h *Handle) {
		h.verifyRedirect = path
	}
}

// NewHandle creates the verify-account handler
func NewHandle(service *verifyaccount.VerificationService, opts ...Option) *Handle {
	h := &Handle{
		service:        service,
		loginParam:     "login",
		loginPath:      "/login",
		verifyRedirect: "/",
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes mounts GET and POST on the service's verify path.
func (h *Handle) Routes(r chi.Router) {
	path := h.service.VerifyPath()
	r.Get(path, h.GetVerifyAccount)
	r.Post(path, h.PostVerifyAccount)
}

// GetVerifyAccount shows the confirmation view for a redeemable key
func (h *Handle) GetVerifyAccount(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get(h.service.KeyParam())
	if token == "" {
		h.renderResendView(w, r, "")
		return
	}

	account, err := h.service.AccountFromKey(r.Context(), token)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, VerifyAccountView{
		AccountID: account.ID,
		Key:       token,
		Button:    verifyaccount.VerifyButtonLabel,
	})
}

// PostVerifyAccount resends the email when a login is given and otherwise
// redeems the given key.
func (h *Handle) PostVerifyAccount(w http.ResponseWriter, r *http.Request) {
	req, err := h.parseRequest(r)
	if err != nil {
		slog.Error("Failed to parse verify account request", "error", err)
		invalid := idmerrors.InvalidInput("request body", "expected a form or a JSON object")
		render.Status(r, invalid.HTTPStatusCode())
		render.JSON(w, r, ErrorResponse{Error: invalid.Message})
		return
	}

	switch {
	case req.Login != "":
		h.resend(w, r, req.Login)
	case req.Key != "":
		h.redeem(w, r, req.Key)
	default:
		h.renderResendView(w, r, "")
	}
}

func (h *Handle) resend(w http.ResponseWriter, r *http.Request, login string) {
	sent, err := h.service.ResendRequest(r.Context(), login)
	if err != nil {
		slog.Error("Failed to resend verify account email", "error", err)
		h.renderError(w, r, err)
		return
	}
	if !sent {
		h.renderResendView(w, r, "")
		return
	}

	slog.Info("Verify account email resent")
	render.Status(r, http.StatusOK)
	render.JSON(w, r, MessageResponse{
		Message:  verifyaccount.EmailSentNoticeMessage,
		Redirect: h.loginPath,
	})
}

func (h *Handle) redeem(w http.ResponseWriter, r *http.Request, token string) {
	account, err := h.service.Redeem(r.Context(), token)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	slog.Info("Account verified", "account_id", account.ID)

	if h.autologin && h.sessions != nil {
		if err := h.sessions.StartSession(w, account.ID, account.Login); err != nil {
			// the account stays verified
			slog.Error("Failed to start session after verification", "account_id", account.ID, "error", err)
		}
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, MessageResponse{
		Message:  verifyaccount.VerifiedNoticeMessage,
		Redirect: h.verifyRedirect,
	})
}

func (h *Handle) renderResendView(w http.ResponseWriter, r *http.Request, notice string) {
	render.Status(r, http.StatusOK)
	render.JSON(w, r, ResendViewResponse{
		View:   ResendView,
		Button: verifyaccount.ResendButtonLabel,
		Notice: notice,
	})
}

func (h *Handle) renderError(w http.ResponseWriter, r *http.Request, err error) {
	code := idmerrors.GetCode(err)
	render.Status(r, idmerrors.MapErrorCodeToHTTPStatus(code))

	switch code {
	case idmerrors.ErrCodeTokenInvalid:
		render.JSON(w, r, ErrorResponse{
			Error:    verifyaccount.NoMatchingKeyMessage,
			Redirect: h.loginPath,
		})
	case idmerrors.ErrCodeDeliveryFailed:
		render.JSON(w, r, ErrorResponse{Error: "Failed to send verification email"})
	default:
		slog.Error("Verify account request failed", "code", code, "error", err)
		render.JSON(w, r, ErrorResponse{Error: "An error occurred while verifying the account"})
	}
}

// parseRequest reads the login and key from a form or a JSON object. Both
// encodings use the configured parameter names.
func (h *Handle) parseRequest(r *http.Request) (VerifyAccountRequest, error) {
	var req VerifyAccountRequest

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return req, err
		}
		req.Login = stringField(body, h.loginParam)
		req.Key = stringField(body, h.service.KeyParam())
		return req, nil
	}

	if err := r.ParseForm(); err != nil {
		return req, err
	}
	req.Login = r.PostForm.Get(h.loginParam)
	req.Key = r.PostForm.Get(h.service.KeyParam())
	return req, nil
}

func stringField(body map[string]interface{}, name string) string {
	value, _ := body[name].(string)
	return value
}
