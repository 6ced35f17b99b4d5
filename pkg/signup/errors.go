package signup

import (
	"net/http"

	idmerrors "github.com/tendant/simple-verify/pkg/errors"
)

// SignupError represents a signup-specific error
type SignupError struct {
	Code    string
	Message string
	Details interface{}
}

func (e *SignupError) Error() string {
	return e.Message
}

// Error codes
const (
	ErrCodeRegistrationDisabled = "REGISTRATION_DISABLED"
	ErrCodeInvalidRequest       = "INVALID_REQUEST"
	ErrCodeLoginExists          = "LOGIN_EXISTS"
	ErrCodeAwaitingVerification = string(idmerrors.ErrCodeAwaitingVerification)
	ErrCodeAccountNotFound      = string(idmerrors.ErrCodeNotFound)
	ErrCodePersistenceFailed    = string(idmerrors.ErrCodePersistenceFailed)
	ErrCodeInternalError        = string(idmerrors.ErrCodeInternal)
)

// HTTPStatus maps a signup error code to a response status
func (e *SignupError) HTTPStatus() int {
	switch e.Code {
	case ErrCodeRegistrationDisabled:
		return http.StatusForbidden
	case ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case ErrCodeLoginExists:
		return http.StatusConflict
	default:
		return idmerrors.MapErrorCodeToHTTPStatus(idmerrors.ErrorCode(e.Code))
	}
}
