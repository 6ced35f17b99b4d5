package api

// ResendView names the payload that tells a client to render the
// resend-verification form.
const ResendView = "verify-account-resend"

// VerifyAccountRequest is the parsed POST body. Login takes precedence over
// Key. Both are read under the configured login and key parameter names.
type VerifyAccountRequest struct {
	Login string
	Key   string
}

// VerifyAccountView is returned by GET for a redeemable token
type VerifyAccountView struct {
	AccountID int64  `json:"account_id"`
	Key       string `json:"key"`
	Button    string `json:"button"`
}

// ResendViewResponse asks the client to show the resend form
type ResendViewResponse struct {
	View   string `json:"view"`
	Button string `json:"button"`
	Notice string `json:"notice,omitempty"`
}

// MessageResponse carries a notice
type MessageResponse struct {
	Message  string `json:"message"`
	Redirect string `json:"redirect,omitempty"`
}

// ErrorResponse carries an error message
type ErrorResponse struct {
	Error    string `json:"error"`
	Redirect string `json:"redirect,omitempty"`
}
