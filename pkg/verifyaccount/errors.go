package verifyaccount

import (
	"errors"

	idmerrors "github.com/tendant/simple-verify/pkg/errors"
)

// Messages shown to end users. They never reveal which check failed.
const (
	NoMatchingKeyMessage          = "invalid verify account key"
	VerifiedNoticeMessage         = "Your account has been verified"
	EmailSentNoticeMessage        = "An email has been sent to you with a link to verify your account"
	UnverifiedLoginNoticeMessage  = "The account you tried to login with is currently awaiting verification"
	UnverifiedCreateNoticeMessage = "The account you tried to create is currently awaiting verification"
	VerifyButtonLabel             = "Verify Account"
	ResendButtonLabel             = "Send Verification Email Again"
)

var (
	// ErrInvalidToken is returned for malformed tokens, unknown accounts,
	// mismatched keys and accounts that are no longer unverified.
	ErrInvalidToken = idmerrors.New(idmerrors.ErrCodeTokenInvalid, NoMatchingKeyMessage)

	// ErrDeliveryFailure is returned when the verification email could not be sent.
	// Database changes made before the send stay committed.
	ErrDeliveryFailure = idmerrors.New(idmerrors.ErrCodeDeliveryFailed, "verification email delivery failed")

	// ErrPersistenceFailure is returned when the backing store fails.
	ErrPersistenceFailure = idmerrors.New(idmerrors.ErrCodePersistenceFailed, "verification store failure")

	// ErrAwaitingVerification is the login gate denial.
	ErrAwaitingVerification = idmerrors.New(idmerrors.ErrCodeEmailNotVerified, UnverifiedLoginNoticeMessage)
)

var (
	// ErrAccountNotFound is returned by AccountRepository lookups.
	ErrAccountNotFound = errors.New("account not found")

	// ErrLoginTaken is returned by CreateAccount when the login is already used.
	ErrLoginTaken = errors.New("login already in use")

	// ErrMalformedToken is returned by DecodeToken.
	ErrMalformedToken = errors.New("malformed verification token")
)

func persistenceError(err error, message string) error {
	return idmerrors.Wrap(err, idmerrors.ErrCodePersistenceFailed, message)
}

func deliveryError(err error, accountID int64) error {
	return idmerrors.Wrapf(err, idmerrors.ErrCodeDeliveryFailed, "send verify account email to account %d", accountID)
}
