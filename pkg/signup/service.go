package signup

import (
	"context"
	"errors"
	"log/slog"

	"github.com/tendant/simple-verify/pkg/login"
	"github.com/tendant/simple-verify/pkg/verifyaccount"
)

// SignupService creates and closes accounts
type SignupService struct {
	store               verifyaccount.Store
	verifyService       *verifyaccount.VerificationService
	hasher              login.PasswordHasher
	initialStatus       verifyaccount.AccountStatus
	registrationEnabled bool
	afterClose          []verifyaccount.AfterCloseHook
}

// SignupServiceOption is a functional option for configuring SignupService
type SignupServiceOption func(*SignupService)

// WithVerificationService sends the verification email for new accounts and
// removes pending keys when an account is closed
func WithVerificationService(vs *verifyaccount.VerificationService) SignupServiceOption {
	return func(s *SignupService) {
		s.verifyService = vs
		if vs != nil {
			s.afterClose = append(s.afterClose, vs.AfterCloseHook())
		}
	}
}

// WithPasswordHasher replaces the default bcrypt hasher
func WithPasswordHasher(hasher login.PasswordHasher) SignupServiceOption {
	return func(s *SignupService) {
		if hasher != nil {
			s.hasher = hasher
		}
	}
}

// WithInitialStatus sets the status new accounts are created with
func WithInitialStatus(status verifyaccount.AccountStatus) SignupServiceOption {
	return func(s *SignupService) {
		if status != "" {
			s.initialStatus = status
		}
	}
}

// WithRegistrationEnabled sets whether registration is enabled
func WithRegistrationEnabled(enabled bool) SignupServiceOption {
	return func(s *SignupService) {
		s.registrationEnabled = enabled
	}
}

// WithAfterCloseHook registers a hook run inside the close transaction
func WithAfterCloseHook(hook verifyaccount.AfterCloseHook) SignupServiceOption {
	return func(s *SignupService) {
		if hook != nil {
			s.afterClose = append(s.afterClose, hook)
		}
	}
}

// NewSignupService creates a new SignupService with the given options
func NewSignupService(store verifyaccount.Store, opts ...SignupServiceOption) *SignupService {
	s := &SignupService{
		store:               store,
		hasher:              login.NewBcryptHasher(),
		initialStatus:       verifyaccount.StatusUnverified,
		registrationEnabled: true,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// RegisterRequest represents an account registration request
type RegisterRequest struct {
	Login    string
	Email    string
	Password string
}

// RegisterResult represents the result of registration
type RegisterResult struct {
	Account verifyaccount.Account
	// VerificationEmailSent is false when no email was needed or delivery failed.
	VerificationEmailSent bool
}

// RegisterAccount creates an account and, when it starts unverified, its
// verification key in the same transaction, then sends the verification email.
// A failed send does not undo the registration; a failed key store does.
func (s *SignupService) RegisterAccount(ctx context.Context, req RegisterRequest) (*RegisterResult, error) {
	if !s.registrationEnabled {
		return nil, &SignupError{
			Code:    ErrCodeRegistrationDisabled,
			Message: "Registration is disabled",
		}
	}

	if req.Email == "" || req.Password == "" {
		return nil, &SignupError{
			Code:    ErrCodeInvalidRequest,
			Message: "Email and password are required",
		}
	}

	loginName := req.Login
	if loginName == "" {
		loginName = req.Email
		slog.Info("Login empty, using email as login", "email", req.Email)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		slog.Error("Failed to hash password", "error", err)
		return nil, &SignupError{
			Code:    ErrCodeInternalError,
			Message: "Internal server error while processing registration",
		}
	}

	var account verifyaccount.Account
	var key string
	err = s.store.InTx(ctx, func(tx verifyaccount.Store) error {
		created, err := tx.CreateAccount(ctx, verifyaccount.NewAccount{
			Login:        loginName,
			Email:        req.Email,
			Status:       s.initialStatus,
			PasswordHash: hash,
		})
		if err != nil {
			return err
		}
		account = created

		if s.verifyService == nil {
			return nil
		}
		key, err = s.verifyService.EnsureKey(ctx, tx, created)
		return err
	})
	if err != nil {
		return nil, s.handleCreateError(ctx, loginName, err)
	}
	slog.Info("Account created", "account_id", account.ID, "status", account.Status)

	result := &RegisterResult{Account: account}
	if key == "" {
		return result, nil
	}

	if err := s.verifyService.SendVerificationEmail(ctx, account, key); err != nil {
		// the key is committed; the user can ask for a resend
		slog.Error("Failed to send verification email", "account_id", account.ID, "error", err)
		return result, nil
	}
	result.VerificationEmailSent = true
	slog.Info("Verification email sent", "account_id", account.ID)
	return result, nil
}

func (s *SignupService) handleCreateError(ctx context.Context, loginName string, err error) error {
	if errors.Is(err, verifyaccount.ErrPersistenceFailure) {
		slog.Error("Failed to store verification key, account not created", "error", err)
		return &SignupError{
			Code:    ErrCodePersistenceFailed,
			Message: "Could not store the verification key, please try again",
		}
	}
	if !errors.Is(err, verifyaccount.ErrLoginTaken) {
		slog.Error("Failed to create account", "error", err)
		return &SignupError{
			Code:    ErrCodeInternalError,
			Message: "Internal server error while processing registration",
		}
	}

	existing, findErr := s.store.FindAccountByLogin(ctx, loginName)
	if findErr == nil && existing.Status == verifyaccount.StatusUnverified {
		return &SignupError{
			Code:    ErrCodeAwaitingVerification,
			Message: verifyaccount.UnverifiedCreateNoticeMessage,
			Details: map[string]string{"resend_path": s.resendPath()},
		}
	}
	return &SignupError{
		Code:    ErrCodeLoginExists,
		Message: "Login already exists",
	}
}

func (s *SignupService) resendPath() string {
	if s.verifyService == nil {
		return ""
	}
	return s.verifyService.VerifyPath()
}

// CloseAccount marks the account closed and runs the after-close hooks in
// the same transaction.
func (s *SignupService) CloseAccount(ctx context.Context, accountID int64) error {
	err := s.store.InTx(ctx, func(tx verifyaccount.Store) error {
		if err := tx.UpdateAccountStatus(ctx, accountID, verifyaccount.StatusClosed); err != nil {
			return err
		}
		for _, hook := range s.afterClose {
			if err := hook(ctx, tx, accountID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, verifyaccount.ErrAccountNotFound) {
			return &SignupError{
				Code:    ErrCodeAccountNotFound,
				Message: "Account not found",
			}
		}
		slog.Error("Failed to close account", "account_id", accountID, "error", err)
		return &SignupError{
			Code:    ErrCodeInternalError,
			Message: "Internal server error while closing account",
		}
	}

	slog.Info("Account closed", "account_id", accountID)
	return nil
}
