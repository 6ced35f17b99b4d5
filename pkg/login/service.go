package login

import (
	"context"
	"errors"
	"log/slog"

	idmerrors "github.com/tendant/simple-verify/pkg/errors"
	"github.com/tendant/simple-verify/pkg/verifyaccount"
)

// ErrInvalidCredentials covers unknown logins and wrong passwords alike.
var ErrInvalidCredentials = idmerrors.New(idmerrors.ErrCodeInvalidCredentials, "invalid login or password")

// LoginService authenticates accounts by login and password.
type LoginService struct {
	accounts verifyaccount.AccountRepository
	gate     *verifyaccount.LoginGate
	hasher   PasswordHasher
}

// Option configures a LoginService
type Option func(*LoginService)

// WithPasswordHasher replaces the default bcrypt hasher
func WithPasswordHasher(hasher PasswordHasher) Option {
	return func(s *LoginService) {
		if hasher != nil {
			s.hasher = hasher
		}
	}
}

// NewLoginService creates a login service. The gate runs before the password check.
func NewLoginService(accounts verifyaccount.AccountRepository, gate *verifyaccount.LoginGate, opts ...Option) *LoginService {
	s := &LoginService{
		accounts: accounts,
		gate:     gate,
		hasher:   NewBcryptHasher(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login returns the account when it may log in with the given password.
// Accounts that are not open are refused with verifyaccount.ErrAwaitingVerification
// before the password is looked at.
func (s *LoginService) Login(ctx context.Context, login, password string) (verifyaccount.Account, error) {
	account, err := s.accounts.FindAccountByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, verifyaccount.ErrAccountNotFound) {
			return verifyaccount.Account{}, ErrInvalidCredentials
		}
		return verifyaccount.Account{}, idmerrors.InternalWrap(err, "find account")
	}

	if s.gate != nil {
		if decision := s.gate.CheckVerified(account); !decision.Allowed {
			slog.Info("Login refused for account awaiting verification", "account_id", account.ID)
			return verifyaccount.Account{}, decision.Err()
		}
	}

	hash, err := s.accounts.FindPasswordHash(ctx, account.ID)
	if err != nil {
		return verifyaccount.Account{}, idmerrors.InternalWrap(err, "find password hash")
	}

	ok, err := s.hasher.Verify(password, hash)
	if err != nil {
		return verifyaccount.Account{}, idmerrors.InternalWrap(err, "verify password")
	}
	if !ok {
		return verifyaccount.Account{}, ErrInvalidCredentials
	}
	return account, nil
}
