package verifyaccount

import (
	"context"
	"errors"
	"text/template"
)

// VerificationService issues, resends and redeems account verification keys.
type VerificationService struct {
	store          Store
	mailer         Mailer
	generateKey    KeyGenerator
	afterVerify    []AfterVerifyHook
	baseURL        string
	prefix         string
	route          string
	keyParam       string
	subject        string
	bodyTemplate   *template.Template
	rotateOnResend bool
}

// VerificationServiceOption defines configuration options
type VerificationServiceOption func(*VerificationService)

// WithBaseURL sets the scheme and host used in verification links
func WithBaseURL(baseURL string) VerificationServiceOption {
	return func(s *VerificationService) {
		s.baseURL = baseURL
	}
}

// WithPrefix sets the path prefix the verify route is mounted under
func WithPrefix(prefix string) VerificationServiceOption {
	return func(s *VerificationService) {
		s.prefix = prefix
	}
}

// WithRoute sets the verify route name
func WithRoute(route string) VerificationServiceOption {
	return func(s *VerificationService) {
		if route != "" {
			s.route = route
		}
	}
}

// WithKeyParam sets the query/form parameter carrying the token
func WithKeyParam(param string) VerificationServiceOption {
	return func(s *VerificationService) {
		if param != "" {
			s.keyParam = param
		}
	}
}

// WithEmailSubject sets the verification email subject
func WithEmailSubject(subject string) VerificationServiceOption {
	return func(s *VerificationService) {
		if subject != "" {
			s.subject = subject
		}
	}
}

// WithBodyTemplate replaces the verification email body template.
// The template receives .Link and .Account.
func WithBodyTemplate(tmpl *template.Template) VerificationServiceOption {
	return func(s *VerificationService) {
		if tmpl != nil {
			s.bodyTemplate = tmpl
		}
	}
}

// WithKeyGenerator replaces the random key generator
func WithKeyGenerator(gen KeyGenerator) VerificationServiceOption {
	return func(s *VerificationService) {
		if gen != nil {
			s.generateKey = gen
		}
	}
}

// WithAfterVerifyHook registers a hook run inside the verification transaction
func WithAfterVerifyHook(hook AfterVerifyHook) VerificationServiceOption {
	return func(s *VerificationService) {
		if hook != nil {
			s.afterVerify = append(s.afterVerify, hook)
		}
	}
}

// WithRotateKeyOnResend makes every resend replace the stored key
func WithRotateKeyOnResend(rotate bool) VerificationServiceOption {
	return func(s *VerificationService) {
		s.rotateOnResend = rotate
	}
}

// NewVerificationService creates a new verification service
func NewVerificationService(store Store, mailer Mailer, opts ...VerificationServiceOption) *VerificationService {
	s := &VerificationService{
		store:        store,
		mailer:       mailer,
		generateKey:  GenerateKey,
		baseURL:      "http://localhost:4000",
		route:        "verify-account",
		keyParam:     "key",
		subject:      "Verify Account",
		bodyTemplate: defaultBodyTemplate,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// KeyParam returns the parameter name carrying the token.
func (s *VerificationService) KeyParam() string {
	return s.keyParam
}

// IssueOnAccountCreation creates (or reuses) the account's key and sends the
// verification email. It returns the token that was emailed. Accounts that were
// not created unverified are ignored. A delivery failure returns the token
// together with ErrDeliveryFailure; the stored key is kept.
func (s *VerificationService) IssueOnAccountCreation(ctx context.Context, account Account) (string, error) {
	key, err := s.EnsureKey(ctx, s.store, account)
	if err != nil || key == "" {
		return "", err
	}

	token := EncodeToken(account.ID, key)
	if err := s.SendVerificationEmail(ctx, account, key); err != nil {
		return token, err
	}
	return token, nil
}

// EnsureKey stores a key for an unverified account through store, which may be
// the transaction that created the account, and returns the stored key. It
// returns an empty key for accounts in any other status.
func (s *VerificationService) EnsureKey(ctx context.Context, store Store, account Account) (string, error) {
	if account.Status != StatusUnverified {
		return "", nil
	}

	candidate, err := s.generateKey()
	if err != nil {
		return "", persistenceError(err, "generate verification key")
	}

	key, err := store.EnsureVerificationKey(ctx, account.ID, candidate)
	if err != nil {
		return "", persistenceError(err, "create verification key")
	}
	return key, nil
}

// SendVerificationEmail mails the verification link for key. Call it after
// the key is committed.
func (s *VerificationService) SendVerificationEmail(ctx context.Context, account Account, key string) error {
	return s.sendVerifyAccountEmail(ctx, account, key)
}

// AccountFromKey resolves a token to the unverified account it belongs to
// without changing anything.
func (s *VerificationService) AccountFromKey(ctx context.Context, token string) (Account, error) {
	return s.accountFromKey(ctx, s.store, token)
}

func (s *VerificationService) accountFromKey(ctx context.Context, store Store, token string) (Account, error) {
	accountID, key, err := DecodeToken(token)
	if err != nil {
		return Account{}, ErrInvalidToken
	}

	stored, found, err := store.LookupVerificationKey(ctx, accountID)
	if err != nil {
		return Account{}, persistenceError(err, "lookup verification key")
	}
	if !found || !KeysMatch(key, stored) {
		return Account{}, ErrInvalidToken
	}

	account, err := store.FindAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return Account{}, ErrInvalidToken
		}
		return Account{}, persistenceError(err, "find account")
	}
	if account.Status != StatusUnverified {
		return Account{}, ErrInvalidToken
	}
	return account, nil
}

// Redeem verifies the account named by token. The key check, status change,
// key removal and after-verify hooks run in one transaction, so a key rotated
// or consumed concurrently no longer redeems.
func (s *VerificationService) Redeem(ctx context.Context, token string) (Account, error) {
	var account Account
	err := s.store.InTx(ctx, func(tx Store) error {
		var err error
		account, err = s.accountFromKey(ctx, tx, token)
		if err != nil {
			return err
		}

		ok, err := tx.TransitionAccountStatus(ctx, account.ID, StatusUnverified, StatusOpen)
		if err != nil {
			return persistenceError(err, "open account")
		}
		if !ok {
			return ErrInvalidToken
		}

		if err := tx.DeleteVerificationKey(ctx, account.ID); err != nil {
			return persistenceError(err, "remove verification key")
		}

		account.Status = StatusOpen
		for _, hook := range s.afterVerify {
			if err := hook(ctx, tx, account); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInvalidToken) || errors.Is(err, ErrPersistenceFailure) {
			return Account{}, err
		}
		return Account{}, persistenceError(err, "verify account")
	}

	return account, nil
}

// ResendRequest re-sends the verification email for the account with the
// given login. Unknown, open and closed accounts and accounts without a key
// are a silent no-op reported as sent == false.
func (s *VerificationService) ResendRequest(ctx context.Context, login string) (bool, error) {
	account, err := s.store.FindAccountByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return false, nil
		}
		return false, persistenceError(err, "find account by login")
	}
	if account.Status != StatusUnverified {
		return false, nil
	}

	key, found, err := s.resendKey(ctx, account.ID)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}

	if err := s.sendVerifyAccountEmail(ctx, account, key); err != nil {
		return false, err
	}
	return true, nil
}

func (s *VerificationService) resendKey(ctx context.Context, accountID int64) (string, bool, error) {
	if !s.rotateOnResend {
		key, found, err := s.store.LookupVerificationKey(ctx, accountID)
		if err != nil {
			return "", false, persistenceError(err, "lookup verification key")
		}
		return key, found, nil
	}

	key, err := s.generateKey()
	if err != nil {
		return "", false, persistenceError(err, "generate verification key")
	}
	replaced, err := s.store.ReplaceVerificationKey(ctx, accountID, key)
	if err != nil {
		return "", false, persistenceError(err, "rotate verification key")
	}
	return key, replaced, nil
}

// CleanupOnClose deletes any verification key of a closed account.
func (s *VerificationService) CleanupOnClose(ctx context.Context, accountID int64) error {
	if err := s.store.DeleteVerificationKey(ctx, accountID); err != nil {
		return persistenceError(err, "remove verification key")
	}
	return nil
}

// AfterCloseHook returns CleanupOnClose bound to the closure transaction.
func (s *VerificationService) AfterCloseHook() AfterCloseHook {
	return func(ctx context.Context, tx Store, accountID int64) error {
		if err := tx.DeleteVerificationKey(ctx, accountID); err != nil {
			return persistenceError(err, "remove verification key")
		}
		return nil
	}
}
