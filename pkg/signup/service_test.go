package signup

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-verify/pkg/login"
	"github.com/tendant/simple-verify/pkg/notification"
	"github.com/tendant/simple-verify/pkg/verifyaccount"
	"golang.org/x/crypto/bcrypt"
)

type testEnv struct {
	store   *verifyaccount.InMemoryStore
	mailer  *notification.MockMailer
	service *SignupService
}

func setup(t *testing.T, opts ...SignupServiceOption) *testEnv {
	t.Helper()
	store := verifyaccount.NewInMemoryStore()
	mailer := &notification.MockMailer{}
	verifyService := verifyaccount.NewVerificationService(store, mailer)

	all := append([]SignupServiceOption{
		WithVerificationService(verifyService),
		WithPasswordHasher(&login.BcryptHasher{Cost: bcrypt.MinCost}),
	}, opts...)
	return &testEnv{
		store:   store,
		mailer:  mailer,
		service: NewSignupService(store, all...),
	}
}

// failingKeyStore fails every key insert, inside transactions too.
type failingKeyStore struct {
	verifyaccount.Store
	err error
}

func (s *failingKeyStore) EnsureVerificationKey(ctx context.Context, accountID int64, candidate string) (string, error) {
	return "", s.err
}

func (s *failingKeyStore) InTx(ctx context.Context, fn func(tx verifyaccount.Store) error) error {
	return s.Store.InTx(ctx, func(tx verifyaccount.Store) error {
		return fn(&failingKeyStore{Store: tx, err: s.err})
	})
}

func requireSignupCode(t *testing.T, err error, code string) *SignupError {
	t.Helper()
	var signupErr *SignupError
	require.True(t, errors.As(err, &signupErr), "expected SignupError, got %v", err)
	assert.Equal(t, code, signupErr.Code)
	return signupErr
}

func TestRegisterAccount(t *testing.T) {
	ctx := context.Background()

	t.Run("CreatesUnverifiedAndSendsEmail", func(t *testing.T) {
		env := setup(t)
		result, err := env.service.RegisterAccount(ctx, RegisterRequest{Email: "alice@example.com", Password: "pw"})
		require.NoError(t, err)

		assert.Equal(t, "alice@example.com", result.Account.Login)
		assert.Equal(t, verifyaccount.StatusUnverified, result.Account.Status)
		assert.True(t, result.VerificationEmailSent)
		assert.Equal(t, 1, env.mailer.Count())
		assert.Len(t, env.store.VerificationRecords(), 1)
	})

	t.Run("OpenInitialStatusSkipsEmail", func(t *testing.T) {
		env := setup(t, WithInitialStatus(verifyaccount.StatusOpen))
		result, err := env.service.RegisterAccount(ctx, RegisterRequest{Email: "bob@example.com", Password: "pw"})
		require.NoError(t, err)

		assert.Equal(t, verifyaccount.StatusOpen, result.Account.Status)
		assert.False(t, result.VerificationEmailSent)
		assert.Zero(t, env.mailer.Count())
		assert.Empty(t, env.store.VerificationRecords())
	})

	t.Run("DeliveryFailureKeepsAccount", func(t *testing.T) {
		env := setup(t)
		env.mailer.Err = errors.New("relay down")

		result, err := env.service.RegisterAccount(ctx, RegisterRequest{Email: "carol@example.com", Password: "pw"})
		require.NoError(t, err)
		assert.False(t, result.VerificationEmailSent)
		assert.Len(t, env.store.VerificationRecords(), 1)
	})

	t.Run("KeyStoreFailureRollsBackAccount", func(t *testing.T) {
		store := verifyaccount.NewInMemoryStore()
		mailer := &notification.MockMailer{}
		hasher := WithPasswordHasher(&login.BcryptHasher{Cost: bcrypt.MinCost})
		broken := &failingKeyStore{Store: store, err: errors.New("db down")}
		service := NewSignupService(broken,
			WithVerificationService(verifyaccount.NewVerificationService(broken, mailer)),
			hasher,
		)

		result, err := service.RegisterAccount(ctx, RegisterRequest{Email: "dora@example.com", Password: "pw"})
		assert.Nil(t, result)
		signupErr := requireSignupCode(t, err, ErrCodePersistenceFailed)
		assert.Equal(t, 500, signupErr.HTTPStatus())

		_, err = store.FindAccountByLogin(ctx, "dora@example.com")
		assert.ErrorIs(t, err, verifyaccount.ErrAccountNotFound)
		assert.Empty(t, store.VerificationRecords())
		assert.Zero(t, mailer.Count())

		// the login is free again once the key store recovers
		healthy := NewSignupService(store,
			WithVerificationService(verifyaccount.NewVerificationService(store, mailer)),
			hasher,
		)
		result, err = healthy.RegisterAccount(ctx, RegisterRequest{Email: "dora@example.com", Password: "pw"})
		require.NoError(t, err)
		assert.True(t, result.VerificationEmailSent)
		assert.Len(t, store.VerificationRecords(), 1)
	})

	t.Run("DuplicateUnverifiedLogin", func(t *testing.T) {
		env := setup(t)
		_, err := env.service.RegisterAccount(ctx, RegisterRequest{Email: "dave@example.com", Password: "pw"})
		require.NoError(t, err)

		_, err = env.service.RegisterAccount(ctx, RegisterRequest{Email: "dave@example.com", Password: "pw"})
		signupErr := requireSignupCode(t, err, ErrCodeAwaitingVerification)
		assert.Equal(t, verifyaccount.UnverifiedCreateNoticeMessage, signupErr.Message)
		assert.Equal(t, 409, signupErr.HTTPStatus())
	})

	t.Run("DuplicateOpenLogin", func(t *testing.T) {
		env := setup(t, WithInitialStatus(verifyaccount.StatusOpen))
		_, err := env.service.RegisterAccount(ctx, RegisterRequest{Email: "erin@example.com", Password: "pw"})
		require.NoError(t, err)

		_, err = env.service.RegisterAccount(ctx, RegisterRequest{Email: "erin@example.com", Password: "pw"})
		requireSignupCode(t, err, ErrCodeLoginExists)
	})

	t.Run("Validation", func(t *testing.T) {
		env := setup(t)
		_, err := env.service.RegisterAccount(ctx, RegisterRequest{Email: "frank@example.com"})
		requireSignupCode(t, err, ErrCodeInvalidRequest)

		disabled := setup(t, WithRegistrationEnabled(false))
		_, err = disabled.service.RegisterAccount(ctx, RegisterRequest{Email: "frank@example.com", Password: "pw"})
		requireSignupCode(t, err, ErrCodeRegistrationDisabled)
	})
}

func TestCloseAccount(t *testing.T) {
	ctx := context.Background()

	t.Run("RemovesPendingKey", func(t *testing.T) {
		env := setup(t)
		result, err := env.service.RegisterAccount(ctx, RegisterRequest{Email: "gina@example.com", Password: "pw"})
		require.NoError(t, err)

		require.NoError(t, env.service.CloseAccount(ctx, result.Account.ID))

		account, err := env.store.FindAccountByID(ctx, result.Account.ID)
		require.NoError(t, err)
		assert.Equal(t, verifyaccount.StatusClosed, account.Status)
		assert.Empty(t, env.store.VerificationRecords())
	})

	t.Run("HookFailureRollsBack", func(t *testing.T) {
		env := setup(t, WithAfterCloseHook(func(ctx context.Context, tx verifyaccount.Store, id int64) error {
			return errors.New("downstream unavailable")
		}))
		result, err := env.service.RegisterAccount(ctx, RegisterRequest{Email: "hank@example.com", Password: "pw"})
		require.NoError(t, err)

		err = env.service.CloseAccount(ctx, result.Account.ID)
		requireSignupCode(t, err, ErrCodeInternalError)

		account, err := env.store.FindAccountByID(ctx, result.Account.ID)
		require.NoError(t, err)
		assert.Equal(t, verifyaccount.StatusUnverified, account.Status)
		assert.Len(t, env.store.VerificationRecords(), 1)
	})

	t.Run("UnknownAccount", func(t *testing.T) {
		env := setup(t)
		err := env.service.CloseAccount(ctx, 404)
		signupErr := requireSignupCode(t, err, ErrCodeAccountNotFound)
		assert.Equal(t, 404, signupErr.HTTPStatus())
	})
}
